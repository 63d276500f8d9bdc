package match

// labelRing is a fixed-capacity FIFO of recognizer labels. Once full, a push
// evicts the oldest entry.
type labelRing struct {
	slots []int
	next  int // next write position
	size  int
}

func newLabelRing(capacity int) *labelRing {
	return &labelRing{slots: make([]int, capacity)}
}

func (r *labelRing) push(label int) {
	r.slots[r.next] = label
	r.next = (r.next + 1) % len(r.slots)
	if r.size < len(r.slots) {
		r.size++
	}
}

// newestFirst visits the ring contents from the most recent push backwards.
func (r *labelRing) newestFirst(visit func(label int)) {
	for i := 1; i <= r.size; i++ {
		idx := (r.next - i + len(r.slots)) % len(r.slots)
		visit(r.slots[idx])
	}
}

// distanceRing is a fixed-capacity FIFO of distances for a single label.
type distanceRing struct {
	slots []float64
	next  int
	size  int
}

func newDistanceRing(capacity int) *distanceRing {
	return &distanceRing{slots: make([]float64, capacity)}
}

func (r *distanceRing) push(d float64) {
	r.slots[r.next] = d
	r.next = (r.next + 1) % len(r.slots)
	if r.size < len(r.slots) {
		r.size++
	}
}

func (r *distanceRing) mean() (float64, bool) {
	if r.size == 0 {
		return 0, false
	}
	var sum float64
	for i := 0; i < r.size; i++ {
		sum += r.slots[i]
	}
	return sum / float64(r.size), true
}

// Stabilizer smooths per-frame recognizer jitter by requiring a label to
// repeat at least quorum times within a sliding window before it is trusted.
// The effective distance for a trusted label is the mean of that label's
// recent distances only, so unrelated faces crossing the frame do not dilute
// the score.
//
// A Stabilizer is intended for a single session loop and is not safe for
// concurrent use.
type Stabilizer struct {
	window    int
	quorum    int
	known     func(label int) bool
	labels    *labelRing
	distances map[int]*distanceRing
}

// NewStabilizer creates a stabilizer with the given window capacity and
// quorum. A window below 1 is treated as 1. The known predicate decides which
// labels participate in stabilization; labels it rejects are never pushed.
func NewStabilizer(window, quorum int, known func(label int) bool) *Stabilizer {
	if window < 1 {
		window = 1
	}
	if known == nil {
		known = func(int) bool { return true }
	}
	return &Stabilizer{
		window:    window,
		quorum:    quorum,
		known:     known,
		labels:    newLabelRing(window),
		distances: make(map[int]*distanceRing),
	}
}

// Observe records one frame's raw recognizer result. Unknown labels are
// dropped so that they cannot pollute the quorum history; the caller still
// reports them as the frame's raw result.
func (s *Stabilizer) Observe(label int, distance float64) {
	if !s.known(label) {
		return
	}
	s.labels.push(label)
	ring, ok := s.distances[label]
	if !ok {
		ring = newDistanceRing(s.window)
		s.distances[label] = ring
	}
	ring.push(distance)
}

// Decide returns the effective (label, distance) pair for the current frame.
// When quorum is disabled (quorum <= 1) or fewer than quorum observations
// have been recorded, the raw frame result passes through unchanged. When a
// label reaches quorum, the winner and the mean of its distance ring are
// returned instead.
//
// Tie-break: if two labels hold the same maximal frequency in the window,
// the one observed most recently wins. The rule is deterministic and covered
// by TestStabilizerTieBreak.
func (s *Stabilizer) Decide(rawLabel int, rawDistance float64) (int, float64) {
	if s.quorum <= 1 || s.labels.size < s.quorum {
		return rawLabel, rawDistance
	}

	counts := make(map[int]int, s.labels.size)
	s.labels.newestFirst(func(label int) {
		counts[label]++
	})

	best := 0
	for _, c := range counts {
		if c > best {
			best = c
		}
	}
	if best < s.quorum {
		return rawLabel, rawDistance
	}

	// First max-frequency label in newest-to-oldest scan order.
	candidate, found := 0, false
	s.labels.newestFirst(func(label int) {
		if !found && counts[label] == best {
			candidate = label
			found = true
		}
	})
	if !found {
		return rawLabel, rawDistance
	}

	ring, ok := s.distances[candidate]
	if !ok {
		return rawLabel, rawDistance
	}
	mean, ok := ring.mean()
	if !ok {
		return rawLabel, rawDistance
	}
	return candidate, mean
}

// Observations reports how many labels currently sit in the window. Useful
// for warm-up status lines.
func (s *Stabilizer) Observations() int {
	return s.labels.size
}
