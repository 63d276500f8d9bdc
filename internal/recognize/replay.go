package recognize

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// Replay serves a fixed list of observations, one per Next call, then
// reports ErrFeedEnded. With a non-zero interval it paces frames like a
// live camera would. Used by tests and by `session --replay`.
type Replay struct {
	observations []Observation
	interval     time.Duration
	pos          int
}

// NewReplay builds a replay source over the given observations.
func NewReplay(observations []Observation, interval time.Duration) *Replay {
	return &Replay{observations: observations, interval: interval}
}

// Next returns the next scripted observation.
func (r *Replay) Next(ctx context.Context) (Observation, error) {
	if r.pos >= len(r.observations) {
		return Observation{}, ErrFeedEnded
	}

	if r.interval > 0 {
		timer := time.NewTimer(r.interval)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return Observation{}, ctx.Err()
		}
	}

	obs := r.observations[r.pos]
	r.pos++
	return obs, nil
}

// Close is a no-op.
func (r *Replay) Close() error { return nil }

// LoadScript reads a replay script: one JSON observation per line, blank
// lines and #-comments skipped.
func LoadScript(path string) ([]Observation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open replay script: %w", err)
	}
	defer f.Close()

	var observations []Observation
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		var wire observationJSON
		if err := json.Unmarshal([]byte(text), &wire); err != nil {
			return nil, fmt.Errorf("could not parse replay script line %d: %w", line, err)
		}
		observations = append(observations, wire.observation())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("could not read replay script: %w", err)
	}
	return observations, nil
}

// ScriptOpener opens a fresh Replay per capture run, so repeated sessions
// replay the script from the start.
type ScriptOpener struct {
	Observations []Observation
	Interval     time.Duration
}

// Open implements Opener. The source argument is ignored; a script has only
// one feed.
func (o *ScriptOpener) Open(ctx context.Context, source string) (Source, error) {
	return NewReplay(o.Observations, o.Interval), nil
}
