package database

import "time"

// LogPolicy controls duplicate suppression for LogAttendance. Both rules are
// evaluated against the single most recent prior event for the identity:
// only the latest event matters for "already logged today" and "too soon
// since last log".
type LogPolicy struct {
	// MinMinutesBetween suppresses a log when fewer than this many minutes
	// have passed since the prior event. Zero disables the rule.
	MinMinutesBetween int
	// OnePerDay suppresses a second log on the same calendar date,
	// regardless of the minutes rule.
	OnePerDay bool
}

// LogResult is the outcome of a LogAttendance call. Logged=false means the
// attempt was suppressed by policy, which is an expected outcome rather
// than a failure.
type LogResult struct {
	Logged    bool   `json:"logged"`
	TimeOfDay string `json:"time"` // TimeLayout, the would-be or actual log time
}

// ShouldLog applies the suppression rules to the most recent prior event.
// It reports whether a new event may be inserted, and whether the prior
// timestamp was unparsable. A corrupt prior timestamp fails open: a broken
// historical row must never lock a user out of logging attendance, so the
// minutes rule is skipped (the caller should log a warning).
func ShouldLog(prior *AttendanceEvent, now time.Time, policy LogPolicy) (allow, corrupt bool) {
	if prior == nil {
		return true, false
	}

	if policy.OnePerDay && prior.Date == now.Format(DateLayout) {
		return false, false
	}

	if policy.MinMinutesBetween > 0 {
		priorAt, ok := prior.When()
		if !ok {
			return true, true
		}
		if now.Sub(priorAt).Minutes() < float64(policy.MinMinutesBetween) {
			return false, false
		}
	}

	return true, false
}

// NewEvent builds the row for an accepted log at the given instant. Formats
// are centralized here so every backend writes identical text.
func NewEvent(userID int, name string, now time.Time) AttendanceEvent {
	return AttendanceEvent{
		UserID: userID,
		Name:   name,
		TS:     now.Format(TimestampLayout),
		Date:   now.Format(DateLayout),
		Time:   now.Format(TimeLayout),
	}
}
