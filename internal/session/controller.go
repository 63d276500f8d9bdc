package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/faceattend/faceattend/internal/config"
	"github.com/faceattend/faceattend/internal/database"
	"github.com/faceattend/faceattend/internal/match"
	"github.com/faceattend/faceattend/internal/recognize"
)

// Preflight failures. The manager reports these before a session is
// created, so they surface as plain errors rather than aborted sessions.
var (
	ErrConsentRequired = errors.New("operator consent not recorded: accept the privacy notice in settings, then retry")
	ErrNoEnrolledUsers = errors.New("no identities enrolled: enroll a user, train the recognizer, then retry")
)

// Status lines shown to the kiosk operator. The web UI and the CLI render
// them as-is.
const (
	statusCameraOnline  = "Camera online. Watching for enrolled faces."
	statusCameraLost    = "Camera feed unavailable. Exiting..."
	statusStoreLost     = "Attendance store unavailable. Exiting..."
	statusStopped       = "Capture stopped by user input."
	statusUnknownFace   = "Unknown face — enroll first or adjust lighting."
	statusIdleHint      = "No log yet — adjust pose or step closer to the camera."
	statusClosingCamera = "Attendance logged. Closing camera..."
	statusFinishedSaved = "Camera session finished — log saved."
	statusFinished      = "Camera session finished."
)

// Announcer is notified once per successful attendance insert. Failures are
// logged and never fail the session; implementations should not block the
// capture loop for longer than a frame interval.
type Announcer interface {
	Announce(ctx context.Context, userID int, name string, loggedAt time.Time) error
}

// Params bundles the policy knobs of one capture session.
type Params struct {
	Threshold       float64
	StableFrames    int
	StableWindow    int
	SessionSeconds  int
	IdleHintSeconds int
	StopOnSuccess   bool
	ConsentAccepted bool
	Policy          database.LogPolicy
}

// ParamsFromSettings derives session parameters from kiosk settings.
func ParamsFromSettings(s config.Settings) Params {
	return Params{
		Threshold:       s.MatchThreshold,
		StableFrames:    s.StableFrames,
		StableWindow:    s.StableWindow,
		SessionSeconds:  s.SessionSeconds,
		IdleHintSeconds: s.IdleHintSeconds,
		StopOnSuccess:   s.StopOnSuccess,
		ConsentAccepted: s.ConsentAccepted,
		Policy: database.LogPolicy{
			MinMinutesBetween: s.DuplicateWindowMinutes,
			OnePerDay:         s.OnePerDay,
		},
	}
}

// Controller wires the collaborators a capture session needs: the
// attendance store, the recognizer source opener, and optionally an
// announcer for successful logs.
type Controller struct {
	store     database.Store
	opener    recognize.Opener
	announcer Announcer
}

// NewController creates a session controller.
func NewController(store database.Store, opener recognize.Opener) *Controller {
	return &Controller{store: store, opener: opener}
}

// SetAnnouncer wires an optional announcer notified on every successful
// attendance insert.
func (c *Controller) SetAnnouncer(announcer Announcer) {
	c.announcer = announcer
}

// Preflight verifies the prerequisites of a capture run: recorded operator
// consent, at least one enrolled identity, and a recognizer with a trained
// model when the opener can report that.
func (c *Controller) Preflight(ctx context.Context, params Params) error {
	if !params.ConsentAccepted {
		return ErrConsentRequired
	}
	users, err := c.store.UserMap(ctx)
	if err != nil {
		return fmt.Errorf("load enrolled users: %w", err)
	}
	if len(users) == 0 {
		return ErrNoEnrolledUsers
	}
	if r, ok := c.opener.(recognize.Readier); ok {
		if err := r.Ready(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Run executes the capture loop until the session duration elapses, a log
// succeeds with stop-on-success set, the operator stops the session, or the
// frame source fails. It is the only writer of the session's fields and
// always leaves the session in a terminal state.
//
// Cancelling ctx stops the loop between frames. An attendance insert that
// has already started runs to completion regardless.
func (c *Controller) Run(ctx context.Context, sess *Session, params Params) {
	sess.setRunning()

	users, err := c.store.UserMap(ctx)
	if err != nil {
		sess.setStatus(statusStoreLost)
		sess.setStatus(statusFinished)
		sess.finish(StateAborted, fmt.Errorf("load enrolled users: %w", err))
		return
	}

	src, err := c.opener.Open(ctx, sess.Source)
	if err != nil {
		sess.setStatus(statusCameraLost)
		sess.setStatus(statusFinished)
		sess.finish(StateAborted, err)
		return
	}
	defer src.Close()

	stab := match.NewStabilizer(params.StableWindow, params.StableFrames, func(label int) bool {
		_, ok := users[label]
		return ok
	})

	start := time.Now()
	deadline := start.Add(time.Duration(params.SessionSeconds) * time.Second)
	lastActivity := start
	hinted := false
	logged := false
	aborted := false
	var runErr error

	sess.setStatus(statusCameraOnline)

loop:
	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			sess.setStatus(statusStopped)
			break
		}

		obs, err := src.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				sess.setStatus(statusStopped)
				break
			}
			sess.setStatus(statusCameraLost)
			aborted = true
			if !errors.Is(err, recognize.ErrFeedEnded) {
				runErr = err
			}
			break
		}

		for _, face := range obs.Faces {
			stab.Observe(face.Label, face.Distance)
			label, distance := stab.Decide(face.Label, face.Distance)
			name, known := users[label]

			switch {
			case distance <= params.Threshold && known:
				now := time.Now()
				result, err := c.store.LogAttendance(ctx, label, name, now, params.Policy)
				if err != nil {
					slog.Error("attendance log failed", "user_id", label, "name", name, "error", err)
					sess.setStatus(statusStoreLost)
					aborted = true
					runErr = fmt.Errorf("log attendance: %w", err)
					break loop
				}
				if result.Logged {
					sess.addLog(LogEntry{UserID: label, Name: name, Time: result.TimeOfDay})
					sess.setStatus(fmt.Sprintf("Logged %s @ %s", name, result.TimeOfDay))
					c.announce(ctx, label, name, now)
					lastActivity = now
					hinted = false
					logged = true
					if params.StopOnSuccess {
						sess.setStatus(statusClosingCamera)
						break loop
					}
				} else {
					sess.setStatus(fmt.Sprintf("%s already logged today.", name))
				}
			case known:
				quality := match.Quality(distance, params.Threshold)
				sess.setStatus(fmt.Sprintf("%s detected (match %.0f%%). Need clearer view to log.", name, quality))
			default:
				sess.setStatus(statusUnknownFace)
			}
		}

		if params.IdleHintSeconds > 0 && !logged && !hinted &&
			time.Since(lastActivity) > time.Duration(params.IdleHintSeconds)*time.Second {
			sess.setStatus(statusIdleHint)
			hinted = true
		}
	}

	if logged {
		sess.setStatus(statusFinishedSaved)
	} else {
		sess.setStatus(statusFinished)
	}
	if aborted {
		sess.finish(StateAborted, runErr)
	} else {
		sess.finish(StateCompleted, nil)
	}
}

func (c *Controller) announce(ctx context.Context, userID int, name string, loggedAt time.Time) {
	if c.announcer == nil {
		return
	}
	if err := c.announcer.Announce(ctx, userID, name, loggedAt); err != nil {
		slog.Warn("attendance announcement failed", "user_id", userID, "error", err)
	}
}
