package recognize

import (
	"context"
	"errors"
)

// ErrCameraUnavailable is returned when a source cannot be opened because
// the camera or feed behind it is not available.
var ErrCameraUnavailable = errors.New("camera feed unavailable")

// ErrFeedEnded is returned by Next when the feed has terminated normally:
// the camera was unplugged, the recognizer shut the stream down, or a
// replay script ran out of frames.
var ErrFeedEnded = errors.New("camera feed ended")

// ErrModelNotReady is returned by Ready when the recognizer has no trained
// model to match against.
var ErrModelNotReady = errors.New("recognizer model not trained: enroll a user, train the recognizer, then retry")

// Source streams recognizer observations for one capture run.
type Source interface {
	// Next blocks until the next observation is available. It returns
	// ErrFeedEnded when the feed terminates, or the context error if ctx
	// ends first.
	Next(ctx context.Context) (Observation, error)
	// Close releases the feed. Safe to call after Next returned an error.
	Close() error
}

// Opener opens observation sources. The HTTP client opens live camera
// streams on the recognizer service; the replay opener serves scripted
// observations for tests and demos.
type Opener interface {
	Open(ctx context.Context, source string) (Source, error)
}

// Readier is implemented by openers that can tell whether the recognizer
// holds a trained model before a stream is opened. Openers without it are
// assumed ready.
type Readier interface {
	Ready(ctx context.Context) error
}
