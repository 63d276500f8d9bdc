// Package recognize connects the attendance system to a face recognizer:
// a service that owns the camera and the trained model, and streams one
// verdict list per processed frame. The session controller consumes these
// verdicts; it never touches pixels itself.
package recognize

import "image"

// UnknownLabel marks a face that the model could not assign to any
// enrolled identity.
const UnknownLabel = -1

// Face is one detected face within a frame.
type Face struct {
	// Label is the predicted identity label, UnknownLabel if none.
	Label int
	// Distance is the raw model distance for the prediction. Lower is
	// closer; the scale depends on the trained model.
	Distance float64
	// Region is the face bounding box in frame coordinates.
	Region image.Rectangle
}

// Observation holds the verdicts for one processed frame. A frame without a
// detectable face still produces an observation, with no faces, so that
// consumers can track idle time.
type Observation struct {
	Faces []Face
}
