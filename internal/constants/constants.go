// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// Face template constants
const (
	// TemplateDim is the embedding dimension stored per enrolled face
	TemplateDim = 128

	// DefaultSimilarLimit is the default number of matches returned by a
	// template similarity lookup
	DefaultSimilarLimit = 5

	// DefaultDuplicateDistance is the default maximum cosine distance at which
	// a new face template counts as a duplicate of an existing enrollment
	DefaultDuplicateDistance = 0.25
)
