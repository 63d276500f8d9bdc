// Package match turns raw per-frame recognizer output into stable identity
// decisions. It holds the distance-to-quality mapping and the temporal
// stabilizer shared between the session loop and the web handlers.
package match

import "math"

// DefaultThreshold is substituted when a caller passes a non-positive or
// non-finite decision threshold to Quality.
const DefaultThreshold = 100.0

// Quality maps a recognizer distance (lower is better) into a 0-100 display
// value, calibrated to the decision threshold:
//   - distance 0         => 100
//   - distance threshold => 50
//
// The decay is exponential: 100 * exp(-ln2 * distance/threshold). Negative or
// non-finite distances are treated as worst case and return 0.
func Quality(distance, threshold float64) float64 {
	if threshold <= 0 || math.IsNaN(threshold) || math.IsInf(threshold, 0) {
		threshold = DefaultThreshold
	}
	if distance < 0 || math.IsNaN(distance) || math.IsInf(distance, 0) {
		return 0
	}

	quality := 100.0 * math.Exp(-math.Ln2*(distance/threshold))
	if quality < 0 {
		return 0
	}
	if quality > 100 {
		return 100
	}
	return quality
}
