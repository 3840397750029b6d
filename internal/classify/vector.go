package classify

import (
	"math"

	"orientd/internal/orientation"
)

const (
	// TiltThreshold is the magnitude at which pitch or roll commits to an
	// orientation: radians for pitch/roll input, g for raw accelerometer axes.
	TiltThreshold = 0.75
	// DriftThreshold is the magnitude below which an axis reads as zero.
	DriftThreshold = 0.05
)

// VectorState holds the last committed orientation. The zero value is the
// unknown state, so the first decisive reading always reports a change.
type VectorState struct {
	current orientation.Orientation
	known   bool
}

// Orientation returns the held orientation, ok=false while still unknown.
func (s VectorState) Orientation() (orientation.Orientation, bool) {
	return s.current, s.known
}

func suppressDrift(v float64) float64 {
	if math.Abs(v) < DriftThreshold {
		return 0
	}
	return v
}

// ClassifyTilt applies one (pitch, roll) reading to s.
//
// Roll is checked before pitch so a device tipped into landscape while also
// pitched resolves as landscape. Readings that cross no threshold (flat or
// ambiguous) keep s as is.
func ClassifyTilt(p orientation.Platform, s VectorState, pitch, roll float64) (next VectorState, changed bool) {
	pitch = suppressDrift(pitch)
	roll = suppressDrift(roll)

	var o orientation.Orientation
	switch {
	case roll >= TiltThreshold:
		o = p.PositiveRoll()
	case roll <= -TiltThreshold:
		o = p.NegativeRoll()
	case pitch <= -TiltThreshold:
		o = orientation.PortraitUp
	case pitch >= TiltThreshold:
		o = orientation.PortraitDown
	default:
		return s, false
	}
	if s.known && s.current == o {
		return s, false
	}
	return VectorState{current: o, known: true}, true
}

// ClassifyAccel applies a raw accelerometer reading in g. The x axis acts as
// roll and the y axis as pitch.
func ClassifyAccel(p orientation.Platform, s VectorState, x, y float64) (VectorState, bool) {
	return ClassifyTilt(p, s, y, x)
}
