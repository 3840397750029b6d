// Package classify reduces raw motion samples to discrete orientations.
//
// Both classifiers are pure functions over a small state value: the caller
// holds the state and replaces it with the returned one. A change is reported
// only when the resulting orientation differs from the one previously held.
package classify

import (
	"math"

	"orientd/internal/orientation"
)

// AngleState is the hysteresis state of the angle classifier. The zero value
// is quadrant 0 (PortraitUp), the rest state.
type AngleState struct {
	quadrant int
}

// NewAngleState starts in the quadrant that holds o under platform p.
func NewAngleState(p orientation.Platform, o orientation.Orientation) AngleState {
	for q := 0; q < 4; q++ {
		if quadrantOrientation(p, q) == o {
			return AngleState{quadrant: q}
		}
	}
	return AngleState{}
}

// Orientation returns the orientation held by s under platform p.
func (s AngleState) Orientation(p orientation.Platform) orientation.Orientation {
	return quadrantOrientation(p, s.quadrant)
}

// Quadrants run clockwise in 90 degree steps from the rest pose. Quadrant 1
// is the reverse landscape pose, named after the negative roll side of the
// platform convention.
func quadrantOrientation(p orientation.Platform, q int) orientation.Orientation {
	switch q {
	case 1:
		return p.NegativeRoll()
	case 2:
		return orientation.PortraitDown
	case 3:
		return p.PositiveRoll()
	}
	return orientation.PortraitUp
}

// stable reports whether angle lies within the dead zone of quadrant q.
// Each window is 120 degrees wide and overlaps its neighbours by 30 degrees.
func stable(q int, angle float64) bool {
	switch q {
	case 0:
		return angle >= 300 || angle <= 60
	case 1:
		return angle >= 30 && angle <= 150
	case 2:
		return angle >= 120 && angle <= 240
	case 3:
		return angle >= 210 && angle <= 330
	}
	return false
}

// ClassifyAngle applies one angle reading in degrees to s.
//
// Negative, NaN and infinite angles (the sensor could not tell) keep the
// current state. Angles of 360 or more are reduced modulo 360.
func ClassifyAngle(p orientation.Platform, s AngleState, angle float64) (next AngleState, o orientation.Orientation, changed bool) {
	if angle < 0 || math.IsNaN(angle) || math.IsInf(angle, 0) {
		return s, s.Orientation(p), false
	}
	angle = math.Mod(angle, 360)
	if stable(s.quadrant, angle) {
		return s, s.Orientation(p), false
	}
	q := int(math.Mod(angle+45, 360)) / 90
	if q > 3 {
		q = 3
	}
	next = AngleState{quadrant: q}
	return next, next.Orientation(p), q != s.quadrant
}
