package classify

import (
	"fmt"
	"strings"

	"orientd/internal/orientation"
	"orientd/internal/sensor"
)

// Mode selects the classification strategy.
type Mode int

const (
	ModeAngle Mode = iota
	ModeVector
)

func (m Mode) String() string {
	switch m {
	case ModeAngle:
		return "angle"
	case ModeVector:
		return "vector"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "angle":
		return ModeAngle, nil
	case "vector":
		return ModeVector, nil
	}
	return 0, fmt.Errorf("classify: unknown mode %q", s)
}

// DefaultMode is the strategy the platform's native sensors feed.
func DefaultMode(p orientation.Platform) Mode {
	if p == orientation.Apple {
		return ModeVector
	}
	return ModeAngle
}

// Classifier owns the state of one strategy for one subscription.
// It is not safe for concurrent use; sources deliver samples serially.
type Classifier struct {
	platform orientation.Platform
	mode     Mode

	angle  AngleState
	vector VectorState

	attitude    Attitude
	attitudeSet bool
}

func New(mode Mode, p orientation.Platform) *Classifier {
	return &Classifier{platform: p, mode: mode}
}

func (c *Classifier) Mode() Mode                     { return c.mode }
func (c *Classifier) Platform() orientation.Platform { return c.platform }

// Current returns the held orientation. The angle strategy always holds one;
// the vector strategy reports ok=false until its first decisive reading.
func (c *Classifier) Current() (orientation.Orientation, bool) {
	if c.mode == ModeAngle {
		return c.angle.Orientation(c.platform), true
	}
	return c.vector.Orientation()
}

// Attitude returns the last attitude derived from an accelerometer plus
// magnetometer sample.
func (c *Classifier) Attitude() (Attitude, bool) {
	return c.attitude, c.attitudeSet
}

// Apply feeds one sample and returns the new orientation when it changed.
// Samples the strategy cannot consume are ignored.
func (c *Classifier) Apply(s sensor.Sample) (orientation.Orientation, bool) {
	switch c.mode {
	case ModeAngle:
		if s.Kind != sensor.KindAngle {
			return 0, false
		}
		next, o, changed := ClassifyAngle(c.platform, c.angle, s.Angle)
		c.angle = next
		return o, changed
	case ModeVector:
		var changed bool
		switch s.Kind {
		case sensor.KindTilt:
			c.vector, changed = ClassifyTilt(c.platform, c.vector, s.Pitch, s.Roll)
		case sensor.KindAccel:
			c.vector, changed = ClassifyAccel(c.platform, c.vector, s.Accel[0], s.Accel[1])
		case sensor.KindAccelMag:
			// A degenerate rotation yields a zero attitude, which falls into
			// the ambiguous branch and keeps the state.
			att, ok := AttitudeFromAccelMag(s.Accel, s.Mag)
			c.attitude, c.attitudeSet = att, ok
			c.vector, changed = ClassifyTilt(c.platform, c.vector, att.Pitch, att.Roll)
		default:
			return 0, false
		}
		if !changed {
			return 0, false
		}
		o, _ := c.vector.Orientation()
		return o, true
	}
	return 0, false
}
