package sensor

import (
	"fmt"
	"time"
)

type Kind int

const (
	// KindAngle carries a rotation angle in degrees, [0,360).
	// A negative angle means the sensor could not determine one (device flat).
	KindAngle Kind = iota
	// KindTilt carries pitch and roll in radians.
	KindTilt
	// KindAccel carries a raw accelerometer vector in g.
	KindAccel
	// KindAccelMag carries an accelerometer vector plus a magnetometer vector (µT).
	KindAccelMag
)

// AngleUnknown is what angle sources report while the device lies flat.
const AngleUnknown = -1.0

func (k Kind) String() string {
	switch k {
	case KindAngle:
		return "angle"
	case KindTilt:
		return "tilt"
	case KindAccel:
		return "accel"
	case KindAccelMag:
		return "accelmag"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func ParseKind(s string) (Kind, error) {
	switch s {
	case "angle":
		return KindAngle, nil
	case "tilt":
		return KindTilt, nil
	case "accel":
		return KindAccel, nil
	case "accelmag":
		return KindAccelMag, nil
	}
	return 0, fmt.Errorf("sensor: unknown sample kind %q", s)
}

// Sample is one raw reading. Only the fields matching Kind are meaningful.
type Sample struct {
	Kind Kind
	At   time.Time

	Angle float64

	Pitch float64
	Roll  float64

	Accel [3]float64
	Mag   [3]float64
}

func AngleSample(deg float64) Sample { return Sample{Kind: KindAngle, Angle: deg} }

func TiltSample(pitch, roll float64) Sample { return Sample{Kind: KindTilt, Pitch: pitch, Roll: roll} }

func AccelSample(x, y, z float64) Sample {
	return Sample{Kind: KindAccel, Accel: [3]float64{x, y, z}}
}

func AccelMagSample(accel, mag [3]float64) Sample {
	return Sample{Kind: KindAccelMag, Accel: accel, Mag: mag}
}

// Values returns the numeric payload in the order used by the line format.
func (s Sample) Values() []float64 {
	switch s.Kind {
	case KindAngle:
		return []float64{s.Angle}
	case KindTilt:
		return []float64{s.Pitch, s.Roll}
	case KindAccel:
		return []float64{s.Accel[0], s.Accel[1], s.Accel[2]}
	case KindAccelMag:
		return []float64{s.Accel[0], s.Accel[1], s.Accel[2], s.Mag[0], s.Mag[1], s.Mag[2]}
	}
	return nil
}

// FromValues is the inverse of Values.
func FromValues(k Kind, v []float64) (Sample, error) {
	want := map[Kind]int{KindAngle: 1, KindTilt: 2, KindAccel: 3, KindAccelMag: 6}[k]
	if want == 0 {
		return Sample{}, fmt.Errorf("sensor: unknown sample kind %d", int(k))
	}
	if len(v) != want {
		return Sample{}, fmt.Errorf("sensor: %s sample wants %d values, got %d", k, want, len(v))
	}
	switch k {
	case KindAngle:
		return AngleSample(v[0]), nil
	case KindTilt:
		return TiltSample(v[0], v[1]), nil
	case KindAccel:
		return AccelSample(v[0], v[1], v[2]), nil
	default:
		return AccelMagSample([3]float64{v[0], v[1], v[2]}, [3]float64{v[3], v[4], v[5]}), nil
	}
}
