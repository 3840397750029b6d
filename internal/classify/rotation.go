package classify

import "math"

// Attitude is a device attitude in radians.
type Attitude struct {
	Azimuth float64
	Pitch   float64
	Roll    float64
}

// AttitudeFromAccelMag derives the device attitude from an accelerometer and a
// magnetometer vector, both in device coordinates.
//
// The device frame is rotated into the world frame (east, north, up) using
// gravity and the geomagnetic field, then azimuth, pitch and roll are read
// off the rotation matrix. ok is false when the field is too weak or nearly
// parallel to gravity (free fall, magnet nearby); the attitude is then zero.
func AttitudeFromAccelMag(accel, mag [3]float64) (att Attitude, ok bool) {
	ax, ay, az := accel[0], accel[1], accel[2]
	ex, ey, ez := mag[0], mag[1], mag[2]

	// H = E x A points east.
	hx := ey*az - ez*ay
	hy := ez*ax - ex*az
	hz := ex*ay - ey*ax
	normH := math.Sqrt(hx*hx + hy*hy + hz*hz)
	if normH < 0.1 {
		return Attitude{}, false
	}
	normA := math.Sqrt(ax*ax + ay*ay + az*az)
	if normA == 0 {
		return Attitude{}, false
	}
	hx, hy, hz = hx/normH, hy/normH, hz/normH
	ax, ay, az = ax/normA, ay/normA, az/normA

	// M = A x H points north.
	my := az*hx - ax*hz

	return Attitude{
		Azimuth: math.Atan2(hy, my),
		Pitch:   math.Asin(clampUnit(-ay)),
		Roll:    math.Atan2(-ax, az),
	}, true
}

func clampUnit(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
