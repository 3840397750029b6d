// Package sim produces deterministic sensor samples for a device turning in
// the plane of its screen, either spinning steadily or following a script.
package sim

import (
	"context"
	"math"
	"sync"
	"time"

	"orientd/internal/sensor"
)

const gravity = 9.81

// Device describes the simulated rotation.
type Device struct {
	// Period is one full turn.
	Period time.Duration
	// Kind selects the sample representation produced.
	Kind sensor.Kind
	// Script, when set, replaces the steady spin. Its clock starts at Origin.
	Script *Scenario
	Origin time.Time
}

// PoseAt returns the pose at now.
func (d Device) PoseAt(now time.Time) Pose {
	if d.Script != nil {
		return d.Script.PoseAt(now.Sub(d.Origin))
	}
	return Pose{AngleDeg: d.AngleAt(now)}
}

// AngleAt returns the rotation angle in degrees [0,360) at now.
func (d Device) AngleAt(now time.Time) float64 {
	period := d.Period
	if period <= 0 {
		period = 20 * time.Second
	}
	phase := float64(now.UnixNano()%period.Nanoseconds()) / float64(period.Nanoseconds())
	if phase < 0 {
		phase += 1
	}
	return math.Mod(360*phase, 360)
}

// SampleAt renders the device pose at now as a sample of d.Kind.
//
// At 0 degrees the device is upright; at 90 degrees its right edge points at
// the ground. Vector representations follow the Android sensor axes
// (x right, y up, z out of the screen).
func (d Device) SampleAt(now time.Time) sensor.Sample {
	pose := d.PoseAt(now)
	if pose.Flat {
		s := flatSample(d.Kind)
		s.At = now
		return s
	}
	w := pose.AngleDeg * math.Pi / 180
	var s sensor.Sample
	switch d.Kind {
	case sensor.KindTilt:
		s = sensor.TiltSample(-math.Cos(w)*math.Pi/2, -math.Sin(w)*math.Pi/2)
	case sensor.KindAccel:
		s = sensor.AccelSample(-math.Sin(w), -math.Cos(w), 0.05)
	case sensor.KindAccelMag:
		accel := [3]float64{gravity * math.Sin(w), gravity * math.Cos(w), 0.5}
		s = sensor.AccelMagSample(accel, [3]float64{0, 20, -40})
	default:
		s = sensor.AngleSample(pose.AngleDeg)
	}
	s.At = now
	return s
}

// flatSample is a device lying face up on a table.
func flatSample(k sensor.Kind) sensor.Sample {
	switch k {
	case sensor.KindTilt:
		return sensor.TiltSample(0.01, -0.02)
	case sensor.KindAccel:
		return sensor.AccelSample(0.01, 0.02, -1)
	case sensor.KindAccelMag:
		return sensor.AccelMagSample([3]float64{0.1, 0.1, gravity}, [3]float64{0, 20, -40})
	}
	return sensor.AngleSample(sensor.AngleUnknown)
}

// Source emits SampleAt on every tick.
type Source struct {
	Device   Device
	Interval time.Duration
	Now      func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
}

func (s *Source) Start(ctx context.Context, onSample func(sensor.Sample)) error {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	interval := s.Interval
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	now := s.Now
	if now == nil {
		now = time.Now
	}
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
			onSample(s.Device.SampleAt(now()))
		}
	}
}

func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}
