package sim

import (
	"context"
	"math"
	"testing"
	"time"

	"orientd/internal/classify"
	"orientd/internal/orientation"
	"orientd/internal/sensor"
)

func TestDevice_AngleAt(t *testing.T) {
	d := Device{Period: 40 * time.Second}
	base := time.Unix(0, 0)
	cases := map[time.Duration]float64{0: 0, 10 * time.Second: 90, 30 * time.Second: 270, 40 * time.Second: 0}
	for off, want := range cases {
		if got := d.AngleAt(base.Add(off)); math.Abs(got-want) > 1e-9 {
			t.Fatalf("AngleAt(+%s)=%v want %v", off, got, want)
		}
	}
}

// Every representation of the same pose must classify the same way.
func TestDevice_RepresentationsAgree(t *testing.T) {
	base := time.Unix(0, 0)
	poses := map[time.Duration]orientation.Orientation{
		0:                orientation.PortraitUp,
		10 * time.Second: orientation.LandscapeLeft,
		20 * time.Second: orientation.PortraitDown,
		30 * time.Second: orientation.LandscapeRight,
	}
	for _, kind := range []sensor.Kind{sensor.KindAngle, sensor.KindTilt, sensor.KindAccel, sensor.KindAccelMag} {
		d := Device{Period: 40 * time.Second, Kind: kind}
		mode := classify.ModeVector
		if kind == sensor.KindAngle {
			mode = classify.ModeAngle
		}
		for off, want := range poses {
			c := classify.New(mode, orientation.Android)
			c.Apply(d.SampleAt(base.Add(off)))
			got, ok := c.Current()
			if !ok || got != want {
				t.Fatalf("kind=%s +%s: got %v ok=%v want %v", kind, off, got, ok, want)
			}
		}
	}
}

func TestSource_StopsOnClose(t *testing.T) {
	src := &Source{Device: Device{Period: time.Second}, Interval: time.Millisecond}
	done := make(chan error, 1)
	n := 0
	go func() {
		done <- src.Start(context.Background(), func(sensor.Sample) {
			n++
			if n == 3 {
				_ = src.Close()
			}
		})
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start() error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("source did not stop")
	}
	if n < 3 {
		t.Fatalf("delivered %d samples", n)
	}
}

func TestDevice_FlatIsAmbiguous(t *testing.T) {
	scn, err := NewScenario(Script{Duration: time.Minute, Keyframes: []Keyframe{{T: 0, Flat: true}}})
	if err != nil {
		t.Fatalf("NewScenario: %v", err)
	}
	origin := time.Unix(100, 0)
	for _, kind := range []sensor.Kind{sensor.KindAngle, sensor.KindTilt, sensor.KindAccel, sensor.KindAccelMag} {
		d := Device{Kind: kind, Script: scn, Origin: origin}
		mode := classify.ModeVector
		if kind == sensor.KindAngle {
			mode = classify.ModeAngle
		}
		c := classify.New(mode, orientation.Android)
		if _, changed := c.Apply(d.SampleAt(origin.Add(time.Second))); changed {
			t.Fatalf("kind=%s: flat sample changed the orientation", kind)
		}
	}
}
