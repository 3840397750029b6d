package sim

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// Script is a keyframed device pose timeline.
//
// YAML schema (v1):
//
//	version: 1
//	duration: 12s
//	keyframes:
//	  - t: 0s
//	    angle_deg: 0
//	  - t: 3s
//	    angle_deg: 90
//	  - t: 6s
//	    flat: true
//
// Keyframes must use non-decreasing t values. Between keyframes the angle is
// interpolated along the shortest arc. A flat keyframe holds until the next
// keyframe; a flat device reports no usable angle and near-zero tilt.
type Script struct {
	Version   int           `yaml:"version"`
	Duration  time.Duration `yaml:"duration"`
	Keyframes []Keyframe    `yaml:"keyframes"`
}

type Keyframe struct {
	T        time.Duration `yaml:"t"`
	AngleDeg float64       `yaml:"angle_deg"`
	Flat     bool          `yaml:"flat"`
}

// Scenario is the validated runtime form of a Script.
type Scenario struct {
	script   Script
	duration time.Duration
}

// Pose is the device attitude at one instant.
type Pose struct {
	AngleDeg float64
	Flat     bool
}

func LoadScript(path string) (Script, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Script{}, err
	}
	return ParseScriptYAML(b)
}

func ParseScriptYAML(b []byte) (Script, error) {
	var s Script
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Script{}, err
	}
	return s, nil
}

func NewScenario(script Script) (*Scenario, error) {
	if script.Version == 0 {
		script.Version = 1
	}
	if script.Version != 1 {
		return nil, fmt.Errorf("unsupported scenario version %d", script.Version)
	}
	if len(script.Keyframes) == 0 {
		return nil, fmt.Errorf("keyframes is required")
	}
	for i, kf := range script.Keyframes {
		if kf.T < 0 {
			return nil, fmt.Errorf("keyframes[%d].t must be >= 0", i)
		}
		if i > 0 && kf.T < script.Keyframes[i-1].T {
			return nil, fmt.Errorf("keyframes must be sorted by t (index %d)", i)
		}
	}
	dur := script.Duration
	if dur <= 0 {
		dur = script.Keyframes[len(script.Keyframes)-1].T
	}
	if dur <= 0 {
		return nil, fmt.Errorf("duration is required (or deriveable from keyframes)")
	}
	return &Scenario{script: script, duration: dur}, nil
}

func (s *Scenario) Duration() time.Duration {
	if s == nil {
		return 0
	}
	return s.duration
}

// PoseAt computes the pose at elapsed, wrapping around Duration().
func (s *Scenario) PoseAt(elapsed time.Duration) Pose {
	if s == nil {
		return Pose{}
	}
	if elapsed < 0 {
		elapsed = 0
	}
	elapsed %= s.duration

	kfs := s.script.Keyframes
	idx := sort.Search(len(kfs), func(i int) bool { return kfs[i].T > elapsed })
	if idx <= 0 {
		return Pose{AngleDeg: norm360(kfs[0].AngleDeg), Flat: kfs[0].Flat}
	}
	k0 := kfs[idx-1]
	if idx >= len(kfs) || k0.Flat {
		return Pose{AngleDeg: norm360(k0.AngleDeg), Flat: k0.Flat}
	}
	k1 := kfs[idx]
	dt := k1.T - k0.T
	if dt <= 0 || k1.Flat {
		return Pose{AngleDeg: norm360(k0.AngleDeg)}
	}
	alpha := float64(elapsed-k0.T) / float64(dt)
	return Pose{AngleDeg: lerpAngleDeg(k0.AngleDeg, k1.AngleDeg, alpha)}
}

func norm360(x float64) float64 {
	for x < 0 {
		x += 360
	}
	for x >= 360 {
		x -= 360
	}
	return x
}

// lerpAngleDeg interpolates along the shortest arc across wraparound.
func lerpAngleDeg(a0, a1, t float64) float64 {
	a0 = norm360(a0)
	a1 = norm360(a1)
	delta := a1 - a0
	if delta > 180 {
		delta -= 360
	} else if delta < -180 {
		delta += 360
	}
	return norm360(a0 + delta*t)
}
