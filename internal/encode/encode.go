// Package encode turns orientation requests into platform lock constraints.
//
// All functions are pure. Every lossy case is an explicit table entry.
package encode

import (
	"fmt"

	"orientd/internal/orientation"
)

// LockConstraint is a platform orientation-lock directive.
type LockConstraint int

const (
	Unspecified LockConstraint = iota
	Portrait
	Landscape
	ReversePortrait
	ReverseLandscape
	UserPortrait
	UserLandscape
	User
	FullUser
)

var constraintNames = map[LockConstraint]string{
	Unspecified:      "unspecified",
	Portrait:         "portrait",
	Landscape:        "landscape",
	ReversePortrait:  "reversePortrait",
	ReverseLandscape: "reverseLandscape",
	UserPortrait:     "userPortrait",
	UserLandscape:    "userLandscape",
	User:             "user",
	FullUser:         "fullUser",
}

func (c LockConstraint) String() string {
	if s, ok := constraintNames[c]; ok {
		return s
	}
	return fmt.Sprintf("LockConstraint(%d)", int(c))
}

// MarshalText lets constraints appear by name in JSON.
func (c LockConstraint) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Native returns the Android ActivityInfo.SCREEN_ORIENTATION_* value.
func (c LockConstraint) Native() int {
	switch c {
	case Portrait:
		return 1
	case Landscape:
		return 0
	case ReversePortrait:
		return 9
	case ReverseLandscape:
		return 8
	case UserPortrait:
		return 12
	case UserLandscape:
		return 11
	case User:
		return 2
	case FullUser:
		return 13
	}
	return -1
}

// Mask is a set of orientations: bit0 portraitUp, bit1 landscapeLeft,
// bit2 portraitDown, bit3 landscapeRight.
type Mask uint8

const (
	MaskPortraitUp     Mask = 0x1
	MaskLandscapeLeft  Mask = 0x2
	MaskPortraitDown   Mask = 0x4
	MaskLandscapeRight Mask = 0x8
	MaskAll            Mask = 0xF
)

func maskBit(o orientation.Orientation) Mask {
	switch o {
	case orientation.PortraitUp:
		return MaskPortraitUp
	case orientation.LandscapeLeft:
		return MaskLandscapeLeft
	case orientation.PortraitDown:
		return MaskPortraitDown
	case orientation.LandscapeRight:
		return MaskLandscapeRight
	}
	return 0
}

func (m Mask) Has(o orientation.Orientation) bool {
	b := maskBit(o)
	return b != 0 && m&b == b
}

// MaskOf builds a mask from orientation names. Unrecognized names are
// dropped; duplicates and order have no effect.
func MaskOf(names []string) Mask {
	var m Mask
	for _, n := range names {
		if o, ok := orientation.Parse(n); ok {
			m |= maskBit(o)
		}
	}
	return m
}

// preferenceTable is total over all 16 masks. The seven mixed portrait and
// landscape combinations cannot be expressed as one constraint and widen to
// FullUser.
var preferenceTable = [16]LockConstraint{
	0x0: Unspecified,
	0x1: Portrait,
	0x2: Landscape,
	0x3: FullUser,
	0x4: ReversePortrait,
	0x5: UserPortrait,
	0x6: FullUser,
	0x7: FullUser,
	0x8: ReverseLandscape,
	0x9: FullUser,
	0xA: UserLandscape,
	0xB: User,
	0xC: FullUser,
	0xD: FullUser,
	0xE: FullUser,
	0xF: FullUser,
}

// ForMask maps a mask to its lock constraint.
func ForMask(m Mask) LockConstraint {
	return preferenceTable[m&MaskAll]
}

// Lossy reports whether m widens to a constraint that admits orientations
// outside m.
func Lossy(m Mask) bool {
	m &= MaskAll
	return m != MaskAll && ForMask(m) == FullUser
}

// Preferred encodes a set of allowed orientation names.
func Preferred(names []string) LockConstraint {
	return ForMask(MaskOf(names))
}

var forceTables = map[orientation.Platform]map[orientation.Orientation]LockConstraint{
	// The native landscape axis is mirrored relative to the event names.
	orientation.Android: {
		orientation.PortraitUp:     Portrait,
		orientation.PortraitDown:   ReversePortrait,
		orientation.LandscapeLeft:  ReverseLandscape,
		orientation.LandscapeRight: Landscape,
	},
	orientation.Apple: {
		orientation.PortraitUp:     Portrait,
		orientation.PortraitDown:   ReversePortrait,
		orientation.LandscapeLeft:  Landscape,
		orientation.LandscapeRight: ReverseLandscape,
	},
}

// Force maps a single orientation name to a lock constraint for platform p.
// Unrecognized or empty names clear the lock (Unspecified).
func Force(p orientation.Platform, name string) LockConstraint {
	o, ok := orientation.Parse(name)
	if !ok {
		return Unspecified
	}
	if c, ok := forceTables[p][o]; ok {
		return c
	}
	return Unspecified
}
