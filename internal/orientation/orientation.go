// Package orientation defines the canonical, platform-independent display
// orientations and the per-platform axis conventions used to translate them.
package orientation

import (
	"fmt"
	"strings"
)

type Orientation int

const (
	PortraitUp Orientation = iota
	PortraitDown
	LandscapeLeft
	LandscapeRight
)

// All lists the four orientations in a stable order.
var All = [4]Orientation{PortraitUp, PortraitDown, LandscapeLeft, LandscapeRight}

// namePrefix is the application-side enum prefix accepted on requests.
const namePrefix = "DeviceOrientation."

func (o Orientation) Valid() bool {
	return o >= PortraitUp && o <= LandscapeRight
}

// String returns the event-surface name.
func (o Orientation) String() string {
	switch o {
	case PortraitUp:
		return "portraitUp"
	case PortraitDown:
		return "portraitDown"
	case LandscapeLeft:
		return "landscapeLeft"
	case LandscapeRight:
		return "landscapeRight"
	}
	return fmt.Sprintf("Orientation(%d)", int(o))
}

// Parse accepts "portraitUp" or "DeviceOrientation.portraitUp".
func Parse(name string) (Orientation, bool) {
	name = strings.TrimPrefix(strings.TrimSpace(name), namePrefix)
	switch name {
	case "portraitUp":
		return PortraitUp, true
	case "portraitDown":
		return PortraitDown, true
	case "landscapeLeft":
		return LandscapeLeft, true
	case "landscapeRight":
		return LandscapeRight, true
	}
	return 0, false
}

// Platform selects the native axis convention.
type Platform int

const (
	Android Platform = iota
	Apple
)

func (p Platform) String() string {
	switch p {
	case Android:
		return "android"
	case Apple:
		return "apple"
	}
	return fmt.Sprintf("Platform(%d)", int(p))
}

func ParsePlatform(s string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "android":
		return Android, nil
	case "apple", "ios":
		return Apple, nil
	}
	return 0, fmt.Errorf("orientation: unknown platform %q", s)
}

// PositiveRoll is the landscape orientation reported when the device rolls
// past the positive threshold. The two platforms name the same physical
// pose differently.
func (p Platform) PositiveRoll() Orientation {
	if p == Apple {
		return LandscapeLeft
	}
	return LandscapeRight
}

// NegativeRoll is the mirror of PositiveRoll.
func (p Platform) NegativeRoll() Orientation {
	if p == Apple {
		return LandscapeRight
	}
	return LandscapeLeft
}
