package encode

import "orientd/internal/orientation"

// InterfaceMask is the UIInterfaceOrientationMask bit set.
type InterfaceMask uint

const (
	InterfacePortrait           InterfaceMask = 1 << 1
	InterfacePortraitUpsideDown InterfaceMask = 1 << 2
	InterfaceLandscapeRight     InterfaceMask = 1 << 3
	InterfaceLandscapeLeft      InterfaceMask = 1 << 4
	InterfaceAll                InterfaceMask = InterfacePortrait | InterfacePortraitUpsideDown | InterfaceLandscapeRight | InterfaceLandscapeLeft
)

// PreferredInterfaceMask encodes allowed orientations for the Apple window
// orientation notification. Unlike the constraint table every combination is
// representable. An empty request allows everything; a request with only
// unrecognized names allows nothing, which the host ignores.
func PreferredInterfaceMask(names []string) InterfaceMask {
	if len(names) == 0 {
		return InterfaceAll
	}
	var m InterfaceMask
	for _, n := range names {
		o, ok := orientation.Parse(n)
		if !ok {
			continue
		}
		switch o {
		case orientation.PortraitUp:
			m |= InterfacePortrait
		case orientation.PortraitDown:
			m |= InterfacePortraitUpsideDown
		case orientation.LandscapeLeft:
			m |= InterfaceLandscapeLeft
		case orientation.LandscapeRight:
			m |= InterfaceLandscapeRight
		}
	}
	return m
}
