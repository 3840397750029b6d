package encode

import "fmt"

// SystemUIFlags is the Android system UI visibility bit set applied to the
// host window's decor view.
type SystemUIFlags int

const (
	UIFlagHideNavigation       SystemUIFlags = 0x0002
	UIFlagFullscreen           SystemUIFlags = 0x0004
	UIFlagLayoutStable         SystemUIFlags = 0x0100
	UIFlagLayoutHideNavigation SystemUIFlags = 0x0200
	UIFlagLayoutFullscreen     SystemUIFlags = 0x0400
	UIFlagImmersive            SystemUIFlags = 0x0800
	UIFlagImmersiveSticky      SystemUIFlags = 0x1000

	// Immersive hides every overlay. It is the starting point for an
	// overlay request.
	Immersive = UIFlagHideNavigation | UIFlagFullscreen | UIFlagLayoutStable |
		UIFlagLayoutHideNavigation | UIFlagLayoutFullscreen | UIFlagImmersive | UIFlagImmersiveSticky
)

const (
	OverlayTop    = "SystemUiOverlay.top"
	OverlayBottom = "SystemUiOverlay.bottom"
)

// Overlays encodes the overlays to keep visible. The status bar (top) and
// the navigation bar (bottom) are re-shown by clearing their hide bit.
// Unknown names are ignored; an empty list is fully immersive.
func Overlays(names []string) SystemUIFlags {
	f := Immersive
	for _, n := range names {
		switch n {
		case OverlayTop:
			f &^= UIFlagFullscreen
		case OverlayBottom:
			f &^= UIFlagHideNavigation
		}
	}
	return f
}

func (f SystemUIFlags) TopVisible() bool    { return f&UIFlagFullscreen == 0 }
func (f SystemUIFlags) BottomVisible() bool { return f&UIFlagHideNavigation == 0 }

func (f SystemUIFlags) String() string { return fmt.Sprintf("0x%04X", int(f)) }
