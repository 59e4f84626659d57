// Package keylayout resolves the desktop session's keyboard layout and
// names scancodes according to it.
package keylayout

import "errors"

// Construction failures. Each is terminal; callers decide whether to retry,
// for instance with an explicit backend. The underlying cause is wrapped
// next to the kind, so errors.Is works for both.
var (
	ErrWayland             = errors.New("get key layout from wayland compositor")
	ErrX11                 = errors.New("get key layout from x11 server")
	ErrSession             = errors.New("determine session type")
	ErrPlatformUnsupported = errors.New("platform not supported")
)
