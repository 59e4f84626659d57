//go:build linux && cgo

package keylayout

import (
	"fmt"

	"codeberg.org/miketth/keynames/pkg/session"
	"codeberg.org/miketth/keynames/pkg/wayland"
	"codeberg.org/miketth/keynames/pkg/x11"
	"codeberg.org/miketth/keynames/pkg/xkb"
	"github.com/jezek/xgb"
	"github.com/rajveermalviya/go-wayland/wayland/client"
	"go.uber.org/zap"
)

// KeyLayout holds the keymap captured at construction. Lookups never
// renegotiate, so layout switches made later are not seen. Not safe for
// concurrent use.
type KeyLayout struct {
	keymap *xkb.Keymap
	log    *zap.SugaredLogger
}

// New picks the backend from the session type in $XDG_SESSION_TYPE.
func New(opts ...Option) (*KeyLayout, error) {
	cfg := newConfig(opts)

	typ, err := cfg.detector().Detect()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSession, err)
	}
	cfg.log.Debugw("detected session", "type", typ)

	switch typ {
	case session.Wayland:
		return newWayland(cfg, nil)
	case session.X11:
		if !cfg.x11Autodetect {
			return nil, fmt.Errorf("%w: x11 autodetection is disabled", ErrSession)
		}
		return newX11(cfg)
	}

	return nil, fmt.Errorf("%w: %s", ErrSession, typ)
}

// NewFromWindow uses the protocol family of a connection the caller
// already holds. An *xgb.Conn selects X11: it is only asked whether the
// server has XKEYBOARD, the keymap itself comes over a separate connection
// to WithX11Display or $DISPLAY. A go-wayland *client.Display is used for
// the handshake directly and left open. Anything else falls back to a
// fresh Wayland connection.
func NewFromWindow(conn any, opts ...Option) (*KeyLayout, error) {
	cfg := newConfig(opts)

	switch c := conn.(type) {
	case *xgb.Conn:
		if err := x11.CheckExtension(c); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrX11, err)
		}
		return newX11(cfg)
	case *client.Display:
		return newWayland(cfg, c)
	default:
		return newWayland(cfg, nil)
	}
}

func NewWayland(opts ...Option) (*KeyLayout, error) {
	return newWayland(newConfig(opts), nil)
}

func NewX11(opts ...Option) (*KeyLayout, error) {
	return newX11(newConfig(opts))
}

func newWayland(cfg *config, display *client.Display) (*KeyLayout, error) {
	var (
		raw wayland.Keymap
		err error
	)
	if display != nil {
		raw, err = wayland.NewNegotiator(display, cfg.log).Negotiate()
	} else {
		raw, err = wayland.Negotiate(cfg.waylandDisplay, cfg.log)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWayland, err)
	}

	ctx, err := xkb.NewContext()
	if err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("%w: %w", ErrWayland, err)
	}
	defer ctx.Close()

	keymap, err := ctx.KeymapFromFD(raw.Fd, raw.Size)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWayland, err)
	}

	return newKeyLayout(keymap, cfg.log), nil
}

func newX11(cfg *config) (*KeyLayout, error) {
	keymap, err := x11.Negotiate(cfg.x11Display, cfg.log)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrX11, err)
	}
	return newKeyLayout(keymap, cfg.log), nil
}

func newKeyLayout(keymap *xkb.Keymap, log *zap.SugaredLogger) *KeyLayout {
	k := &KeyLayout{
		keymap: keymap,
		log:    log,
	}
	log.Debugw("compiled keymap", "layouts", keymap.Layouts())
	return k
}

// GetKeyAsString names an evdev scancode. It never fails; an empty string
// means the layout has nothing to show for the key.
func (k *KeyLayout) GetKeyAsString(scancode uint32) string {
	state, err := k.keymap.NewState()
	if err != nil {
		k.log.Warnw("create keymap state", "error", err)
		return ""
	}
	defer state.Close()

	return translate(state, xkb.KeysymName, scancode)
}

// Layouts lists the layout names in the captured keymap, e.g.
// "English (US)".
func (k *KeyLayout) Layouts() []string {
	return k.keymap.Layouts()
}

// Close releases the keymap and, for Wayland, the compositor's mapped
// keymap region.
func (k *KeyLayout) Close() error {
	return k.keymap.Close()
}
