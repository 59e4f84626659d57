//go:build linux

// Package wayland fetches the active keymap from a Wayland compositor by
// walking registry -> wl_seat -> wl_keyboard, one blocking round-trip per
// step.
package wayland

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rajveermalviya/go-wayland/wayland/client"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

var (
	ErrNoSeat           = errors.New("compositor advertises no wl_seat")
	ErrNoKeyboard       = errors.New("seat has no keyboard capability")
	ErrNoKeymap         = errors.New("compositor sent no keymap")
	ErrUnexpectedFormat = errors.New("unexpected keymap format")
	ErrNoRuntimeDir     = errors.New("XDG_RUNTIME_DIR is not set")
)

const (
	displayEnv     = "WAYLAND_DISPLAY"
	runtimeDirEnv  = "XDG_RUNTIME_DIR"
	defaultDisplay = "wayland-0"

	seatInterface = "wl_seat"

	// highest wl_seat version whose requests and events are handled here
	maxSeatVersion = 5
	// wl_keyboard.release exists since version 3, wl_seat.release since 5
	keyboardReleaseSince = 3
	seatReleaseSince     = 5
)

// Keymap is the raw keymap announced by the compositor: a shared-memory
// fd holding Size bytes of XKB text, NUL terminated. Whoever receives it
// owns Fd.
type Keymap struct {
	Fd   int
	Size uint32
}

// Close releases the fd without mapping it.
func (k Keymap) Close() error {
	return unix.Close(k.Fd)
}

type global struct {
	name    uint32
	iface   string
	version uint32
}

// Connect opens the compositor named by name, or the one in
// $WAYLAND_DISPLAY when name is empty. Relative names are looked up in
// $XDG_RUNTIME_DIR.
func Connect(name string) (*client.Display, error) {
	path, err := SocketPath(name)
	if err != nil {
		return nil, err
	}

	display, err := client.Connect(path)
	if err != nil {
		return nil, fmt.Errorf("connect to compositor: %w", err)
	}
	return display, nil
}

// SocketPath resolves a display name to its socket the way libwayland
// does: empty means $WAYLAND_DISPLAY, then "wayland-0"; absolute paths are
// kept.
func SocketPath(name string) (string, error) {
	if name == "" {
		name = os.Getenv(displayEnv)
	}
	if name == "" {
		name = defaultDisplay
	}
	if filepath.IsAbs(name) {
		return name, nil
	}

	dir := os.Getenv(runtimeDirEnv)
	if dir == "" {
		return "", fmt.Errorf("%w: cannot find %s", ErrNoRuntimeDir, name)
	}
	return filepath.Join(dir, name), nil
}

// Negotiate connects, fetches the keymap and disconnects again.
func Negotiate(name string, log *zap.SugaredLogger) (Keymap, error) {
	display, err := Connect(name)
	if err != nil {
		return Keymap{}, err
	}
	defer func() {
		if err := display.Context().Close(); err != nil {
			log.Debugw("close compositor connection", "error", err)
		}
	}()

	return NewNegotiator(display, log).Negotiate()
}

type Negotiator struct {
	display *client.Display
	log     *zap.SugaredLogger
}

// NewNegotiator runs the handshake over an existing display connection.
// The connection is left open; only the objects created during the
// handshake are released.
func NewNegotiator(display *client.Display, log *zap.SugaredLogger) *Negotiator {
	return &Negotiator{
		display: display,
		log:     log,
	}
}

func (n *Negotiator) Negotiate() (Keymap, error) {
	registry, globals, err := n.listGlobals()
	if err != nil {
		return Keymap{}, err
	}
	defer func() {
		if err := registry.Destroy(); err != nil {
			n.log.Debugw("destroy registry", "error", err)
		}
	}()

	seatGlobal, ok := findGlobal(globals, seatInterface)
	if !ok {
		return Keymap{}, ErrNoSeat
	}

	seat, version, err := n.bindSeat(registry, seatGlobal)
	if err != nil {
		return Keymap{}, err
	}
	defer func() {
		if version < seatReleaseSince {
			return
		}
		if err := seat.Release(); err != nil {
			n.log.Debugw("release seat", "error", err)
		}
	}()

	keyboard, err := seat.GetKeyboard()
	if err != nil {
		return Keymap{}, fmt.Errorf("get keyboard: %w", err)
	}
	defer func() {
		if version < keyboardReleaseSince {
			return
		}
		if err := keyboard.Release(); err != nil {
			n.log.Debugw("release keyboard", "error", err)
		}
	}()

	return n.receiveKeymap(keyboard)
}

func (n *Negotiator) listGlobals() (*client.Registry, []global, error) {
	registry, err := n.display.GetRegistry()
	if err != nil {
		return nil, nil, fmt.Errorf("get registry: %w", err)
	}

	var globals []global
	registry.SetGlobalHandler(func(e client.RegistryGlobalEvent) {
		globals = append(globals, global{name: e.Name, iface: e.Interface, version: e.Version})
	})

	if err := n.roundTrip(); err != nil {
		_ = registry.Destroy()
		return nil, nil, fmt.Errorf("registry round-trip: %w", err)
	}

	n.log.Debugw("received globals", "count", len(globals))
	return registry, globals, nil
}

func (n *Negotiator) bindSeat(registry *client.Registry, g global) (*client.Seat, uint32, error) {
	version := min(g.version, maxSeatVersion)

	seat := client.NewSeat(n.display.Context())

	var capabilities uint32
	seat.SetCapabilitiesHandler(func(e client.SeatCapabilitiesEvent) {
		capabilities = e.Capabilities
	})

	if err := registry.Bind(g.name, g.iface, version, seat); err != nil {
		return nil, 0, fmt.Errorf("bind seat: %w", err)
	}

	if err := n.roundTrip(); err != nil {
		return nil, 0, fmt.Errorf("seat round-trip: %w", err)
	}

	n.log.Debugw("bound seat", "name", g.name, "version", version, "capabilities", capabilities)

	if capabilities&uint32(client.SeatCapabilityKeyboard) == 0 {
		if version >= seatReleaseSince {
			_ = seat.Release()
		}
		return nil, 0, ErrNoKeyboard
	}

	return seat, version, nil
}

func (n *Negotiator) receiveKeymap(keyboard *client.Keyboard) (Keymap, error) {
	var (
		received bool
		format   uint32
		keymap   Keymap
	)
	keyboard.SetKeymapHandler(func(e client.KeyboardKeymapEvent) {
		if received {
			// a later keymap replaces an earlier one
			_ = keymap.Close()
		}
		received = true
		format = e.Format
		keymap = Keymap{Fd: e.Fd, Size: e.Size}
	})

	if err := n.roundTrip(); err != nil {
		if received {
			_ = keymap.Close()
		}
		return Keymap{}, fmt.Errorf("keyboard round-trip: %w", err)
	}

	if !received {
		return Keymap{}, ErrNoKeymap
	}

	if err := checkFormat(format); err != nil {
		_ = keymap.Close()
		return Keymap{}, err
	}

	n.log.Debugw("received keymap", "size", keymap.Size)
	return keymap, nil
}

// roundTrip blocks until the compositor has processed every request sent
// so far, dispatching the events it produced along the way.
func (n *Negotiator) roundTrip() error {
	callback, err := n.display.Sync()
	if err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	defer func() {
		if err := callback.Destroy(); err != nil {
			n.log.Debugw("destroy sync callback", "error", err)
		}
	}()

	done := false
	callback.SetDoneHandler(func(client.CallbackDoneEvent) {
		done = true
	})

	for !done {
		if err := n.display.Context().Dispatch(); err != nil {
			return fmt.Errorf("dispatch: %w", err)
		}
	}

	return nil
}

func findGlobal(globals []global, iface string) (global, bool) {
	for _, g := range globals {
		if g.iface == iface {
			return g, true
		}
	}
	return global{}, false
}

func checkFormat(format uint32) error {
	switch format {
	case uint32(client.KeyboardKeymapFormatXkbV1):
		return nil
	case uint32(client.KeyboardKeymapFormatNoKeymap):
		return ErrNoKeymap
	default:
		return fmt.Errorf("%w: %d", ErrUnexpectedFormat, format)
	}
}
