//go:build windows

package keylayout

import (
	"unicode/utf16"
	"unsafe"

	"go.uber.org/zap"
	"golang.org/x/sys/windows"
)

var (
	user32              = windows.NewLazySystemDLL("user32.dll")
	procMapVirtualKeyW  = user32.NewProc("MapVirtualKeyW")
	procGetKeyNameTextW = user32.NewProc("GetKeyNameTextW")
)

const (
	mapvkVKToChar  = 2
	mapvkVSCToVKEx = 3

	keyNameSize = 32
)

// KeyLayout asks Windows for the active input locale on every lookup.
type KeyLayout struct {
	log *zap.SugaredLogger
}

func New(opts ...Option) (*KeyLayout, error) {
	cfg := newConfig(opts)
	return &KeyLayout{log: cfg.log}, nil
}

func NewFromWindow(_ any, opts ...Option) (*KeyLayout, error) {
	return New(opts...)
}

func NewWayland(...Option) (*KeyLayout, error) {
	return nil, ErrPlatformUnsupported
}

func NewX11(...Option) (*KeyLayout, error) {
	return nil, ErrPlatformUnsupported
}

// GetKeyAsString names a set-1 scancode. Keys with a visible character
// yield that character; the rest fall back to the key name Windows
// reports. Extended keys carry 0xE0 in the second byte.
func (k *KeyLayout) GetKeyAsString(scancode uint32) string {
	// both calls return 0 on failure
	vk, _, _ := procMapVirtualKeyW.Call(uintptr(scancode), mapvkVSCToVKEx)
	char, _, _ := procMapVirtualKeyW.Call(vk, mapvkVKToChar)

	if char != 0 {
		text := string(utf16.Decode([]uint16{uint16(char)}))
		if out, ok := printable(text); ok {
			return out
		}
	}

	lParam := scancode << 16
	if scancode&0xFF00 == 0xE000 {
		lParam |= 1 << 24
	}

	var buf [keyNameSize]uint16
	n, _, _ := procGetKeyNameTextW.Call(uintptr(lParam), uintptr(unsafe.Pointer(&buf[0])), keyNameSize)
	if n == 0 {
		k.log.Debugw("no key name", "scancode", scancode)
		return ""
	}
	return windows.UTF16ToString(buf[:n])
}

// Layouts is not reported on Windows.
func (k *KeyLayout) Layouts() []string {
	return nil
}

func (k *KeyLayout) Close() error {
	return nil
}
