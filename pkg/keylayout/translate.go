package keylayout

import (
	"strings"
	"unicode"
)

// Keymap keycodes start 8 above evdev scancodes.
const evdevOffset = 8

// keyState is a per-call view of the compiled keymap.
type keyState interface {
	OneSym(keycode uint32) uint32
	UTF8(keycode uint32) string
}

// translate renders scancode as the text the key types, upper-cased with
// ASCII rules, or as its keysym name when that text is blank.
func translate(state keyState, symName func(uint32) string, scancode uint32) string {
	keycode := scancode + evdevOffset

	sym := state.OneSym(keycode)

	text, ok := printable(state.UTF8(keycode))
	if !ok {
		return symName(sym)
	}
	return asciiUpper(text)
}

// printable drops control characters from s and reports whether anything
// other than whitespace is left.
func printable(s string) (string, bool) {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	return s, strings.TrimSpace(s) != ""
}

func asciiUpper(s string) string {
	return strings.Map(func(r rune) rune {
		if 'a' <= r && r <= 'z' {
			return r - ('a' - 'A')
		}
		return r
	}, s)
}
