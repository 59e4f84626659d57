// Package keycodes converts between evdev key codes and their kernel names.
package keycodes

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	evdev "github.com/holoplot/go-evdev"
)

var ErrUnknownCode = errors.New("unknown key code")

// Parse accepts a decimal or 0x-prefixed code, or a name such as "KEY_A".
// The "KEY_" prefix may be omitted and case is ignored for names.
func Parse(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrUnknownCode)
	}

	if n, err := strconv.ParseUint(s, 0, 16); err == nil {
		return uint32(n), nil
	}

	name := strings.ToUpper(s)
	if !strings.HasPrefix(name, "KEY_") && !strings.HasPrefix(name, "BTN_") {
		name = "KEY_" + name
	}
	code, ok := evdev.KEYFromString[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCode, s)
	}
	return uint32(code), nil
}

// Name returns the kernel name of code, or its decimal form when it has none.
func Name(code uint32) string {
	if name, ok := evdev.KEYToString[evdev.EvCode(code)]; ok {
		return name
	}
	return strconv.FormatUint(uint64(code), 10)
}

// Keys lists every code named KEY_*, ascending. Buttons are left out.
func Keys() []uint32 {
	codes := make([]uint32, 0, len(evdev.KEYToString))
	for code, name := range evdev.KEYToString {
		if !strings.HasPrefix(name, "KEY_") {
			continue
		}
		codes = append(codes, uint32(code))
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}
