//go:build linux && cgo

// Package xkb is a thin binding to libxkbcommon: it compiles keymaps from
// a text buffer, a compositor-provided fd or an X11 input device, and
// answers per-key queries against a state derived from them.
package xkb

/*
#cgo pkg-config: xkbcommon

#include <stdlib.h>
#include <xkbcommon/xkbcommon.h>
*/
import "C"

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

var (
	ErrContext     = errors.New("xkb_context_new failed")
	ErrCompile     = errors.New("keymap compilation failed")
	ErrState       = errors.New("xkb_state_new failed")
	ErrEmptyKeymap = errors.New("empty keymap")
)

type Context struct {
	ctx *C.struct_xkb_context
}

func NewContext() (*Context, error) {
	ctx := C.xkb_context_new(C.XKB_CONTEXT_NO_FLAGS)
	if ctx == nil {
		return nil, ErrContext
	}
	return &Context{ctx: ctx}, nil
}

// Close drops the caller's reference. Keymaps compiled from the context
// hold their own reference and stay usable.
func (c *Context) Close() {
	if c.ctx != nil {
		C.xkb_context_unref(c.ctx)
		c.ctx = nil
	}
}

// KeymapFromBuffer compiles a keymap in the XKB text v1 format. buf must
// not include a trailing NUL.
func (c *Context) KeymapFromBuffer(buf []byte) (*Keymap, error) {
	if len(buf) == 0 {
		return nil, ErrEmptyKeymap
	}
	keymap := C.xkb_keymap_new_from_buffer(c.ctx, (*C.char)(unsafe.Pointer(&buf[0])), C.size_t(len(buf)),
		C.XKB_KEYMAP_FORMAT_TEXT_V1, C.XKB_KEYMAP_COMPILE_NO_FLAGS)
	if keymap == nil {
		return nil, ErrCompile
	}
	return &Keymap{keymap: keymap}, nil
}

// KeymapFromFD maps size bytes of fd read-only and compiles them, leaving
// out the trailing NUL the compositor puts at the end of the region. fd is
// always closed. The mapping belongs to the returned Keymap and is
// released by Keymap.Close.
func (c *Context) KeymapFromFD(fd int, size uint32) (*Keymap, error) {
	defer unix.Close(fd)

	if size <= 1 {
		return nil, ErrEmptyKeymap
	}

	data, err := unix.Mmap(fd, 0, int(size), unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("mmap keymap: %w", err)
	}

	keymap, err := c.KeymapFromBuffer(data[:size-1])
	if err != nil {
		_ = unix.Munmap(data)
		return nil, err
	}
	keymap.release = func() error {
		return unix.Munmap(data)
	}

	return keymap, nil
}

type Keymap struct {
	keymap  *C.struct_xkb_keymap
	release func() error
}

// Layouts returns the group names compiled into the keymap, in group
// order. Unnamed groups are reported as empty strings.
func (k *Keymap) Layouts() []string {
	n := C.xkb_keymap_num_layouts(k.keymap)
	names := make([]string, 0, int(n))
	for i := C.xkb_layout_index_t(0); i < n; i++ {
		name := C.xkb_keymap_layout_get_name(k.keymap, i)
		if name == nil {
			names = append(names, "")
			continue
		}
		names = append(names, C.GoString(name))
	}
	return names
}

// NewState returns a fresh state with no modifiers or locks active.
func (k *Keymap) NewState() (*State, error) {
	state := C.xkb_state_new(k.keymap)
	if state == nil {
		return nil, ErrState
	}
	return &State{state: state}, nil
}

func (k *Keymap) Close() error {
	if k.keymap != nil {
		C.xkb_keymap_unref(k.keymap)
		k.keymap = nil
	}
	if k.release != nil {
		release := k.release
		k.release = nil
		if err := release(); err != nil {
			return fmt.Errorf("munmap keymap: %w", err)
		}
	}
	return nil
}

type State struct {
	state *C.struct_xkb_state
}

// OneSym returns the single keysym the key produces, or 0 (NoSymbol) when
// it produces none or more than one.
func (s *State) OneSym(keycode uint32) uint32 {
	return uint32(C.xkb_state_key_get_one_sym(s.state, C.xkb_keycode_t(keycode)))
}

// UTF8 returns the text the key would produce in the current state.
func (s *State) UTF8(keycode uint32) string {
	kc := C.xkb_keycode_t(keycode)

	size := C.xkb_state_key_get_utf8(s.state, kc, nil, 0)
	if size <= 0 {
		return ""
	}

	buf := make([]byte, int(size)+1)
	size = C.xkb_state_key_get_utf8(s.state, kc, (*C.char)(unsafe.Pointer(&buf[0])), C.size_t(len(buf)))
	if size <= 0 {
		return ""
	}
	return string(buf[:size])
}

func (s *State) Close() {
	if s.state != nil {
		C.xkb_state_unref(s.state)
		s.state = nil
	}
}

const keysymNameSize = 64

// KeysymName returns the long symbolic name of a keysym, such as "F5" or
// "Escape". Invalid keysyms yield an empty string.
func KeysymName(keysym uint32) string {
	var buf [keysymNameSize]C.char
	n := C.xkb_keysym_get_name(C.xkb_keysym_t(keysym), &buf[0], C.size_t(len(buf)))
	if n < 0 {
		return ""
	}
	if int(n) >= len(buf) {
		n = C.int(len(buf) - 1)
	}
	return C.GoStringN(&buf[0], n)
}
