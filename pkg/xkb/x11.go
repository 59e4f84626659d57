//go:build linux && cgo

package xkb

/*
#cgo pkg-config: xkbcommon-x11 xcb

#include <stdlib.h>
#include <xcb/xcb.h>
#include <xkbcommon/xkbcommon-x11.h>
*/
import "C"

import (
	"errors"
	"fmt"
	"unsafe"
)

var (
	ErrX11Connect   = errors.New("connect to X server")
	ErrX11Extension = errors.New("set up XKB extension")
	ErrX11Device    = errors.New("no core keyboard device")
)

// X11Conn is an xcb connection, the handle xkbcommon-x11 needs to query
// the server's keyboard description.
type X11Conn struct {
	conn *C.xcb_connection_t
}

// X11Extension is what the server agreed to when the XKB extension was
// set up.
type X11Extension struct {
	Major     uint16
	Minor     uint16
	BaseEvent uint8
	BaseError uint8
}

// ConnectX11 connects to display, or to $DISPLAY when display is empty.
func ConnectX11(display string) (*X11Conn, error) {
	var name *C.char
	if display != "" {
		name = C.CString(display)
		defer C.free(unsafe.Pointer(name))
	}

	conn := C.xcb_connect(name, nil)
	if code := C.xcb_connection_has_error(conn); code != 0 {
		C.xcb_disconnect(conn)
		return nil, fmt.Errorf("%w: xcb error %d", ErrX11Connect, int(code))
	}

	return &X11Conn{conn: conn}, nil
}

// SetupExtension negotiates at least the minimum XKB version xkbcommon-x11
// supports.
func (x *X11Conn) SetupExtension() (X11Extension, error) {
	var (
		major, minor         C.uint16_t
		baseEvent, baseError C.uint8_t
	)

	ok := C.xkb_x11_setup_xkb_extension(x.conn,
		C.XKB_X11_MIN_MAJOR_XKB_VERSION, C.XKB_X11_MIN_MINOR_XKB_VERSION,
		C.XKB_X11_SETUP_XKB_EXTENSION_NO_FLAGS,
		&major, &minor, &baseEvent, &baseError)
	if ok == 0 {
		return X11Extension{}, fmt.Errorf("%w: server offers %d.%d", ErrX11Extension, int(major), int(minor))
	}

	return X11Extension{
		Major:     uint16(major),
		Minor:     uint16(minor),
		BaseEvent: uint8(baseEvent),
		BaseError: uint8(baseError),
	}, nil
}

func (x *X11Conn) CoreKeyboardDeviceID() (int32, error) {
	id := C.xkb_x11_get_core_keyboard_device_id(x.conn)
	if id == -1 {
		return 0, ErrX11Device
	}
	return int32(id), nil
}

func (x *X11Conn) Close() {
	if x.conn != nil {
		C.xcb_disconnect(x.conn)
		x.conn = nil
	}
}

// KeymapFromX11Device asks the server for the keymap of deviceID. The
// result does not depend on conn once returned.
func (c *Context) KeymapFromX11Device(conn *X11Conn, deviceID int32) (*Keymap, error) {
	keymap := C.xkb_x11_keymap_new_from_device(c.ctx, conn.conn, C.int32_t(deviceID), C.XKB_KEYMAP_COMPILE_NO_FLAGS)
	if keymap == nil {
		return nil, fmt.Errorf("%w: device %d", ErrCompile, deviceID)
	}
	return &Keymap{keymap: keymap}, nil
}
