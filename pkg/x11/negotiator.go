//go:build linux && cgo

// Package x11 fetches the core keyboard's keymap from an X server through
// the XKB extension.
package x11

import (
	"errors"
	"fmt"

	"codeberg.org/miketth/keynames/pkg/xkb"
	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
	"go.uber.org/zap"
)

const xkbExtensionName = "XKEYBOARD"

var ErrNoXKB = errors.New("X server lacks the XKEYBOARD extension")

// CheckExtension asks an existing connection whether the server supports
// XKB at all.
func CheckExtension(conn *xgb.Conn) error {
	reply, err := xproto.QueryExtension(conn, uint16(len(xkbExtensionName)), xkbExtensionName).Reply()
	if err != nil {
		return fmt.Errorf("query extension: %w", err)
	}
	if !reply.Present {
		return ErrNoXKB
	}
	return nil
}

// Negotiate connects to display ($DISPLAY when empty), sets up XKB and
// returns the compiled keymap of the core keyboard. The connection is
// closed before returning.
func Negotiate(display string, log *zap.SugaredLogger) (*xkb.Keymap, error) {
	conn, err := xkb.ConnectX11(display)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	ext, err := conn.SetupExtension()
	if err != nil {
		return nil, err
	}
	log.Debugw("xkb extension ready",
		"major", ext.Major, "minor", ext.Minor,
		"base_event", ext.BaseEvent, "base_error", ext.BaseError)

	deviceID, err := conn.CoreKeyboardDeviceID()
	if err != nil {
		return nil, err
	}
	log.Debugw("found core keyboard", "device", deviceID)

	ctx, err := xkb.NewContext()
	if err != nil {
		return nil, err
	}
	defer ctx.Close()

	keymap, err := ctx.KeymapFromX11Device(conn, deviceID)
	if err != nil {
		return nil, fmt.Errorf("keymap for device: %w", err)
	}

	return keymap, nil
}
