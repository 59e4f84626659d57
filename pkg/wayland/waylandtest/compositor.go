//go:build linux

// Package waylandtest runs a minimal in-process compositor that speaks just
// enough of the core protocol to hand out a keymap: wl_display,
// wl_registry, wl_seat and wl_keyboard.
package waylandtest

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"path/filepath"
	"sync"
	"testing"

	"golang.org/x/sys/unix"
)

const (
	displayID = 1

	// wl_seat.capabilities bits
	CapabilityPointer  = 1
	CapabilityKeyboard = 2

	// wl_keyboard.keymap_format
	FormatNoKeymap = 0
	FormatXkbV1    = 1
)

var order = binary.NativeEndian

var requestNames = map[string][]string{
	"wl_display":  {"sync", "get_registry"},
	"wl_registry": {"bind"},
	"wl_seat":     {"get_pointer", "get_keyboard", "get_touch", "release"},
	"wl_keyboard": {"release"},
}

// Config describes what the compositor advertises.
type Config struct {
	// NoSeat leaves wl_seat out of the registry.
	NoSeat bool
	// SeatVersion defaults to 7.
	SeatVersion  uint32
	Capabilities uint32
	// SendKeymap controls whether wl_keyboard.keymap is sent at all.
	SendKeymap bool
	Format     uint32
	// Keymap is sent as is, so text keymaps need their trailing NUL.
	Keymap []byte
}

type Compositor struct {
	// Path is the absolute socket path clients connect to.
	Path string

	cfg Config

	mu       sync.Mutex
	requests []string
	conns    []net.Conn
}

// Start listens on a fresh socket in a temporary directory. Everything is
// torn down when the test ends.
func Start(t *testing.T, cfg Config) *Compositor {
	t.Helper()

	if cfg.SeatVersion == 0 {
		cfg.SeatVersion = 7
	}

	c := &Compositor{
		Path: filepath.Join(t.TempDir(), "wayland-test"),
		cfg:  cfg,
	}

	ln, err := net.ListenUnix("unix", &net.UnixAddr{Name: c.Path, Net: "unix"})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	t.Cleanup(func() {
		ln.Close()
		c.mu.Lock()
		defer c.mu.Unlock()
		for _, conn := range c.conns {
			conn.Close()
		}
	})

	go func() {
		for {
			conn, err := ln.AcceptUnix()
			if err != nil {
				return
			}
			c.mu.Lock()
			c.conns = append(c.conns, conn)
			c.mu.Unlock()
			go c.serve(conn)
		}
	}()

	return c
}

// Requests lists the requests received so far as "interface.request".
func (c *Compositor) Requests() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.requests...)
}

func (c *Compositor) record(iface string, opcode uint16) {
	name := fmt.Sprintf("%s.%d", iface, opcode)
	if names, ok := requestNames[iface]; ok && int(opcode) < len(names) {
		name = iface + "." + names[opcode]
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, name)
}

func (c *Compositor) serve(conn *net.UnixConn) {
	defer conn.Close()

	objects := map[uint32]string{displayID: "wl_display"}
	var serial uint32

	header := make([]byte, 8)
	for {
		if _, err := io.ReadFull(conn, header); err != nil {
			return
		}
		sender := order.Uint32(header[0:])
		word := order.Uint32(header[4:])
		opcode, size := uint16(word), word>>16
		if size < 8 {
			return
		}

		body := make([]byte, size-8)
		if _, err := io.ReadFull(conn, body); err != nil {
			return
		}
		args := &reader{buf: body}

		iface := objects[sender]
		c.record(iface, opcode)

		var err error
		switch {
		case iface == "wl_display" && opcode == 0:
			callback := args.uint()
			serial++
			err = send(conn, callback, 0, -1, newArgs().uint(serial))

		case iface == "wl_display" && opcode == 1:
			registry := args.uint()
			objects[registry] = "wl_registry"
			err = send(conn, registry, 0, -1, newArgs().uint(1).string("wl_compositor").uint(4))
			if err == nil && !c.cfg.NoSeat {
				err = send(conn, registry, 0, -1, newArgs().uint(2).string("wl_seat").uint(c.cfg.SeatVersion))
			}

		case iface == "wl_registry" && opcode == 0:
			_ = args.uint() // global name
			bound := args.string()
			_ = args.uint() // version
			id := args.uint()
			objects[id] = bound
			if bound == "wl_seat" {
				err = send(conn, id, 0, -1, newArgs().uint(c.cfg.Capabilities))
			}

		case iface == "wl_seat" && opcode == 1:
			keyboard := args.uint()
			objects[keyboard] = "wl_keyboard"
			if c.cfg.SendKeymap {
				err = c.sendKeymap(conn, keyboard)
			}
		}
		if err != nil {
			return
		}
	}
}

func (c *Compositor) sendKeymap(conn *net.UnixConn, keyboard uint32) error {
	fd, err := unix.MemfdCreate("keymap", unix.MFD_CLOEXEC)
	if err != nil {
		return fmt.Errorf("memfd: %w", err)
	}
	defer unix.Close(fd)

	if len(c.cfg.Keymap) > 0 {
		if _, err := unix.Write(fd, c.cfg.Keymap); err != nil {
			return fmt.Errorf("write keymap: %w", err)
		}
	}

	return send(conn, keyboard, 0, fd, newArgs().uint(c.cfg.Format).uint(uint32(len(c.cfg.Keymap))))
}

// send writes one event. A non-negative fd travels alongside it as
// SCM_RIGHTS ancillary data.
func send(conn *net.UnixConn, object uint32, opcode uint16, fd int, a *argBuf) error {
	msg := make([]byte, 8, 8+len(a.buf))
	order.PutUint32(msg[0:], object)
	order.PutUint32(msg[4:], uint32(8+len(a.buf))<<16|uint32(opcode))
	msg = append(msg, a.buf...)

	if fd < 0 {
		_, err := conn.Write(msg)
		return err
	}
	_, _, err := conn.WriteMsgUnix(msg, unix.UnixRights(fd), nil)
	return err
}

type argBuf struct {
	buf []byte
}

func newArgs() *argBuf {
	return &argBuf{}
}

func (a *argBuf) uint(v uint32) *argBuf {
	a.buf = order.AppendUint32(a.buf, v)
	return a
}

// string encodes length including the NUL, then the bytes padded to 32 bits.
func (a *argBuf) string(s string) *argBuf {
	n := len(s) + 1
	a.uint(uint32(n))
	a.buf = append(a.buf, s...)
	for pad := (4 - n%4) % 4; pad >= 0; pad-- {
		a.buf = append(a.buf, 0)
	}
	return a
}

type reader struct {
	buf []byte
}

func (r *reader) uint() uint32 {
	if len(r.buf) < 4 {
		return 0
	}
	v := order.Uint32(r.buf)
	r.buf = r.buf[4:]
	return v
}

func (r *reader) string() string {
	n := int(r.uint())
	padded := (n + 3) &^ 3
	if n == 0 || len(r.buf) < padded {
		return ""
	}
	s := string(r.buf[:n-1])
	r.buf = r.buf[padded:]
	return s
}
