package hyprland

import (
	"errors"
	"io"
	"net"
	"path/filepath"
	"reflect"
	"testing"
)

const devicesReply = `{
	"mice": [],
	"keyboards": [
		{
			"address": "0x1",
			"name": "at-translated-set-2-keyboard",
			"rules": "", "model": "",
			"layout": "us,hu",
			"variant": ",qwerty",
			"options": "grp:alt_shift_toggle",
			"active_keymap": "Hungarian (QWERTY)",
			"main": true
		},
		{
			"address": "0x2",
			"name": "power-button",
			"layout": "us",
			"variant": "",
			"active_keymap": "English (US)",
			"main": false
		}
	]
}`

// serveOnce answers a single request on a fresh unix socket and reports
// what was asked.
func serveOnce(t *testing.T, reply string) (string, <-chan string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), ".socket.sock")
	ln, err := net.Listen("unix", path)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	requests := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		buf := make([]byte, 256)
		n, _ := conn.Read(buf)
		requests <- string(buf[:n])
		_, _ = io.WriteString(conn, reply)
	}()

	return path, requests
}

func TestHyprctl_Keyboards(t *testing.T) {
	path, requests := serveOnce(t, devicesReply)

	got, err := NewHyprctlAt(path).Keyboards()
	if err != nil {
		t.Fatalf("Keyboards() error = %v", err)
	}

	if req := <-requests; req != "j/devices" {
		t.Errorf("request = %q, want %q", req, "j/devices")
	}

	want := []Keyboard{
		{
			Name:         "at-translated-set-2-keyboard",
			Layouts:      []string{"us", "hu"},
			Variants:     []string{"", "qwerty"},
			ActiveKeymap: "Hungarian (QWERTY)",
			Main:         true,
		},
		{
			Name:         "power-button",
			Layouts:      []string{"us"},
			Variants:     []string{""},
			ActiveKeymap: "English (US)",
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Keyboards() = %+v, want %+v", got, want)
	}
}

func TestHyprctl_Keyboards_badReply(t *testing.T) {
	path, _ := serveOnce(t, "unknown request")

	if _, err := NewHyprctlAt(path).Keyboards(); err == nil {
		t.Error("Keyboards() error = nil, want error")
	}
}

func TestHyprctl_Keyboards_noSocket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.sock")
	if _, err := NewHyprctlAt(path).Keyboards(); err == nil {
		t.Error("Keyboards() error = nil, want error")
	}
}

func TestSocketPath_unset(t *testing.T) {
	t.Setenv(signatureEnv, "")

	if _, err := SocketPath(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("SocketPath() error = %v, want %v", err, ErrNotRunning)
	}
}

func Test_keyboard_toKeyboard(t *testing.T) {
	tests := []struct {
		name string
		in   keyboard
		want Keyboard
	}{
		{
			name: "variants padded",
			in:   keyboard{Name: "kb", Layout: "us,de,fr"},
			want: Keyboard{Name: "kb", Layouts: []string{"us", "de", "fr"}, Variants: []string{"", "", ""}},
		},
		{
			name: "extra variants dropped",
			in:   keyboard{Name: "kb", Layout: "us", Variant: "dvorak,intl"},
			want: Keyboard{Name: "kb", Layouts: []string{"us"}, Variants: []string{"dvorak"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.toKeyboard(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("toKeyboard() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
