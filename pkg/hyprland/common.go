// Package hyprland talks to the Hyprland compositor's request socket to list
// keyboards and the keymap each one has active.
package hyprland

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const signatureEnv = "HYPRLAND_INSTANCE_SIGNATURE"

var ErrNotRunning = errors.New("hyprland might not be running")

// SocketPath finds the request socket of the running instance. Newer
// releases keep it under $XDG_RUNTIME_DIR/hypr, older ones under /tmp/hypr.
func SocketPath() (string, error) {
	signature := os.Getenv(signatureEnv)
	if signature == "" {
		return "", fmt.Errorf("%s is not set, %w", signatureEnv, ErrNotRunning)
	}

	candidates := []string{
		filepath.Join(xdg.RuntimeDir, "hypr", signature, ".socket.sock"),
		filepath.Join("/tmp/hypr", signature, ".socket.sock"),
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("no socket for instance %s, %w", signature, ErrNotRunning)
}

func dial(path string) (net.Conn, error) {
	conn, err := net.Dial("unix", path)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	return conn, nil
}
