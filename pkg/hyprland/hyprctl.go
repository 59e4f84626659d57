package hyprland

import (
	"encoding/json"
	"fmt"
)

type Hyprctl struct {
	socketPath string
}

// NewHyprctl locates the running instance's request socket.
func NewHyprctl() (*Hyprctl, error) {
	path, err := SocketPath()
	if err != nil {
		return nil, err
	}
	return NewHyprctlAt(path), nil
}

func NewHyprctlAt(socketPath string) *Hyprctl {
	return &Hyprctl{socketPath: socketPath}
}

func (c *Hyprctl) Keyboards() ([]Keyboard, error) {
	var devs devices
	if err := c.request("devices", "j", &devs); err != nil {
		return nil, err
	}

	out := make([]Keyboard, 0, len(devs.Keyboards))
	for _, k := range devs.Keyboards {
		out = append(out, k.toKeyboard())
	}

	return out, nil
}

// request sends "flags/command" and decodes the JSON reply. The compositor
// closes the connection after answering.
func (c *Hyprctl) request(command, flags string, v any) error {
	conn, err := dial(c.socketPath)
	if err != nil {
		return err
	}
	defer conn.Close()

	_, err = fmt.Fprintf(conn, "%s/%s", flags, command)
	if err != nil {
		return fmt.Errorf("write to hyprctl socket: %w", err)
	}

	if err := json.NewDecoder(conn).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", command, err)
	}

	return nil
}
