// Package config loads the keynames settings file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"codeberg.org/miketth/keynames/pkg/keylayout"
	"codeberg.org/miketth/keynames/pkg/xkblayouts"
	"github.com/adrg/xdg"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const appName = "keynames"

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Session      Session `yaml:"session"`
	Display      Display `yaml:"display"`
	EvdevXMLPath string  `yaml:"evdev_xml_path"`
	Store        Store   `yaml:"store"`
	Server       Server  `yaml:"server"`
}

type Session struct {
	// Env is the variable holding the session type.
	Env            string `yaml:"env"`
	X11Autodetect  bool   `yaml:"x11_autodetect"`
	LogindFallback bool   `yaml:"logind_fallback"`
}

type Display struct {
	Wayland string `yaml:"wayland"`
	X11     string `yaml:"x11"`
}

type Store struct {
	// Driver is one of memory, json or sqlite.
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

type Server struct {
	Socket string `yaml:"socket"`
}

// DefaultPath is the settings file under the user's config directory.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.yaml")
}

func Default() Config {
	return Config{
		Session: Session{
			X11Autodetect: true,
		},
		EvdevXMLPath: xkblayouts.DefaultPath,
		Store: Store{
			Driver: "sqlite",
			Path:   filepath.Join(xdg.DataHome, appName, "names.db"),
		},
		Server: Server{
			Socket: filepath.Join(xdg.RuntimeDir, appName+".sock"),
		},
	}
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return cfg, nil
	case err != nil:
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Store.Driver {
	case "memory":
	case "json", "sqlite":
		if c.Store.Path == "" {
			return fmt.Errorf("%w: store.path is empty", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown store driver %q", ErrInvalid, c.Store.Driver)
	}

	if c.Server.Socket == "" {
		return fmt.Errorf("%w: server.socket is empty", ErrInvalid)
	}

	return nil
}

// LayoutOptions turns the session and display settings into keylayout
// options.
func (c Config) LayoutOptions(log *zap.SugaredLogger) []keylayout.Option {
	return []keylayout.Option{
		keylayout.WithLogger(log),
		keylayout.WithSessionEnv(c.Session.Env),
		keylayout.WithX11Autodetect(c.Session.X11Autodetect),
		keylayout.WithLogindFallback(c.Session.LogindFallback),
		keylayout.WithWaylandDisplay(c.Display.Wayland),
		keylayout.WithX11Display(c.Display.X11),
	}
}
