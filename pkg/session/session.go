// Package session works out which display protocol the desktop session
// speaks.
package session

import (
	"errors"
	"fmt"
	"os"
)

type Type int

const (
	Unsupported Type = iota
	Wayland
	X11
)

func (t Type) String() string {
	switch t {
	case Wayland:
		return "wayland"
	case X11:
		return "x11"
	default:
		return "unsupported"
	}
}

// EnvVar is the variable display managers export the session type in.
const EnvVar = "XDG_SESSION_TYPE"

var (
	ErrUnset   = errors.New("session type not set")
	ErrUnknown = errors.New("unknown session type")
)

// Parse accepts exactly "wayland" and "x11".
func Parse(value string) (Type, error) {
	switch value {
	case "wayland":
		return Wayland, nil
	case "x11":
		return X11, nil
	}
	return Unsupported, fmt.Errorf("%w: %q", ErrUnknown, value)
}

// Detector reads the session type from the environment. Nothing is cached:
// every Detect call looks again.
type Detector struct {
	// Env names the variable to read, EnvVar when empty.
	Env string
	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
	// Logind, when set, is consulted only if the variable is unset.
	Logind func() (Type, error)
}

func (d Detector) Detect() (Type, error) {
	env := d.Env
	if env == "" {
		env = EnvVar
	}
	lookup := d.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}

	value, ok := lookup(env)
	if ok {
		return Parse(value)
	}

	if d.Logind == nil {
		return Unsupported, fmt.Errorf("%w: $%s", ErrUnset, env)
	}

	t, err := d.Logind()
	if err != nil {
		return Unsupported, fmt.Errorf("%w: $%s, logind: %w", ErrUnset, env, err)
	}
	return t, nil
}
