package keylayout

import (
	"codeberg.org/miketth/keynames/pkg/session"
	"go.uber.org/zap"
)

type Option func(*config)

type config struct {
	log            *zap.SugaredLogger
	sessionEnv     string
	lookupEnv      func(string) (string, bool)
	x11Autodetect  bool
	logindFallback bool
	waylandDisplay string
	x11Display     string
}

func newConfig(opts []Option) *config {
	cfg := &config{
		log:           zap.NewNop().Sugar(),
		sessionEnv:    session.EnvVar,
		x11Autodetect: true,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func (c *config) detector() session.Detector {
	d := session.Detector{
		Env:       c.sessionEnv,
		LookupEnv: c.lookupEnv,
	}
	if c.logindFallback {
		d.Logind = session.Logind
	}
	return d
}

func WithLogger(log *zap.SugaredLogger) Option {
	return func(c *config) {
		if log != nil {
			c.log = log
		}
	}
}

// WithSessionEnv changes the variable New reads the session type from.
func WithSessionEnv(name string) Option {
	return func(c *config) {
		if name != "" {
			c.sessionEnv = name
		}
	}
}

// WithLookupEnv replaces os.LookupEnv for session detection.
func WithLookupEnv(lookup func(string) (string, bool)) Option {
	return func(c *config) {
		c.lookupEnv = lookup
	}
}

// WithX11Autodetect controls whether New follows an "x11" session type to
// the X server. When disabled, "x11" is reported as ErrSession and only
// NewX11 or NewFromWindow reach X11. Enabled by default.
func WithX11Autodetect(enabled bool) Option {
	return func(c *config) {
		c.x11Autodetect = enabled
	}
}

// WithLogindFallback makes New ask systemd-logind for the session type
// when the environment variable is unset.
func WithLogindFallback(enabled bool) Option {
	return func(c *config) {
		c.logindFallback = enabled
	}
}

// WithWaylandDisplay selects a compositor socket instead of $WAYLAND_DISPLAY.
func WithWaylandDisplay(name string) Option {
	return func(c *config) {
		c.waylandDisplay = name
	}
}

// WithX11Display selects an X display instead of $DISPLAY.
func WithX11Display(name string) Option {
	return func(c *config) {
		c.x11Display = name
	}
}
