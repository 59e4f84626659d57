package session

import (
	"fmt"
	"os"

	"github.com/godbus/dbus/v5"
)

const (
	logindService   = "org.freedesktop.login1"
	logindPath      = dbus.ObjectPath("/org/freedesktop/login1")
	getSessionByPID = "org.freedesktop.login1.Manager.GetSessionByPID"
	sessionType     = "org.freedesktop.login1.Session.Type"
)

// Logind asks systemd-logind for the Type of the session this process
// belongs to.
func Logind() (Type, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return Unsupported, fmt.Errorf("connect system bus: %w", err)
	}

	var path dbus.ObjectPath
	err = conn.Object(logindService, logindPath).
		Call(getSessionByPID, 0, uint32(os.Getpid())).
		Store(&path)
	if err != nil {
		return Unsupported, fmt.Errorf("get session: %w", err)
	}

	prop, err := conn.Object(logindService, path).GetProperty(sessionType)
	if err != nil {
		return Unsupported, fmt.Errorf("get session type: %w", err)
	}

	value, ok := prop.Value().(string)
	if !ok {
		return Unsupported, fmt.Errorf("%w: session type is %s", ErrUnknown, prop.Signature())
	}

	return Parse(value)
}
