//go:build !windows && !(linux && cgo)

package keylayout

// KeyLayout cannot be constructed on this platform.
type KeyLayout struct{}

func New(...Option) (*KeyLayout, error) {
	return nil, ErrPlatformUnsupported
}

func NewFromWindow(any, ...Option) (*KeyLayout, error) {
	return nil, ErrPlatformUnsupported
}

func NewWayland(...Option) (*KeyLayout, error) {
	return nil, ErrPlatformUnsupported
}

func NewX11(...Option) (*KeyLayout, error) {
	return nil, ErrPlatformUnsupported
}

func (k *KeyLayout) GetKeyAsString(uint32) string {
	panic("keylayout: no KeyLayout can exist on this platform")
}

func (k *KeyLayout) Layouts() []string {
	return nil
}

func (k *KeyLayout) Close() error {
	return nil
}
