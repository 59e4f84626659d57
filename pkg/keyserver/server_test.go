package keyserver

import (
	"context"
	"errors"
	"net"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeTranslator map[uint32]string

func (f fakeTranslator) GetKeyAsString(scancode uint32) string {
	return f[scancode]
}

var names = fakeTranslator{1: "Escape", 30: "A", 57: "space"}

func pipe(t *testing.T, ctx context.Context) (*Client, <-chan error) {
	t.Helper()

	server, client := net.Pipe()
	done := make(chan error, 1)
	go func() {
		done <- NewServer(names, zap.NewNop().Sugar()).ServeConn(ctx, server)
	}()

	c := NewClient(client)
	t.Cleanup(func() { c.Close() })
	return c, done
}

func TestClient_Lookup(t *testing.T) {
	c, _ := pipe(t, context.Background())

	tests := []struct {
		code    string
		want    string
		wantErr error
	}{
		{code: "30", want: "A"},
		{code: "KEY_ESC", want: "Escape"},
		{code: "space", want: "space"},
		{code: "0x1e", want: "A"},
		{code: "2", want: ""},
		{code: "KEY_BOGUS", wantErr: ErrRemote},
		{code: "30", want: "A"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got, err := c.Lookup(tt.code)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Lookup(%q) error = %v, want %v", tt.code, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Lookup(%q) = %q, want %q", tt.code, got, tt.want)
			}
		})
	}
}

func TestClient_Lookup_newline(t *testing.T) {
	c, _ := pipe(t, context.Background())

	if _, err := c.Lookup("30\n57"); err == nil {
		t.Error("Lookup() error = nil, want error")
	}
}

func TestServer_ServeConn_hangup(t *testing.T) {
	c, done := pipe(t, context.Background())

	if _, err := c.Lookup("1"); err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	c.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ServeConn() error = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("ServeConn() did not return after hangup")
	}
}

func TestServer_ServeConn_cancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	_, done := pipe(t, ctx)

	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("ServeConn() error = %v, want %v", err, context.Canceled)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("ServeConn() did not return after cancel")
	}
}

func TestServer_Serve(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keynames.sock")
	ln, err := net.Listen("unix", path)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- NewServer(names, zap.NewNop().Sugar()).Serve(ctx, ln)
	}()

	for i := 0; i < 3; i++ {
		c, err := Dial(path)
		if err != nil {
			t.Fatalf("Dial() error = %v", err)
		}
		got, err := c.Lookup("KEY_A")
		c.Close()
		if err != nil {
			t.Fatalf("Lookup() error = %v", err)
		}
		if got != "A" {
			t.Errorf("Lookup() = %q, want %q", got, "A")
		}
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() error = %v, want %v", err, context.Canceled)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
}
