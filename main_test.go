package main

import (
	"bytes"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"codeberg.org/miketth/keynames/pkg/config"
	"codeberg.org/miketth/keynames/pkg/hyprland"
	"codeberg.org/miketth/keynames/pkg/keycodes"
	"codeberg.org/miketth/keynames/pkg/namestore"
	"codeberg.org/miketth/keynames/pkg/namestore/memory"
	"codeberg.org/miketth/keynames/pkg/xkblayouts"
	"go.uber.org/zap"
)

type fakeTranslator map[uint32]string

func (f fakeTranslator) GetKeyAsString(scancode uint32) string {
	return f[scancode]
}

func Test_splitCommand(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantCommand string
		wantArgs    []string
	}{
		{name: "empty", args: nil, wantCommand: "lookup", wantArgs: nil},
		{name: "implicit lookup", args: []string{"30", "KEY_B"}, wantCommand: "lookup", wantArgs: []string{"30", "KEY_B"}},
		{name: "explicit lookup", args: []string{"lookup", "30"}, wantCommand: "lookup", wantArgs: []string{"30"}},
		{name: "dump", args: []string{"dump", "-label", "home"}, wantCommand: "dump", wantArgs: []string{"-label", "home"}},
		{name: "serve", args: []string{"serve"}, wantCommand: "serve", wantArgs: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			command, args := splitCommand(tt.args)
			if command != tt.wantCommand {
				t.Errorf("command = %q, want %q", command, tt.wantCommand)
			}
			if len(args) != len(tt.wantArgs) || (len(args) > 0 && !reflect.DeepEqual(args, tt.wantArgs)) {
				t.Errorf("args = %v, want %v", args, tt.wantArgs)
			}
		})
	}
}

func Test_writeLookups(t *testing.T) {
	var out bytes.Buffer
	err := writeLookups(&out, fakeTranslator{30: "A", 1: "Escape"}, []string{"30", "KEY_ESC", "2"})
	if err != nil {
		t.Fatalf("writeLookups() error = %v", err)
	}

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3: %q", len(lines), out.String())
	}
	for i, want := range [][]string{
		{"30", "KEY_A", "A"},
		{"1", "KEY_ESC", "Escape"},
		{"2", "KEY_1"},
	} {
		if got := strings.Fields(lines[i]); !reflect.DeepEqual(got, want) {
			t.Errorf("line %d = %v, want %v", i, got, want)
		}
	}
}

func Test_writeLookups_badCode(t *testing.T) {
	var out bytes.Buffer
	err := writeLookups(&out, fakeTranslator{}, []string{"30", "KEY_NOPE"})
	if !errors.Is(err, keycodes.ErrUnknownCode) {
		t.Errorf("writeLookups() error = %v, want %v", err, keycodes.ErrUnknownCode)
	}
	if out.Len() != 0 {
		t.Errorf("wrote %q before failing", out.String())
	}
}

func Test_writeLayouts(t *testing.T) {
	registry, err := xkblayouts.Load("pkg/xkblayouts/testdata/evdev.xml")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	var out bytes.Buffer
	if err := writeLayouts(&out, registry, []string{"English (US)", "Hungarian (QWERTY)", "Elvish"}); err != nil {
		t.Fatalf("writeLayouts() error = %v", err)
	}

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	want := [][]string{
		{"0", "us", "eng", "English", "(US)"},
		{"1", "hu(qwerty)", "hun", "Hungarian", "(QWERTY)"},
		{"2", "?", "-", "Elvish"},
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d: %q", len(lines), len(want), out.String())
	}
	for i := range want {
		if got := strings.Fields(lines[i]); !reflect.DeepEqual(got, want[i]) {
			t.Errorf("line %d = %v, want %v", i, got, want[i])
		}
	}
}

func Test_writeSnapshot(t *testing.T) {
	store := memory.NewStore()
	snapshot := namestore.Build("home", []string{"English (US)"}, fakeTranslator{30: "A"}, []uint32{30, 31}, time.Unix(0, 0))
	if err := store.SaveSnapshot(snapshot); err != nil {
		t.Fatalf("SaveSnapshot() error = %v", err)
	}

	var out bytes.Buffer
	if err := writeSnapshot(&out, store, nil); err != nil {
		t.Fatalf("writeSnapshot() list error = %v", err)
	}
	if out.String() != "home\n" {
		t.Errorf("list = %q, want %q", out.String(), "home\n")
	}

	out.Reset()
	if err := writeSnapshot(&out, store, []string{"home"}); err != nil {
		t.Fatalf("writeSnapshot() error = %v", err)
	}
	if !strings.Contains(out.String(), "KEY_A") || strings.Contains(out.String(), "KEY_S") {
		t.Errorf("snapshot output = %q", out.String())
	}

	if err := writeSnapshot(&out, store, []string{"work"}); !errors.Is(err, namestore.ErrNotFound) {
		t.Errorf("writeSnapshot() error = %v, want %v", err, namestore.ErrNotFound)
	}
}

func Test_openStore(t *testing.T) {
	dir := t.TempDir()
	log := zap.NewNop().Sugar()

	tests := []struct {
		name    string
		cfg     config.Store
		wantErr bool
	}{
		{name: "memory", cfg: config.Store{Driver: "memory"}},
		{name: "json", cfg: config.Store{Driver: "json", Path: filepath.Join(dir, "json", "names.json")}},
		{name: "sqlite", cfg: config.Store{Driver: "sqlite", Path: filepath.Join(dir, "sqlite", "names.db")}},
		{name: "unknown", cfg: config.Store{Driver: "etcd", Path: filepath.Join(dir, "x")}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := openStore(tt.cfg, log)
			if (err != nil) != tt.wantErr {
				t.Fatalf("openStore() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer store.Close()

			if _, err := store.ListSnapshots(); err != nil {
				t.Errorf("ListSnapshots() error = %v", err)
			}
		})
	}
}

func Test_listen_replacesStaleSocket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", "keynames.sock")

	first, err := listen(path)
	if err != nil {
		t.Fatalf("listen() error = %v", err)
	}
	// a crashed server leaves its socket file behind
	if l, ok := first.(interface{ SetUnlinkOnClose(bool) }); ok {
		l.SetUnlinkOnClose(false)
	}
	first.Close()

	second, err := listen(path)
	if err != nil {
		t.Fatalf("listen() over stale socket error = %v", err)
	}
	second.Close()
}

func Test_app_openLayout_unknownBackend(t *testing.T) {
	a := &app{cfg: config.Default(), backend: "mir", log: zap.NewNop().Sugar()}
	if _, err := a.openLayout(); err == nil {
		t.Error("openLayout() error = nil, want error")
	}
}

func Test_writeKeyboards(t *testing.T) {
	registry, err := xkblayouts.Load("pkg/xkblayouts/testdata/evdev.xml")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	keyboards := []hyprland.Keyboard{
		{
			Name:         "at-keyboard",
			Layouts:      []string{"us", "hu"},
			Variants:     []string{"", "qwerty"},
			ActiveKeymap: "Hungarian (QWERTY)",
			Main:         true,
		},
		{
			Name:         "macropad",
			Layouts:      []string{"zz"},
			Variants:     []string{""},
			ActiveKeymap: "Custom",
		},
	}

	var out bytes.Buffer
	if err := writeKeyboards(&out, registry, keyboards); err != nil {
		t.Fatalf("writeKeyboards() error = %v", err)
	}

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	want := [][]string{
		{"*", "at-keyboard", "Hungarian", "(QWERTY)", "[hu(qwerty)]"},
		{"0", "us", "English", "(US)"},
		{"1", "hu(qwerty)", "Hungarian", "(QWERTY)"},
		{"macropad", "Custom"},
		{"0", "zz", "?"},
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d: %q", len(lines), len(want), out.String())
	}
	for i := range want {
		if got := strings.Fields(lines[i]); !reflect.DeepEqual(got, want[i]) {
			t.Errorf("line %d = %v, want %v", i, got, want[i])
		}
	}
}
