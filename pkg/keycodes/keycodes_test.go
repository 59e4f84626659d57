package keycodes

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    uint32
		wantErr error
	}{
		{in: "30", want: 30},
		{in: " 59\n", want: 59},
		{in: "0x1e", want: 30},
		{in: "KEY_A", want: 30},
		{in: "key_esc", want: 1},
		{in: "space", want: 57},
		{in: "F1", want: 59},
		{in: "BTN_LEFT", want: 0x110},
		{in: "", wantErr: ErrUnknownCode},
		{in: "KEY_NOPE", wantErr: ErrUnknownCode},
		{in: "-1", wantErr: ErrUnknownCode},
		{in: "70000", wantErr: ErrUnknownCode},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Parse(%q) error = %v, want %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		code uint32
		want string
	}{
		{1, "KEY_ESC"},
		{30, "KEY_A"},
		{57, "KEY_SPACE"},
		{0xfff0, "65520"},
	}
	for _, tt := range tests {
		if got := Name(tt.code); got != tt.want {
			t.Errorf("Name(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestKeys(t *testing.T) {
	keys := Keys()
	if len(keys) == 0 {
		t.Fatal("Keys() is empty")
	}

	seen := map[uint32]bool{}
	for i, code := range keys {
		if i > 0 && keys[i-1] >= code {
			t.Fatalf("Keys() not strictly ascending at %d: %d then %d", i, keys[i-1], code)
		}
		seen[code] = true
	}

	for _, code := range []uint32{1, 30, 57, 59} {
		if !seen[code] {
			t.Errorf("Keys() misses %d", code)
		}
	}
	if seen[0x110] {
		t.Error("Keys() includes BTN_LEFT")
	}
}
