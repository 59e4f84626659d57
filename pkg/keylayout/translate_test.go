package keylayout

import "testing"

// fakeState answers for a single keycode and records what was asked.
type fakeState struct {
	keycode uint32
	sym     uint32
	text    string

	asked []uint32
}

func (f *fakeState) OneSym(keycode uint32) uint32 {
	f.asked = append(f.asked, keycode)
	if keycode != f.keycode {
		return 0
	}
	return f.sym
}

func (f *fakeState) UTF8(keycode uint32) string {
	f.asked = append(f.asked, keycode)
	if keycode != f.keycode {
		return ""
	}
	return f.text
}

var fakeSymNames = map[uint32]string{
	0:      "NoSymbol",
	0x0061: "a",
	0x00e9: "eacute",
	0x0020: "space",
	0xff09: "Tab",
	0xff1b: "Escape",
	0xffbe: "F1",
	0xffe1: "Shift_L",
}

func fakeSymName(sym uint32) string {
	return fakeSymNames[sym]
}

func Test_translate(t *testing.T) {
	tests := []struct {
		name     string
		scancode uint32
		sym      uint32
		text     string
		want     string
	}{
		{name: "letter is upper-cased", scancode: 30, sym: 0x0061, text: "a", want: "A"},
		{name: "digit unchanged", scancode: 2, sym: 0x0031, text: "1", want: "1"},
		{name: "punctuation unchanged", scancode: 53, sym: 0x002f, text: "/", want: "/"},
		{name: "non-ascii letter keeps case", scancode: 31, sym: 0x00e9, text: "é", want: "é"},
		{name: "control characters stripped", scancode: 30, sym: 0x0061, text: "\x00a\x7f", want: "A"},
		{name: "control only falls back", scancode: 1, sym: 0xff1b, text: "\x1b", want: "Escape"},
		{name: "tab falls back", scancode: 15, sym: 0xff09, text: "\t", want: "Tab"},
		{name: "whitespace falls back", scancode: 57, sym: 0x0020, text: " ", want: "space"},
		{name: "empty falls back", scancode: 59, sym: 0xffbe, text: "", want: "F1"},
		{name: "fallback keeps case", scancode: 42, sym: 0xffe1, text: "", want: "Shift_L"},
		{name: "multi-rune text", scancode: 30, sym: 0x0061, text: "ab", want: "AB"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := &fakeState{keycode: tt.scancode + 8, sym: tt.sym, text: tt.text}
			if got := translate(state, fakeSymName, tt.scancode); got != tt.want {
				t.Errorf("translate(%d) = %q, want %q", tt.scancode, got, tt.want)
			}
		})
	}
}

func Test_translate_offsetAppliedOnce(t *testing.T) {
	for _, scancode := range []uint32{0, 1, 30, 59, 247} {
		state := &fakeState{keycode: scancode + 8, sym: 0x0061, text: "a"}

		if got := translate(state, fakeSymName, scancode); got != "A" {
			t.Errorf("translate(%d) = %q, want %q", scancode, got, "A")
		}
		for _, keycode := range state.asked {
			if keycode != scancode+8 {
				t.Errorf("translate(%d) queried keycode %d, want %d", scancode, keycode, scancode+8)
			}
		}
	}
}

func Test_printable(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOk bool
	}{
		{in: "a", want: "a", wantOk: true},
		{in: "\r", want: "", wantOk: false},
		{in: "  ", want: "  ", wantOk: false},
		{in: "\x1bx", want: "x", wantOk: true},
		{in: "", want: "", wantOk: false},
	}
	for _, tt := range tests {
		got, ok := printable(tt.in)
		if got != tt.want || ok != tt.wantOk {
			t.Errorf("printable(%q) = %q, %v, want %q, %v", tt.in, got, ok, tt.want, tt.wantOk)
		}
	}
}

func Test_asciiUpper(t *testing.T) {
	tests := map[string]string{
		"a":   "A",
		"z":   "Z",
		"A":   "A",
		"ß":   "ß",
		"é":   "é",
		"ñb":  "ñB",
		"[{":  "[{",
		"1@a": "1@A",
	}
	for in, want := range tests {
		if got := asciiUpper(in); got != want {
			t.Errorf("asciiUpper(%q) = %q, want %q", in, got, want)
		}
	}
}
