package x11

import (
	"testing"

	"github.com/jezek/xgb/xproto"

	"appagent/pkg/keyboard"
	"appagent/pkg/window"
)

func TestProbeInterface(t *testing.T) {
	var _ window.Probe = (*Probe)(nil)
	var _ keyboard.Synthesizer = (*Keyboard)(nil)
}

func TestGetDisplayServer(t *testing.T) {
	if got := NewProbe(nil).GetDisplayServer(); got != "x11" {
		t.Errorf("GetDisplayServer() = %s, want x11", got)
	}
}

func TestSplitWMClass(t *testing.T) {
	tests := []struct {
		name            string
		input           []byte
		instance, class string
	}{
		{"Standard", []byte("Navigator\x00firefox\x00"), "Navigator", "firefox"},
		{"Single", []byte("kitty\x00"), "kitty", ""},
		{"Empty", nil, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			instance, class := splitWMClass(tt.input)
			if instance != tt.instance || class != tt.class {
				t.Errorf("splitWMClass(%q) = %q, %q; want %q, %q", tt.input, instance, class, tt.instance, tt.class)
			}
		})
	}
}

func TestBuildKeymap(t *testing.T) {
	// Two keysyms per keycode: keycode 10 = a/A, keycode 11 = 1/!, keycode 12 = a (duplicate).
	syms := []xproto.Keysym{
		'a', 'A',
		'1', '!',
		'a', 0,
	}
	keymap := buildKeymap(10, 2, syms)

	tests := []struct {
		sym     xproto.Keysym
		code    xproto.Keycode
		shifted bool
	}{
		{'a', 10, false},
		{'A', 10, true},
		{'1', 11, false},
		{'!', 11, true},
	}
	for _, tt := range tests {
		pos, ok := keymap[tt.sym]
		if !ok {
			t.Errorf("keysym %q missing", rune(tt.sym))
			continue
		}
		if pos.code != tt.code || pos.shifted != tt.shifted {
			t.Errorf("keysym %q = %+v, want code %d shifted %v", rune(tt.sym), pos, tt.code, tt.shifted)
		}
	}

	if len(buildKeymap(8, 0, syms)) != 0 {
		t.Error("zero keysyms per keycode should produce an empty map")
	}
}

func TestRuneKey(t *testing.T) {
	if k, ok := runeKey('\n'); !ok || k != keyboard.Return {
		t.Errorf("runeKey(newline) = %v, %v", k, ok)
	}
	if k, ok := runeKey('x'); !ok || k != keyboard.X {
		t.Errorf("runeKey(x) = %v, %v", k, ok)
	}
	if _, ok := runeKey('€'); ok {
		t.Error("runeKey should reject characters outside Latin-1")
	}
}

func TestForegroundWithDisplay(t *testing.T) {
	p := NewProbe(nil)
	defer p.Close()

	if !p.IsAvailable() {
		t.Skip("X11 display not available on this system")
	}

	info, err := p.Foreground()
	if err != nil {
		t.Logf("Foreground() error (may be expected): %v", err)
		return
	}
	t.Logf("Window: 0x%x process=%s title=%s", info.WindowHandle, info.ProcessName, info.Title)
	if info.DisplayServer != "x11" {
		t.Errorf("DisplayServer = %s, want x11", info.DisplayServer)
	}
}
