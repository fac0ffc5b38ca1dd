package detector

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"appagent/pkg/keyboard"
)

func TestNew(t *testing.T) {
	monitor, probe, err := New(zap.NewNop(), "", time.Second)
	if err != nil {
		t.Logf("New() returned error (may be expected): %v", err)
		return
	}
	defer probe.Close()

	if monitor == nil {
		t.Fatal("New() returned nil monitor without error")
	}

	displayServer := monitor.GetDisplayServer()
	t.Logf("Detected display server: %s", displayServer)

	if displayServer != "x11" && displayServer != "wayland" {
		t.Errorf("GetDisplayServer() = %s, want x11 or wayland", displayServer)
	}

	info, err := monitor.Foreground()
	if err != nil {
		t.Logf("Foreground() error: %v", err)
	} else if info != nil {
		t.Logf("Current window: %s - %s", info.ProcessName, info.Title)
	}

	t.Logf("Screen locked: %v", monitor.IsLocked())
}

func TestNewKeyboardHeadless(t *testing.T) {
	kb := NewKeyboard(zap.NewNop(), nil)
	if _, ok := kb.(*keyboard.Recorder); !ok {
		t.Errorf("NewKeyboard(nil) = %T, want *keyboard.Recorder", kb)
	}
	if !kb.IsAvailable() {
		t.Error("recorder should always be available")
	}
}

func setSession(t *testing.T, sessionType, wayland, x11 string) {
	t.Helper()
	t.Setenv("XDG_SESSION_TYPE", sessionType)
	t.Setenv("WAYLAND_DISPLAY", wayland)
	t.Setenv("DISPLAY", x11)
}

func TestDetectDisplayServer(t *testing.T) {
	cases := map[string]struct {
		session, wayland, x11 string
		want                  string
	}{
		"wayland session":  {session: "wayland", wayland: "wayland-0", want: "wayland"},
		"x11 session":      {session: "x11", x11: ":0", want: "x11"},
		"nothing set":      {want: "unknown"},
		"wayland socket":   {wayland: "wayland-1", want: "wayland"},
		"display only":     {x11: ":1", want: "x11"},
		"xwayland display": {session: "wayland", x11: ":0", want: "wayland"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			setSession(t, tc.session, tc.wayland, tc.x11)
			if got := DetectDisplayServer(); got != tc.want {
				t.Errorf("DetectDisplayServer() = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestNewWithoutDisplay(t *testing.T) {
	setSession(t, "", "", "")
	if _, _, err := New(zap.NewNop(), "", time.Second); err == nil {
		t.Error("New() should fail when no display server is reachable")
	}
}

func TestNewForcedBackend(t *testing.T) {
	if _, _, err := New(zap.NewNop(), "quartz", time.Second); err == nil {
		t.Error("New() should reject an unknown backend")
	}
}
