package gnome

import (
	"encoding/json"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/pkg/errors"

	"appagent/pkg/integrations/process"
	"appagent/pkg/window"
)

const (
	shellDest      = "org.gnome.Shell"
	shellPath      = "/org/gnome/Shell"
	shellEval      = "org.gnome.Shell.Eval"
	screenSaver    = "org.gnome.ScreenSaver"
	screenSaverObj = "/org/gnome/ScreenSaver"
)

// focusScript runs inside gnome-shell and returns the focused window as JSON.
const focusScript = `
(function () {
	let w = global.display.get_focus_window();
	if (!w) return '';
	return JSON.stringify({
		id: w.get_stable_sequence(),
		wm_class: w.get_wm_class() || '',
		title: w.get_title() || '',
		pid: w.get_pid()
	});
})()`

// ErrEvalDisabled is returned when gnome-shell refuses Shell.Eval
// (the default outside unsafe mode).
var ErrEvalDisabled = errors.New("org.gnome.Shell.Eval is disabled")

// Probe implements window.Probe for GNOME Shell over the session bus
type Probe struct {
	resolver *process.Resolver

	mu   sync.Mutex
	conn *dbus.Conn
}

func NewProbe(resolver *process.Resolver) *Probe {
	return &Probe{resolver: resolver}
}

func (p *Probe) bus() (*dbus.Conn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn != nil && p.conn.Connected() {
		return p.conn, nil
	}
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to session bus")
	}
	p.conn = conn
	return conn, nil
}

// IsAvailable reports whether this is a GNOME session with a reachable shell
func (p *Probe) IsAvailable() bool {
	desktop := strings.ToLower(os.Getenv("XDG_CURRENT_DESKTOP"))
	if !strings.Contains(desktop, "gnome") {
		return false
	}
	conn, err := p.bus()
	if err != nil {
		return false
	}

	var owned bool
	err = conn.BusObject().Call("org.freedesktop.DBus.NameHasOwner", 0, shellDest).Store(&owned)
	return err == nil && owned
}

func (p *Probe) GetDisplayServer() string {
	return "wayland"
}

func (p *Probe) Foreground() (*window.ActivityInfo, error) {
	conn, err := p.bus()
	if err != nil {
		return nil, err
	}

	var ok bool
	var out string
	call := conn.Object(shellDest, shellPath).Call(shellEval, 0, focusScript)
	if err := call.Store(&ok, &out); err != nil {
		return nil, errors.Wrap(err, "Shell.Eval call failed")
	}
	if !ok {
		return nil, ErrEvalDisabled
	}

	info, err := parseFocus(out)
	if err != nil {
		return nil, err
	}
	if info.PID > 0 && p.resolver != nil {
		if name, err := p.resolver.Name(info.PID); err == nil {
			info.ProcessName = name
		}
	}
	return info, nil
}

type focusReply struct {
	ID      uint32 `json:"id"`
	WMClass string `json:"wm_class"`
	Title   string `json:"title"`
	PID     int    `json:"pid"`
}

// parseFocus decodes the Shell.Eval result. Eval hands back the script value
// as a JSON string, so the payload may be quoted twice.
func parseFocus(out string) (*window.ActivityInfo, error) {
	out = strings.TrimSpace(out)
	if out == "" || out == `""` {
		return nil, errors.New("no focused window")
	}

	var inner string
	if err := json.Unmarshal([]byte(out), &inner); err == nil {
		out = inner
	}

	var reply focusReply
	if err := json.Unmarshal([]byte(out), &reply); err != nil {
		return nil, errors.Wrap(err, "malformed Shell.Eval reply")
	}
	if reply.WMClass == "" {
		return nil, errors.New("focused window has no WM_CLASS")
	}

	return &window.ActivityInfo{
		WindowHandle:  reply.ID,
		ProcessName:   strings.ToLower(reply.WMClass),
		PID:           reply.PID,
		AppName:       reply.WMClass,
		Title:         reply.Title,
		DisplayServer: "wayland",
		Timestamp:     time.Now(),
	}, nil
}

// IsLocked asks org.gnome.ScreenSaver whether the lock screen is up
func (p *Probe) IsLocked() bool {
	conn, err := p.bus()
	if err != nil {
		return false
	}
	var active bool
	err = conn.Object(screenSaver, screenSaverObj).Call(screenSaver+".GetActive", 0).Store(&active)
	return err == nil && active
}

// Close drops the reference to the shared session bus. The bus itself stays
// open for other users in the process.
func (p *Probe) Close() error {
	p.mu.Lock()
	p.conn = nil
	p.mu.Unlock()
	return nil
}
