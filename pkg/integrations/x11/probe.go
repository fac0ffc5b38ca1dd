package x11

import (
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"appagent/pkg/integrations/process"
	"appagent/pkg/window"
)

// Probe implements window.Probe for X11 through a shared Client
type Probe struct {
	resolver *process.Resolver

	mu     sync.Mutex
	client *Client
}

// NewProbe creates an X11 probe. The display connection is opened lazily.
func NewProbe(resolver *process.Resolver) *Probe {
	return &Probe{resolver: resolver}
}

// Client returns the connection, dialing it on first use.
func (p *Probe) Client() (*Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		return p.client, nil
	}
	client, err := Dial()
	if err != nil {
		return nil, err
	}
	p.client = client
	return client, nil
}

// IsAvailable checks for a reachable X display
func (p *Probe) IsAvailable() bool {
	if os.Getenv("DISPLAY") == "" {
		return false
	}
	_, err := p.Client()
	return err == nil
}

// GetDisplayServer returns "x11"
func (p *Probe) GetDisplayServer() string {
	return "x11"
}

// Foreground returns the active top-level window and its focused child
func (p *Probe) Foreground() (*window.ActivityInfo, error) {
	client, err := p.Client()
	if err != nil {
		return nil, err
	}

	client.mu.Lock()
	defer client.mu.Unlock()

	windowID, err := client.ActiveWindow()
	if err != nil {
		return nil, err
	}

	instance, class := client.WindowClass(windowID)
	pid := int(client.WindowPID(windowID))

	processName := ""
	if pid > 0 && p.resolver != nil {
		if name, err := p.resolver.Name(pid); err == nil {
			processName = name
		}
	}
	if processName == "" {
		processName = strings.ToLower(instance)
	}
	if processName == "" {
		return nil, errors.Errorf("window 0x%x has no process information", uint32(windowID))
	}

	appName := class
	if appName == "" {
		appName = instance
	}

	return &window.ActivityInfo{
		WindowHandle:   uint32(windowID),
		FocusedElement: uint32(client.InputFocus()),
		ProcessName:    processName,
		PID:            pid,
		AppName:        appName,
		Title:          client.WindowName(windowID),
		DisplayServer:  "x11",
		Timestamp:      time.Now(),
	}, nil
}

var screenLockers = []string{
	"gnome-screensaver-dialog",
	"kscreenlocker",
	"i3lock",
	"slock",
	"xscreensaver",
	"xsecurelock",
}

// IsLocked checks for a running screen locker process
func (p *Probe) IsLocked() bool {
	for _, locker := range screenLockers {
		if err := exec.Command("pgrep", "-x", locker).Run(); err == nil {
			return true
		}
	}
	return false
}

// Close releases the display connection
func (p *Probe) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		p.client.Close()
		p.client = nil
	}
	return nil
}
