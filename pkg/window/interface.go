package window

import (
	"context"
	"time"
)

// ActivityInfo is a snapshot of the foreground window and its focused control
type ActivityInfo struct {
	WindowHandle   uint32 // top-level window
	FocusedElement uint32 // control holding input focus, 0 if unknown
	IsNewWindow    bool   // foreground window differs from the previous snapshot
	ProcessName    string
	PID            int
	AppName        string // WM_CLASS or app id
	Title          string
	DisplayServer  string // "x11" or "wayland"
	Timestamp      time.Time
}

// SameFocus reports whether two snapshots point at the same window and control.
func (a ActivityInfo) SameFocus(b ActivityInfo) bool {
	return a.WindowHandle == b.WindowHandle &&
		a.FocusedElement == b.FocusedElement &&
		a.ProcessName == b.ProcessName
}

// Probe reads the current foreground window from one backend
type Probe interface {
	// Foreground returns the window that currently has focus
	Foreground() (*ActivityInfo, error)

	// IsLocked reports whether the session screen locker is active
	IsLocked() bool

	// IsAvailable checks if this probe can run on the current system
	IsAvailable() bool

	// GetDisplayServer returns the display server type ("x11" or "wayland")
	GetDisplayServer() string

	// Close cleans up any resources used by the probe
	Close() error
}

// Monitor raises focus-changed events in the order they occur
type Monitor interface {
	Probe

	// Start begins watching; events flow on FocusChanges until ctx ends
	Start(ctx context.Context) error

	// FocusChanges returns the event channel. It is closed when watching stops.
	FocusChanges() <-chan ActivityInfo
}
