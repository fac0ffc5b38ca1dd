package detector

import (
	"os"
	"time"

	"go.uber.org/zap"

	"appagent/pkg/integrations/hybrid"
	"appagent/pkg/integrations/x11"
	"appagent/pkg/keyboard"
	"appagent/pkg/window"
)

// ShellProcesses never own an application agent; focus on them is ignored.
var ShellProcesses = []string{"gnome-shell", "plasmashell", "xfdesktop", "appagent"}

// New builds a focus monitor over the best backend for this session.
func New(logger *zap.Logger, backend string, interval time.Duration) (*window.PollingMonitor, *hybrid.Probe, error) {
	probe, err := hybrid.NewDefaultProbe(logger, backend)
	if err != nil {
		return nil, nil, err
	}
	monitor := window.NewPollingMonitor(probe, interval, ShellProcesses...)
	return monitor, probe, nil
}

// NewKeyboard returns an XTEST synthesizer when an X11 backend is chained,
// otherwise a Recorder so commands still resolve in headless sessions.
func NewKeyboard(logger *zap.Logger, probe *hybrid.Probe) keyboard.Synthesizer {
	if probe != nil {
		if xp := probe.X11(); xp != nil {
			if client, err := xp.Client(); err == nil {
				kb, err := x11.NewKeyboard(client)
				if err == nil {
					return kb
				}
				logger.Warn("XTEST keyboard unavailable, recording keys instead", zap.Error(err))
			}
		}
	}
	return keyboard.NewRecorder()
}

func DetectDisplayServer() string {
	sessionType := os.Getenv("XDG_SESSION_TYPE")
	waylandDisplay := os.Getenv("WAYLAND_DISPLAY")
	x11Display := os.Getenv("DISPLAY")

	if sessionType == "wayland" || waylandDisplay != "" {
		return "wayland"
	}

	if sessionType == "x11" || x11Display != "" {
		return "x11"
	}

	return "unknown"
}
