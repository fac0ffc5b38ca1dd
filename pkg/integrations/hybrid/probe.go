package hybrid

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"appagent/pkg/integrations/gnome"
	"appagent/pkg/integrations/process"
	"appagent/pkg/integrations/x11"
	"appagent/pkg/window"
)

// ErrNoBackend is returned when no probe could read the foreground window.
var ErrNoBackend = errors.New("all focus backends failed")

// Probe tries each backend in order and remembers which one last succeeded
type Probe struct {
	backends []window.Probe
	logger   *zap.Logger

	mu                   sync.Mutex
	lastSuccessfulMethod string
}

// NewProbe chains backends in priority order.
func NewProbe(logger *zap.Logger, backends ...window.Probe) *Probe {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Probe{backends: backends, logger: logger}
}

// NewDefaultProbe picks backends for the current session: GNOME Shell first
// on Wayland, then X11 (XWayland included). backend forces one of
// "x11" or "gnome"; empty means auto.
func NewDefaultProbe(logger *zap.Logger, backend string) (*Probe, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	resolver := process.NewResolver()
	wayland := os.Getenv("WAYLAND_DISPLAY") != "" || os.Getenv("XDG_SESSION_TYPE") == "wayland"

	var candidates []window.Probe
	switch backend {
	case "x11":
		candidates = append(candidates, x11.NewProbe(resolver))
	case "gnome":
		candidates = append(candidates, gnome.NewProbe(resolver))
	case "", "auto":
		if wayland {
			candidates = append(candidates, gnome.NewProbe(resolver))
		}
		if os.Getenv("DISPLAY") != "" {
			candidates = append(candidates, x11.NewProbe(resolver))
		}
	default:
		return nil, errors.Errorf("unknown display backend %q", backend)
	}

	var available []window.Probe
	for _, c := range candidates {
		if c.IsAvailable() {
			available = append(available, c)
			logger.Info("focus backend initialized", zap.String("display_server", c.GetDisplayServer()))
		} else {
			c.Close()
		}
	}
	if len(available) == 0 {
		return nil, errors.Wrap(ErrNoBackend, "no focus backend available")
	}
	return NewProbe(logger, available...), nil
}

func (p *Probe) Foreground() (*window.ActivityInfo, error) {
	var errs []string
	for _, b := range p.backends {
		info, err := b.Foreground()
		if err == nil && info != nil {
			p.mu.Lock()
			p.lastSuccessfulMethod = b.GetDisplayServer()
			p.mu.Unlock()
			return info, nil
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", b.GetDisplayServer(), err))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Wrap(ErrNoBackend, strings.Join(errs, "; "))
	}
	return nil, nil
}

// IsLocked consults every backend, then logind's LockedHint
func (p *Probe) IsLocked() bool {
	for _, b := range p.backends {
		if b.IsLocked() {
			return true
		}
	}

	output, err := exec.Command("loginctl", "show-session", "-p", "LockedHint").Output()
	return err == nil && strings.Contains(string(output), "LockedHint=yes")
}

func (p *Probe) IsAvailable() bool {
	for _, b := range p.backends {
		if b.IsAvailable() {
			return true
		}
	}
	return false
}

// GetDisplayServer returns the backend that last succeeded, or the first one
func (p *Probe) GetDisplayServer() string {
	p.mu.Lock()
	last := p.lastSuccessfulMethod
	p.mu.Unlock()
	if last != "" {
		return last
	}
	if len(p.backends) > 0 {
		return p.backends[0].GetDisplayServer()
	}
	return "unknown"
}

// X11 returns the X11 backend if one is chained.
func (p *Probe) X11() *x11.Probe {
	for _, b := range p.backends {
		if xp, ok := b.(*x11.Probe); ok {
			return xp
		}
	}
	return nil
}

func (p *Probe) Status() string {
	var sb strings.Builder
	sb.WriteString("Focus backends:\n")
	for i, b := range p.backends {
		fmt.Fprintf(&sb, "  %d. %s (available: %v)\n", i+1, b.GetDisplayServer(), b.IsAvailable())
	}
	p.mu.Lock()
	fmt.Fprintf(&sb, "  Last successful method: %s\n", p.lastSuccessfulMethod)
	p.mu.Unlock()
	return sb.String()
}

func (p *Probe) Close() error {
	for _, b := range p.backends {
		if err := b.Close(); err != nil {
			p.logger.Warn("error closing focus backend", zap.String("display_server", b.GetDisplayServer()), zap.Error(err))
		}
	}
	return nil
}
