package window

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// ErrAlreadyRunning is returned by Start on a monitor that is already watching.
var ErrAlreadyRunning = errors.New("focus monitor is already running")

// PollingMonitor turns a Probe into a Monitor by sampling it on a ticker.
// Only changes of window or focused control are emitted, in sample order.
type PollingMonitor struct {
	Probe

	interval time.Duration
	ignored  []string

	// OnError receives probe failures. Polling continues afterwards.
	OnError func(error)

	mu      sync.Mutex
	events  chan ActivityInfo
	last    *ActivityInfo
	running bool
}

// NewPollingMonitor wraps probe. Processes named in ignored never produce events.
func NewPollingMonitor(probe Probe, interval time.Duration, ignored ...string) *PollingMonitor {
	return &PollingMonitor{
		Probe:    probe,
		interval: interval,
		ignored:  ignored,
		events:   make(chan ActivityInfo, 16),
	}
}

func (m *PollingMonitor) FocusChanges() <-chan ActivityInfo {
	return m.events
}

func (m *PollingMonitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return ErrAlreadyRunning
	}
	m.running = true
	m.mu.Unlock()

	go m.loop(ctx)
	return nil
}

func (m *PollingMonitor) loop(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	defer close(m.events)

	m.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.poll(ctx)
		}
	}
}

func (m *PollingMonitor) poll(ctx context.Context) {
	info, err := m.Foreground()
	if err != nil {
		if m.OnError != nil {
			m.OnError(err)
		}
		return
	}
	if info == nil {
		return
	}

	next, ok := m.observe(*info)
	if !ok {
		return
	}

	select {
	case m.events <- next:
	case <-ctx.Done():
	}
}

// observe stamps the new-window flag and filters repeats and ignored processes.
func (m *PollingMonitor) observe(info ActivityInfo) (ActivityInfo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, name := range m.ignored {
		if strings.EqualFold(name, info.ProcessName) {
			return info, false
		}
	}

	if m.last != nil && m.last.SameFocus(info) {
		return info, false
	}

	info.IsNewWindow = m.last == nil || m.last.WindowHandle != info.WindowHandle
	if info.Timestamp.IsZero() {
		info.Timestamp = time.Now()
	}

	snapshot := info
	m.last = &snapshot
	return info, true
}

// Last returns the most recently emitted snapshot, or nil before the first one.
func (m *PollingMonitor) Last() *ActivityInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last == nil {
		return nil
	}
	snapshot := *m.last
	return &snapshot
}
