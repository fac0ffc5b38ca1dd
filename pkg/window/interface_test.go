package window

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type MockProbe struct {
	mu            sync.Mutex
	infos         []*ActivityInfo
	err           error
	locked        bool
	isAvailable   bool
	displayServer string
	closeError    error
}

func (m *MockProbe) Foreground() (*ActivityInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if len(m.infos) == 0 {
		return nil, nil
	}
	info := m.infos[0]
	if len(m.infos) > 1 {
		m.infos = m.infos[1:]
	}
	return info, nil
}

func (m *MockProbe) IsLocked() bool {
	return m.locked
}

func (m *MockProbe) IsAvailable() bool {
	return m.isAvailable
}

func (m *MockProbe) GetDisplayServer() string {
	return m.displayServer
}

func (m *MockProbe) Close() error {
	return m.closeError
}

func TestMockProbe(t *testing.T) {
	var _ Probe = (*MockProbe)(nil)
	var _ Monitor = (*PollingMonitor)(nil)

	mock := &MockProbe{
		infos:         []*ActivityInfo{{WindowHandle: 5, ProcessName: "chrome", DisplayServer: "x11"}},
		isAvailable:   true,
		displayServer: "x11",
	}

	info, err := mock.Foreground()
	if err != nil {
		t.Errorf("Foreground() error: %v", err)
	}
	if info.ProcessName != "chrome" {
		t.Errorf("ProcessName = %s, want chrome", info.ProcessName)
	}
	if !mock.IsAvailable() {
		t.Error("IsAvailable() = false, want true")
	}
	if mock.GetDisplayServer() != "x11" {
		t.Errorf("GetDisplayServer() = %s, want x11", mock.GetDisplayServer())
	}
}

func TestSameFocus(t *testing.T) {
	tests := []struct {
		name string
		a, b ActivityInfo
		want bool
	}{
		{
			name: "Identical",
			a:    ActivityInfo{WindowHandle: 5, FocusedElement: 7, ProcessName: "chrome"},
			b:    ActivityInfo{WindowHandle: 5, FocusedElement: 7, ProcessName: "chrome", Title: "other"},
			want: true,
		},
		{
			name: "Different control",
			a:    ActivityInfo{WindowHandle: 5, FocusedElement: 7},
			b:    ActivityInfo{WindowHandle: 5, FocusedElement: 8},
			want: false,
		},
		{
			name: "Different window",
			a:    ActivityInfo{WindowHandle: 5},
			b:    ActivityInfo{WindowHandle: 6},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.SameFocus(tt.b); got != tt.want {
				t.Errorf("SameFocus() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPollingMonitorObserve(t *testing.T) {
	m := NewPollingMonitor(&MockProbe{}, time.Second, "gnome-shell")

	first, ok := m.observe(ActivityInfo{WindowHandle: 5, FocusedElement: 1, ProcessName: "chrome"})
	if !ok || !first.IsNewWindow {
		t.Fatalf("first snapshot: ok=%v new=%v, want emitted new window", ok, first.IsNewWindow)
	}
	if first.Timestamp.IsZero() {
		t.Error("Timestamp should be stamped")
	}

	if _, ok := m.observe(ActivityInfo{WindowHandle: 5, FocusedElement: 1, ProcessName: "chrome"}); ok {
		t.Error("repeat snapshot should be filtered")
	}

	sub, ok := m.observe(ActivityInfo{WindowHandle: 5, FocusedElement: 2, ProcessName: "chrome"})
	if !ok || sub.IsNewWindow {
		t.Errorf("control change: ok=%v new=%v, want emitted same window", ok, sub.IsNewWindow)
	}

	if _, ok := m.observe(ActivityInfo{WindowHandle: 9, ProcessName: "Gnome-Shell"}); ok {
		t.Error("ignored process should be filtered")
	}

	other, ok := m.observe(ActivityInfo{WindowHandle: 6, ProcessName: "firefox"})
	if !ok || !other.IsNewWindow {
		t.Errorf("window change: ok=%v new=%v, want emitted new window", ok, other.IsNewWindow)
	}

	if last := m.Last(); last == nil || last.WindowHandle != 6 {
		t.Errorf("Last() = %+v", last)
	}
}

func TestPollingMonitorStart(t *testing.T) {
	probe := &MockProbe{
		infos: []*ActivityInfo{
			{WindowHandle: 1, ProcessName: "chrome"},
			{WindowHandle: 2, ProcessName: "firefox"},
		},
	}
	m := NewPollingMonitor(probe, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := m.Start(ctx); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if err := m.Start(ctx); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Start() = %v, want ErrAlreadyRunning", err)
	}

	var got []ActivityInfo
	timeout := time.After(2 * time.Second)
	for len(got) < 2 {
		select {
		case info := <-m.FocusChanges():
			got = append(got, info)
		case <-timeout:
			t.Fatalf("timed out with %d events", len(got))
		}
	}

	if got[0].ProcessName != "chrome" || got[1].ProcessName != "firefox" {
		t.Errorf("events out of order: %+v", got)
	}

	cancel()
	for range m.FocusChanges() {
	}
}

func TestPollingMonitorErrors(t *testing.T) {
	probe := &MockProbe{err: errors.New("no display")}
	m := NewPollingMonitor(probe, time.Hour)

	var seen error
	m.OnError = func(err error) { seen = err }
	m.poll(context.Background())

	if seen == nil {
		t.Error("OnError was not called")
	}
}
