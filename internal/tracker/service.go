package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"appagent/internal/agent"
	"appagent/internal/config"
	"appagent/internal/models"
	"appagent/pkg/window"
)

// Sink receives focus changes, normally the agent manager.
type Sink interface {
	OnFocusChanged(ctx context.Context, info window.ActivityInfo)
	OnFocusLost()
	AgentFor(process string) *agent.AppAgent
}

// lastFocus is implemented by monitors that remember the last snapshot.
type lastFocus interface {
	Last() *window.ActivityInfo
}

// Service feeds focus changes from the monitor to the agents and records
// focus time through the Recorder.
type Service struct {
	config  *config.Config
	rec     *Recorder
	monitor window.Monitor
	sink    Sink
	logger  *zap.Logger

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	current  *models.FocusEvent
	locked   bool
}

func NewService(cfg *config.Config, rec *Recorder, monitor window.Monitor, sink Sink, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		config:   cfg,
		rec:      rec,
		monitor:  monitor,
		sink:     sink,
		logger:   logger.Named("tracker"),
		stopChan: make(chan struct{}),
	}
}

// Start watches focus until ctx ends or Stop is called. It blocks.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("tracker is already running")
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	if err := s.monitor.Start(ctx); err != nil {
		return errors.Wrap(err, "failed to start focus monitor")
	}
	s.logger.Info("starting tracker",
		zap.Duration("poll_interval", s.config.Tracker.PollInterval),
		zap.String("display_server", s.monitor.GetDisplayServer()),
	)

	ticker := time.NewTicker(s.config.Tracker.PollInterval)
	defer ticker.Stop()

	err := s.loop(ctx, ticker.C)
	s.closeCurrent(time.Now())
	return err
}

func (s *Service) loop(ctx context.Context, tick <-chan time.Time) error {
	events := s.monitor.FocusChanges()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("tracker stopped by context")
			return ctx.Err()

		case <-s.stopChan:
			s.logger.Info("tracker stopped")
			return nil

		case info, ok := <-events:
			if !ok {
				return nil
			}
			s.handleFocus(ctx, info)

		case now := <-tick:
			s.checkLock(ctx, now)
		}
	}
}

func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		select {
		case <-s.stopChan:
		default:
			close(s.stopChan)
		}
	}
}

func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Service) handleFocus(ctx context.Context, info window.ActivityInfo) {
	s.mu.Lock()
	locked := s.locked
	s.mu.Unlock()
	if locked {
		return
	}

	s.sink.OnFocusChanged(ctx, info)

	if !info.IsNewWindow {
		return
	}
	s.closeCurrent(info.Timestamp)

	event := &models.FocusEvent{
		Timestamp:     info.Timestamp,
		ProcessName:   info.ProcessName,
		WindowTitle:   info.Title,
		WindowHandle:  info.WindowHandle,
		NewWindow:     info.IsNewWindow,
		DisplayServer: info.DisplayServer,
	}
	if a := s.sink.AgentFor(info.ProcessName); a != nil {
		event.Agent = a.Name()
	}

	s.mu.Lock()
	s.current = event
	s.mu.Unlock()
	s.rec.enqueue(func(st Store) error { return st.CreateFocusEvent(event) })
}

// closeCurrent settles the duration of the open focus event.
func (s *Service) closeCurrent(end time.Time) {
	s.mu.Lock()
	event := s.current
	s.current = nil
	s.mu.Unlock()
	if event == nil {
		return
	}

	seconds := int64(end.Sub(event.Timestamp) / time.Second)
	if seconds < 0 {
		seconds = 0
	}
	s.rec.enqueue(func(st Store) error {
		// The insert ran earlier on this queue, so the ID is set.
		return st.UpdateFocusDuration(event.ID, seconds)
	})
}

// checkLock reports focus loss while the session is locked and replays the
// last focus once it unlocks.
func (s *Service) checkLock(ctx context.Context, now time.Time) {
	locked := s.monitor.IsLocked()

	s.mu.Lock()
	changed := locked != s.locked
	s.locked = locked
	s.mu.Unlock()
	if !changed {
		return
	}

	if locked {
		s.logger.Info("session locked")
		s.sink.OnFocusLost()
		s.closeCurrent(now)
		s.rec.enqueue(func(st Store) error {
			return st.CreateFocusEvent(&models.FocusEvent{
				Timestamp:     now,
				ProcessName:   "locked",
				IsLocked:      true,
				DisplayServer: s.monitor.GetDisplayServer(),
			})
		})
		return
	}

	s.logger.Info("session unlocked")
	if lf, ok := s.monitor.(lastFocus); ok {
		if last := lf.Last(); last != nil {
			info := *last
			info.IsNewWindow = true
			info.Timestamp = now
			s.handleFocus(ctx, info)
		}
	}
}

// Current returns the focus the tracker last saw.
func (s *Service) Current() (window.ActivityInfo, bool) {
	if lf, ok := s.monitor.(lastFocus); ok {
		if last := lf.Last(); last != nil {
			return *last, true
		}
	}
	return window.ActivityInfo{}, false
}

func (s *Service) IsScreenLocked() bool {
	return s.monitor.IsLocked()
}
