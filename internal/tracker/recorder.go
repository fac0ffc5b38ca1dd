package tracker

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"appagent/internal/manager"
	"appagent/internal/models"
	"appagent/internal/panel"
)

// Store is the persistence the tracker writes to.
type Store interface {
	CreateFocusEvent(*models.FocusEvent) error
	UpdateFocusDuration(id uint, seconds int64) error
	CreateCommandEvent(*models.CommandEvent) error
	CreatePanelEvent(*models.PanelEvent) error
	CreateAuditEvent(*models.AuditEvent) error
	CreateErrorLog(*models.ErrorLog) error
}

const (
	queueSize = 256

	// errorRepeat is how long an identical error is kept out of the log.
	errorRepeat = time.Minute
)

// Recorder writes activity to the store on its own goroutine so callers
// holding the UI lock never wait on the database. Writes are applied in
// the order they were queued.
type Recorder struct {
	store  Store
	logger *zap.Logger

	queue chan func(Store) error
	done  chan struct{}
	once  sync.Once
	wg    sync.WaitGroup

	mu        sync.Mutex
	lastErr   string
	lastErrAt time.Time
}

func NewRecorder(store Store, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		store:  store,
		logger: logger.Named("recorder"),
		queue:  make(chan func(Store) error, queueSize),
		done:   make(chan struct{}),
	}
}

// Start launches the writer.
func (r *Recorder) Start() {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for {
			select {
			case fn := <-r.queue:
				r.apply(fn)
			case <-r.done:
				r.flush()
				return
			}
		}
	}()
}

// Close stops the writer after applying what is queued.
func (r *Recorder) Close() {
	r.once.Do(func() { close(r.done) })
	r.wg.Wait()
}

// RecordCommand queues a dispatched command.
func (r *Recorder) RecordCommand(rec manager.CommandRecord) {
	event := &models.CommandEvent{
		RecordID:    rec.ID,
		Timestamp:   rec.At,
		Agent:       rec.Agent,
		Command:     rec.Command,
		Outcome:     rec.Outcome.String(),
		ProcessName: rec.Process,
		Micros:      rec.Duration.Microseconds(),
	}
	r.enqueue(func(st Store) error { return st.CreateCommandEvent(event) })
}

// RecordPanel queues a panel request.
func (r *Recorder) RecordPanel(req panel.Request) {
	event := &models.PanelEvent{
		RequestID:     req.ID,
		Timestamp:     req.RequestedAt,
		Panel:         req.Panel,
		ContextLabel:  req.ContextLabel,
		ProcessName:   req.Window.ProcessName,
		ForceShow:     req.ForceShow,
		CurrentScreen: req.UseCurrentScreenAsParent,
	}
	r.enqueue(func(st Store) error { return st.CreatePanelEvent(event) })
}

// RecordAudit queues an audit event. It matches textctl.AuditFunc.
func (r *Recorder) RecordAudit(kind, detail string) {
	event := &models.AuditEvent{Timestamp: time.Now(), Kind: kind, Detail: detail}
	r.enqueue(func(st Store) error { return st.CreateAuditEvent(event) })
}

// ReportError stores err in the error log. Repeats of the previous error
// are dropped for a minute.
func (r *Recorder) ReportError(source string, err error) {
	msg := err.Error()
	now := time.Now()

	r.mu.Lock()
	repeat := msg == r.lastErr && now.Sub(r.lastErrAt) < errorRepeat
	if !repeat {
		r.lastErr, r.lastErrAt = msg, now
	}
	r.mu.Unlock()
	if repeat {
		return
	}

	r.logger.Warn("error reported", zap.String("source", source), zap.Error(err))
	r.enqueue(func(st Store) error {
		return st.CreateErrorLog(&models.ErrorLog{Timestamp: now, Source: source, ErrorMsg: msg})
	})
}

func (r *Recorder) enqueue(fn func(Store) error) {
	select {
	case r.queue <- fn:
	default:
		r.logger.Warn("write queue full, dropping event")
	}
}

func (r *Recorder) flush() {
	for {
		select {
		case fn := <-r.queue:
			r.apply(fn)
		default:
			return
		}
	}
}

func (r *Recorder) apply(fn func(Store) error) {
	if err := fn(r.store); err != nil {
		r.logger.Error("failed to store event", zap.Error(err))
	}
}
