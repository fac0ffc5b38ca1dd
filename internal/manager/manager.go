package manager

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"appagent/internal/agent"
	"appagent/internal/config"
	"appagent/internal/metrics"
	"appagent/internal/textctl"
	"appagent/pkg/keyboard"
	"appagent/pkg/window"
)

// GlobalAgent labels commands resolved by the global handler chain.
const GlobalAgent = "global"

// errDismissed is the cancel cause of an activation closed by CmdGoBack.
var errDismissed = errors.New("dismissed")

// CommandRecord describes one dispatched command.
type CommandRecord struct {
	ID       string
	Agent    string
	Command  string
	Outcome  agent.Outcome
	Process  string
	Duration time.Duration
	At       time.Time
}

// Options configure a Manager.
type Options struct {
	Logger     *zap.Logger
	Metrics    *metrics.Metrics
	Keyboard   keyboard.Synthesizer
	Dictionary *textctl.Dictionary

	// OnCommand is called after every dispatch, with the UI lock held.
	OnCommand func(CommandRecord)
}

// Manager owns the agents and serializes everything that touches them.
// Focus events, commands and typed text run under one lock, the UI thread.
// Functional agent activation runs on its own goroutine and is tracked
// under a separate lock so handlers can start one from inside a dispatch.
type Manager struct {
	logger     *zap.Logger
	metrics    *metrics.Metrics
	keyboard   keyboard.Synthesizer
	dictionary *textctl.Dictionary
	onCommand  func(CommandRecord)

	mu           sync.Mutex
	agents       []*agent.AppAgent
	byProcess    map[string]*agent.AppAgent
	fallback     agent.Link
	current      *agent.AppAgent
	textOverride textctl.Agent

	focus atomic.Pointer[window.ActivityInfo]

	stateMu    sync.Mutex
	functional map[string]agent.FunctionalAgent
	active     agent.FunctionalAgent
	task       *Task
	tasks      sync.WaitGroup
	closed     bool
}

func New(opts Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Keyboard == nil {
		opts.Keyboard = keyboard.NewRecorder()
	}
	if opts.Dictionary == nil {
		opts.Dictionary = textctl.NewDictionary(nil, nil)
	}
	return &Manager{
		logger:     opts.Logger.Named("manager"),
		metrics:    opts.Metrics,
		keyboard:   opts.Keyboard,
		dictionary: opts.Dictionary,
		onCommand:  opts.OnCommand,
		byProcess:  make(map[string]*agent.AppAgent),
		functional: make(map[string]agent.FunctionalAgent),
	}
}

// Register adds an application agent for every process it claims.
func (m *Manager) Register(a *agent.AppAgent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	procs := a.ProcessesSupported()
	for _, p := range procs {
		if owner, ok := m.byProcess[strings.ToLower(p.ProcessName)]; ok {
			return errors.Errorf("process %q is already claimed by agent %q", p.ProcessName, owner.Name())
		}
	}
	for _, p := range procs {
		m.byProcess[strings.ToLower(p.ProcessName)] = a
	}
	m.agents = append(m.agents, a)
	a.SetFallback(agent.LinkFunc(m.runFallback))
	return nil
}

// RegisterFunctional adds a functional agent under its category.
func (m *Manager) RegisterFunctional(f agent.FunctionalAgent) {
	m.stateMu.Lock()
	m.functional[f.Category()] = f
	m.stateMu.Unlock()
}

// SetFallback installs the global handler chain consulted last.
func (m *Manager) SetFallback(l agent.Link) {
	m.mu.Lock()
	m.fallback = l
	m.mu.Unlock()
}

// runFallback is reached from inside a dispatch, with mu held.
func (m *Manager) runFallback(ctx context.Context, command string, arg any) agent.Outcome {
	if m.fallback == nil {
		return agent.NotHandled
	}
	return m.fallback.OnRunCommand(ctx, command, arg)
}

func (m *Manager) Agents() []*agent.AppAgent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]*agent.AppAgent(nil), m.agents...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

func (m *Manager) FunctionalAgents() []agent.FunctionalAgent {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	out := make([]agent.FunctionalAgent, 0, len(m.functional))
	for _, f := range m.functional {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category() < out[j].Category() })
	return out
}

// AgentFor returns the agent claiming process, or nil.
func (m *Manager) AgentFor(process string) *agent.AppAgent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byProcess[strings.ToLower(process)]
}

// AgentByCategory looks a functional agent up. It does not take the UI lock
// so handlers can call it during a dispatch.
func (m *Manager) AgentByCategory(category string) (agent.FunctionalAgent, error) {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	f, ok := m.functional[category]
	if !ok {
		return nil, errors.Wrap(agent.ErrAgentNotFound, category)
	}
	return f, nil
}

// Foreground returns the latest focus snapshot. Lock free.
func (m *Manager) Foreground() window.ActivityInfo {
	if info := m.focus.Load(); info != nil {
		return *info
	}
	return window.ActivityInfo{}
}

// Current returns the focused application agent, or nil.
func (m *Manager) Current() *agent.AppAgent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// OnFocusChanged routes a focus event. When the owning agent changes, the
// previous agent's OnFocusLost runs first.
func (m *Manager) OnFocusChanged(ctx context.Context, info window.ActivityInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := info
	m.focus.Store(&snapshot)

	next := m.byProcess[strings.ToLower(info.ProcessName)]
	if next != m.current {
		if m.current != nil {
			m.current.OnFocusLost()
			m.logger.Debug("focus lost", zap.String("agent", m.current.Name()))
		}
		m.current = next
	}
	if next == nil {
		return
	}

	next.OnFocusChanged(ctx, info)
	m.metrics.RecordFocusChange(next.Name(), info.IsNewWindow)
}

// OnFocusLost tells the focused agent it lost focus, e.g. on screen lock.
func (m *Manager) OnFocusLost() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		m.current.OnFocusLost()
		m.current = nil
	}
}

// RunCommand dispatches a command: the active functional agent first, then
// the focused application agent with its fallbacks, then the global chain.
func (m *Manager) RunCommand(ctx context.Context, command string, arg any) agent.Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()

	start := time.Now()
	name := GlobalAgent
	out := agent.NotHandled

	if active := m.Active(); active != nil {
		out = active.OnRunCommand(ctx, command, arg)
		if !out.IsHandled() && command == agent.CmdGoBack {
			// The agent has not opened its panel yet.
			out = m.dismiss(active)
		}
		if out.IsHandled() {
			name = active.Name()
		}
	}
	if !out.IsHandled() {
		if m.current != nil {
			name = m.current.Name()
			out = m.current.OnRunCommand(ctx, command, arg)
		} else {
			out = m.runFallback(ctx, command, arg)
		}
	}

	rec := CommandRecord{
		ID:       uuid.NewString(),
		Agent:    name,
		Command:  command,
		Outcome:  out,
		Process:  m.Foreground().ProcessName,
		Duration: time.Since(start),
		At:       start,
	}
	m.metrics.RecordCommand(rec.Agent, rec.Command, out.String())
	m.logger.Debug("command dispatched",
		zap.String("id", rec.ID),
		zap.String("command", command),
		zap.String("agent", name),
		zap.Stringer("outcome", out),
	)
	if m.onCommand != nil {
		m.onCommand(rec)
	}
	return out
}

// CheckCommandEnabled asks the focused agent.
func (m *Manager) CheckCommandEnabled(arg *agent.CommandEnabledArg) {
	m.mu.Lock()
	defer m.mu.Unlock()
	arg.Enabled = false
	if m.current != nil {
		m.current.CheckCommandEnabled(arg)
	}
}

// Text returns the text control receiving typed input, or nil.
func (m *Manager) Text() textctl.Agent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.textLocked()
}

func (m *Manager) textLocked() textctl.Agent {
	if m.textOverride != nil {
		return m.textOverride
	}
	if m.current != nil {
		return m.current.Text()
	}
	return nil
}

// TypeText types through the focused text control so abbreviations and
// spelling corrections apply.
func (m *Manager) TypeText(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t := m.textLocked(); t != nil {
		return t.Type(text)
	}
	return m.keyboard.Type(text)
}

// CanActivateFunctionalAgent reports whether no functional agent is running.
func (m *Manager) CanActivateFunctionalAgent() bool {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	return m.active == nil && !m.closed
}

// Active returns the running functional agent, or nil.
func (m *Manager) Active() agent.FunctionalAgent {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	return m.active
}

// ActivateAgent starts f on its own goroutine and returns immediately.
// The activation outlives ctx's cancellation; use Task.Cancel to stop it.
func (m *Manager) ActivateAgent(ctx context.Context, f agent.FunctionalAgent) *Task {
	m.stateMu.Lock()
	if m.closed {
		m.stateMu.Unlock()
		return failedTask(f.Name(), errors.New("manager is closed"))
	}
	if m.active != nil {
		m.stateMu.Unlock()
		return failedTask(f.Name(), agent.ErrActivationInProgress)
	}

	taskCtx, cancel := context.WithCancelCause(context.WithoutCancel(ctx))
	task := newTask(f.Name(), cancel)
	m.active = f
	m.task = task
	m.tasks.Add(1)
	m.stateMu.Unlock()

	m.metrics.ActivationStarted()
	m.logger.Info("activating agent", zap.String("agent", f.Name()), zap.String("task", task.ID))

	go m.run(taskCtx, f, task)
	return task
}

func (m *Manager) run(ctx context.Context, f agent.FunctionalAgent, task *Task) {
	defer m.tasks.Done()

	err := m.activate(ctx, f)

	m.stateMu.Lock()
	if m.active == f {
		m.active = nil
		m.task = nil
	}
	m.stateMu.Unlock()
	task.cancel(nil)

	if errors.Is(context.Cause(ctx), errDismissed) && (err == nil || errors.Is(err, context.Canceled)) {
		err = nil
	}

	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		result = "cancelled"
	default:
		result = "error"
		m.logger.Error("agent activation failed", zap.String("agent", f.Name()), zap.String("task", task.ID), zap.Error(err))
	}
	m.metrics.ActivationFinished(f.Name(), result)
	task.finish(err)
}

// dismiss cancels f's activation if it is still the running one.
func (m *Manager) dismiss(f agent.FunctionalAgent) agent.Outcome {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	if m.active != f || m.task == nil {
		return agent.NotHandled
	}
	m.task.dismiss()
	return agent.Handled
}

// activate converts a panic inside the agent into an error.
func (m *Manager) activate(ctx context.Context, f agent.FunctionalAgent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("agent %s panicked: %v", f.Name(), r)
		}
	}()
	return f.Activate(ctx, host{m})
}

// ApplyConfig pushes reloadable settings to the agents.
func (m *Manager) ApplyConfig(cfg *config.Config) {
	m.dictionary.Replace(cfg.Agents.Abbreviations, cfg.Agents.Spellings)
	for _, a := range m.Agents() {
		a.SetAutoSwitch(cfg.AutoSwitchFor(a.Name()))
	}
}

// Status is a point-in-time view for the CLI and web API.
type Status struct {
	CurrentAgent     string              `json:"current_agent"`
	Foreground       window.ActivityInfo `json:"foreground"`
	ScannerShown     bool                `json:"scanner_shown"`
	ActiveFunctional string              `json:"active_functional,omitempty"`
	ActiveTask       string              `json:"active_task,omitempty"`
	Agents           int                 `json:"agents"`
}

func (m *Manager) Status() Status {
	m.mu.Lock()
	st := Status{Foreground: m.Foreground(), Agents: len(m.agents)}
	if m.current != nil {
		st.CurrentAgent = m.current.Name()
		st.ScannerShown = m.current.ScannerShown()
	}
	m.mu.Unlock()

	m.stateMu.Lock()
	if m.active != nil {
		st.ActiveFunctional = m.active.Name()
		st.ActiveTask = m.task.ID
	}
	m.stateMu.Unlock()
	return st
}

// Close cancels a running activation and waits for it to end.
func (m *Manager) Close() {
	m.stateMu.Lock()
	m.closed = true
	task := m.task
	m.stateMu.Unlock()

	if task != nil {
		task.Cancel()
	}
	m.tasks.Wait()
}

// host is the Manager as seen by a running functional agent.
type host struct{ m *Manager }

func (h host) Foreground() window.ActivityInfo { return h.m.Foreground() }

func (h host) UseText(t textctl.Agent) func() {
	h.m.mu.Lock()
	prev := h.m.textOverride
	h.m.textOverride = t
	h.m.mu.Unlock()

	return func() {
		h.m.mu.Lock()
		h.m.textOverride = prev
		h.m.mu.Unlock()
	}
}
