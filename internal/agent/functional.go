package agent

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"appagent/internal/panel"
	"appagent/internal/textctl"
)

// Categories used to look functional agents up.
const (
	CategoryPhraseSpeak   = "PhraseSpeakAgent"
	CategorySwitchWindows = "SwitchWindowsAgent"
)

// Panels shown by the functional agents.
const (
	PanelPhraseSpeak    = "PhraseSpeak"
	PanelPhraseListEdit = "PhraseListEdit"
	PanelSwitchWindows  = "SwitchWindows"
)

// CmdGoBack closes the active functional agent.
const CmdGoBack = "CmdGoBack"

// session tracks one activation of a functional agent.
type session struct {
	mu   sync.Mutex
	done chan struct{}
}

func (s *session) begin() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done = make(chan struct{})
	return s.done
}

// Close ends the running activation. It is a no-op when none is running.
func (s *session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		close(s.done)
		s.done = nil
	}
}

func (s *session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done != nil
}

func (s *session) wait(ctx context.Context, done <-chan struct{}) error {
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.Close()
		return ctx.Err()
	}
}

// PhraseSpeakAgent shows the phrase list, or its editor.
type PhraseSpeakAgent struct {
	session
	ctx Context

	optsMu sync.Mutex
	opts   PhraseSpeakOptions
}

func NewPhraseSpeakAgent(ctx Context) *PhraseSpeakAgent {
	return &PhraseSpeakAgent{ctx: ctx.withDefaults()}
}

func (p *PhraseSpeakAgent) Name() string     { return "phrase-speak" }
func (p *PhraseSpeakAgent) Category() string { return CategoryPhraseSpeak }

func (p *PhraseSpeakAgent) Configure(opts Options) error {
	o, ok := opts.(PhraseSpeakOptions)
	if !ok {
		return ErrUnsupportedOptions
	}
	p.optsMu.Lock()
	p.opts = o
	p.optsMu.Unlock()
	return nil
}

func (p *PhraseSpeakAgent) Options() PhraseSpeakOptions {
	p.optsMu.Lock()
	defer p.optsMu.Unlock()
	return p.opts
}

func (p *PhraseSpeakAgent) Activate(ctx context.Context, host Host) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	opts := p.Options()
	done := p.begin()

	name := PanelPhraseSpeak
	if opts.PhraseListEdit {
		name = PanelPhraseListEdit
	}
	label := ""
	if opts.EnableSearch {
		label = "search"
	}

	if err := p.ctx.Panels.Show(ctx, panel.NewRequest(name, label, host.Foreground(), panel.Forced())); err != nil {
		p.Close()
		return err
	}
	p.ctx.Logger.Debug("phrase speak active", zap.String("panel", name))
	return p.wait(ctx, done)
}

func (p *PhraseSpeakAgent) OnRunCommand(_ context.Context, command string, _ any) Outcome {
	if command == CmdGoBack && p.Active() {
		p.Close()
		return Handled
	}
	return NotHandled
}

// SwitchWindowsAgent shows the window switcher with its own search control.
type SwitchWindowsAgent struct {
	session
	ctx Context

	optsMu sync.Mutex
	opts   SwitchWindowsOptions
}

func NewSwitchWindowsAgent(ctx Context) *SwitchWindowsAgent {
	return &SwitchWindowsAgent{ctx: ctx.withDefaults()}
}

func (s *SwitchWindowsAgent) Name() string     { return "switch-windows" }
func (s *SwitchWindowsAgent) Category() string { return CategorySwitchWindows }

func (s *SwitchWindowsAgent) Configure(opts Options) error {
	o, ok := opts.(SwitchWindowsOptions)
	if !ok {
		return ErrUnsupportedOptions
	}
	s.optsMu.Lock()
	s.opts = o
	s.optsMu.Unlock()
	return nil
}

func (s *SwitchWindowsAgent) Options() SwitchWindowsOptions {
	s.optsMu.Lock()
	defer s.optsMu.Unlock()
	return s.opts
}

func (s *SwitchWindowsAgent) Activate(ctx context.Context, host Host) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	opts := s.Options()
	done := s.begin()

	info := host.Foreground()
	restore := host.UseText(textctl.New(textctl.SwitchWindowsControl{}, info.FocusedElement, s.ctx.TextDeps()))
	defer restore()

	req := panel.NewRequest(PanelSwitchWindows, opts.FilterProcess, info, panel.Forced(), panel.OnCurrentScreen())
	if err := s.ctx.Panels.Show(ctx, req); err != nil {
		s.Close()
		return err
	}
	return s.wait(ctx, done)
}

func (s *SwitchWindowsAgent) OnRunCommand(_ context.Context, command string, _ any) Outcome {
	if command == CmdGoBack && s.Active() {
		s.Close()
		return Handled
	}
	return NotHandled
}
