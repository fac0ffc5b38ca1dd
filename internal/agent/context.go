package agent

import (
	"context"

	"go.uber.org/zap"

	"appagent/internal/metrics"
	"appagent/internal/panel"
	"appagent/internal/textctl"
	"appagent/pkg/keyboard"
	"appagent/pkg/window"
)

// Switcher shows the task switcher, optionally filtered to one process.
type Switcher interface {
	ShowTaskSwitcher(ctx context.Context, process string, info window.ActivityInfo) error
}

// Context carries the collaborators every agent is built with.
type Context struct {
	Keyboard keyboard.Synthesizer
	Panels   panel.Dispatcher
	Switcher Switcher

	// Foreground returns the current foreground snapshot.
	Foreground func() window.ActivityInfo

	Dictionary *textctl.Dictionary
	Audit      textctl.AuditFunc

	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

func (c Context) withDefaults() Context {
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.Keyboard == nil {
		c.Keyboard = keyboard.NewRecorder()
	}
	if c.Panels == nil {
		c.Panels = panel.NewRecorder(0)
	}
	if c.Switcher == nil {
		c.Switcher = panel.Switcher{Dispatcher: c.Panels}
	}
	if c.Foreground == nil {
		c.Foreground = func() window.ActivityInfo { return window.ActivityInfo{} }
	}
	if c.Dictionary == nil {
		c.Dictionary = textctl.NewDictionary(nil, nil)
	}
	return c
}

// TextDeps returns the dependencies for building text controls.
func (c Context) TextDeps() textctl.Deps {
	return textctl.Deps{
		Keyboard:   c.Keyboard,
		Dictionary: c.Dictionary,
		Audit:      c.Audit,
		Metrics:    c.Metrics,
		Logger:     c.Logger,
	}
}

// Host is what a functional agent sees of the manager while it runs.
type Host interface {
	Foreground() window.ActivityInfo

	// UseText installs t as the focused text control until restore is called.
	UseText(t textctl.Agent) (restore func())
}

// FunctionalAgent takes over input for a while, e.g. the phrase list.
// Activate blocks until the agent finishes or ctx is cancelled.
type FunctionalAgent interface {
	Link
	Name() string
	Category() string
	Activate(ctx context.Context, host Host) error
}
