// Package command holds the global command handlers. A handler is built per
// dispatch, bound to one command name, and usually starts a functional agent.
package command

import (
	"context"

	"go.uber.org/zap"

	"appagent/internal/agent"
	"appagent/internal/manager"
	"appagent/pkg/window"
)

// Commands handled globally.
const (
	CmdPhraseSpeak             = "CmdPhraseSpeak"
	CmdShowEditPhrasesSettings = "CmdShowEditPhrasesSettings"
	CmdSwitchWindows           = "CmdSwitchWindows"
)

// Activator is the part of the agent manager handlers depend on.
type Activator interface {
	CanActivateFunctionalAgent() bool
	AgentByCategory(category string) (agent.FunctionalAgent, error)
	ActivateAgent(ctx context.Context, f agent.FunctionalAgent) *manager.Task
	Foreground() window.ActivityInfo
}

// Env is shared by every handler.
type Env struct {
	Agents Activator
	Logger *zap.Logger
}

// Handler executes the command it was built for.
type Handler interface {
	Command() string
	Execute(ctx context.Context) agent.Outcome
}

type base struct {
	command string
	env     Env
}

func newBase(command string, env Env) base {
	if env.Logger == nil {
		env.Logger = zap.NewNop()
	}
	return base{command: command, env: env}
}

func (b base) Command() string { return b.command }

// activate configures the agent registered under category and starts it.
// The returned task is not awaited; the manager logs its failure.
func (b base) activate(ctx context.Context, category string, opts agent.Options) agent.Outcome {
	f, err := b.env.Agents.AgentByCategory(category)
	if err != nil {
		b.env.Logger.Warn("functional agent unavailable",
			zap.String("command", b.command),
			zap.String("category", category),
			zap.Error(err),
		)
		return agent.Failed
	}

	if c, ok := f.(agent.Configurable); ok {
		if err := c.Configure(opts); err != nil {
			b.env.Logger.Warn("functional agent rejected options",
				zap.String("command", b.command),
				zap.String("agent", f.Name()),
				zap.Error(err),
			)
			return agent.Failed
		}
	}

	_ = b.env.Agents.ActivateAgent(ctx, f)
	return agent.Handled
}

// ShowPhraseSpeakHandler opens the phrase list, or the phrase editor.
type ShowPhraseSpeakHandler struct{ base }

func NewShowPhraseSpeakHandler(command string, _ any, env Env) Handler {
	return &ShowPhraseSpeakHandler{newBase(command, env)}
}

func (h *ShowPhraseSpeakHandler) Execute(ctx context.Context) agent.Outcome {
	var opts agent.PhraseSpeakOptions
	switch h.command {
	case CmdPhraseSpeak:
		opts = agent.PhraseSpeakOptions{EnableSearch: true, PhraseListEdit: false}
	case CmdShowEditPhrasesSettings:
		opts = h.current()
		opts.PhraseListEdit = true
	default:
		return agent.NotHandled
	}

	if !h.env.Agents.CanActivateFunctionalAgent() {
		return agent.Denied
	}
	return h.activate(ctx, agent.CategoryPhraseSpeak, opts)
}

// current returns the phrase agent's options so the editor keeps the
// search setting of the last activation.
func (h *ShowPhraseSpeakHandler) current() agent.PhraseSpeakOptions {
	f, err := h.env.Agents.AgentByCategory(agent.CategoryPhraseSpeak)
	if err != nil {
		return agent.PhraseSpeakOptions{}
	}
	if p, ok := f.(*agent.PhraseSpeakAgent); ok {
		return p.Options()
	}
	return agent.PhraseSpeakOptions{}
}

// ShowSwitchWindowsHandler opens the window switcher. The switcher lists
// windows of the process passed as argument, or of the foreground process.
type ShowSwitchWindowsHandler struct {
	base
	filter string
}

func NewShowSwitchWindowsHandler(command string, arg any, env Env) Handler {
	filter, _ := arg.(string)
	return &ShowSwitchWindowsHandler{base: newBase(command, env), filter: filter}
}

func (h *ShowSwitchWindowsHandler) Execute(ctx context.Context) agent.Outcome {
	if h.command != CmdSwitchWindows {
		return agent.NotHandled
	}
	if !h.env.Agents.CanActivateFunctionalAgent() {
		return agent.Denied
	}

	filter := h.filter
	if filter == "" {
		filter = h.env.Agents.Foreground().ProcessName
	}
	return h.activate(ctx, agent.CategorySwitchWindows, agent.SwitchWindowsOptions{FilterProcess: filter})
}
