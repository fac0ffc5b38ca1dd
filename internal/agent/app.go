package agent

import (
	"context"
	"sort"
	"sync/atomic"

	"go.uber.org/zap"

	"appagent/internal/panel"
	"appagent/internal/textctl"
	"appagent/pkg/window"
)

// ContextMenuPanel is shown for agents that do not name their own menu.
const ContextMenuPanel = "ContextMenu"

// Action is the effect bound to one command in a profile.
type Action func(ctx context.Context, a *AppAgent, arg any) error

// Profile describes one target application.
type Profile struct {
	Name      string
	Processes []ProcessInfo

	// Supported lists the commands CheckCommandEnabled turns on.
	Supported []string

	// Commands is the dispatch table. Listed commands never fall through.
	Commands map[string]Action

	// Label is the context label sent with every panel request.
	Label string

	// DefaultPanel is shown on focus when scanner auto-switching is on.
	DefaultPanel string
	ContextMenu  string

	// Behavior picks the text behavior for a newly focused control.
	Behavior func(info window.ActivityInfo) textctl.Behavior
}

// AppAgent drives one target application. Its methods are called with the
// manager's UI lock held and are never concurrent.
type AppAgent struct {
	profile   Profile
	supported map[string]struct{}
	ctx       Context
	logger    *zap.Logger
	generic   *GenericAgent

	autoSwitch atomic.Bool

	scannerShown bool
	text         textctl.Agent
}

func NewAppAgent(profile Profile, ctx Context) *AppAgent {
	ctx = ctx.withDefaults()
	a := &AppAgent{
		profile:   profile,
		supported: make(map[string]struct{}, len(profile.Supported)),
		ctx:       ctx,
		logger:    ctx.Logger.Named("agent." + profile.Name),
	}
	for _, cmd := range profile.Supported {
		a.supported[cmd] = struct{}{}
	}
	a.autoSwitch.Store(true)
	a.generic = NewGenericAgent(a, ctx)
	a.text = textctl.New(textctl.EditControl{}, 0, ctx.TextDeps())
	return a
}

func (a *AppAgent) Name() string { return a.profile.Name }

func (a *AppAgent) ProcessesSupported() []ProcessInfo {
	return append([]ProcessInfo(nil), a.profile.Processes...)
}

// SupportedCommands returns the supported set, sorted.
func (a *AppAgent) SupportedCommands() []string {
	cmds := append([]string(nil), a.profile.Supported...)
	sort.Strings(cmds)
	return cmds
}

// Commands returns the names in the dispatch table, sorted.
func (a *AppAgent) Commands() []string {
	cmds := make([]string, 0, len(a.profile.Commands))
	for name := range a.profile.Commands {
		cmds = append(cmds, name)
	}
	sort.Strings(cmds)
	return cmds
}

// SetAutoSwitch chooses between the preferred panel and Alphabet on focus.
// Safe to call from any goroutine.
func (a *AppAgent) SetAutoSwitch(on bool) { a.autoSwitch.Store(on) }

func (a *AppAgent) AutoSwitch() bool { return a.autoSwitch.Load() }

// SetFallback sets the link consulted after this agent and its generic handler.
func (a *AppAgent) SetFallback(next Link) { a.generic.next = next }

// Text returns the text control for the focused element.
func (a *AppAgent) Text() textctl.Agent { return a.text }

// ScannerShown reports whether the focus panel is up for the current window.
func (a *AppAgent) ScannerShown() bool { return a.scannerShown }

func (a *AppAgent) CheckCommandEnabled(arg *CommandEnabledArg) {
	_, ok := a.supported[arg.Command]
	arg.Enabled = ok
}

// OnFocusChanged shows the focus panel once per window until focus is lost.
// It always claims the event.
func (a *AppAgent) OnFocusChanged(ctx context.Context, info window.ActivityInfo) bool {
	if info.IsNewWindow {
		a.scannerShown = false
	}

	if !a.scannerShown {
		a.baseFocusChanged(info)

		name := panel.Alphabet
		if a.AutoSwitch() && a.profile.DefaultPanel != "" {
			name = a.profile.DefaultPanel
		}
		a.showPanel(ctx, name, info)
		a.scannerShown = true
	}
	return true
}

// baseFocusChanged builds the text control for the focused element.
func (a *AppAgent) baseFocusChanged(info window.ActivityInfo) {
	var behavior textctl.Behavior = textctl.EditControl{}
	if a.profile.Behavior != nil {
		if b := a.profile.Behavior(info); b != nil {
			behavior = b
		}
	}
	a.text = textctl.New(behavior, info.FocusedElement, a.ctx.TextDeps())
}

func (a *AppAgent) OnFocusLost() {
	a.scannerShown = false
}

// OnContextMenuRequest shows the agent's context menu.
func (a *AppAgent) OnContextMenuRequest(ctx context.Context, info window.ActivityInfo) error {
	name := a.profile.ContextMenu
	if name == "" {
		name = ContextMenuPanel
	}
	return a.show(ctx, panel.NewRequest(name, a.profile.Label, info))
}

// OnRunCommand runs a listed command or defers to the generic handler.
func (a *AppAgent) OnRunCommand(ctx context.Context, command string, arg any) Outcome {
	action, ok := a.profile.Commands[command]
	if !ok {
		return a.generic.OnRunCommand(ctx, command, arg)
	}

	if err := action(ctx, a, arg); err != nil {
		a.logger.Warn("command failed", zap.String("command", command), zap.Error(err))
		return Failed
	}
	return Handled
}

func (a *AppAgent) showPanel(ctx context.Context, name string, info window.ActivityInfo, opts ...panel.Option) {
	if err := a.show(ctx, panel.NewRequest(name, a.profile.Label, info, opts...)); err != nil {
		a.logger.Warn("panel request failed", zap.String("panel", name), zap.Error(err))
	}
}

func (a *AppAgent) show(ctx context.Context, req panel.Request) error {
	a.logger.Debug("show panel", zap.String("panel", req.Panel), zap.String("id", req.ID))
	return a.ctx.Panels.Show(ctx, req)
}
