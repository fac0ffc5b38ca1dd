package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appagent/internal/agent"
	"appagent/internal/manager"
	"appagent/internal/panel"
	"appagent/pkg/window"
)

type fakeActivator struct {
	allow       bool
	agents      map[string]agent.FunctionalAgent
	fg          window.ActivityInfo
	activations []agent.FunctionalAgent
}

func (f *fakeActivator) CanActivateFunctionalAgent() bool { return f.allow }

func (f *fakeActivator) AgentByCategory(category string) (agent.FunctionalAgent, error) {
	if a, ok := f.agents[category]; ok {
		return a, nil
	}
	return nil, agent.ErrAgentNotFound
}

func (f *fakeActivator) ActivateAgent(_ context.Context, a agent.FunctionalAgent) *manager.Task {
	f.activations = append(f.activations, a)
	return nil
}

func (f *fakeActivator) Foreground() window.ActivityInfo { return f.fg }

func newActivator(allow bool) (*fakeActivator, *agent.PhraseSpeakAgent, *agent.SwitchWindowsAgent) {
	phrase := agent.NewPhraseSpeakAgent(agent.Context{})
	switcher := agent.NewSwitchWindowsAgent(agent.Context{})
	return &fakeActivator{
		allow: allow,
		agents: map[string]agent.FunctionalAgent{
			agent.CategoryPhraseSpeak:   phrase,
			agent.CategorySwitchWindows: switcher,
		},
		fg: window.ActivityInfo{ProcessName: "chrome"},
	}, phrase, switcher
}

func TestPhraseSpeakOptions(t *testing.T) {
	tests := []struct {
		command string
		want    agent.PhraseSpeakOptions
	}{
		{CmdPhraseSpeak, agent.PhraseSpeakOptions{EnableSearch: true}},
		{CmdShowEditPhrasesSettings, agent.PhraseSpeakOptions{PhraseListEdit: true}},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			act, phrase, _ := newActivator(true)
			h := NewShowPhraseSpeakHandler(tt.command, nil, Env{Agents: act})

			assert.Equal(t, tt.command, h.Command())
			assert.Equal(t, agent.Handled, h.Execute(context.Background()))
			assert.Equal(t, tt.want, phrase.Options())
			require.Len(t, act.activations, 1)
			assert.Same(t, phrase, act.activations[0])
		})
	}
}

func TestEditPhrasesKeepsSearch(t *testing.T) {
	act, phrase, _ := newActivator(true)
	env := Env{Agents: act}

	require.Equal(t, agent.Handled, NewShowPhraseSpeakHandler(CmdPhraseSpeak, nil, env).Execute(context.Background()))
	require.Equal(t, agent.Handled, NewShowPhraseSpeakHandler(CmdShowEditPhrasesSettings, nil, env).Execute(context.Background()))
	assert.Equal(t, agent.PhraseSpeakOptions{EnableSearch: true, PhraseListEdit: true}, phrase.Options())

	require.Equal(t, agent.Handled, NewShowPhraseSpeakHandler(CmdPhraseSpeak, nil, env).Execute(context.Background()))
	assert.Equal(t, agent.PhraseSpeakOptions{EnableSearch: true}, phrase.Options())
}

func TestGateDenied(t *testing.T) {
	for _, cmd := range []string{CmdPhraseSpeak, CmdShowEditPhrasesSettings, CmdSwitchWindows} {
		act, phrase, _ := newActivator(false)
		reg := NewRegistry(Env{Agents: act})

		out := reg.OnRunCommand(context.Background(), cmd, nil)
		assert.Equal(t, agent.Denied, out, cmd)
		assert.True(t, out.IsHandled())
		assert.False(t, out.Succeeded())
		assert.Empty(t, act.activations, cmd)
		assert.Equal(t, agent.PhraseSpeakOptions{}, phrase.Options(), "options untouched when denied")
	}
}

func TestUnknownCommand(t *testing.T) {
	act, _, _ := newActivator(true)

	h := NewShowPhraseSpeakHandler("CmdFind", nil, Env{Agents: act})
	assert.Equal(t, agent.NotHandled, h.Execute(context.Background()))

	h = NewShowSwitchWindowsHandler(CmdPhraseSpeak, nil, Env{Agents: act})
	assert.Equal(t, agent.NotHandled, h.Execute(context.Background()))

	reg := NewRegistry(Env{Agents: act})
	assert.Equal(t, agent.NotHandled, reg.OnRunCommand(context.Background(), "CmdFind", nil))
	assert.Empty(t, act.activations)
}

func TestMissingAgentFails(t *testing.T) {
	act, _, _ := newActivator(true)
	act.agents = nil

	out := NewShowPhraseSpeakHandler(CmdPhraseSpeak, nil, Env{Agents: act}).Execute(context.Background())
	assert.Equal(t, agent.Failed, out)
	assert.Empty(t, act.activations)
}

func TestSwitchWindowsFilter(t *testing.T) {
	act, _, switcher := newActivator(true)

	out := NewShowSwitchWindowsHandler(CmdSwitchWindows, nil, Env{Agents: act}).Execute(context.Background())
	assert.Equal(t, agent.Handled, out)
	assert.Equal(t, "chrome", switcher.Options().FilterProcess, "defaults to the foreground process")

	out = NewShowSwitchWindowsHandler(CmdSwitchWindows, "firefox", Env{Agents: act}).Execute(context.Background())
	assert.Equal(t, agent.Handled, out)
	assert.Equal(t, "firefox", switcher.Options().FilterProcess)
	assert.Len(t, act.activations, 2)
}

func TestChain(t *testing.T) {
	act, _, switcher := newActivator(true)
	env := Env{Agents: act}
	chain := Chain{
		NewShowPhraseSpeakHandler(CmdPhraseSpeak, nil, env),
		NewShowSwitchWindowsHandler(CmdSwitchWindows, nil, env),
	}

	assert.Equal(t, agent.Handled, chain.OnRunCommand(context.Background(), CmdSwitchWindows, nil))
	assert.Equal(t, agent.NotHandled, chain.OnRunCommand(context.Background(), CmdShowEditPhrasesSettings, nil))
	require.Len(t, act.activations, 1)
	assert.Same(t, switcher, act.activations[0])
}

func TestRegistry(t *testing.T) {
	act, _, _ := newActivator(true)
	reg := NewRegistry(Env{Agents: act})

	assert.Equal(t, []string{CmdPhraseSpeak, CmdShowEditPhrasesSettings, CmdSwitchWindows}, reg.Commands())

	var built []any
	reg.Register("CmdCustom", func(command string, arg any, env Env) Handler {
		built = append(built, arg)
		return NewShowPhraseSpeakHandler(CmdPhraseSpeak, arg, env)
	})
	h, ok := reg.Handler("CmdCustom", 42)
	require.True(t, ok)
	assert.Equal(t, CmdPhraseSpeak, h.Command())
	assert.Equal(t, []any{42}, built)

	_, ok = reg.Handler("CmdNope", nil)
	assert.False(t, ok)
}

func TestSuggest(t *testing.T) {
	known := []string{"CmdFind", "CmdPhraseSpeak", "CmdZoomIn", "CmdZoomOut"}

	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"CmdFnd", "CmdFind", true},
		{"cmdzoomin", "CmdZoomIn", true},
		{"CmdPhrasSpeek", "CmdPhraseSpeak", true},
		{"CmdFind", "", false},
		{"Totally different", "", false},
	}
	for _, tt := range tests {
		got, ok := Suggest(tt.in, known)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, ok := Suggest("x", nil)
	assert.False(t, ok)
}

func TestRegistryWithManager(t *testing.T) {
	panels := panel.NewRecorder(0)
	mgr := manager.New(manager.Options{})
	defer mgr.Close()
	ctx := agent.Context{Panels: panels, Foreground: mgr.Foreground}
	mgr.RegisterFunctional(agent.NewPhraseSpeakAgent(ctx))
	mgr.RegisterFunctional(agent.NewSwitchWindowsAgent(ctx))
	mgr.SetFallback(NewRegistry(Env{Agents: mgr}))

	assert.Equal(t, agent.Handled, mgr.RunCommand(context.Background(), CmdPhraseSpeak, nil))
	require.Eventually(t, func() bool { return len(panels.Requests()) == 1 }, 2*time.Second, 5*time.Millisecond)

	req, _ := panels.Last()
	assert.Equal(t, agent.PanelPhraseSpeak, req.Panel)
	assert.Equal(t, "search", req.ContextLabel)

	assert.Equal(t, agent.Denied, mgr.RunCommand(context.Background(), CmdSwitchWindows, nil))
	assert.Len(t, panels.Requests(), 1)

	assert.Equal(t, agent.Handled, mgr.RunCommand(context.Background(), agent.CmdGoBack, nil))
	require.Eventually(t, mgr.CanActivateFunctionalAgent, 2*time.Second, 5*time.Millisecond)
}
