package manager

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appagent/internal/agent"
	"appagent/internal/config"
	"appagent/internal/panel"
	"appagent/internal/textctl"
	"appagent/pkg/keyboard"
	"appagent/pkg/window"
)

type fixture struct {
	mgr     *Manager
	kb      *keyboard.Recorder
	panels  *panel.Recorder
	chrome  *agent.AppAgent
	firefox *agent.AppAgent
	records []CommandRecord
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{kb: keyboard.NewRecorder(), panels: panel.NewRecorder(0)}
	dict := textctl.NewDictionary(map[string]string{"btw": "by the way"}, nil)
	f.mgr = New(Options{
		Keyboard:   f.kb,
		Dictionary: dict,
		OnCommand:  func(r CommandRecord) { f.records = append(f.records, r) },
	})
	ctx := agent.Context{
		Keyboard:   f.kb,
		Panels:     f.panels,
		Foreground: f.mgr.Foreground,
		Dictionary: dict,
	}
	f.chrome = agent.NewChromeAgent(ctx)
	f.firefox = agent.NewFirefoxAgent(ctx)
	require.NoError(t, f.mgr.Register(f.chrome))
	require.NoError(t, f.mgr.Register(f.firefox))
	f.mgr.RegisterFunctional(agent.NewPhraseSpeakAgent(ctx))
	f.mgr.RegisterFunctional(agent.NewSwitchWindowsAgent(ctx))
	t.Cleanup(f.mgr.Close)
	return f
}

func focus(process string, handle uint32, newWindow bool) window.ActivityInfo {
	return window.ActivityInfo{WindowHandle: handle, ProcessName: process, IsNewWindow: newWindow}
}

func TestRegisterDuplicateProcess(t *testing.T) {
	f := newFixture(t)
	err := f.mgr.Register(agent.NewChromeAgent(agent.Context{}))
	assert.Error(t, err)
	assert.Len(t, f.mgr.Agents(), 2)
	assert.Same(t, f.chrome, f.mgr.AgentFor("Google-Chrome"))
}

func TestFocusRouting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.mgr.OnFocusChanged(ctx, focus("chrome", 1, true))
	assert.Same(t, f.chrome, f.mgr.Current())
	assert.True(t, f.chrome.ScannerShown())

	f.mgr.OnFocusChanged(ctx, focus("chrome", 1, false))
	assert.Len(t, f.panels.Requests(), 1)

	f.mgr.OnFocusChanged(ctx, focus("gedit", 2, true))
	assert.Nil(t, f.mgr.Current())
	assert.False(t, f.chrome.ScannerShown(), "previous agent lost focus")

	f.mgr.OnFocusChanged(ctx, focus("chrome", 1, false))
	assert.Len(t, f.panels.Requests(), 2, "panel shows again after focus loss")
	assert.Equal(t, "chrome", f.mgr.Foreground().ProcessName)
}

func TestFocusLostBeforeFocusGained(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var chromeShownAtSwitch *bool
	dispatch := panel.DispatcherFunc(func(_ context.Context, req panel.Request) error {
		if req.Window.ProcessName == "firefox" {
			shown := f.chrome.ScannerShown()
			chromeShownAtSwitch = &shown
		}
		return nil
	})
	firefox := agent.NewAppAgent(agent.FirefoxProfile(), agent.Context{Panels: dispatch})
	mgr := New(Options{})
	defer mgr.Close()
	require.NoError(t, mgr.Register(f.chrome))
	require.NoError(t, mgr.Register(firefox))

	mgr.OnFocusChanged(ctx, focus("chrome", 1, true))
	mgr.OnFocusChanged(ctx, focus("firefox", 2, true))

	require.NotNil(t, chromeShownAtSwitch)
	assert.False(t, *chromeShownAtSwitch)
}

func TestRunCommandChain(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var global []string
	f.mgr.SetFallback(agent.LinkFunc(func(_ context.Context, command string, _ any) agent.Outcome {
		global = append(global, command)
		if command == "CmdPhraseSpeak" {
			return agent.Handled
		}
		return agent.NotHandled
	}))

	assert.Equal(t, agent.Handled, f.mgr.RunCommand(ctx, "CmdPhraseSpeak", nil), "no focus: global chain")
	assert.Equal(t, agent.NotHandled, f.mgr.RunCommand(ctx, "CmdFind", nil))

	f.mgr.OnFocusChanged(ctx, focus("chrome", 1, true))
	assert.Equal(t, agent.Handled, f.mgr.RunCommand(ctx, "CmdFind", nil))
	assert.Equal(t, agent.Handled, f.mgr.RunCommand(ctx, "CmdPhraseSpeak", nil), "app agent falls through to global")
	assert.Equal(t, agent.NotHandled, f.mgr.RunCommand(ctx, "Bogus", nil))

	assert.Equal(t, []string{"CmdPhraseSpeak", "CmdFind", "CmdPhraseSpeak", "Bogus"}, global)

	require.Len(t, f.records, 5)
	assert.Equal(t, GlobalAgent, f.records[0].Agent)
	assert.Equal(t, "chrome", f.records[2].Agent)
	assert.Equal(t, agent.Handled, f.records[2].Outcome)
	assert.Equal(t, "chrome", f.records[2].Process)
	assert.NotEmpty(t, f.records[2].ID)
}

func TestCheckCommandEnabled(t *testing.T) {
	f := newFixture(t)

	arg := &agent.CommandEnabledArg{Command: "CmdFind", Enabled: true}
	f.mgr.CheckCommandEnabled(arg)
	assert.False(t, arg.Enabled, "nothing focused")

	f.mgr.OnFocusChanged(context.Background(), focus("chrome", 1, true))
	f.mgr.CheckCommandEnabled(arg)
	assert.True(t, arg.Enabled)
}

func TestActivationGate(t *testing.T) {
	f := newFixture(t)
	phrase, err := f.mgr.AgentByCategory(agent.CategoryPhraseSpeak)
	require.NoError(t, err)
	switcher, err := f.mgr.AgentByCategory(agent.CategorySwitchWindows)
	require.NoError(t, err)

	_, err = f.mgr.AgentByCategory("Nope")
	assert.ErrorIs(t, err, agent.ErrAgentNotFound)

	assert.True(t, f.mgr.CanActivateFunctionalAgent())
	task := f.mgr.ActivateAgent(context.Background(), phrase)
	assert.False(t, f.mgr.CanActivateFunctionalAgent())
	assert.Equal(t, phrase, f.mgr.Active())

	second := f.mgr.ActivateAgent(context.Background(), switcher)
	<-second.Done()
	assert.ErrorIs(t, second.Err(), agent.ErrActivationInProgress)

	require.Eventually(t, func() bool { return len(f.panels.Requests()) == 1 }, 2*time.Second, 5*time.Millisecond)
	st := f.mgr.Status()
	assert.Equal(t, "phrase-speak", st.ActiveFunctional)
	assert.Equal(t, task.ID, st.ActiveTask)

	assert.Equal(t, agent.Handled, f.mgr.RunCommand(context.Background(), agent.CmdGoBack, nil))
	require.NoError(t, task.Wait(context.Background()))
	assert.True(t, f.mgr.CanActivateFunctionalAgent())
	assert.Equal(t, "phrase-speak", f.records[0].Agent)
}

func TestGoBackRightAfterActivation(t *testing.T) {
	f := newFixture(t)
	phrase, err := f.mgr.AgentByCategory(agent.CategoryPhraseSpeak)
	require.NoError(t, err)

	for i := 0; i < 200; i++ {
		task := f.mgr.ActivateAgent(context.Background(), phrase)
		require.Equal(t, agent.Handled, f.mgr.RunCommand(context.Background(), agent.CmdGoBack, nil), "iteration %d", i)
		require.NoError(t, task.Wait(context.Background()), "iteration %d", i)
		require.True(t, f.mgr.CanActivateFunctionalAgent(), "iteration %d", i)
	}
}

func TestGoBackWithoutActivation(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, agent.NotHandled, f.mgr.RunCommand(context.Background(), agent.CmdGoBack, nil))
}

func TestActivationOutlivesCallerContext(t *testing.T) {
	f := newFixture(t)
	phrase, _ := f.mgr.AgentByCategory(agent.CategoryPhraseSpeak)

	ctx, cancel := context.WithCancel(context.Background())
	task := f.mgr.ActivateAgent(ctx, phrase)
	cancel()

	select {
	case <-task.Done():
		t.Fatal("activation ended with the dispatch context")
	case <-time.After(50 * time.Millisecond):
	}

	task.Cancel()
	assert.ErrorIs(t, task.Wait(context.Background()), context.Canceled)
}

type panicAgent struct{}

func (panicAgent) Name() string     { return "panic" }
func (panicAgent) Category() string { return "Panic" }
func (panicAgent) Activate(context.Context, agent.Host) error {
	panic("boom")
}
func (panicAgent) OnRunCommand(context.Context, string, any) agent.Outcome { return agent.NotHandled }

func TestActivationPanicBecomesError(t *testing.T) {
	f := newFixture(t)
	task := f.mgr.ActivateAgent(context.Background(), panicAgent{})
	err := task.Wait(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.True(t, f.mgr.CanActivateFunctionalAgent())
}

func TestTypeText(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.mgr.TypeText("hi"))
	assert.Len(t, f.kb.Strokes(), 1, "no focused control: plain typing")

	f.kb.Reset()
	f.mgr.OnFocusChanged(context.Background(), focus("chrome", 1, true))
	require.NoError(t, f.mgr.TypeText("btw "))
	strokes := f.kb.Strokes()
	assert.Equal(t, "by the way ", strokes[len(strokes)-1].Text)
}

func TestSwitchWindowsOverridesText(t *testing.T) {
	f := newFixture(t)
	f.mgr.OnFocusChanged(context.Background(), focus("chrome", 1, true))
	switcher, _ := f.mgr.AgentByCategory(agent.CategorySwitchWindows)

	task := f.mgr.ActivateAgent(context.Background(), switcher)
	require.Eventually(t, func() bool {
		text := f.mgr.Text()
		return text != nil && !text.ExpandAbbreviations()
	}, 2*time.Second, 5*time.Millisecond)

	f.kb.Reset()
	require.NoError(t, f.mgr.TypeText("btw "))
	assert.Len(t, f.kb.Strokes(), 4, "typed as is")

	task.Cancel()
	_ = task.Wait(context.Background())
	assert.True(t, f.mgr.Text().ExpandAbbreviations(), "override removed")
}

// blockingKeyboard holds Send until release is closed.
type blockingKeyboard struct {
	*keyboard.Recorder
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (b *blockingKeyboard) Send(keys ...keyboard.Key) error {
	b.once.Do(func() { close(b.entered) })
	<-b.release
	return b.Recorder.Send(keys...)
}

func TestFocusWaitsForCommand(t *testing.T) {
	kb := &blockingKeyboard{Recorder: keyboard.NewRecorder(), entered: make(chan struct{}), release: make(chan struct{})}
	mgr := New(Options{Keyboard: kb})
	defer mgr.Close()
	chrome := agent.NewChromeAgent(agent.Context{Keyboard: kb, Foreground: mgr.Foreground})
	require.NoError(t, mgr.Register(chrome))
	ctx := context.Background()
	mgr.OnFocusChanged(ctx, focus("chrome", 1, true))

	done := make(chan agent.Outcome)
	go func() { done <- mgr.RunCommand(ctx, "CmdZoomIn", nil) }()
	<-kb.entered

	var focused atomic.Bool
	go func() {
		mgr.OnFocusChanged(ctx, focus("gedit", 2, true))
		focused.Store(true)
	}()

	time.Sleep(30 * time.Millisecond)
	assert.False(t, focused.Load(), "focus event waits for the command")
	assert.True(t, chrome.Text().Paused())

	close(kb.release)
	assert.Equal(t, agent.Handled, <-done)
	require.Eventually(t, focused.Load, 2*time.Second, 5*time.Millisecond)
	assert.False(t, chrome.Text().Paused())
}

func TestApplyConfig(t *testing.T) {
	f := newFixture(t)
	cfg := config.Default()
	cfg.Agents.AutoSwitch["chrome"] = false
	cfg.Agents.Abbreviations = map[string]string{"asap": "as soon as possible"}
	f.mgr.ApplyConfig(cfg)

	assert.False(t, f.chrome.AutoSwitch())
	assert.True(t, f.firefox.AutoSwitch())

	f.mgr.OnFocusChanged(context.Background(), focus("chrome", 1, true))
	req, _ := f.panels.Last()
	assert.Equal(t, panel.Alphabet, req.Panel)

	require.NoError(t, f.mgr.TypeText("asap "))
	strokes := f.kb.Strokes()
	assert.Equal(t, "as soon as possible ", strokes[len(strokes)-1].Text)
}

func TestClose(t *testing.T) {
	f := newFixture(t)
	phrase, _ := f.mgr.AgentByCategory(agent.CategoryPhraseSpeak)
	task := f.mgr.ActivateAgent(context.Background(), phrase)

	f.mgr.Close()
	select {
	case <-task.Done():
	default:
		t.Fatal("Close should wait for the activation")
	}
	assert.False(t, f.mgr.CanActivateFunctionalAgent())
	assert.Error(t, f.mgr.ActivateAgent(context.Background(), phrase).Err())
}
