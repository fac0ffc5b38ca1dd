package agent

import (
	"context"

	"github.com/pkg/errors"

	"appagent/internal/panel"
	"appagent/pkg/keyboard"
)

// Keys sends one key combination.
func Keys(keys ...keyboard.Key) Action {
	return func(_ context.Context, a *AppAgent, _ any) error {
		return errors.Wrapf(a.ctx.Keyboard.Send(keys...), "send %s", keyboard.Chord(keys...))
	}
}

// PausedKeys sends one combination with the text control paused, so the
// control does not react to the keys as typed text.
func PausedKeys(keys ...keyboard.Key) Action {
	return Sequence(keys)
}

// Sequence sends several combinations with the text control paused from
// before the first until after the last.
func Sequence(chords ...[]keyboard.Key) Action {
	return func(_ context.Context, a *AppAgent, _ any) error {
		text := a.Text()
		text.Pause()
		defer text.Resume()

		for _, chord := range chords {
			if err := a.ctx.Keyboard.Send(chord...); err != nil {
				return errors.Wrapf(err, "send %s", keyboard.Chord(chord...))
			}
		}
		return nil
	}
}

// ShowPanel requests a panel for the current foreground window.
func ShowPanel(name string, opts ...panel.Option) Action {
	return func(ctx context.Context, a *AppAgent, _ any) error {
		return a.show(ctx, panel.NewRequest(name, a.profile.Label, a.ctx.Foreground(), opts...))
	}
}

// TaskSwitcher lists the windows of process.
func TaskSwitcher(process string) Action {
	return func(ctx context.Context, a *AppAgent, _ any) error {
		return a.ctx.Switcher.ShowTaskSwitcher(ctx, process, a.ctx.Foreground())
	}
}
