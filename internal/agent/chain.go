package agent

import "context"

// Link is one step of the command fallback chain.
type Link interface {
	OnRunCommand(ctx context.Context, command string, arg any) Outcome
}

type LinkFunc func(ctx context.Context, command string, arg any) Outcome

func (f LinkFunc) OnRunCommand(ctx context.Context, command string, arg any) Outcome {
	return f(ctx, command, arg)
}

// Chain asks each link in order and returns the first outcome that is not
// NotHandled.
type Chain []Link

func (c Chain) OnRunCommand(ctx context.Context, command string, arg any) Outcome {
	for _, link := range c {
		if link == nil {
			continue
		}
		if out := link.OnRunCommand(ctx, command, arg); out.IsHandled() {
			return out
		}
	}
	return NotHandled
}
