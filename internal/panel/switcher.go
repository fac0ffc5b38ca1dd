package panel

import (
	"context"

	"appagent/pkg/window"
)

// Switcher shows the task switcher through a Dispatcher. The process filter
// travels as the context label; an empty filter lists every window.
type Switcher struct {
	Dispatcher Dispatcher
}

func (s Switcher) ShowTaskSwitcher(ctx context.Context, process string, info window.ActivityInfo) error {
	return s.Dispatcher.Show(ctx, NewRequest(TaskSwitcher, process, info, OnCurrentScreen()))
}
