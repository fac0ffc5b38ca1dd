package panel

import (
	"time"

	"github.com/google/uuid"

	"appagent/pkg/window"
)

// Panels every agent may ask for.
const (
	Alphabet     = "Alphabet"
	TaskSwitcher = "TaskSwitcher"
)

// Request asks the panel subsystem to show a scanner or menu. It is a value
// type; nothing changes it after NewRequest returns.
type Request struct {
	ID                       string              `json:"id"`
	Panel                    string              `json:"panel"`
	ContextLabel             string              `json:"context_label"`
	Window                   window.ActivityInfo `json:"window"`
	UseCurrentScreenAsParent bool                `json:"use_current_screen_as_parent"`
	ForceShow                bool                `json:"force_show"`
	RequestedAt              time.Time           `json:"requested_at"`
}

type Option func(*Request)

// OnCurrentScreen parents the panel to the screen holding the focused window.
func OnCurrentScreen() Option {
	return func(r *Request) { r.UseCurrentScreenAsParent = true }
}

// Forced shows the panel even when the user has hidden panels.
func Forced() Option {
	return func(r *Request) { r.ForceShow = true }
}

func NewRequest(panel, label string, info window.ActivityInfo, opts ...Option) Request {
	r := Request{
		ID:           uuid.NewString(),
		Panel:        panel,
		ContextLabel: label,
		Window:       info,
		RequestedAt:  time.Now(),
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}
