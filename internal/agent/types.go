package agent

import (
	"github.com/pkg/errors"
)

var (
	ErrAgentNotFound        = errors.New("agent not found")
	ErrActivationInProgress = errors.New("a functional agent is already active")
	ErrNotConfigurable      = errors.New("agent does not accept options")
	ErrUnsupportedOptions   = errors.New("options do not apply to this agent")
)

// ProcessInfo names a native process an agent claims
type ProcessInfo struct {
	ProcessName string
}

// CommandEnabledArg is filled in by CheckCommandEnabled
type CommandEnabledArg struct {
	Command string
	Enabled bool
}

// Outcome is the result of dispatching a command to one link of the chain.
type Outcome int

const (
	// NotHandled: the link does not know the command; try the next one.
	NotHandled Outcome = iota
	// Handled: recognized and performed.
	Handled
	// Denied: recognized but blocked by a precondition. Do not fall through.
	Denied
	// Failed: recognized but the effect reported an error. Do not fall through.
	Failed
)

// IsHandled reports whether the chain should stop here.
func (o Outcome) IsHandled() bool { return o != NotHandled }

func (o Outcome) Succeeded() bool { return o == Handled }

func (o Outcome) String() string {
	switch o {
	case NotHandled:
		return "not_handled"
	case Handled:
		return "handled"
	case Denied:
		return "denied"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Options is the closed set of option structs a Configurable agent accepts.
type Options interface {
	isOptions()
}

// PhraseSpeakOptions configure the phrase speak agent before activation.
type PhraseSpeakOptions struct {
	EnableSearch   bool
	PhraseListEdit bool
}

// SwitchWindowsOptions limit the window switcher to one process.
type SwitchWindowsOptions struct {
	FilterProcess string
}

func (PhraseSpeakOptions) isOptions()   {}
func (SwitchWindowsOptions) isOptions() {}

// Configurable agents accept options before they are activated.
type Configurable interface {
	Configure(opts Options) error
}
