package textctl

// Behavior is the per-control capability override an application agent
// supplies. Both methods are pure queries.
type Behavior interface {
	ExpandAbbreviations() bool
	SupportsSpellCheck() bool
}

// Capabilities is a Behavior evaluated once.
type Capabilities struct {
	ExpandAbbreviations bool
	SupportsSpellCheck  bool
}

func capabilitiesOf(b Behavior) Capabilities {
	if b == nil {
		b = EditControl{}
	}
	return Capabilities{
		ExpandAbbreviations: b.ExpandAbbreviations(),
		SupportsSpellCheck:  b.SupportsSpellCheck(),
	}
}

// EditControl is the default behavior for editable controls.
type EditControl struct{}

func (EditControl) ExpandAbbreviations() bool { return true }
func (EditControl) SupportsSpellCheck() bool  { return true }

// SwitchWindowsControl is the search box of the window switcher. Expanding
// abbreviations there would mangle window-title searches.
type SwitchWindowsControl struct{ EditControl }

func (SwitchWindowsControl) ExpandAbbreviations() bool { return false }
