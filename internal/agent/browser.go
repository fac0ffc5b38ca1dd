package agent

import (
	"appagent/internal/panel"
	"appagent/pkg/keyboard"
)

// browserKeys are the bindings that differ between browsers.
type browserKeys struct {
	back, forward, refresh, home []keyboard.Key
	favorites                    []keyboard.Key
}

// browserTraits parameterizes the shared browser profile. Commands specific to
// a browser carry its Prefix, e.g. ChromeAddressBar.
type browserTraits struct {
	Name      string
	Label     string
	Prefix    string
	Processes []string
	Keys      browserKeys
}

var chromeTraits = browserTraits{
	Name:      "chrome",
	Label:     "Chrome",
	Prefix:    "Chrome",
	Processes: []string{"chrome", "google-chrome", "chromium"},
	Keys: browserKeys{
		back:      []keyboard.Key{keyboard.BrowserBack},
		forward:   []keyboard.Key{keyboard.LMenu, keyboard.Right},
		refresh:   []keyboard.Key{keyboard.BrowserRefresh},
		home:      []keyboard.Key{keyboard.BrowserHome},
		favorites: []keyboard.Key{keyboard.LControlKey, keyboard.LShiftKey, keyboard.O},
	},
}

var firefoxTraits = browserTraits{
	Name:      "firefox",
	Label:     "Firefox",
	Prefix:    "Firefox",
	Processes: []string{"firefox", "firefox-esr"},
	Keys: browserKeys{
		back:      []keyboard.Key{keyboard.LMenu, keyboard.Left},
		forward:   []keyboard.Key{keyboard.LMenu, keyboard.Right},
		refresh:   []keyboard.Key{keyboard.F5},
		home:      []keyboard.Key{keyboard.LMenu, keyboard.Home},
		favorites: []keyboard.Key{keyboard.LControlKey, keyboard.LShiftKey, keyboard.O},
	},
}

var browserSupported = []string{
	"OpenFile",
	"SaveFile",
	"CmdFind",
	CmdContextMenu,
	"CmdZoomIn",
	"CmdZoomOut",
	"CmdZoomFit",
	"CmdSelectModeToggle",
	CmdSwitchApps,
}

func browserProfile(b browserTraits) Profile {
	processes := make([]ProcessInfo, 0, len(b.Processes))
	for _, name := range b.Processes {
		processes = append(processes, ProcessInfo{ProcessName: name})
	}

	contextMenu := b.Prefix + "BrowserContextMenu"
	p := b.Prefix
	k := b.Keys

	return Profile{
		Name:         b.Name,
		Processes:    processes,
		Supported:    browserSupported,
		Label:        b.Label,
		DefaultPanel: contextMenu,
		ContextMenu:  contextMenu,
		Commands: map[string]Action{
			"SwitchAppWindow": TaskSwitcher(b.Processes[0]),
			p + "AddressBar":  Keys(keyboard.LControlKey, keyboard.L),
			p + "ZoomMenu":    ShowPanel(p+"BrowserZoomMenu", panel.OnCurrentScreen()),
			"SaveFile": Sequence(
				[]keyboard.Key{keyboard.LMenu, keyboard.F},
				[]keyboard.Key{keyboard.A},
			),
			"CmdZoomIn":        PausedKeys(keyboard.LControlKey, keyboard.Add),
			"CmdZoomOut":       PausedKeys(keyboard.LControlKey, keyboard.Subtract),
			"CmdZoomFit":       PausedKeys(keyboard.LControlKey, keyboard.D0),
			"CmdFind":          Keys(keyboard.LControlKey, keyboard.F),
			p + "GoBackward":   Keys(k.back...),
			p + "GoForward":    Keys(k.forward...),
			"NewTab":           Keys(keyboard.LControlKey, keyboard.T),
			"NextTab":          Keys(keyboard.LControlKey, keyboard.Tab),
			"CloseTab":         Keys(keyboard.LControlKey, keyboard.W),
			p + "Favorites":    Keys(k.favorites...),
			p + "History":      Keys(keyboard.LControlKey, keyboard.H),
			p + "AddFavorites": Keys(keyboard.LControlKey, keyboard.D),
			p + "RefreshPage":  Keys(k.refresh...),
			p + "HomePage":     Keys(k.home...),
			p + "BrowserMenu":  ShowPanel(p+"BrowserMenu", panel.OnCurrentScreen()),
		},
	}
}

// ChromeProfile drives Google Chrome and Chromium.
func ChromeProfile() Profile { return browserProfile(chromeTraits) }

// FirefoxProfile reuses the browser profile with Firefox bindings.
func FirefoxProfile() Profile { return browserProfile(firefoxTraits) }

func NewChromeAgent(ctx Context) *AppAgent  { return NewAppAgent(ChromeProfile(), ctx) }
func NewFirefoxAgent(ctx Context) *AppAgent { return NewAppAgent(FirefoxProfile(), ctx) }
