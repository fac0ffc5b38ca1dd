package keyboard

import (
	"fmt"
	"strings"
)

// Key is an X11 keysym. Printable ASCII keys share their code with the rune.
type Key uint32

// Modifier and navigation keys
const (
	BackSpace   Key = 0xff08
	Tab         Key = 0xff09
	Return      Key = 0xff0d
	Escape      Key = 0xff1b
	Home        Key = 0xff50
	Left        Key = 0xff51
	Up          Key = 0xff52
	Right       Key = 0xff53
	Down        Key = 0xff54
	PageUp      Key = 0xff55
	PageDown    Key = 0xff56
	End         Key = 0xff57
	Menu        Key = 0xff67
	Add         Key = 0xffab // keypad plus
	Subtract    Key = 0xffad // keypad minus
	F4          Key = 0xffc1
	F5          Key = 0xffc2
	LShiftKey   Key = 0xffe1
	LControlKey Key = 0xffe3
	LMenu       Key = 0xffe9 // left alt
	LWin        Key = 0xffeb
	Space       Key = 0x20
)

// Browser keys from the XF86 vendor range
const (
	BrowserHome    Key = 0x1008ff18
	BrowserBack    Key = 0x1008ff26
	BrowserForward Key = 0x1008ff27
	BrowserRefresh Key = 0x1008ff73
)

// Digits and letters use the lowercase keysym; shift is applied by the backend.
const (
	D0 Key = '0'
	D1 Key = '1'
	A  Key = 'a'
	C  Key = 'c'
	D  Key = 'd'
	F  Key = 'f'
	H  Key = 'h'
	J  Key = 'j'
	L  Key = 'l'
	N  Key = 'n'
	O  Key = 'o'
	R  Key = 'r'
	S  Key = 's'
	T  Key = 't'
	V  Key = 'v'
	W  Key = 'w'
	X  Key = 'x'
	Z  Key = 'z'
)

var names = map[Key]string{
	BackSpace:      "BackSpace",
	Tab:            "Tab",
	Return:         "Return",
	Escape:         "Escape",
	Home:           "Home",
	Left:           "Left",
	Up:             "Up",
	Right:          "Right",
	Down:           "Down",
	PageUp:         "PageUp",
	PageDown:       "PageDown",
	End:            "End",
	Menu:           "Menu",
	Add:            "KP_Add",
	Subtract:       "KP_Subtract",
	F4:             "F4",
	F5:             "F5",
	LShiftKey:      "Shift_L",
	LControlKey:    "Control_L",
	LMenu:          "Alt_L",
	LWin:           "Super_L",
	Space:          "space",
	BrowserHome:    "XF86HomePage",
	BrowserBack:    "XF86Back",
	BrowserForward: "XF86Forward",
	BrowserRefresh: "XF86Reload",
}

// String returns the keysym name used by xev/xmodmap.
func (k Key) String() string {
	if name, ok := names[k]; ok {
		return name
	}
	if k > 0x20 && k < 0x7f {
		return string(rune(k))
	}
	return fmt.Sprintf("0x%x", uint32(k))
}

// IsModifier reports whether k is held while the rest of a chord is pressed.
func (k Key) IsModifier() bool {
	switch k {
	case LShiftKey, LControlKey, LMenu, LWin:
		return true
	}
	return false
}

// Chord formats a key combination as "Control_L+f".
func Chord(keys ...Key) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k.String()
	}
	return strings.Join(parts, "+")
}

// Synthesizer injects synthetic key events into the focused window.
// Implementations own the native input stream; callers serialize access.
type Synthesizer interface {
	// Send presses keys in order and releases them in reverse order.
	Send(keys ...Key) error

	// Type injects text one character at a time.
	Type(text string) error

	// IsAvailable reports whether events can reach a display.
	IsAvailable() bool

	Close() error
}
