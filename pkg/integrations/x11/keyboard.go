package x11

import (
	"github.com/jezek/xgb/xproto"
	"github.com/jezek/xgb/xtest"
	"github.com/pkg/errors"

	"appagent/pkg/keyboard"
)

// keyPosition locates a keysym on the keyboard: the keycode and whether the
// keysym sits in the shifted column.
type keyPosition struct {
	code    xproto.Keycode
	shifted bool
}

// Keyboard synthesizes key events through the XTEST extension
type Keyboard struct {
	client *Client
	keymap map[xproto.Keysym]keyPosition
	shift  xproto.Keycode
}

// NewKeyboard initializes XTEST on client and loads the current key mapping.
func NewKeyboard(client *Client) (*Keyboard, error) {
	client.mu.Lock()
	defer client.mu.Unlock()

	if err := xtest.Init(client.conn); err != nil {
		return nil, errors.Wrap(err, "XTEST extension unavailable")
	}

	minCode := client.setup.MinKeycode
	count := byte(client.setup.MaxKeycode - minCode + 1)
	reply, err := xproto.GetKeyboardMapping(client.conn, minCode, count).Reply()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read keyboard mapping")
	}

	k := &Keyboard{
		client: client,
		keymap: buildKeymap(minCode, reply.KeysymsPerKeycode, reply.Keysyms),
	}
	if pos, ok := k.keymap[xproto.Keysym(keyboard.LShiftKey)]; ok {
		k.shift = pos.code
	}
	return k, nil
}

// buildKeymap indexes the first two columns (plain and shifted) of the mapping.
// The lowest keycode wins when a keysym appears more than once.
func buildKeymap(minCode xproto.Keycode, perCode byte, syms []xproto.Keysym) map[xproto.Keysym]keyPosition {
	keymap := make(map[xproto.Keysym]keyPosition)
	if perCode == 0 {
		return keymap
	}

	for i := 0; i*int(perCode) < len(syms); i++ {
		code := minCode + xproto.Keycode(i)
		row := syms[i*int(perCode):]
		for col := 0; col < 2 && col < int(perCode) && col < len(row); col++ {
			sym := row[col]
			if sym == 0 {
				continue
			}
			if _, seen := keymap[sym]; seen {
				continue
			}
			keymap[sym] = keyPosition{code: code, shifted: col == 1}
		}
	}
	return keymap
}

func (k *Keyboard) lookup(key keyboard.Key) (keyPosition, error) {
	pos, ok := k.keymap[xproto.Keysym(key)]
	if !ok {
		return keyPosition{}, errors.Errorf("no keycode for keysym %s", key)
	}
	return pos, nil
}

func (k *Keyboard) fake(code xproto.Keycode, press bool) error {
	typ := byte(xproto.KeyRelease)
	if press {
		typ = byte(xproto.KeyPress)
	}
	return xtest.FakeInputChecked(k.client.conn, typ, byte(code), 0, k.client.root, 0, 0, 0).Check()
}

// Send presses keys in order and releases them in reverse order
func (k *Keyboard) Send(keys ...keyboard.Key) error {
	positions := make([]keyPosition, 0, len(keys))
	for _, key := range keys {
		pos, err := k.lookup(key)
		if err != nil {
			return err
		}
		positions = append(positions, pos)
	}

	k.client.mu.Lock()
	defer k.client.mu.Unlock()

	pressed := make([]xproto.Keycode, 0, len(positions)+1)
	release := func() {
		for i := len(pressed) - 1; i >= 0; i-- {
			_ = k.fake(pressed[i], false)
		}
	}
	defer release()

	for _, pos := range positions {
		if pos.shifted && k.shift != 0 && !containsCode(pressed, k.shift) {
			if err := k.fake(k.shift, true); err != nil {
				return errors.Wrap(err, "failed to press shift")
			}
			pressed = append(pressed, k.shift)
		}
		if err := k.fake(pos.code, true); err != nil {
			return errors.Wrapf(err, "failed to press keycode %d", pos.code)
		}
		pressed = append(pressed, pos.code)
	}
	return nil
}

// Type injects text one character at a time
func (k *Keyboard) Type(text string) error {
	for _, r := range text {
		key, ok := runeKey(r)
		if !ok {
			return errors.Errorf("cannot type %q", r)
		}
		if err := k.Send(key); err != nil {
			return err
		}
	}
	return nil
}

// runeKey maps a character to its keysym. Latin-1 keysyms equal the code point.
func runeKey(r rune) (keyboard.Key, bool) {
	switch r {
	case '\n':
		return keyboard.Return, true
	case '\t':
		return keyboard.Tab, true
	case '\b':
		return keyboard.BackSpace, true
	}
	if r >= 0x20 && r <= 0xff && r != 0x7f {
		return keyboard.Key(r), true
	}
	return 0, false
}

func containsCode(codes []xproto.Keycode, code xproto.Keycode) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}

func (k *Keyboard) IsAvailable() bool { return k.client != nil }

// Close is a no-op; the connection belongs to the Probe that dialed it.
func (k *Keyboard) Close() error { return nil }
