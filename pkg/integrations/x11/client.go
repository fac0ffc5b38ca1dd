package x11

import (
	"encoding/binary"
	"strings"
	"sync"
	"time"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
	"github.com/pkg/errors"
)

var atomNames = []string{
	"_NET_ACTIVE_WINDOW",
	"_NET_WM_NAME",
	"_NET_WM_PID",
	"WM_NAME",
	"WM_CLASS",
	"UTF8_STRING",
}

// Client is a long-lived X11 connection with the atoms the probe needs interned.
type Client struct {
	mu    sync.Mutex
	conn  *xgb.Conn
	root  xproto.Window
	setup *xproto.SetupInfo
	atoms map[string]xproto.Atom
}

// Dial connects to the display named by $DISPLAY.
func Dial() (*Client, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to X server")
	}

	setup := xproto.Setup(conn)
	client := &Client{
		conn:  conn,
		root:  setup.DefaultScreen(conn).Root,
		setup: setup,
		atoms: make(map[string]xproto.Atom),
	}

	for _, name := range atomNames {
		reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
		if err != nil {
			conn.Close()
			return nil, errors.Wrapf(err, "failed to intern atom %s", name)
		}
		client.atoms[name] = reply.Atom
	}

	return client, nil
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.Close()
}

// nameProps are tried in order when reading a window title.
var nameProps = []struct{ prop, typ string }{
	{"_NET_WM_NAME", "UTF8_STRING"},
	{"WM_NAME", ""},
}

func (c *Client) property(win xproto.Window, prop string, typ xproto.Atom, words uint32) []byte {
	reply, err := xproto.GetProperty(c.conn, false, win, c.atoms[prop], typ, 0, words).Reply()
	if err != nil {
		return nil
	}
	return reply.Value
}

func (c *Client) cardinal(win xproto.Window, prop string, typ xproto.Atom) uint32 {
	if v := c.property(win, prop, typ, 1); len(v) >= 4 {
		return binary.LittleEndian.Uint32(v)
	}
	return 0
}

func (c *Client) title(win xproto.Window, words uint32) string {
	for _, n := range nameProps {
		var typ xproto.Atom = xproto.AtomString
		if n.typ != "" {
			typ = c.atoms[n.typ]
		}
		if v := c.property(win, n.prop, typ, words); len(v) > 0 {
			return strings.TrimRight(string(v), "\x00")
		}
	}
	return ""
}

// InputFocus returns the window holding keyboard focus, which may be a child
// of the active top-level window.
func (c *Client) InputFocus() xproto.Window {
	reply, err := xproto.GetInputFocus(c.conn).Reply()
	if err != nil {
		return 0
	}
	return reply.Focus
}

// topLevel walks up from win to the child of the root window.
func (c *Client) topLevel(win xproto.Window) xproto.Window {
	for win != 0 && win != c.root {
		tree, err := xproto.QueryTree(c.conn, win).Reply()
		if err != nil || tree.Parent == c.root || tree.Parent == 0 {
			break
		}
		win = tree.Parent
	}
	return win
}

// ActiveWindow resolves the focused top-level window. _NET_ACTIVE_WINDOW is
// preferred; the input focus is the fallback for window managers without
// EWMH. Unnamed windows are retried briefly since they show up while the
// window manager is mid-switch.
func (c *Client) ActiveWindow() (xproto.Window, error) {
	const attempts = 5
	for i := 0; i < attempts; i++ {
		candidates := [...]xproto.Window{
			xproto.Window(c.cardinal(c.root, "_NET_ACTIVE_WINDOW", xproto.AtomWindow)),
			c.topLevel(c.InputFocus()),
		}
		for _, win := range candidates {
			if win != 0 && win != c.root && c.title(win, 1) != "" {
				return win, nil
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	return 0, errors.New("no active window found")
}

func (c *Client) WindowName(win xproto.Window) string {
	return c.title(win, 256)
}

func (c *Client) WindowClass(win xproto.Window) (instance, class string) {
	return splitWMClass(c.property(win, "WM_CLASS", xproto.AtomString, 256))
}

// splitWMClass splits the NUL separated instance and class of WM_CLASS.
func splitWMClass(data []byte) (instance, class string) {
	instance, class, _ = strings.Cut(strings.TrimRight(string(data), "\x00"), "\x00")
	return instance, class
}

func (c *Client) WindowPID(win xproto.Window) uint32 {
	return c.cardinal(win, "_NET_WM_PID", xproto.AtomCardinal)
}
