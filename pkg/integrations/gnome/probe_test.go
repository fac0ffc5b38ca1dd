package gnome

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appagent/pkg/window"
)

func TestProbeInterface(t *testing.T) {
	var _ window.Probe = (*Probe)(nil)
	assert.Equal(t, "wayland", NewProbe(nil).GetDisplayServer())
}

func TestParseFocus(t *testing.T) {
	info, err := parseFocus(`{"id":42,"wm_class":"Google-chrome","title":"New Tab","pid":1234}`)
	require.NoError(t, err)
	assert.Equal(t, uint32(42), info.WindowHandle)
	assert.Equal(t, "google-chrome", info.ProcessName)
	assert.Equal(t, "Google-chrome", info.AppName)
	assert.Equal(t, "New Tab", info.Title)
	assert.Equal(t, 1234, info.PID)
	assert.Equal(t, "wayland", info.DisplayServer)
}

func TestParseFocusQuoted(t *testing.T) {
	info, err := parseFocus(`"{\"id\":7,\"wm_class\":\"firefox\",\"title\":\"x\",\"pid\":1}"`)
	require.NoError(t, err)
	assert.Equal(t, "firefox", info.ProcessName)
	assert.Equal(t, uint32(7), info.WindowHandle)
}

func TestParseFocusErrors(t *testing.T) {
	for _, input := range []string{"", `""`, "not json", `{"id":1,"wm_class":""}`} {
		_, err := parseFocus(input)
		assert.Error(t, err, "input %q", input)
	}
}

func TestIsAvailableOutsideGnome(t *testing.T) {
	orig := os.Getenv("XDG_CURRENT_DESKTOP")
	defer os.Setenv("XDG_CURRENT_DESKTOP", orig)

	os.Setenv("XDG_CURRENT_DESKTOP", "KDE")
	assert.False(t, NewProbe(nil).IsAvailable())
}
