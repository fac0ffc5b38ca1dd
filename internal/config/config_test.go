package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("APPAGENT_DB_PATH", "/tmp/agents.db")
	t.Setenv("APPAGENT_WEB_PORT", "9090")
	t.Setenv("APPAGENT_LOG_DEV", "true")
	t.Setenv("APPAGENT_POLL_INTERVAL", "1s")
	t.Setenv("APPAGENT_PREDICTOR_CMD", "presage-predict --stdin")
	t.Setenv("APPAGENT_DISPLAY_BACKEND", "x11")

	cfg := Default()
	require.NoError(t, LoadFromEnv(cfg))

	assert.Equal(t, "/tmp/agents.db", cfg.Database.Path)
	assert.Equal(t, 9090, cfg.Web.Port)
	assert.True(t, cfg.Log.Development)
	assert.Equal(t, time.Second, cfg.Tracker.PollInterval)
	assert.Equal(t, []string{"presage-predict", "--stdin"}, cfg.Predictor.Command)
	assert.Equal(t, "x11", cfg.Tracker.Backend)
	assert.Equal(t, "Local", cfg.Report.TimeZone, "unset variables keep defaults")
}

func TestLoadFromEnvRejectsBadValues(t *testing.T) {
	t.Setenv("APPAGENT_WEB_PORT", "70000")
	assert.Error(t, LoadFromEnv(Default()))

	os.Unsetenv("APPAGENT_WEB_PORT")
	t.Setenv("APPAGENT_POLL_INTERVAL", "1ms")
	assert.Error(t, LoadFromEnv(Default()))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"Backend", func(c *Config) { c.Tracker.Backend = "quartz" }},
		{"Port", func(c *Config) { c.Web.Port = 0 }},
		{"Host", func(c *Config) { c.Web.Host = "" }},
		{"PID file", func(c *Config) { c.Daemon.PIDFile = "" }},
		{"Word count", func(c *Config) { c.Predictor.WordCount = 0 }},
		{"Interval", func(c *Config) { c.Tracker.PollInterval = time.Minute }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

const sampleFile = `
[agents]
auto_switch_scanners = false

[agents.chrome]
auto_switch_scanners = true

[abbreviations]
btw = "by the way"

[spellings]
teh = "the"

[predictor]
command = ["presage-predict"]
word_count = 3
timeout = "500ms"
`

func TestParseFile(t *testing.T) {
	fc, err := ParseFile(sampleFile)
	require.NoError(t, err)

	cfg := Default()
	fc.Apply(cfg)

	assert.False(t, cfg.Agents.AutoSwitchScanners)
	assert.True(t, cfg.AutoSwitchFor("chrome"))
	assert.False(t, cfg.AutoSwitchFor("firefox"))
	assert.Equal(t, "by the way", cfg.Agents.Abbreviations["btw"])
	assert.Equal(t, "the", cfg.Agents.Spellings["teh"])
	assert.Equal(t, []string{"presage-predict"}, cfg.Predictor.Command)
	assert.Equal(t, 3, cfg.Predictor.WordCount)
	assert.Equal(t, 500*time.Millisecond, cfg.Predictor.Timeout)
}

func TestParseFileErrors(t *testing.T) {
	_, err := ParseFile("[agents\n")
	assert.Error(t, err)

	_, err = ParseFile("[predictor]\ntimeout = \"soon\"\n")
	assert.Error(t, err)
}

func TestNewWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agents.toml")
	require.NoError(t, os.WriteFile(path, []byte(sampleFile), 0o644))
	t.Setenv("APPAGENT_CONFIG_FILE", path)

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Agents.File)
	assert.Contains(t, cfg.String(), "chrome=true")
}

func TestWatcherReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agents.toml")
	require.NoError(t, os.WriteFile(path, []byte("[abbreviations]\nbtw = \"by the way\"\n"), 0o644))

	w := NewWatcher(path, nil)
	require.NoError(t, w.Start())
	defer w.Close()

	changes := make(chan *FileConfig, 4)
	w.OnChange(func(fc *FileConfig) { changes <- fc })

	require.NoError(t, os.WriteFile(path, []byte("[abbreviations]\nasap = \"as soon as possible\"\n"), 0o644))

	select {
	case fc := <-changes:
		assert.Equal(t, "as soon as possible", fc.Abbreviations["asap"])
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not report the change")
	}
}
