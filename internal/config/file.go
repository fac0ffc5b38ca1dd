package config

import (
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// FileConfig is the on-disk agent configuration:
//
//	[agents]
//	auto_switch_scanners = true
//
//	[agents.chrome]
//	auto_switch_scanners = false
//
//	[abbreviations]
//	btw = "by the way"
//
//	[spellings]
//	teh = "the"
//
//	[predictor]
//	command = ["presage-predict"]
//	word_count = 5
//	timeout = "500ms"
type FileConfig struct {
	Agents        AgentsFile        `toml:"agents"`
	Abbreviations map[string]string `toml:"abbreviations"`
	Spellings     map[string]string `toml:"spellings"`
	Predictor     PredictorFile     `toml:"predictor"`
}

type AgentsFile struct {
	AutoSwitchScanners *bool                    `toml:"auto_switch_scanners"`
	PerAgent           map[string]AgentSettings `toml:"-"`
}

type AgentSettings struct {
	AutoSwitchScanners *bool `toml:"auto_switch_scanners"`
}

type PredictorFile struct {
	Command   []string `toml:"command"`
	WordCount int      `toml:"word_count"`
	Timeout   string   `toml:"timeout"`
}

// ParseFile decodes TOML agent configuration. Tables under [agents] other
// than the top-level keys are per-agent settings.
func ParseFile(data string) (*FileConfig, error) {
	var raw struct {
		Agents        map[string]toml.Primitive `toml:"agents"`
		Abbreviations map[string]string         `toml:"abbreviations"`
		Spellings     map[string]string         `toml:"spellings"`
		Predictor     PredictorFile             `toml:"predictor"`
	}
	md, err := toml.Decode(data, &raw)
	if err != nil {
		return nil, errors.Wrap(err, "invalid agent configuration")
	}

	fc := &FileConfig{
		Abbreviations: raw.Abbreviations,
		Spellings:     raw.Spellings,
		Predictor:     raw.Predictor,
		Agents:        AgentsFile{PerAgent: map[string]AgentSettings{}},
	}

	for key, prim := range raw.Agents {
		if key == "auto_switch_scanners" {
			var v bool
			if err := md.PrimitiveDecode(prim, &v); err != nil {
				return nil, errors.Wrap(err, "agents.auto_switch_scanners")
			}
			fc.Agents.AutoSwitchScanners = &v
			continue
		}
		var settings AgentSettings
		if err := md.PrimitiveDecode(prim, &settings); err != nil {
			return nil, errors.Wrapf(err, "agents.%s", key)
		}
		fc.Agents.PerAgent[key] = settings
	}

	if raw.Predictor.Timeout != "" {
		if _, err := time.ParseDuration(raw.Predictor.Timeout); err != nil {
			return nil, errors.Wrap(err, "predictor.timeout")
		}
	}
	return fc, nil
}

// Apply copies file settings onto cfg. Tables replace what cfg held so a
// reload drops entries removed from the file.
func (fc *FileConfig) Apply(cfg *Config) {
	if fc.Agents.AutoSwitchScanners != nil {
		cfg.Agents.AutoSwitchScanners = *fc.Agents.AutoSwitchScanners
	}

	cfg.Agents.AutoSwitch = make(map[string]bool, len(fc.Agents.PerAgent))
	for name, settings := range fc.Agents.PerAgent {
		if settings.AutoSwitchScanners != nil {
			cfg.Agents.AutoSwitch[name] = *settings.AutoSwitchScanners
		}
	}

	cfg.Agents.Abbreviations = copyTable(fc.Abbreviations)
	cfg.Agents.Spellings = copyTable(fc.Spellings)

	if len(fc.Predictor.Command) > 0 {
		cfg.Predictor.Command = append([]string(nil), fc.Predictor.Command...)
	}
	if fc.Predictor.WordCount > 0 {
		cfg.Predictor.WordCount = fc.Predictor.WordCount
	}
	if d, err := time.ParseDuration(fc.Predictor.Timeout); err == nil && d > 0 {
		cfg.Predictor.Timeout = d
	}
}

// LoadFile reads path and applies it to cfg
func LoadFile(cfg *Config, path string) error {
	fc, err := readFile(path)
	if err != nil {
		return err
	}
	fc.Apply(cfg)
	cfg.Agents.File = path
	return nil
}

func readFile(path string) (*FileConfig, error) {
	data, err := readAll(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	return ParseFile(string(data))
}

func copyTable(src map[string]string) map[string]string {
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
