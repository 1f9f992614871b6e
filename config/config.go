package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// SequencerConfig sets up the clock of every new zone
type SequencerConfig struct {
	Steps     int `json:"steps" yaml:"steps"`
	MsPerStep int `json:"msPerStep" yaml:"msPerStep"`
	// Tempo in BPM overrides MsPerStep (sixteenth-note steps) when non-zero
	Tempo            int  `json:"tempo,omitempty" yaml:"tempo,omitempty"`
	ClearEdgeOnReset bool `json:"clearEdgeOnReset" yaml:"clearEdgeOnReset"`
}

// DetectorConfig is the HSV window, in 8-bit camera units
type DetectorConfig struct {
	Variant string  `json:"variant,omitempty" yaml:"variant,omitempty"`
	HueMin  float64 `json:"hueMin" yaml:"hueMin"`
	HueMax  float64 `json:"hueMax" yaml:"hueMax"`
	SatMin  float64 `json:"satMin" yaml:"satMin"`
	SatMax  float64 `json:"satMax" yaml:"satMax"`
	ValMin  float64 `json:"valMin" yaml:"valMin"`
	ValMax  float64 `json:"valMax" yaml:"valMax"`
}

// DisplayConfig stores UI preferences
type DisplayConfig struct {
	Scale   int    `json:"scale" yaml:"scale"` // logical pixels per screen cell
	FPS     int    `json:"fps" yaml:"fps"`
	Palette string `json:"palette,omitempty" yaml:"palette,omitempty"` // GPL file; empty = built in
}

// OutputConfig defines where triggers go
type OutputConfig struct {
	PortName  string `json:"portName,omitempty" yaml:"portName,omitempty"` // substring match
	Channel   int    `json:"channel" yaml:"channel"`                       // 1-16
	BaseNote  uint8  `json:"baseNote" yaml:"baseNote"`
	LinesPath string `json:"linesPath,omitempty" yaml:"linesPath,omitempty"` // text protocol file/FIFO
}

// SourceConfig selects the frame source
type SourceConfig struct {
	Kind   string `json:"kind" yaml:"kind"` // "pattern" or "file"
	Path   string `json:"path,omitempty" yaml:"path,omitempty"`
	Width  int    `json:"width,omitempty" yaml:"width,omitempty"`
	Height int    `json:"height,omitempty" yaml:"height,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	Sequencer SequencerConfig `json:"sequencer" yaml:"sequencer"`
	Detector  DetectorConfig  `json:"detector" yaml:"detector"`
	Display   DisplayConfig   `json:"display" yaml:"display"`
	Output    OutputConfig    `json:"output" yaml:"output"`
	Source    SourceConfig    `json:"source" yaml:"source"`
	Debug     bool            `json:"debug,omitempty" yaml:"debug,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Sequencer: SequencerConfig{
			Steps:            16,
			MsPerStep:        250,
			ClearEdgeOnReset: true,
		},
		Detector: DetectorConfig{
			Variant: "hsv",
			HueMin:  0, HueMax: 15,
			SatMin: 25, SatMax: 255,
			ValMin: 0, ValMax: 255,
		},
		Display: DisplayConfig{
			Scale: 4,
			FPS:   60,
		},
		Output: OutputConfig{
			Channel:  1,
			BaseNote: 36,
		},
		Source: SourceConfig{
			Kind:   "pattern",
			Width:  320,
			Height: 180,
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "cam-sequence"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFile(path)
}

// LoadFile reads a JSON or YAML (by extension) config over the defaults.
// A missing file yields the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes the config as JSON to path
func (c *Config) SaveFile(path string) error {
	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// LoadEnvFile loads KEY=VALUE pairs from .env style files into the process
// environment. With no paths, ".env" is used. Missing files are not an error.
func LoadEnvFile(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// Environment overrides
const (
	EnvSteps     = "CAMSEQ_STEPS"
	EnvMsPerStep = "CAMSEQ_MS_PER_STEP"
	EnvTempo     = "CAMSEQ_TEMPO"
	EnvScale     = "CAMSEQ_SCALE"
	EnvFPS       = "CAMSEQ_FPS"
	EnvPort      = "CAMSEQ_PORT"
	EnvChannel   = "CAMSEQ_CHANNEL"
	EnvSource    = "CAMSEQ_SOURCE"
	EnvImage     = "CAMSEQ_IMAGE"
	EnvLines     = "CAMSEQ_LINES"
	EnvDebug     = "CAMSEQ_DEBUG"
)

// ApplyEnv overlays CAMSEQ_* environment variables. Unset, empty or
// unparsable values leave the field alone.
func (c *Config) ApplyEnv() {
	c.Sequencer.Steps = getEnvInt(EnvSteps, c.Sequencer.Steps)
	c.Sequencer.MsPerStep = getEnvInt(EnvMsPerStep, c.Sequencer.MsPerStep)
	c.Sequencer.Tempo = getEnvInt(EnvTempo, c.Sequencer.Tempo)
	c.Display.Scale = getEnvInt(EnvScale, c.Display.Scale)
	c.Display.FPS = getEnvInt(EnvFPS, c.Display.FPS)
	c.Output.PortName = getEnv(EnvPort, c.Output.PortName)
	c.Output.Channel = getEnvInt(EnvChannel, c.Output.Channel)
	c.Output.LinesPath = getEnv(EnvLines, c.Output.LinesPath)
	c.Source.Kind = getEnv(EnvSource, c.Source.Kind)
	if p := getEnv(EnvImage, ""); p != "" {
		c.Source.Kind = "file"
		c.Source.Path = p
	}
	if v, err := strconv.ParseBool(os.Getenv(EnvDebug)); err == nil {
		c.Debug = v
	}
}

// Validate rejects settings the instrument cannot run with
func (c *Config) Validate() error {
	switch {
	case c.Sequencer.Steps <= 0:
		return fmt.Errorf("sequencer.steps must be positive, got %d", c.Sequencer.Steps)
	case c.Sequencer.MsPerStep <= 0 && c.Sequencer.Tempo <= 0:
		return fmt.Errorf("sequencer.msPerStep must be positive, got %d", c.Sequencer.MsPerStep)
	case c.Sequencer.Tempo < 0:
		return fmt.Errorf("sequencer.tempo must not be negative, got %d", c.Sequencer.Tempo)
	case c.Display.Scale <= 0:
		return fmt.Errorf("display.scale must be positive, got %d", c.Display.Scale)
	case c.Display.FPS <= 0:
		return fmt.Errorf("display.fps must be positive, got %d", c.Display.FPS)
	case c.Output.Channel < 1 || c.Output.Channel > 16:
		return fmt.Errorf("output.channel must be 1-16, got %d", c.Output.Channel)
	case c.Output.BaseNote > 127:
		return fmt.Errorf("output.baseNote must be 0-127, got %d", c.Output.BaseNote)
	}
	d := c.Detector
	if d.HueMin > d.HueMax || d.SatMin > d.SatMax || d.ValMin > d.ValMax {
		return fmt.Errorf("detector range is inverted: %+v", d)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}
