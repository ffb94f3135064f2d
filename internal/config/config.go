// Package config holds the presentation policy shared by the scene runners.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"unicode/utf8"

	"dialogue-sequencer/internal/subtitle"

	"gopkg.in/yaml.v3"
)

// AppName names the XDG config and data directories.
const AppName = "dialogue-sequencer"

// Config is the on-disk configuration.
type Config struct {
	FrameRate       int             `yaml:"frame_rate"`
	DefaultDuration DefaultDuration `yaml:"default_duration"`
	Styles          Styles          `yaml:"styles"`
	LogLevel        string          `yaml:"log_level"`
}

// DefaultDuration is the display time of segments that carry no explicit
// duration: Base seconds plus PerChar seconds per rune of text.
type DefaultDuration struct {
	Base    float64 `yaml:"base"`
	PerChar float64 `yaml:"per_char"`
}

// Styles holds the fallback colour of each display style.
type Styles struct {
	Subtitle  StyleConfig `yaml:"subtitle"`
	Rectangle StyleConfig `yaml:"rectangle"`
	Talk      StyleConfig `yaml:"talk"`
}

// StyleConfig configures one display style.
type StyleConfig struct {
	Color subtitle.Color `yaml:"color"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		FrameRate: 30,
		DefaultDuration: DefaultDuration{
			Base:    1.5,
			PerChar: 0.06,
		},
		Styles: Styles{
			Subtitle:  StyleConfig{Color: subtitle.White},
			Rectangle: StyleConfig{Color: subtitle.Color{R: 0xd0, G: 0xe0, B: 0xff, A: 0xff}},
			Talk:      StyleConfig{Color: subtitle.Color{R: 0xff, G: 0xd7, B: 0x5f, A: 0xff}},
		},
		LogLevel: "info",
	}
}

// Load reads path over the defaults. Keys missing from the file keep their
// default values.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDefault loads the user's config file if it exists and falls back to
// Default otherwise.
func LoadDefault() (Config, error) {
	path, err := Path()
	if err != nil {
		return Default(), nil
	}
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Open loads path, or the user's config file when path is empty.
func Open(path string) (Config, error) {
	if path == "" {
		return LoadDefault()
	}
	return Load(path)
}

// Save writes cfg as YAML.
func Save(cfg Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Path returns $XDG_CONFIG_HOME/dialogue-sequencer/config.yaml, defaulting
// to ~/.config.
func Path() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, AppName, "config.yaml"), nil
}

// DataDir returns $XDG_DATA_HOME/dialogue-sequencer, defaulting to
// ~/.local/share.
func DataDir() (string, error) {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, AppName), nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.FrameRate <= 0 {
		return fmt.Errorf("frame_rate must be positive, got %d", c.FrameRate)
	}
	if c.DefaultDuration.Base < 0 || c.DefaultDuration.PerChar < 0 {
		return fmt.Errorf("default_duration must not be negative")
	}
	if c.DefaultDuration.Base == 0 && c.DefaultDuration.PerChar == 0 {
		return fmt.Errorf("default_duration must be non-zero")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}

// DurationPolicy is the zero-duration policy described by DefaultDuration.
func (c Config) DurationPolicy() subtitle.DurationPolicy {
	base, perChar := c.DefaultDuration.Base, c.DefaultDuration.PerChar
	return func(text string) float64 {
		return base + perChar*float64(utf8.RuneCountInString(text))
	}
}

// StyleColor is the configured colour for s.
func (c Config) StyleColor(s subtitle.Style) subtitle.Color {
	switch s {
	case subtitle.StyleRectangle:
		return c.Styles.Rectangle.Color
	case subtitle.StyleTalk:
		return c.Styles.Talk.Color
	default:
		return c.Styles.Subtitle.Color
	}
}
