package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dialogue-sequencer/internal/subtitle"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
frame_rate: 60
default_duration:
  per_char: 0.1
styles:
  talk:
    color: "#00ff00"
log_level: debug
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.FrameRate != 60 {
		t.Errorf("FrameRate = %d, want 60", cfg.FrameRate)
	}
	if cfg.DefaultDuration.Base != 1.5 {
		t.Errorf("Base = %v, want default 1.5", cfg.DefaultDuration.Base)
	}
	if cfg.DefaultDuration.PerChar != 0.1 {
		t.Errorf("PerChar = %v, want 0.1", cfg.DefaultDuration.PerChar)
	}
	if got := cfg.StyleColor(subtitle.StyleTalk); got != (subtitle.Color{R: 0, G: 0xff, B: 0, A: 0xff}) {
		t.Errorf("talk colour = %+v", got)
	}
	if got := cfg.StyleColor(subtitle.StyleSubtitle); got != subtitle.White {
		t.Errorf("subtitle colour = %+v, want default white", got)
	}
	if l, _ := cfg.Level(); l != slog.LevelDebug {
		t.Errorf("Level = %v, want debug", l)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"zero frame rate", "frame_rate: 0\n", "frame_rate"},
		{"negative base", "default_duration:\n  base: -1\n", "negative"},
		{"all zero durations", "default_duration:\n  base: 0\n  per_char: 0\n", "non-zero"},
		{"bad level", "log_level: loud\n", "log_level"},
		{"bad colour", "styles:\n  talk:\n    color: green\n", "colour"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tc.body), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.FrameRate = 24
	cfg.Styles.Rectangle.Color = subtitle.Color{R: 1, G: 2, B: 3, A: 4}
	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != cfg {
		t.Errorf("round trip = %+v, want %+v", got, cfg)
	}
}

func TestLoadDefaultMissingFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault: %v", err)
	}
	if cfg != Default() {
		t.Errorf("LoadDefault = %+v, want defaults", cfg)
	}
}

func TestDirsFollowXDG(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)
	t.Setenv("XDG_DATA_HOME", tmp)

	p, err := Path()
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	if want := filepath.Join(tmp, AppName, "config.yaml"); p != want {
		t.Errorf("Path = %q, want %q", p, want)
	}
	d, err := DataDir()
	if err != nil {
		t.Fatalf("DataDir: %v", err)
	}
	if want := filepath.Join(tmp, AppName); d != want {
		t.Errorf("DataDir = %q, want %q", d, want)
	}
}

func TestDurationPolicy(t *testing.T) {
	cfg := Default()
	cfg.DefaultDuration = DefaultDuration{Base: 1, PerChar: 0.5}
	p := cfg.DurationPolicy()
	if got := p("héllo"); got != 3.5 {
		t.Errorf("policy(héllo) = %v, want 3.5", got)
	}
	if got := p(""); got != 1 {
		t.Errorf("policy(\"\") = %v, want 1", got)
	}
}

func TestOpen(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := Open("")
	if err != nil || cfg != Default() {
		t.Fatalf("Open(\"\") = %+v, %v; want defaults", cfg, err)
	}

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("frame_rate: 12\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if cfg.FrameRate != 12 {
		t.Errorf("frame_rate = %d, want 12", cfg.FrameRate)
	}

	if _, err := Open(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("an explicit path that does not exist should fail")
	}
}
