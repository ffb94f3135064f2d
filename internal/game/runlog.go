package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dialogue-sequencer/internal/config"
	"dialogue-sequencer/internal/script"
	"dialogue-sequencer/internal/subtitle"
)

// saveVersion is bumped when Save changes incompatibly.
const saveVersion = 1

// ErrNoSave is returned by LoadScene when no save exists for the scene.
var ErrNoSave = errors.New("no save for scene")

// Save is one scene's saved playback state.
type Save struct {
	Version   int               `json:"version"`
	Scene     string            `json:"scene"`
	SavedAt   time.Time         `json:"saved_at"`
	Sequencer subtitle.Snapshot `json:"sequencer"`
	Progress  script.Progress   `json:"progress"`
}

// PlaybackEntry records one retired segment.
type PlaybackEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	Session   string         `json:"session,omitempty"`
	Scene     string         `json:"scene"`
	Text      string         `json:"text"`
	Style     subtitle.Style `json:"style"`
	Shown     float64        `json:"shown"`
	Skipped   bool           `json:"skipped"`
}

// Store keeps saves and the playback log under one data directory.
type Store struct {
	dir    string
	logger *slog.Logger
}

// NewStore uses dir for all files.
func NewStore(dir string, logger *slog.Logger) *Store {
	return &Store{dir: dir, logger: logger}
}

// OpenStore uses the XDG data directory.
func OpenStore(logger *slog.Logger) (*Store, error) {
	dir, err := config.DataDir()
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}
	return NewStore(dir, logger), nil
}

// Dir is the store's root directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) savePath(scene string) string {
	return filepath.Join(s.dir, "saves", sanitizeName(scene)+".json")
}

// SaveScene writes save, replacing any earlier save of the same scene.
func (s *Store) SaveScene(save Save) error {
	save.Version = saveVersion
	path := s.savePath(save.Scene)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create save dir: %w", err)
	}
	data, err := json.MarshalIndent(save, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal save: %w", err)
	}
	// Write then rename so a crash never leaves half a save behind.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write save: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("write save: %w", err)
	}
	return nil
}

// LoadScene reads the save for scene.
func (s *Store) LoadScene(scene string) (Save, error) {
	data, err := os.ReadFile(s.savePath(scene))
	if errors.Is(err, os.ErrNotExist) {
		return Save{}, fmt.Errorf("%w %q", ErrNoSave, scene)
	}
	if err != nil {
		return Save{}, fmt.Errorf("read save: %w", err)
	}
	var save Save
	if err := json.Unmarshal(data, &save); err != nil {
		return Save{}, fmt.Errorf("parse save: %w", err)
	}
	if save.Version != saveVersion {
		return Save{}, fmt.Errorf("save version %d, want %d", save.Version, saveVersion)
	}
	return save, nil
}

// AppendPlayback appends e as a single JSON line to playback.jsonl.
// Errors are logged but never interrupt playback.
func (s *Store) AppendPlayback(e PlaybackEntry) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		s.logger.Warn("playback log: cannot create data dir", "error", err)
		return
	}
	f, err := os.OpenFile(filepath.Join(s.dir, "playback.jsonl"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		s.logger.Warn("playback log: cannot open file", "error", err)
		return
	}
	defer f.Close()
	data, err := json.Marshal(e)
	if err != nil {
		s.logger.Warn("playback log: cannot marshal JSON", "error", err)
		return
	}
	f.Write(append(data, '\n')) //nolint:errcheck
}

// sanitizeName turns a scene name into a safe file name.
func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '.':
			b.WriteByte('_')
		}
		if b.Len() >= 64 {
			break
		}
	}
	if b.Len() == 0 {
		return "scene"
	}
	return b.String()
}
