// Package script loads scene scripts: timed dialogue cues written in YAML.
package script

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"dialogue-sequencer/internal/subtitle"

	"gopkg.in/yaml.v3"
)

// Script is one scene's worth of cues.
type Script struct {
	Name string `yaml:"name"`
	Cues []Cue  `yaml:"cues"`
}

// Cue is a single submission to the sequencer.
type Cue struct {
	ID        string          `yaml:"id"`
	At        *float64        `yaml:"at,omitempty"` // scene time in seconds; nil means only reachable via Then
	Text      string          `yaml:"text"`
	Pos       *Position       `yaml:"pos,omitempty"`
	Style     subtitle.Style  `yaml:"style"`
	Color     *subtitle.Color `yaml:"color,omitempty"`
	Interrupt bool            `yaml:"interrupt"`
	Then      string          `yaml:"then,omitempty"` // cue to submit once this cue's text is done
}

// Position is where a cue is drawn. The named forms "subtitle" and "center"
// map to the sequencer's reserved coordinates.
type Position struct {
	X, Y float64
}

var (
	// PosSubtitleBand is the default position.
	PosSubtitleBand = Position{X: subtitle.PosCenter, Y: subtitle.PosSubtitle}
	// PosScreenCenter centres the text on screen.
	PosScreenCenter = Position{X: subtitle.PosCenter, Y: subtitle.PosCenter}
)

// UnmarshalYAML accepts "subtitle", "center", or {x: .., y: ..}.
func (p *Position) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		switch n.Value {
		case "subtitle", "":
			*p = PosSubtitleBand
		case "center":
			*p = PosScreenCenter
		default:
			return fmt.Errorf("line %d: unknown position %q", n.Line, n.Value)
		}
		return nil
	}
	var xy struct {
		X float64 `yaml:"x"`
		Y float64 `yaml:"y"`
	}
	if err := n.Decode(&xy); err != nil {
		return err
	}
	if xy.X < 0 || xy.Y < 0 {
		return fmt.Errorf("line %d: coordinates must not be negative", n.Line)
	}
	*p = Position{X: xy.X, Y: xy.Y}
	return nil
}

// MarshalYAML writes the named forms back out.
func (p Position) MarshalYAML() (any, error) {
	switch p {
	case PosSubtitleBand:
		return "subtitle", nil
	case PosScreenCenter:
		return "center", nil
	}
	return map[string]float64{"x": p.X, "y": p.Y}, nil
}

// Position returns the cue's position, defaulting to the subtitle band.
func (c Cue) Position() Position {
	if c.Pos == nil {
		return PosSubtitleBand
	}
	return *c.Pos
}

// ErrEmpty is returned for a script with no cues.
var ErrEmpty = errors.New("script has no cues")

// Load reads and validates a script file.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("script %s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and validates a script. Unknown keys are rejected.
func Parse(data []byte) (*Script, error) {
	var s Script
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmpty
		}
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks cue ids, references, times, and that every cue's text
// parses.
func (s *Script) Validate() error {
	if len(s.Cues) == 0 {
		return ErrEmpty
	}
	seen := make(map[string]bool, len(s.Cues))
	for i, c := range s.Cues {
		if c.ID == "" {
			return fmt.Errorf("cue %d: missing id", i)
		}
		if seen[c.ID] {
			return fmt.Errorf("cue %q: duplicate id", c.ID)
		}
		seen[c.ID] = true
		if c.At != nil && *c.At < 0 {
			return fmt.Errorf("cue %q: negative at", c.ID)
		}
		pos := c.Position()
		if _, err := subtitle.Parse(c.Text, pos.X, pos.Y, c.Style, subtitle.White, nil); err != nil {
			return fmt.Errorf("cue %q: %w", c.ID, err)
		}
	}
	for _, c := range s.Cues {
		if c.Then != "" && !seen[c.Then] {
			return fmt.Errorf("cue %q: then refers to unknown cue %q", c.ID, c.Then)
		}
	}
	return nil
}

// Cue looks a cue up by id.
func (s *Script) Cue(id string) (Cue, bool) {
	for _, c := range s.Cues {
		if c.ID == id {
			return c, true
		}
	}
	return Cue{}, false
}

// Save writes s as YAML.
func Save(s *Script, path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal script: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
