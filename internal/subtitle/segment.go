// Package subtitle sequences timed text segments for display one at a time.
//
// Game logic hands raw strings to a Sequencer, which splits them into
// Segments, queues them, and advances them on the host's frame clock. Each
// segment's completion callback fires at most once, after the next segment
// has already been promoted, so callbacks may submit more text.
//
// A Sequencer is not safe for concurrent use. The host owns it from a single
// goroutine.
package subtitle

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// Reserved coordinates. Real positions are never negative.
const (
	PosCenter   = -1.0 // centered on screen
	PosSubtitle = -2.0 // anchored at the subtitle band
)

// Style is the display category of a segment. Only the tag is carried here;
// what each style looks like is up to the renderer.
type Style uint8

const (
	StyleSubtitle Style = iota
	StyleRectangle
	StyleTalk
)

var styleNames = [...]string{"subtitle", "rectangle", "talk"}

func (s Style) String() string {
	if int(s) < len(styleNames) {
		return styleNames[s]
	}
	return fmt.Sprintf("Style(%d)", s)
}

// MarshalText implements encoding.TextMarshaler.
func (s Style) MarshalText() ([]byte, error) {
	if int(s) >= len(styleNames) {
		return nil, fmt.Errorf("unknown style %d", s)
	}
	return []byte(styleNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Style) UnmarshalText(b []byte) error {
	v, err := ParseStyle(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseStyle maps a style name back to its tag.
func ParseStyle(name string) (Style, error) {
	if name == "" {
		return StyleSubtitle, nil
	}
	for i, n := range styleNames {
		if n == name {
			return Style(i), nil
		}
	}
	return StyleSubtitle, fmt.Errorf("unknown style %q", name)
}

// Color is a straight (non-premultiplied) RGBA colour.
type Color struct {
	R, G, B, A uint8
}

// White is the default segment colour.
var White = Color{255, 255, 255, 255}

// ParseColor accepts "#rrggbb" or "#rrggbbaa".
func ParseColor(s string) (Color, error) {
	alpha := uint8(255)
	if len(s) == 9 {
		var a uint8
		if _, err := fmt.Sscanf(s[7:], "%02x", &a); err != nil {
			return Color{}, fmt.Errorf("parse colour %q: %w", s, err)
		}
		alpha = a
		s = s[:7]
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return Color{}, fmt.Errorf("parse colour %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return Color{R: r, G: g, B: b, A: alpha}, nil
}

// Hex formats the colour as "#rrggbb", or "#rrggbbaa" when not opaque.
func (c Color) Hex() string {
	if c.A == 255 {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

// MarshalText implements encoding.TextMarshaler.
func (c Color) MarshalText() ([]byte, error) { return []byte(c.Hex()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Color) UnmarshalText(b []byte) error {
	v, err := ParseColor(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Callback is notified once the text it was submitted with has finished
// displaying.
type Callback interface {
	OnComplete()
}

// CallbackFunc adapts a plain function to Callback.
type CallbackFunc func()

// OnComplete calls f.
func (f CallbackFunc) OnComplete() { f() }

// Named is implemented by callbacks that can be persisted in a Snapshot and
// looked up again by name on Restore.
type Named interface {
	CallbackName() string
}

// Segment is one displayable chunk of text. It is not modified after the
// parser builds it.
type Segment struct {
	Text       string
	X, Y       float64
	Duration   float64 // seconds; 0 means use the configured default
	Style      Style
	Color      Color
	OnComplete Callback
}

// View is the read-only part of a segment the renderer needs.
type View struct {
	Text     string
	X, Y     float64
	Duration float64
	Style    Style
	Color    Color
}

func (s *Segment) view() View {
	return View{
		Text:     s.Text,
		X:        s.X,
		Y:        s.Y,
		Duration: s.Duration,
		Style:    s.Style,
		Color:    s.Color,
	}
}
