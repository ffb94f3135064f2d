package subtitle

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrBadDuration is wrapped by every FormatError.
var ErrBadDuration = errors.New("bad duration prefix")

// FormatError reports a part whose "<seconds>#" prefix is not a usable
// duration.
type FormatError struct {
	Part   int    // zero-based index of the offending part
	Prefix string // text before the '#'
	Err    error  // underlying strconv error, if any
}

func (e *FormatError) Error() string {
	msg := fmt.Sprintf("part %d: %v %q", e.Part, ErrBadDuration, e.Prefix)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FormatError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrBadDuration}
	}
	return []error{ErrBadDuration, e.Err}
}

// Parse splits raw into the segments it describes.
//
// A literal backslash-n is read as a newline and a blank line separates
// segments. A part may start with "<seconds>#" to set its duration. Only the
// last segment carries cb. Parse either returns every segment or none.
func Parse(raw string, x, y float64, style Style, color Color, cb Callback) ([]Segment, error) {
	if raw == "" {
		return nil, nil
	}
	parts := splitParts(strings.ReplaceAll(raw, `\n`, "\n"))

	segs := make([]Segment, 0, len(parts))
	for i, part := range parts {
		duration, text, err := splitDuration(part)
		if err != nil {
			err.Part = i
			return nil, err
		}
		segs = append(segs, Segment{
			Text:     text,
			X:        x,
			Y:        y,
			Duration: duration,
			Style:    style,
			Color:    color,
		})
	}
	if len(segs) > 0 {
		segs[len(segs)-1].OnComplete = cb
	}
	return segs, nil
}

// splitParts splits on blank lines and drops trailing empty parts.
func splitParts(s string) []string {
	parts := strings.Split(s, "\n\n")
	for len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}

func splitDuration(part string) (float64, string, *FormatError) {
	idx := strings.IndexByte(part, '#')
	if idx < 0 {
		return 0, part, nil
	}
	prefix := part[:idx]
	d, err := strconv.ParseFloat(strings.TrimSpace(prefix), 64)
	if err != nil {
		return 0, "", &FormatError{Prefix: prefix, Err: err}
	}
	if d < 0 || math.IsNaN(d) || math.IsInf(d, 0) {
		return 0, "", &FormatError{Prefix: prefix}
	}
	return d, part[idx+1:], nil
}
