package subtitle

import (
	"errors"
	"fmt"
)

var (
	// ErrUnnamedCallback means a live callback has no name and could not be
	// restored from a snapshot.
	ErrUnnamedCallback = errors.New("callback does not implement Named")
	// ErrUnknownCallback means the resolver does not know a stored name.
	ErrUnknownCallback = errors.New("unknown callback")
	// ErrInvalidSnapshot means the stored state could never have been reached.
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)

// Snapshot is the persistent form of a Sequencer.
type Snapshot struct {
	Elapsed float64         `json:"elapsed"`
	Current *SegmentRecord  `json:"current"`
	Pending []SegmentRecord `json:"pending"`
}

// SegmentRecord is the persistent form of a Segment. Callback holds the
// callback's name, empty when there is none.
type SegmentRecord struct {
	Text     string  `json:"text"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Duration float64 `json:"duration"`
	Style    Style   `json:"style"`
	Color    Color   `json:"color"`
	Callback string  `json:"callback,omitempty"`
}

// Resolver looks up a callback by the name it was saved under.
type Resolver func(name string) (Callback, bool)

// Snapshot captures the displayed segment, its age, and the queue.
func (s *Sequencer) Snapshot() (Snapshot, error) {
	snap := Snapshot{
		Elapsed: s.elapsed,
		Pending: make([]SegmentRecord, 0, len(s.pending)),
	}
	if s.current != nil {
		rec, err := record(s.current)
		if err != nil {
			return Snapshot{}, fmt.Errorf("current segment: %w", err)
		}
		snap.Current = &rec
	}
	for i, seg := range s.pending {
		rec, err := record(seg)
		if err != nil {
			return Snapshot{}, fmt.Errorf("pending segment %d: %w", i, err)
		}
		snap.Pending = append(snap.Pending, rec)
	}
	return snap, nil
}

// Restore replaces the sequencer's state with snap. Named callbacks are looked
// up with resolve, which may be nil when snap holds none. On error the
// sequencer is left untouched.
func (s *Sequencer) Restore(snap Snapshot, resolve Resolver) error {
	if snap.Current == nil && (len(snap.Pending) > 0 || snap.Elapsed != 0) {
		return fmt.Errorf("%w: queue or clock without a current segment", ErrInvalidSnapshot)
	}
	if snap.Elapsed < 0 {
		return fmt.Errorf("%w: negative elapsed %v", ErrInvalidSnapshot, snap.Elapsed)
	}

	var current *Segment
	if snap.Current != nil {
		seg, err := segment(*snap.Current, resolve)
		if err != nil {
			return fmt.Errorf("current segment: %w", err)
		}
		current = seg
	}
	pending := make([]*Segment, 0, len(snap.Pending))
	for i, rec := range snap.Pending {
		seg, err := segment(rec, resolve)
		if err != nil {
			return fmt.Errorf("pending segment %d: %w", i, err)
		}
		pending = append(pending, seg)
	}

	s.current = current
	s.pending = pending
	s.elapsed = snap.Elapsed
	return nil
}

func record(seg *Segment) (SegmentRecord, error) {
	rec := SegmentRecord{
		Text:     seg.Text,
		X:        seg.X,
		Y:        seg.Y,
		Duration: seg.Duration,
		Style:    seg.Style,
		Color:    seg.Color,
	}
	if seg.OnComplete != nil {
		n, ok := seg.OnComplete.(Named)
		if !ok || n.CallbackName() == "" {
			return SegmentRecord{}, ErrUnnamedCallback
		}
		rec.Callback = n.CallbackName()
	}
	return rec, nil
}

func segment(rec SegmentRecord, resolve Resolver) (*Segment, error) {
	if rec.Duration < 0 {
		return nil, fmt.Errorf("%w: negative duration %v", ErrInvalidSnapshot, rec.Duration)
	}
	seg := &Segment{
		Text:     rec.Text,
		X:        rec.X,
		Y:        rec.Y,
		Duration: rec.Duration,
		Style:    rec.Style,
		Color:    rec.Color,
	}
	if rec.Callback != "" {
		if resolve == nil {
			return nil, fmt.Errorf("%w %q", ErrUnknownCallback, rec.Callback)
		}
		cb, ok := resolve(rec.Callback)
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrUnknownCallback, rec.Callback)
		}
		seg.OnComplete = cb
	}
	return seg, nil
}
