package script

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"dialogue-sequencer/internal/subtitle"
)

const callbackPrefix = "cue:"

// Palette picks the colour for cues that do not set one.
type Palette func(subtitle.Style) subtitle.Color

// Director plays a Script into a Sequencer on the host's frame clock.
type Director struct {
	script    *Script
	seq       *subtitle.Sequencer
	palette   Palette
	logger    *slog.Logger
	clock     float64
	timed     []int // indices of cues with At, ordered by At
	next      int   // first entry of timed not yet submitted
	completed []string
}

// DirectorOption configures a Director.
type DirectorOption func(*Director)

// WithPalette sets the colour used by cues without one.
func WithPalette(p Palette) DirectorOption {
	return func(d *Director) { d.palette = p }
}

// WithLogger sets the director's logger.
func WithLogger(l *slog.Logger) DirectorOption {
	return func(d *Director) { d.logger = l }
}

// NewDirector prepares s for playback into seq. The script must already be
// valid.
func NewDirector(s *Script, seq *subtitle.Sequencer, opts ...DirectorOption) *Director {
	d := &Director{
		script:  s,
		seq:     seq,
		palette: func(subtitle.Style) subtitle.Color { return subtitle.White },
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(d)
	}
	for i, c := range s.Cues {
		if c.At != nil {
			d.timed = append(d.timed, i)
		}
	}
	sort.SliceStable(d.timed, func(a, b int) bool {
		return *s.Cues[d.timed[a]].At < *s.Cues[d.timed[b]].At
	})
	return d
}

// Sequencer returns the sequencer the director submits to.
func (d *Director) Sequencer() *subtitle.Sequencer { return d.seq }

// Script returns the script being played.
func (d *Director) Script() *Script { return d.script }

// Clock is the scene time in seconds.
func (d *Director) Clock() float64 { return d.clock }

// Advance runs one frame: the sequencer ages by delta first, then every cue
// whose time has come is submitted in order.
func (d *Director) Advance(delta float64) error {
	d.seq.Advance(delta)
	if delta > 0 {
		d.clock += delta
	}
	for d.next < len(d.timed) {
		c := d.script.Cues[d.timed[d.next]]
		if *c.At > d.clock {
			break
		}
		d.next++
		if err := d.submit(c); err != nil {
			return err
		}
	}
	return nil
}

// Trigger submits the cue with the given id now, regardless of its time.
func (d *Director) Trigger(id string) error {
	c, ok := d.script.Cue(id)
	if !ok {
		return fmt.Errorf("unknown cue %q", id)
	}
	return d.submit(c)
}

func (d *Director) submit(c Cue) error {
	pos := c.Position()
	color := d.palette(c.Style)
	if c.Color != nil {
		color = *c.Color
	}
	cb := &cueDone{d: d, id: c.ID}
	if err := d.seq.Submit(c.Text, pos.X, pos.Y, c.Interrupt, c.Style, color, cb); err != nil {
		return fmt.Errorf("cue %q: %w", c.ID, err)
	}
	d.logger.Debug("cue submitted", "cue", c.ID, "clock", d.clock, "interrupt", c.Interrupt)
	return nil
}

// Completed lists finished cues in completion order.
func (d *Director) Completed() []string {
	return append([]string(nil), d.completed...)
}

// Done reports whether every timed cue has been submitted and nothing is
// left on screen.
func (d *Director) Done() bool {
	return d.next >= len(d.timed) && d.seq.Idle()
}

// Resolve maps a saved callback name back to a live callback. Pass it to
// Sequencer.Restore.
func (d *Director) Resolve(name string) (subtitle.Callback, bool) {
	id, ok := strings.CutPrefix(name, callbackPrefix)
	if !ok {
		return nil, false
	}
	if _, ok := d.script.Cue(id); !ok {
		return nil, false
	}
	return &cueDone{d: d, id: id}, true
}

// Progress is the persistent part of a Director.
type Progress struct {
	Clock     float64  `json:"clock"`
	Next      int      `json:"next"`
	Completed []string `json:"completed"`
}

// Progress captures the director's own state. The sequencer is saved
// separately.
func (d *Director) Progress() Progress {
	return Progress{Clock: d.clock, Next: d.next, Completed: d.Completed()}
}

// SetProgress restores state captured by Progress.
func (d *Director) SetProgress(p Progress) error {
	if p.Next < 0 || p.Next > len(d.timed) {
		return fmt.Errorf("progress: next cue %d out of range", p.Next)
	}
	if p.Clock < 0 {
		return fmt.Errorf("progress: negative clock")
	}
	d.clock = p.Clock
	d.next = p.Next
	d.completed = append([]string(nil), p.Completed...)
	return nil
}

// Rewind restarts the scene from the top, silently dropping anything on
// screen.
func (d *Director) Rewind() {
	d.seq.Reset()
	d.clock = 0
	d.next = 0
	d.completed = nil
}

// cueDone marks a cue complete and chains to its Then cue.
type cueDone struct {
	d  *Director
	id string
}

func (c *cueDone) CallbackName() string { return callbackPrefix + c.id }

func (c *cueDone) OnComplete() {
	c.d.completed = append(c.d.completed, c.id)
	cue, ok := c.d.script.Cue(c.id)
	if !ok || cue.Then == "" {
		return
	}
	if err := c.d.Trigger(cue.Then); err != nil {
		c.d.logger.Warn("chained cue failed", "cue", c.id, "then", cue.Then, "error", err)
	}
}
