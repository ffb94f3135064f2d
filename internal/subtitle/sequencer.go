package subtitle

// State is the sequencer's display state.
type State uint8

const (
	StateIdle State = iota
	StateDisplaying
)

func (s State) String() string {
	if s == StateDisplaying {
		return "displaying"
	}
	return "idle"
}

// FallbackDuration is the display time used for zero-duration segments when
// no policy is configured.
const FallbackDuration = 3.0

// DurationPolicy returns how long a segment with no explicit duration stays
// on screen.
type DurationPolicy func(text string) float64

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithDefaultDuration sets the policy applied to zero-duration segments.
// Non-positive results fall back to FallbackDuration.
func WithDefaultDuration(p DurationPolicy) Option {
	return func(s *Sequencer) { s.policy = p }
}

// RetireHook observes every retired segment together with how long it was
// shown. It runs after the next segment is promoted and before the retired
// segment's callback.
type RetireHook func(v View, shown float64)

// WithRetireHook registers h to observe retirements. Segments dropped by
// Clear are not reported.
func WithRetireHook(h RetireHook) Option {
	return func(s *Sequencer) { s.onRetire = h }
}

// Sequencer shows segments one at a time, in submission order.
type Sequencer struct {
	pending  []*Segment
	current  *Segment
	elapsed  float64
	policy   DurationPolicy
	onRetire RetireHook
}

// New creates an idle Sequencer.
func New(opts ...Option) *Sequencer {
	s := &Sequencer{}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Submit parses raw and queues the resulting segments.
//
// Without interrupt the segments go to the back of the queue; if nothing is
// showing the first one is promoted right away. With interrupt the queue is
// replaced and the current segment is retired, firing its callback after the
// first new segment is already current. On a parse error nothing changes.
func (s *Sequencer) Submit(raw string, x, y float64, interrupt bool, style Style, color Color, cb Callback) error {
	segs, err := Parse(raw, x, y, style, color, cb)
	if err != nil {
		return err
	}
	if len(segs) == 0 && !interrupt {
		return nil
	}

	if interrupt {
		clear(s.pending)
		s.pending = s.pending[:0]
	}
	for i := range segs {
		s.pending = append(s.pending, &segs[i])
	}

	switch {
	case s.current == nil:
		s.promote()
	case interrupt:
		s.retireAndPromote()
	}
	return nil
}

// Advance moves the clock forward by delta seconds. When the current segment
// has been shown for its full duration it is retired and the next one is
// promoted. At most one segment is retired per call.
func (s *Sequencer) Advance(delta float64) {
	if s.current == nil {
		return
	}
	if delta > 0 {
		s.elapsed += delta
	}
	if s.elapsed >= s.threshold(s.current) {
		s.retireAndPromote()
	}
}

// Skip retires the current segment immediately, firing its callback.
func (s *Sequencer) Skip() {
	s.retireAndPromote()
}

// Clear drops everything without firing any callback.
func (s *Sequencer) Clear() {
	clear(s.pending)
	s.pending = s.pending[:0]
	s.current = nil
	s.elapsed = 0
}

// Reset returns the sequencer to its initial state. Use it on scene change.
func (s *Sequencer) Reset() { s.Clear() }

// Current returns the segment on screen, if any.
func (s *Sequencer) Current() (View, bool) {
	if s.current == nil {
		return View{}, false
	}
	return s.current.view(), true
}

// State reports whether a segment is being displayed.
func (s *Sequencer) State() State {
	if s.current == nil {
		return StateIdle
	}
	return StateDisplaying
}

// Idle reports whether nothing is being displayed.
func (s *Sequencer) Idle() bool { return s.current == nil }

// Elapsed is how long the current segment has been shown.
func (s *Sequencer) Elapsed() float64 { return s.elapsed }

// Remaining is how long the current segment has left, or 0 when idle.
func (s *Sequencer) Remaining() float64 {
	if s.current == nil {
		return 0
	}
	return max(s.threshold(s.current)-s.elapsed, 0)
}

// Pending lists the queued segments in display order.
func (s *Sequencer) Pending() []View {
	views := make([]View, len(s.pending))
	for i, seg := range s.pending {
		views[i] = seg.view()
	}
	return views
}

// Len is the number of queued segments, not counting the current one.
func (s *Sequencer) Len() int { return len(s.pending) }

// DisplayDuration is how long a segment with the given text and duration
// would stay on screen.
func (s *Sequencer) DisplayDuration(text string, duration float64) float64 {
	return s.threshold(&Segment{Text: text, Duration: duration})
}

func (s *Sequencer) threshold(seg *Segment) float64 {
	if seg.Duration > 0 {
		return seg.Duration
	}
	if s.policy != nil {
		if d := s.policy(seg.Text); d > 0 {
			return d
		}
	}
	return FallbackDuration
}

// promote pops the head of the queue into the current slot.
func (s *Sequencer) promote() {
	s.elapsed = 0
	if len(s.pending) == 0 {
		s.current = nil
		return
	}
	s.current = s.pending[0]
	s.pending[0] = nil
	s.pending = s.pending[1:]
}

// retireAndPromote replaces the current segment with the next queued one and
// only then runs the old segment's callback, which may call Submit.
func (s *Sequencer) retireAndPromote() {
	prev := s.current
	if prev == nil {
		return
	}
	shown := s.elapsed
	s.promote()
	if s.onRetire != nil {
		s.onRetire(prev.view(), shown)
	}
	if prev.OnComplete != nil {
		prev.OnComplete.OnComplete()
	}
}
