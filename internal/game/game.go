package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"dialogue-sequencer/internal/config"
	"dialogue-sequencer/internal/render"
	"dialogue-sequencer/internal/script"
	"dialogue-sequencer/internal/subtitle"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/sync/errgroup"
)

// messageTTL is how long a HUD notice stays up, in seconds of wall time.
const messageTTL = 2.0

// interruptLine is what the interrupt key cuts in with.
const interruptLine = "2#Sorry, where was I?"

// Game plays one scene on one screen. It owns the scene's Sequencer; every
// method must be called from the goroutine running the frame loop.
type Game struct {
	screen   tcell.Screen
	renderer *render.Renderer
	director *script.Director
	seq      *subtitle.Sequencer
	cfg      config.Config
	store    *Store
	logger   *slog.Logger
	session  string

	paused   bool
	skipping bool
	message  string
	msgLeft  float64
}

// Option configures a Game.
type Option func(*Game)

// WithSession tags playback log lines with a session id.
func WithSession(id string) Option {
	return func(g *Game) { g.session = id }
}

// New prepares sc for playback on screen. The screen must already be
// initialised; Run finalises it. store may be nil to disable saves and the
// playback log.
func New(screen tcell.Screen, sc *script.Script, cfg config.Config, store *Store, logger *slog.Logger, opts ...Option) *Game {
	g := &Game{
		screen:   screen,
		renderer: render.NewRenderer(screen),
		cfg:      cfg,
		store:    store,
		logger:   logger,
	}
	for _, o := range opts {
		o(g)
	}
	g.seq = subtitle.New(
		subtitle.WithDefaultDuration(cfg.DurationPolicy()),
		subtitle.WithRetireHook(g.retired),
	)
	g.director = script.NewDirector(sc, g.seq,
		script.WithPalette(cfg.StyleColor),
		script.WithLogger(logger),
	)
	return g
}

// Director returns the scene's director.
func (g *Game) Director() *script.Director { return g.director }

// Sequencer returns the scene's sequencer.
func (g *Game) Sequencer() *subtitle.Sequencer { return g.seq }

// Paused reports whether the scene clock is stopped.
func (g *Game) Paused() bool { return g.paused }

// Message is the HUD notice currently shown, if any.
func (g *Game) Message() string { return g.message }

// Run drives the scene until the viewer quits, the screen closes or ctx is
// cancelled. Input is read on its own goroutine and handed to the frame loop
// over a channel, so the sequencer is only ever touched by one goroutine.
func (g *Game) Run(ctx context.Context) error {
	events := make(chan tcell.Event, 32)
	done := make(chan struct{})
	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		defer close(events)
		for {
			ev := g.screen.PollEvent()
			if ev == nil {
				return nil
			}
			select {
			case events <- ev:
			case <-done:
				return nil
			}
		}
	})
	eg.Go(func() error {
		defer close(done)
		// Fini unblocks PollEvent.
		defer g.screen.Fini()
		return g.loop(ctx, events)
	})
	return eg.Wait()
}

func (g *Game) loop(ctx context.Context, events <-chan tcell.Event) error {
	fps := max(g.cfg.FrameRate, 1)
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	g.logger.Info("scene started", "scene", g.director.Script().Name, "session", g.session)
	defer g.logger.Info("scene ended", "scene", g.director.Script().Name, "session", g.session)

	last := time.Now()
	g.draw()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil // screen closed / disconnected
			}
			switch ev := ev.(type) {
			case *tcell.EventResize:
				g.screen.Sync()
			case *tcell.EventKey:
				if g.Handle(keyToAction(ev)) {
					return nil
				}
			}
			g.draw()
		case now := <-ticker.C:
			delta := now.Sub(last).Seconds()
			last = now
			if err := g.Step(delta); err != nil {
				return fmt.Errorf("advance scene: %w", err)
			}
			g.draw()
		}
	}
}

// Step advances the scene by delta seconds. While paused only the HUD
// notice ages.
func (g *Game) Step(delta float64) error {
	if g.msgLeft > 0 {
		g.msgLeft -= delta
		if g.msgLeft <= 0 {
			g.message = ""
		}
	}
	if g.paused {
		return nil
	}
	return g.director.Advance(delta)
}

// Handle applies a viewer action and reports whether playback should stop.
func (g *Game) Handle(a Action) bool {
	switch a {
	case ActionQuit:
		return true
	case ActionSkip:
		g.skipping = true
		g.seq.Skip()
		g.skipping = false
	case ActionPause:
		g.paused = !g.paused
		if g.paused {
			g.notify("paused")
		} else {
			g.notify("resumed")
		}
	case ActionSave:
		if err := g.save(); err != nil {
			g.logger.Warn("save failed", "scene", g.sceneName(), "error", err)
			g.notify("save failed")
		} else {
			g.notify("saved")
		}
	case ActionLoad:
		switch err := g.load(); {
		case errors.Is(err, ErrNoSave):
			g.notify("no save")
		case err != nil:
			g.logger.Warn("load failed", "scene", g.sceneName(), "error", err)
			g.notify("load failed")
		default:
			g.notify("loaded")
		}
	case ActionRestart:
		g.director.Rewind()
		g.paused = false
		g.notify("restarted")
	case ActionClear:
		g.seq.Clear()
		g.notify("cleared")
	case ActionInterrupt:
		color := g.cfg.StyleColor(subtitle.StyleSubtitle)
		if err := g.seq.Submit(interruptLine, subtitle.PosCenter, subtitle.PosSubtitle, true, subtitle.StyleSubtitle, color, nil); err != nil {
			g.logger.Warn("interrupt failed", "error", err)
		}
	}
	return false
}

func (g *Game) sceneName() string { return g.director.Script().Name }

func (g *Game) notify(msg string) {
	g.message = msg
	g.msgLeft = messageTTL
}

func (g *Game) save() error {
	if g.store == nil {
		return errors.New("saving disabled")
	}
	snap, err := g.seq.Snapshot()
	if err != nil {
		return fmt.Errorf("snapshot sequencer: %w", err)
	}
	return g.store.SaveScene(Save{
		Scene:     g.sceneName(),
		SavedAt:   time.Now().UTC(),
		Sequencer: snap,
		Progress:  g.director.Progress(),
	})
}

// load restores the last save. On failure the running scene is left as it
// was.
func (g *Game) load() error {
	if g.store == nil {
		return errors.New("saving disabled")
	}
	save, err := g.store.LoadScene(g.sceneName())
	if err != nil {
		return err
	}
	prev := g.director.Progress()
	if err := g.director.SetProgress(save.Progress); err != nil {
		return fmt.Errorf("restore progress: %w", err)
	}
	if err := g.seq.Restore(save.Sequencer, g.director.Resolve); err != nil {
		_ = g.director.SetProgress(prev)
		return fmt.Errorf("restore sequencer: %w", err)
	}
	return nil
}

// retired is the sequencer's retire hook.
func (g *Game) retired(v subtitle.View, shown float64) {
	g.logger.Debug("segment retired", "text", v.Text, "shown", shown, "skipped", g.skipping)
	if g.store == nil {
		return
	}
	g.store.AppendPlayback(PlaybackEntry{
		Timestamp: time.Now().UTC(),
		Session:   g.session,
		Scene:     g.sceneName(),
		Text:      v.Text,
		Style:     v.Style,
		Shown:     shown,
		Skipped:   g.skipping,
	})
}

func (g *Game) status() render.Status {
	st := render.Status{
		Scene:   g.sceneName(),
		Clock:   g.director.Clock(),
		Queued:  g.seq.Len(),
		Paused:  g.paused,
		Message: g.message,
	}
	if v, ok := g.seq.Current(); ok {
		st.Displaying = true
		st.Elapsed = g.seq.Elapsed()
		st.Total = g.seq.DisplayDuration(v.Text, v.Duration)
	}
	if st.Message == "" && g.director.Done() {
		st.Message = "end of scene"
	}
	return st
}

func (g *Game) draw() {
	g.screen.Clear()
	if v, ok := g.seq.Current(); ok {
		g.renderer.DrawSubtitle(v)
	}
	g.renderer.DrawHUD(g.status())
	g.screen.Show()
}
