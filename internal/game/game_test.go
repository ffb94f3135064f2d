package game

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"dialogue-sequencer/internal/config"
	"dialogue-sequencer/internal/script"

	"github.com/gdamore/tcell/v2"
)

const testScene = `
name: test scene
cues:
  - id: a
    at: 0
    text: "1#one\n\n1#two"
    then: b
  - id: b
    text: "1#three"
  - id: c
    at: 5
    text: "1#four"
`

// ─── helpers ──────────────────────────────────────────────────────────────────

func newSimScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	ss := tcell.NewSimulationScreen("UTF-8")
	ss.SetSize(80, 24)
	if err := ss.Init(); err != nil {
		t.Fatalf("SimulationScreen.Init: %v", err)
	}
	return ss
}

func newTestGame(t *testing.T, store *Store) *Game {
	t.Helper()
	sc, err := script.Parse([]byte(testScene))
	if err != nil {
		t.Fatalf("script.Parse: %v", err)
	}
	return New(newSimScreen(t), sc, config.Default(), store, quietLogger(), WithSession("s1"))
}

func step(t *testing.T, g *Game, delta float64) {
	t.Helper()
	if err := g.Step(delta); err != nil {
		t.Fatalf("Step(%v): %v", delta, err)
	}
}

func showing(g *Game) string {
	v, ok := g.Sequencer().Current()
	if !ok {
		return "<idle>"
	}
	return v.Text
}

func readPlayback(t *testing.T, st *Store) []PlaybackEntry {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(st.Dir(), "playback.jsonl"))
	if err != nil {
		t.Fatalf("read playback log: %v", err)
	}
	var out []PlaybackEntry
	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		var e PlaybackEntry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			t.Fatalf("bad playback line %q: %v", line, err)
		}
		out = append(out, e)
	}
	return out
}

// ─── input ────────────────────────────────────────────────────────────────────

func TestKeyToAction(t *testing.T) {
	cases := []struct {
		name string
		ev   *tcell.EventKey
		want Action
	}{
		{"space skips", tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone), ActionSkip},
		{"enter skips", tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone), ActionSkip},
		{"p pauses", tcell.NewEventKey(tcell.KeyRune, 'p', tcell.ModNone), ActionPause},
		{"s saves", tcell.NewEventKey(tcell.KeyRune, 's', tcell.ModNone), ActionSave},
		{"L loads", tcell.NewEventKey(tcell.KeyRune, 'L', tcell.ModNone), ActionLoad},
		{"r restarts", tcell.NewEventKey(tcell.KeyRune, 'r', tcell.ModNone), ActionRestart},
		{"c clears", tcell.NewEventKey(tcell.KeyRune, 'c', tcell.ModNone), ActionClear},
		{"i interrupts", tcell.NewEventKey(tcell.KeyRune, 'i', tcell.ModNone), ActionInterrupt},
		{"q quits", tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone), ActionQuit},
		{"escape quits", tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), ActionQuit},
		{"other key ignored", tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone), ActionNone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := keyToAction(tc.ev); got != tc.want {
				t.Errorf("keyToAction = %v, want %v", got, tc.want)
			}
		})
	}
}

// ─── playback ─────────────────────────────────────────────────────────────────

func TestStepPlaysScene(t *testing.T) {
	st := NewStore(t.TempDir(), quietLogger())
	g := newTestGame(t, st)

	step(t, g, 0)
	if got := showing(g); got != "one" {
		t.Fatalf("showing %q, want one", got)
	}
	step(t, g, 1)
	if got := showing(g); got != "two" {
		t.Fatalf("showing %q, want two", got)
	}
	// Finishing cue a chains into cue b.
	step(t, g, 1)
	if got := showing(g); got != "three" {
		t.Fatalf("showing %q, want three", got)
	}
	g.Handle(ActionSkip)
	if got := showing(g); got != "<idle>" {
		t.Fatalf("showing %q after skip, want idle", got)
	}

	log := readPlayback(t, st)
	if len(log) != 3 {
		t.Fatalf("expected 3 playback entries, got %d", len(log))
	}
	if log[0].Text != "one" || log[0].Shown != 1 || log[0].Skipped {
		t.Errorf("first entry = %+v", log[0])
	}
	if log[2].Text != "three" || !log[2].Skipped {
		t.Errorf("last entry = %+v, want skipped three", log[2])
	}
	if log[0].Session != "s1" || log[0].Scene != "test scene" {
		t.Errorf("entry not tagged: %+v", log[0])
	}
}

func TestPauseStopsClock(t *testing.T) {
	g := newTestGame(t, nil)
	step(t, g, 0)
	g.Handle(ActionPause)
	if !g.Paused() || g.Message() != "paused" {
		t.Fatalf("paused=%v message=%q", g.Paused(), g.Message())
	}
	step(t, g, 10)
	if got := showing(g); got != "one" {
		t.Errorf("showing %q while paused, want one", got)
	}
	if g.Director().Clock() != 0 {
		t.Errorf("clock = %v while paused", g.Director().Clock())
	}
	if g.Message() != "" {
		t.Errorf("notice %q should expire while paused", g.Message())
	}
	g.Handle(ActionPause)
	step(t, g, 1)
	if got := showing(g); got != "two" {
		t.Errorf("showing %q after resume, want two", got)
	}
}

func TestInterruptReplacesQueue(t *testing.T) {
	g := newTestGame(t, nil)
	step(t, g, 0)
	g.Handle(ActionInterrupt)
	if got := showing(g); got != "Sorry, where was I?" {
		t.Fatalf("showing %q, want interrupt line", got)
	}
	if g.Sequencer().Len() != 0 {
		t.Errorf("queue = %d after interrupt, want 0", g.Sequencer().Len())
	}
	// Only "two" carried cue a's callback, and it was dropped.
	if done := g.Director().Completed(); len(done) != 0 {
		t.Errorf("completed = %v, want none", done)
	}
}

func TestRestartAndClear(t *testing.T) {
	g := newTestGame(t, nil)
	step(t, g, 0)
	step(t, g, 1)

	g.Handle(ActionClear)
	if !g.Sequencer().Idle() {
		t.Fatal("clear should leave the sequencer idle")
	}
	if g.Director().Clock() != 1 {
		t.Errorf("clear moved the clock to %v", g.Director().Clock())
	}

	g.Handle(ActionRestart)
	if g.Director().Clock() != 0 {
		t.Errorf("clock = %v after restart", g.Director().Clock())
	}
	step(t, g, 0)
	if got := showing(g); got != "one" {
		t.Errorf("showing %q after restart, want one", got)
	}
}

func TestQuitAction(t *testing.T) {
	g := newTestGame(t, nil)
	if g.Handle(ActionSkip) {
		t.Error("skip should not stop playback")
	}
	if !g.Handle(ActionQuit) {
		t.Error("quit should stop playback")
	}
}

// ─── save / load ──────────────────────────────────────────────────────────────

func TestSaveLoadRoundTrip(t *testing.T) {
	st := NewStore(t.TempDir(), quietLogger())
	g := newTestGame(t, st)
	step(t, g, 0)
	step(t, g, 0.5)

	g.Handle(ActionSave)
	if g.Message() != "saved" {
		t.Fatalf("message = %q after save", g.Message())
	}

	step(t, g, 1)
	if got := showing(g); got != "two" {
		t.Fatalf("showing %q, want two", got)
	}

	g.Handle(ActionLoad)
	if g.Message() != "loaded" {
		t.Fatalf("message = %q after load", g.Message())
	}
	if got := showing(g); got != "one" {
		t.Errorf("showing %q after load, want one", got)
	}
	if el := g.Sequencer().Elapsed(); el != 0.5 {
		t.Errorf("elapsed = %v after load, want 0.5", el)
	}
	if c := g.Director().Clock(); c != 0.5 {
		t.Errorf("clock = %v after load, want 0.5", c)
	}

	// The restored callback still chains into cue b.
	step(t, g, 0.5)
	step(t, g, 1)
	if got := showing(g); got != "three" {
		t.Errorf("showing %q, want three", got)
	}
}

func TestLoadWithoutSave(t *testing.T) {
	g := newTestGame(t, NewStore(t.TempDir(), quietLogger()))
	g.Handle(ActionLoad)
	if g.Message() != "no save" {
		t.Errorf("message = %q, want no save", g.Message())
	}
}

func TestLoadFailureKeepsScene(t *testing.T) {
	st := NewStore(t.TempDir(), quietLogger())
	g := newTestGame(t, st)
	step(t, g, 0)
	g.Handle(ActionSave)

	save, err := st.LoadScene("test scene")
	if err != nil {
		t.Fatal(err)
	}
	save.Sequencer.Pending[0].Callback = "cue:nope"
	save.Progress.Clock = 42
	if err := st.SaveScene(save); err != nil {
		t.Fatal(err)
	}

	step(t, g, 1.5)
	g.Handle(ActionLoad)
	if g.Message() != "load failed" {
		t.Fatalf("message = %q, want load failed", g.Message())
	}
	if c := g.Director().Clock(); c != 1.5 {
		t.Errorf("clock = %v after failed load, want 1.5", c)
	}
	if got := showing(g); got != "two" {
		t.Errorf("showing %q after failed load, want two", got)
	}
}

func TestSaveWithoutStore(t *testing.T) {
	g := newTestGame(t, nil)
	g.Handle(ActionSave)
	if g.Message() != "save failed" {
		t.Errorf("message = %q, want save failed", g.Message())
	}
}

// ─── frame loop ───────────────────────────────────────────────────────────────

func runAsync(ctx context.Context, g *Game) <-chan error {
	errc := make(chan error, 1)
	go func() { errc <- g.Run(ctx) }()
	return errc
}

func TestRunQuitsOnKey(t *testing.T) {
	ss := newSimScreen(t)
	sc, _ := script.Parse([]byte(testScene))
	g := New(ss, sc, config.Default(), nil, quietLogger())
	errc := runAsync(context.Background(), g)

	if err := ss.PostEvent(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)); err != nil {
		t.Fatalf("PostEvent: %v", err)
	}
	select {
	case err := <-errc:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after quit key")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	g := newTestGame(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	errc := runAsync(ctx, g)
	cancel()
	select {
	case err := <-errc:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
