// Package ssh lets a scene be played over an SSH session.
package ssh

import (
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"
	gossh "github.com/gliderlabs/ssh"
)

// DefaultTerm is used when the client does not send TERM.
const DefaultTerm = "xterm-256color"

// Tty implements tcell.Tty over a gliderlabs SSH session, so every viewer
// gets a screen of their own.
type Tty struct {
	sess gossh.Session

	mu       sync.Mutex
	size     gossh.Window
	resizes  <-chan gossh.Window
	onResize func()
	once     sync.Once
}

// NewTty wraps sess. pty carries the initial window; resizes delivers
// later window changes.
func NewTty(sess gossh.Session, pty gossh.Pty, resizes <-chan gossh.Window) *Tty {
	return &Tty{sess: sess, size: pty.Window, resizes: resizes}
}

// Term returns the client's TERM, or DefaultTerm.
func Term(sess gossh.Session) string {
	for _, env := range sess.Environ() {
		if v, ok := strings.CutPrefix(env, "TERM="); ok && v != "" {
			return v
		}
	}
	return DefaultTerm
}

func (t *Tty) Read(b []byte) (int, error)  { return t.sess.Read(b) }
func (t *Tty) Write(b []byte) (int, error) { return t.sess.Write(b) }
func (t *Tty) Close() error                { return t.sess.Close() }

// Start, Stop and Drain are no-ops: the channel belongs to the server
// handler.
func (t *Tty) Start() error { return nil }
func (t *Tty) Stop() error  { return nil }
func (t *Tty) Drain() error { return nil }

// WindowSize returns the last reported terminal size.
func (t *Tty) WindowSize() (tcell.WindowSize, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return tcell.WindowSize{Width: t.size.Width, Height: t.size.Height}, nil
}

// NotifyResize registers cb for window changes. The resize channel is
// drained on one goroutine for the life of the session, however many times
// tcell re-registers.
func (t *Tty) NotifyResize(cb func()) {
	t.mu.Lock()
	t.onResize = cb
	t.mu.Unlock()

	t.once.Do(func() {
		go func() {
			for win := range t.resizes {
				t.mu.Lock()
				t.size = win
				fn := t.onResize
				t.mu.Unlock()
				if fn != nil {
					fn()
				}
			}
		}()
	})
}
