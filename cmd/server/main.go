// dialogue-sequencer-server plays a scene to every SSH client that connects.
// Each connection gets its own sequencer and clock. Build:
//
//	go build -o dialogue-sequencer-server ./cmd/server
//
// Usage:
//
//	./dialogue-sequencer-server --script scenes/intro.yaml [--port 2222] [--key server_host_key]
//
// Connect:
//
//	ssh -t -p 2222 localhost
package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"dialogue-sequencer/internal/config"
	"dialogue-sequencer/internal/game"
	"dialogue-sequencer/internal/script"
	internalssh "dialogue-sequencer/internal/ssh"

	"github.com/gdamore/tcell/v2"
	gossh "github.com/gliderlabs/ssh"
	"github.com/spf13/cobra"
	xssh "golang.org/x/crypto/ssh"
)

// maxNameBytes bounds user names used in logs and save paths.
const maxNameBytes = 16

// allowedTerms are the TERM values passed through to terminfo. Anything else
// falls back to internalssh.DefaultTerm.
var allowedTerms = map[string]bool{
	"xterm-256color":        true,
	"xterm":                 true,
	"tmux":                  true,
	"tmux-256color":         true,
	"screen":                true,
	"screen-256color":       true,
	"linux":                 true,
	"vt100":                 true,
	"rxvt-unicode-256color": true,
}

var (
	port       int
	keyFile    string
	scriptPath string
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "dialogue-sequencer-server",
	Short: "Serve a scene over SSH",
	Long: `Serve a scene over SSH. Every connection plays the scene from the start
with its own sequencer, saves and playback log.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.Flags().IntVar(&port, "port", 2222, "SSH server port")
	rootCmd.Flags().StringVar(&keyFile, "key", "server_host_key", "PEM-encoded host key (generated if absent)")
	rootCmd.Flags().StringVar(&scriptPath, "script", "", "scene script to play (required)")
	rootCmd.Flags().StringVar(&configPath, "config", "", "config file (default $XDG_CONFIG_HOME/dialogue-sequencer/config.yaml)")
	_ = rootCmd.MarkFlagRequired("script")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func serve() error {
	cfg, err := config.Open(configPath)
	if err != nil {
		return err
	}
	level, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	sc, err := script.Load(scriptPath)
	if err != nil {
		return err
	}
	dataDir, err := config.DataDir()
	if err != nil {
		return fmt.Errorf("data dir: %w", err)
	}
	signer, err := loadOrCreateHostKey(keyFile, logger)
	if err != nil {
		return err
	}

	h := &handler{script: sc, cfg: cfg, dataDir: dataDir, logger: logger}
	srv := &gossh.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: h.handleSession,
		// Accept PTY requests from any client.
		PtyCallback: func(_ gossh.Context, _ gossh.Pty) bool { return true },
		// No authentication: meant for a private network. Add
		// gossh.PublicKeyAuth or gossh.PasswordAuth for real auth.
		HostSigners: []gossh.Signer{signer},
	}

	logger.Info("listening", "addr", srv.Addr, "scene", sc.Name)
	logger.Info(fmt.Sprintf("connect with:  ssh -t -p %d -o StrictHostKeyChecking=no localhost", port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, gossh.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// ─── sessions ───────────────────────────────────────────────────────────────

// handler plays the scene to each connection. The script is shared
// read-only; everything mutable lives in the per-session Game.
type handler struct {
	script  *script.Script
	cfg     config.Config
	dataDir string
	logger  *slog.Logger
}

// termMu protects os.Setenv("TERM") around screen creation.
var termMu sync.Mutex

// handleSession is the gliderlabs SSH handler for one connection. It blocks
// until the scene ends so the session stays open.
func (h *handler) handleSession(s gossh.Session) {
	pty, winCh, hasPTY := s.Pty()
	if !hasPTY {
		fmt.Fprintln(s, "This scene needs a PTY. Connect with: ssh -t -p <port> <host>")
		return
	}

	name := sanitizeName(s.User())
	if name == "" {
		name = "guest"
	}
	id := fmt.Sprintf("%s@%s", name, s.RemoteAddr())
	logger := h.logger.With("session", id)

	term := pickTerm(internalssh.Term(s))
	tty := internalssh.NewTty(s, pty, winCh)
	// TERM must be in the process environment before NewTerminfoScreenFromTty.
	termMu.Lock()
	_ = os.Setenv("TERM", term)
	screen, err := tcell.NewTerminfoScreenFromTty(tty)
	termMu.Unlock()
	if err != nil {
		fmt.Fprintf(s, "Terminal setup failed: %v\n", err)
		logger.Warn("terminal setup failed", "term", term, "error", err)
		return
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(s, "Screen init failed: %v\n", err)
		logger.Warn("screen init failed", "term", term, "error", err)
		return
	}

	logger.Info("connected", "term", term)
	store := game.NewStore(filepath.Join(h.dataDir, "sessions", name), logger)
	g := game.New(screen, h.script, h.cfg, store, logger, game.WithSession(id))
	if err := g.Run(s.Context()); err != nil {
		logger.Warn("scene stopped", "error", err)
	}
	logger.Info("disconnected")
}

// pickTerm returns term if it is allowed, or the default.
func pickTerm(term string) string {
	if allowedTerms[term] {
		return term
	}
	return internalssh.DefaultTerm
}

// sanitizeName drops control characters from a client-supplied name and
// truncates it to maxNameBytes without splitting a rune. Path separators
// are dropped too since the name becomes a directory.
func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsControl(r) || r == '/' || r == '\\' || r == utf8.RuneError {
			continue
		}
		if b.Len()+utf8.RuneLen(r) > maxNameBytes {
			break
		}
		b.WriteRune(r)
	}
	return strings.Trim(b.String(), ".")
}

// ─── host key ───────────────────────────────────────────────────────────────

// loadOrCreateHostKey loads a PEM private key from path, or generates and
// persists a new ed25519 key if the file is absent or unreadable.
func loadOrCreateHostKey(path string, logger *slog.Logger) (gossh.Signer, error) {
	if data, err := os.ReadFile(path); err == nil {
		if signer, err := xssh.ParsePrivateKey(data); err == nil {
			logger.Info("loaded host key", "path", path)
			return signer, nil
		}
	}

	logger.Info("generating ed25519 host key", "path", path)
	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate host key: %w", err)
	}
	signer, err := xssh.NewSignerFromKey(key)
	if err != nil {
		return nil, fmt.Errorf("create signer: %w", err)
	}
	// Persist for next run (non-fatal if it fails).
	if block, err := xssh.MarshalPrivateKey(key, "dialogue-sequencer server"); err == nil {
		if err := os.WriteFile(path, pem.EncodeToMemory(block), 0o600); err != nil {
			logger.Warn("cannot save host key", "path", path, "error", err)
		}
	}
	return signer, nil
}
