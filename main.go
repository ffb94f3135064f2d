package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"dialogue-sequencer/internal/config"
	"dialogue-sequencer/internal/game"
	"dialogue-sequencer/internal/script"
	"dialogue-sequencer/internal/subtitle"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:   config.AppName,
		Short: "Play timed subtitle and dialogue scenes in the terminal",
		Long: `dialogue-sequencer plays scene scripts: timed cues whose text is split into
segments and shown one at a time, each for its own duration.

Cue text uses "\n\n" to separate segments and an optional "seconds#" prefix
to set a segment's duration, e.g. "2#Wake up.\n\nThe ship is drifting."`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $XDG_CONFIG_HOME/dialogue-sequencer/config.yaml)")

	root.AddCommand(newPlayCmd(&configPath))
	root.AddCommand(newCheckCmd())
	root.AddCommand(newParseCmd(&configPath))
	return root
}

// ─── play ───────────────────────────────────────────────────────────────────

func newPlayCmd(configPath *string) *cobra.Command {
	var frameRate int
	cmd := &cobra.Command{
		Use:   "play <script.yaml>",
		Short: "Play a scene in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Open(*configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("frame-rate") {
				if frameRate <= 0 {
					return fmt.Errorf("--frame-rate must be positive")
				}
				cfg.FrameRate = frameRate
			}
			sc, err := script.Load(args[0])
			if err != nil {
				return err
			}
			return play(cmd.Context(), sc, cfg)
		},
	}
	cmd.Flags().IntVar(&frameRate, "frame-rate", 0, "frames per second (overrides config)")
	return cmd
}

func play(ctx context.Context, sc *script.Script, cfg config.Config) error {
	dataDir, err := config.DataDir()
	if err != nil {
		return fmt.Errorf("data dir: %w", err)
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	// The screen owns the terminal, so logs go to a file.
	logFile, err := os.OpenFile(filepath.Join(dataDir, config.AppName+".log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer logFile.Close()
	logger := newLogger(logFile, cfg)

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	g := game.New(screen, sc, cfg, game.NewStore(dataDir, logger), logger)
	return g.Run(ctx)
}

func newLogger(w io.Writer, cfg config.Config) *slog.Logger {
	level, _ := cfg.Level()
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// ─── check ──────────────────────────────────────────────────────────────────

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <script.yaml>...",
		Short: "Validate scene scripts",
		Long: `Validate scene scripts: cue ids, "then" references, cue times and every
cue's duration prefixes. Exits non-zero if any script is invalid.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return check(cmd.OutOrStdout(), args)
		},
	}
}

func check(w io.Writer, paths []string) error {
	failed := 0
	for _, path := range paths {
		sc, err := script.Load(path)
		if err != nil {
			failed++
			fmt.Fprintf(w, "FAIL %s: %v\n", path, err)
			var fe *subtitle.FormatError
			if errors.As(err, &fe) {
				fmt.Fprintf(w, "     segment %d has duration prefix %q; want seconds such as \"2.5#\"\n", fe.Part+1, fe.Prefix)
			}
			continue
		}
		timed := 0
		for _, c := range sc.Cues {
			if c.At != nil {
				timed++
			}
		}
		fmt.Fprintf(w, "ok   %s: %d cues, %d timed\n", path, len(sc.Cues), timed)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d scripts invalid", failed, len(paths))
	}
	return nil
}

// ─── parse ──────────────────────────────────────────────────────────────────

func newParseCmd(configPath *string) *cobra.Command {
	var (
		styleName string
		format    string
	)
	cmd := &cobra.Command{
		Use:   "parse <text>",
		Short: "Show the segments a cue text produces",
		Long: `Show the segments a cue text produces and how long each would stay on
screen under the configured default duration. A literal \n in the argument
counts as a newline.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Open(*configPath)
			if err != nil {
				return err
			}
			style, err := subtitle.ParseStyle(styleName)
			if err != nil {
				return err
			}
			return parse(cmd.OutOrStdout(), args[0], style, format, cfg)
		},
	}
	cmd.Flags().StringVar(&styleName, "style", "subtitle", "segment style: subtitle, rectangle or talk")
	cmd.Flags().StringVar(&format, "format", "text", "output format: text or yaml")
	return cmd
}

// parsedSegment is one line of parse output.
type parsedSegment struct {
	Text     string         `yaml:"text"`
	Duration float64        `yaml:"duration"`
	Shown    float64        `yaml:"shown"`
	Style    subtitle.Style `yaml:"style"`
	Color    subtitle.Color `yaml:"color"`
	Callback bool           `yaml:"callback"`
}

func parse(w io.Writer, raw string, style subtitle.Style, format string, cfg config.Config) error {
	color := cfg.StyleColor(style)
	segs, err := subtitle.Parse(raw, subtitle.PosCenter, subtitle.PosSubtitle, style, color, subtitle.CallbackFunc(func() {}))
	if err != nil {
		return err
	}
	seq := subtitle.New(subtitle.WithDefaultDuration(cfg.DurationPolicy()))
	out := make([]parsedSegment, len(segs))
	for i, s := range segs {
		out[i] = parsedSegment{
			Text:     s.Text,
			Duration: s.Duration,
			Shown:    seq.DisplayDuration(s.Text, s.Duration),
			Style:    s.Style,
			Color:    s.Color,
			Callback: s.OnComplete != nil,
		}
	}

	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("encode segments: %w", err)
		}
		return enc.Close()
	case "text":
		if len(out) == 0 {
			fmt.Fprintln(w, "(no segments)")
			return nil
		}
		total := 0.0
		for i, s := range out {
			total += s.Shown
			mark := ""
			if s.Callback {
				mark = "  [callback]"
			}
			fmt.Fprintf(w, "%d. %5.2fs  %q%s\n", i+1, s.Shown, s.Text, mark)
		}
		fmt.Fprintf(w, "total %.2fs\n", total)
		return nil
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
