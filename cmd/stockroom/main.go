// Command stockroom runs the stock tracking server and talks to it from
// the command line.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/erazemk/stockroom/internal/config"
)

// levelRouter is a slog.Handler that routes records below ERROR to stdout
// and ERROR+ to stderr.
type levelRouter struct {
	level  slog.Level
	stdout slog.Handler
	stderr slog.Handler
}

func (lr *levelRouter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= lr.level
}

func (lr *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return lr.stderr.Handle(ctx, r)
	}
	return lr.stdout.Handle(ctx, r)
}

func (lr *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRouter{
		level:  lr.level,
		stdout: lr.stdout.WithAttrs(attrs),
		stderr: lr.stderr.WithAttrs(attrs),
	}
}

func (lr *levelRouter) WithGroup(name string) slog.Handler {
	return &levelRouter{
		level:  lr.level,
		stdout: lr.stdout.WithGroup(name),
		stderr: lr.stderr.WithGroup(name),
	}
}

// setupLogger configures structured logging. Records below ERROR go to
// stdout, ERROR goes to stderr. If logPath is non-empty, all levels are
// also written to that file. Returns a cleanup function that closes the
// log file (if opened).
func setupLogger(stdout, stderr io.Writer, level slog.Level, logPath string) (func(), error) {
	opts := &slog.HandlerOptions{Level: level}

	cleanup := func() {}

	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		stdout = io.MultiWriter(stdout, f)
		stderr = io.MultiWriter(stderr, f)
	}

	handler := &levelRouter{
		level:  level,
		stdout: slog.NewTextHandler(stdout, opts),
		stderr: slog.NewTextHandler(stderr, opts),
	}
	slog.SetDefault(slog.New(handler))
	return cleanup, nil
}

// app carries state shared by all subcommands.
type app struct {
	configPath string
	verbose    bool
	cfg        *config.Config
}

func (a *app) loadConfig() error {
	cfg, err := config.NewLoader(slog.Default()).Load(a.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	a.cfg = cfg
	return nil
}

// clientLogger keeps the command output clean: only warnings and errors
// are logged unless --verbose is set, and they go to stderr.
func (a *app) clientLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

func rootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "stockroom",
		Short: "Track stock on hand and removals to stores",
		Long: `Stockroom keeps an inventory of items by UPC, a history of stock
removed to stores and an activity log of every change.

Run "stockroom serve" to start the server and web interface. The other
commands talk to a running server using the client settings.`,
		SilenceUsage:      true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return a.loadConfig() },
	}

	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "",
		fmt.Sprintf("config file (default: %s if present)", config.DefaultFile))
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log debug output")

	cmd.AddCommand(
		serveCmd(a),
		initCmd(a),
		userCmd(a),
		inventoryCmd(a),
		removalsCmd(a),
		activityCmd(a),
		addCmd(a),
		adjustCmd(a),
		removeCmd(a),
	)
	return cmd
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
