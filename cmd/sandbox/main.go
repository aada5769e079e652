package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zpdzap/podbox/internal/config"
	"github.com/zpdzap/podbox/internal/engine"
	"github.com/zpdzap/podbox/internal/sandbox"
	"github.com/zpdzap/podbox/internal/tui"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	a := newApp(os.Stdin, os.Stdout, os.Stderr)
	err := newRootCmd(a).ExecuteContext(ctx)
	stop()

	os.Exit(a.handleError(err))
}

// app holds what every subcommand shares: global flags, stdio and the
// engine constructor.
type app struct {
	engineName string
	configPath string
	debug      bool

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger

	newEngine func(binary string, logger *slog.Logger) engine.Engine
	getwd     func() (string, error)
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		logger: slog.New(slog.DiscardHandler),
		newEngine: func(binary string, logger *slog.Logger) engine.Engine {
			return engine.NewCLI(binary, nil, logger)
		},
		getwd: os.Getwd,
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:     "sandbox",
		Version: Version,
		Short:   "Run commands in a persistent container sandbox mounted on the current directory",
		Long: `sandbox manages a single long-lived container with the current directory
mounted at /workspace. Commands run inside it through "sandbox execute";
installed packages survive restarts once committed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelWarn
			if a.debug {
				level = slog.LevelDebug
			}
			a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))

			if a.configPath == "" {
				a.configPath = config.DefaultPath()
			}
			return nil
		},
	}
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&a.engineName, "engine", "podman", "container engine binary (podman or docker)")
	flags.StringVar(&a.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/podman-sandbox/config.json)")
	flags.BoolVar(&a.debug, "debug", false, "log engine invocations")

	root.AddCommand(
		startCmd(a),
		stopCmd(a),
		executeCmd(a),
		configureCmd(a),
		statusCmd(a),
		listCmd(a),
		commitCmd(a),
		resetCmd(a),
		versionCmd(a),
	)
	return root
}

// manager builds a Manager for the current directory.
func (a *app) manager() (*sandbox.Manager, error) {
	wd, err := a.getwd()
	if err != nil {
		return nil, fmt.Errorf("resolving working directory: %w", err)
	}
	eng := a.newEngine(a.engineName, a.logger)
	return sandbox.NewManager(eng, a.configPath, wd, a.logger), nil
}

// withProgress runs fn with m's progress routed to a spinner on stderr. With
// --debug the log lines would tear the spinner, so phases print plainly.
func (a *app) withProgress(ctx context.Context, m *sandbox.Manager, initial string, fn func() error) error {
	run := func(report func(string)) error {
		m.SetProgress(report)
		defer m.SetProgress(nil)
		return fn()
	}
	if a.debug {
		return tui.Plain(a.stderr, initial, run)
	}
	return tui.Progress(ctx, a.stderr, initial, run)
}

// handleError prints err the way its kind calls for and returns the
// process exit code.
func (a *app) handleError(err error) int {
	if err == nil {
		return 0
	}
	if sandbox.Informational(err) {
		fmt.Fprintln(a.stdout, tui.Warning(sentence(err.Error())))
		return 0
	}

	var execErr *sandbox.ExecError
	if !errors.As(err, &execErr) {
		fmt.Fprintf(a.stderr, "%s %v\n", tui.Error("Error:"), err)
	}
	if errors.Is(err, sandbox.ErrEngineUnavailable) {
		fmt.Fprintf(a.stderr, "Is %s installed and running? Use --engine to select another engine.\n", a.engineName)
	}
	return exitCode(err)
}

// exitCode maps an error to the process status: the command's own status
// for failures inside the sandbox, 127 when the engine is missing, and the
// engine's status for engine failures.
func exitCode(err error) int {
	if err == nil {
		return 0
	}

	var execErr *sandbox.ExecError
	if errors.As(err, &execErr) {
		return execErr.Code
	}
	if errors.Is(err, sandbox.ErrEngineUnavailable) {
		return 127
	}
	var engErr *engine.Error
	if errors.As(err, &engErr) && engErr.ExitCode > 0 {
		return engErr.ExitCode
	}
	return 1
}

func sentence(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
