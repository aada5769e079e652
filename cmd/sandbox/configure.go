package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/zpdzap/podbox/internal/config"
	"github.com/zpdzap/podbox/internal/report"
	"github.com/zpdzap/podbox/internal/sandbox"
	"github.com/zpdzap/podbox/internal/tui"
)

type configureFlags struct {
	memory       string
	image        string
	autoCommit   bool
	noAutoCommit bool
	show         bool
	noRestart    bool
	output       string
}

// changes builds the partial update from the flags the user actually set,
// so an unset flag leaves its field alone.
func (f *configureFlags) changes(flags *pflag.FlagSet) config.Changes {
	var c config.Changes
	if flags.Changed("memory") {
		c.Memory = &f.memory
	}
	if flags.Changed("image") {
		c.Image = &f.image
	}
	switch {
	case flags.Changed("auto-commit"):
		v := f.autoCommit
		c.AutoCommit = &v
	case flags.Changed("no-auto-commit"):
		v := !f.noAutoCommit
		c.AutoCommit = &v
	}
	return c
}

func configureCmd(a *app) *cobra.Command {
	f := &configureFlags{}

	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Show or change the sandbox configuration",
		Long: `Change the sandbox configuration. Only the options given are updated.

A running container is restarted so the new settings take effect, unless
--no-restart is given. --image auto picks an image from the project files
in the current directory.`,
		Example: `  sandbox configure --memory 512m
  sandbox configure --memory unlimited
  sandbox configure --image python:3-alpine
  sandbox configure --image auto
  sandbox configure --auto-commit
  sandbox configure --show -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := report.ParseFormat(f.output)
			if err != nil {
				return err
			}
			m, err := a.manager()
			if err != nil {
				return err
			}

			if f.show {
				return a.showConfig(m, format)
			}

			var res *sandbox.ConfigureResult
			err = a.withProgress(cmd.Context(), m, "", func() error {
				res, err = m.Configure(cmd.Context(), sandbox.ConfigureOptions{
					Changes:   f.changes(cmd.Flags()),
					NoRestart: f.noRestart,
				})
				return err
			})
			if errors.Is(err, sandbox.ErrNoChanges) {
				return fmt.Errorf("%w; use --memory, --image, --auto-commit or --show to view the current configuration", err)
			}
			if res == nil {
				return err
			}

			tui.RenderDiff(a.stdout, res.Diff)
			if err != nil {
				fmt.Fprintln(a.stdout, tui.Failed(fmt.Sprintf("Failed to restart: %v", err)))
				fmt.Fprintf(a.stdout, "  Run '%s' manually\n", tui.Command("sandbox stop && sandbox start"))
				return err
			}
			a.printRestart(res)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.memory, "memory", "m", "", `memory limit such as 512m or 2g ("unlimited" removes it)`)
	flags.StringVar(&f.image, "image", "", `container image ("auto" detects one from the project)`)
	flags.BoolVar(&f.autoCommit, "auto-commit", false, "save the container state automatically on stop")
	flags.BoolVar(&f.noAutoCommit, "no-auto-commit", false, "disable auto-commit")
	flags.BoolVar(&f.show, "show", false, "show the current configuration")
	flags.BoolVar(&f.noRestart, "no-restart", false, "do not restart a running container")
	flags.StringVarP(&f.output, "output", "o", "text", "output format for --show: text, json or yaml")
	cmd.MarkFlagsMutuallyExclusive("auto-commit", "no-auto-commit")
	return cmd
}

func (a *app) showConfig(m *sandbox.Manager, format report.Format) error {
	cfg, err := m.Config()
	if err != nil {
		return err
	}
	if format.Structured() {
		return report.Encode(a.stdout, format, report.Config(m.ConfigPath(), cfg))
	}

	fmt.Fprintln(a.stdout, tui.Heading("Current configuration:"))
	tui.RenderConfig(a.stdout, cfg)
	if !config.Exists(m.ConfigPath()) {
		fmt.Fprintf(a.stdout, "  %s\n", tui.Warning("(defaults; nothing saved yet)"))
	}
	return nil
}

func (a *app) printRestart(res *sandbox.ConfigureResult) {
	switch {
	case res.Restarted:
		fmt.Fprintln(a.stdout, tui.Check("Container stopped"))
		fmt.Fprintln(a.stdout, tui.Check("Container started with new configuration"))
		fmt.Fprintln(a.stdout)
		fmt.Fprintln(a.stdout, tui.Success("Configuration applied successfully!"))
	case res.WasRunning:
		fmt.Fprintln(a.stdout, tui.Warning("Container is running but --no-restart was specified."))
		fmt.Fprintln(a.stdout, "Restart manually to apply changes:")
		fmt.Fprintf(a.stdout, "  %s\n", tui.Command("sandbox stop && sandbox start"))
	default:
		fmt.Fprintln(a.stdout, tui.Warning("Container is not running.")+" Start it to use the new configuration:")
		fmt.Fprintf(a.stdout, "  %s\n", tui.Command("sandbox start"))
	}

	if res.SnapshotShadowsImage {
		fmt.Fprintln(a.stdout)
		fmt.Fprintln(a.stdout, tui.Warning("Note: ")+"a saved state exists and is used instead of the configured image.")
		fmt.Fprintf(a.stdout, "Run %s to start from %s.\n", tui.Command("sandbox reset"), res.Config.Image)
	}
}
