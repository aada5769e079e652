package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zpdzap/podbox/internal/engine"
	"github.com/zpdzap/podbox/internal/sandbox"
	"github.com/zpdzap/podbox/internal/tui"
)

func startCmd(a *app) *cobra.Command {
	var image string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the sandbox container",
		Long: `Start the sandbox container with the current directory mounted at /workspace.

The container uses the saved state from "sandbox commit" when one exists,
otherwise the configured image. --image overrides both and is saved to the
configuration.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.manager()
			if err != nil {
				return err
			}

			var res *sandbox.StartResult
			err = a.withProgress(cmd.Context(), m, "", func() error {
				res, err = m.Start(cmd.Context(), sandbox.StartOptions{Image: image})
				return err
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(a.stdout, tui.Success("Sandbox container started successfully"))
			fmt.Fprintf(a.stdout, "  Image: %s\n", tui.Value(res.Image))
			fmt.Fprintf(a.stdout, "  Working directory: %s (mounted from %s)\n", tui.Detail(engine.WorkspaceDir), res.Workdir)
			if res.Memory != "" {
				fmt.Fprintf(a.stdout, "  Memory limit: %s\n", tui.Detail(res.Memory))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&image, "image", "", "image to start from (saved to the configuration)")
	return cmd
}

func stopCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the sandbox container",
		Long:  "Stop the sandbox container, saving its state first when auto-commit is enabled.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.manager()
			if err != nil {
				return err
			}

			var res *sandbox.StopResult
			err = a.withProgress(cmd.Context(), m, "", func() error {
				res, err = m.Stop(cmd.Context(), sandbox.StopOptions{})
				return err
			})
			if err != nil {
				return err
			}

			if res.Committed {
				fmt.Fprintln(a.stdout, tui.Check("Container state saved automatically"))
			}
			fmt.Fprintln(a.stdout, tui.Success("Sandbox container stopped successfully"))
			return nil
		},
	}
}

func executeCmd(a *app) *cobra.Command {
	var interactive bool

	cmd := &cobra.Command{
		Use:   "execute COMMAND [ARG...]",
		Short: "Run a command in the sandbox container",
		Long: `Run a command with sh -c inside the sandbox, starting the container if
needed. When the current directory differs from the mounted one the
container is recreated with the new directory mounted.

The command's exit status becomes the exit status of sandbox.`,
		Example: `  sandbox execute "ls -la"
  sandbox execute python3 script.py
  sandbox execute -i sh`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.manager()
			if err != nil {
				return err
			}

			var res *sandbox.EnsureResult
			err = a.withProgress(cmd.Context(), m, "", func() error {
				res, err = m.Ensure(cmd.Context())
				return err
			})
			if err != nil {
				return err
			}
			if res.Remounted {
				fmt.Fprintln(a.stderr, tui.Warning("Directory changed, restarted container"))
				fmt.Fprintf(a.stderr, "  Old: %s\n", tui.Removed(res.From))
				fmt.Fprintf(a.stderr, "  New: %s\n", tui.Added(res.To))
			}

			opts := sandbox.ExecOptions{
				Command: strings.Join(args, " "),
				Stdout:  a.stdout,
				Stderr:  a.stderr,
			}
			if interactive {
				opts.Interactive = true
				opts.TTY = tui.IsTerminal(a.stdin)
				opts.Stdin = a.stdin
			}
			return m.Exec(cmd.Context(), opts)
		},
	}

	// Flags after the command belong to it.
	cmd.Flags().SetInterspersed(false)
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "attach stdin (and a TTY when stdin is a terminal)")
	return cmd
}
