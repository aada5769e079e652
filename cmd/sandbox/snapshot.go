package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zpdzap/podbox/internal/tui"
)

func commitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "commit",
		Short: "Save the container state so installed packages survive restarts",
		Long: `Save the sandbox container's filesystem as a local image. Later starts use
this saved state instead of the configured image until "sandbox reset".`,
		Example: `  sandbox execute "apk add python3 git"
  sandbox commit
  sandbox stop && sandbox start`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.manager()
			if err != nil {
				return err
			}

			var tag string
			err = a.withProgress(cmd.Context(), m, "", func() error {
				tag, err = m.Commit(cmd.Context())
				return err
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(a.stdout, tui.Success("Container state saved to: "+tag))
			fmt.Fprintln(a.stdout)
			fmt.Fprintln(a.stdout, "The container will now use this saved state when restarted.")
			fmt.Fprintf(a.stdout, "To revert to the base image, run: %s\n", tui.Command("sandbox reset"))
			return nil
		},
	}
}

func resetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Remove the saved state and go back to the configured image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.manager()
			if err != nil {
				return err
			}

			res, err := m.Reset(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintln(a.stdout, tui.Success("Saved state removed"))
			fmt.Fprintln(a.stdout)
			fmt.Fprintln(a.stdout, "The container will use the base image on next start.")
			if res.StillRunning {
				fmt.Fprintln(a.stdout, tui.Warning("Note: ")+"Container is still running with old state.")
				fmt.Fprintf(a.stdout, "Restart to use base image: %s\n", tui.Command("sandbox stop && sandbox start"))
			}
			return nil
		},
	}
}
