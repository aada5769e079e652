package main

import (
	"github.com/spf13/cobra"
	"github.com/zpdzap/podbox/internal/report"
	"github.com/zpdzap/podbox/internal/tui"
)

func statusCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show sandbox container status and configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := report.ParseFormat(output)
			if err != nil {
				return err
			}
			m, err := a.manager()
			if err != nil {
				return err
			}

			st, err := m.Status(cmd.Context())
			if err != nil {
				return err
			}
			if format.Structured() {
				return report.Encode(a.stdout, format, st)
			}
			tui.RenderStatus(a.stdout, st)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text, json or yaml")
	return cmd
}

func listCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all engine containers, marking the sandbox",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := report.ParseFormat(output)
			if err != nil {
				return err
			}
			m, err := a.manager()
			if err != nil {
				return err
			}

			entries, err := m.List(cmd.Context())
			if err != nil {
				return err
			}
			if format.Structured() {
				return report.Encode(a.stdout, format, report.List(entries))
			}
			tui.RenderList(a.stdout, entries)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text, json or yaml")
	return cmd
}
