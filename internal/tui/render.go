package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/zpdzap/podbox/internal/config"
	"github.com/zpdzap/podbox/internal/sandbox"
)

// Success renders a bold green confirmation line.
func Success(msg string) string {
	return successStyle.Render("✓ " + msg)
}

// Check renders an indented step that completed.
func Check(msg string) string {
	return "  " + checkStyle.Render("✓") + " " + msg
}

// Failed renders an indented step that did not complete.
func Failed(msg string) string {
	return "  " + errorStyle.Render("✗") + " " + msg
}

// Warning renders s in the warning color.
func Warning(s string) string { return warningStyle.Render(s) }

// Error renders s in the error color.
func Error(s string) string { return errorStyle.Render(s) }

// Command renders a suggested shell command.
func Command(s string) string { return commandStyle.Render(s) }

// Heading renders a section title.
func Heading(s string) string { return headingStyle.Render(s) }

// Value renders a configuration value.
func Value(s string) string { return valueStyle.Render(s) }

// Detail renders a runtime detail such as a path or timestamp.
func Detail(s string) string { return detailStyle.Render(s) }

// Removed renders the old side of a change.
func Removed(s string) string { return removedStyle.Render(s) }

// Added renders the new side of a change.
func Added(s string) string { return addedStyle.Render(s) }

func enabled(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}

func autoCommit(b bool) string {
	if b {
		return statusRunning.Render(enabled(b))
	}
	return statusOther.Render(enabled(b))
}

// RenderConfig writes the configuration block shared by status and
// configure --show.
func RenderConfig(w io.Writer, cfg *config.Config) {
	fmt.Fprintf(w, "  Image: %s\n", Value(cfg.Image))
	fmt.Fprintf(w, "  Memory limit: %s\n", Value(config.MemoryString(cfg)))
	fmt.Fprintf(w, "  Auto-commit: %s\n", autoCommit(cfg.AutoCommit))
}

var fieldLabels = map[string]string{
	"image":       "Image",
	"memory":      "Memory limit",
	"auto_commit": "Auto-commit",
}

// RenderDiff writes one entry per field: the old and new value when it
// changed, the current value marked unchanged otherwise.
func RenderDiff(w io.Writer, diff config.Diff) {
	fmt.Fprintln(w, Heading("Configuration changes:"))
	fmt.Fprintln(w)
	for _, f := range diff {
		label := fieldLabels[f.Field]
		if label == "" {
			label = f.Field
		}
		old, next := f.Old, f.New
		if f.Field == "auto_commit" {
			old, next = enabled(old == "true"), enabled(next == "true")
		}

		if !f.Changed {
			fmt.Fprintf(w, "  %s: %s %s\n", label, Value(next), dimStyle.Render("(unchanged)"))
			continue
		}
		fmt.Fprintf(w, "  %s\n", Heading(label+":"))
		fmt.Fprintf(w, "    %s %s\n", Removed("-"), Removed(old))
		fmt.Fprintf(w, "    %s %s\n", Added("+"), Added(next))
	}
	fmt.Fprintln(w)
}

// RenderStatus writes the human form of sandbox status.
func RenderStatus(w io.Writer, st *sandbox.Status) {
	fmt.Fprintln(w, Heading("Sandbox container status:"))

	state, running := statusOther, statusStopped
	if st.Running {
		state, running = statusRunning, statusRunning
	}
	stateText := st.State
	if stateText == sandbox.StateNotCreated {
		stateText = "not created"
	}
	fmt.Fprintf(w, "  Status: %s\n", state.Render(stateText))
	fmt.Fprintf(w, "  Running: %s\n", running.Render(yesNo(st.Running)))

	if st.StartedAt != "" {
		fmt.Fprintf(w, "  Started at: %s\n", Detail(st.StartedAt))
	}
	if st.Memory != "" {
		fmt.Fprintf(w, "  Memory limit: %s\n", Detail(st.Memory))
	}
	if st.Image != "" {
		fmt.Fprintf(w, "  Image: %s\n", Detail(st.Image))
	}
	if st.Workdir != "" {
		fmt.Fprintf(w, "  Mounted from: %s\n", Detail(st.Workdir))
	}
	if st.Snapshot {
		fmt.Fprintf(w, "  Saved state: %s\n", Detail(sandbox.SnapshotImage))
	}

	fmt.Fprintf(w, "\n%s\n", Heading("Configuration:"))
	RenderConfig(w, st.Config)
}

// RenderList writes every container, flagging the sandbox.
func RenderList(w io.Writer, entries []sandbox.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, Warning("No containers found."))
		return
	}

	fmt.Fprintln(w, Heading("All containers:"))
	fmt.Fprintln(w)
	for _, e := range entries {
		marker := ""
		if e.Sandbox {
			marker = " " + sandboxMarkerStyle.Render("[SANDBOX]")
		}
		status := statusOther
		if strings.Contains(strings.ToLower(e.Status), "up") || strings.Contains(strings.ToLower(e.Status), "running") {
			status = statusRunning
		}

		fmt.Fprintf(w, "  %s%s\n", nameStyle.Render(e.Name), marker)
		fmt.Fprintf(w, "    Image:   %s\n", Value(e.Image))
		fmt.Fprintf(w, "    Status:  %s\n", status.Render(e.Status))
		fmt.Fprintf(w, "    Created: %s\n", e.Created)
		fmt.Fprintln(w)
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
