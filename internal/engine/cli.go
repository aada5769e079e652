package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// inspectFormat prints one field per line. Labels are emitted as JSON so
// values containing separators survive.
const inspectFormat = "{{.State.Status}}\n" +
	"{{.State.StartedAt}}\n" +
	"{{.HostConfig.Memory}}\n" +
	"{{.Config.Image}}\n" +
	"{{json .Config.Labels}}\n" +
	`{{range .Mounts}}{{if eq .Destination "` + WorkspaceDir + `"}}{{.Source}}{{end}}{{end}}`

const listFormat = "{{.Names}}|{{.Image}}|{{.Status}}|{{.CreatedAt}}"

// CLI drives a docker-compatible engine binary.
type CLI struct {
	binary string
	runner Runner
	logger *slog.Logger
}

// NewCLI returns an Engine that shells out to binary. A nil runner uses
// ExecRunner; a nil logger discards debug output.
func NewCLI(binary string, runner Runner, logger *slog.Logger) *CLI {
	if runner == nil {
		runner = ExecRunner{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &CLI{binary: binary, runner: runner, logger: logger}
}

func (c *CLI) Binary() string { return c.binary }

func (c *CLI) output(ctx context.Context, args ...string) ([]byte, error) {
	c.logger.Debug("engine call", "binary", c.binary, "args", args)
	out, err := c.runner.Output(ctx, c.binary, args...)
	if err != nil {
		c.logger.Debug("engine call failed", "args", args, "error", err)
	}
	return out, err
}

func (c *CLI) Ping(ctx context.Context) error {
	_, err := c.output(ctx, "version")
	if err == nil || errors.Is(err, ErrUnavailable) {
		return err
	}
	var engErr *Error
	if errors.As(err, &engErr) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return err
}

func (c *CLI) Inspect(ctx context.Context, name string) (*Container, error) {
	out, err := c.output(ctx, "container", "inspect", "--format", inspectFormat, name)
	if err != nil {
		if isNoSuch(err) {
			return nil, nil
		}
		return nil, err
	}
	return parseInspect(name, string(out))
}

func parseInspect(name, out string) (*Container, error) {
	fields := strings.SplitN(strings.TrimRight(out, "\r\n"), "\n", 6)
	if len(fields) < 5 {
		return nil, fmt.Errorf("unexpected inspect output for %s: %q", name, out)
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	ctr := &Container{
		Name:      name,
		Status:    fields[0],
		Running:   fields[0] == "running",
		StartedAt: fields[1],
		Image:     fields[3],
	}
	ctr.Memory, _ = strconv.ParseInt(fields[2], 10, 64)
	if fields[4] != "" && fields[4] != "null" {
		if err := json.Unmarshal([]byte(fields[4]), &ctr.Labels); err != nil {
			return nil, fmt.Errorf("parsing labels of %s: %w", name, err)
		}
	}
	if len(fields) == 6 {
		ctr.MountSource = fields[5]
	}
	return ctr, nil
}

func (c *CLI) List(ctx context.Context) ([]Summary, error) {
	out, err := c.output(ctx, "ps", "-a", "--format", listFormat)
	if err != nil {
		return nil, err
	}
	return parseSummaries(string(out)), nil
}

// parseSummaries reads listFormat rows, skipping lines it cannot split.
func parseSummaries(out string) []Summary {
	var result []Summary
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "|", 4)
		if len(parts) != 4 {
			continue
		}
		result = append(result, Summary{
			Name:    parts[0],
			Image:   parts[1],
			Status:  parts[2],
			Created: parts[3],
		})
	}
	return result
}

func (c *CLI) ImageExists(ctx context.Context, ref string) (bool, error) {
	_, err := c.output(ctx, "image", "inspect", "--format", "{{.Id}}", ref)
	if err == nil {
		return true, nil
	}
	if isMissingImage(err) {
		return false, nil
	}
	return false, err
}

func (c *CLI) Pull(ctx context.Context, ref string) error {
	_, err := c.output(ctx, "pull", ref)
	return err
}

func (c *CLI) Create(ctx context.Context, opts CreateOptions) error {
	_, err := c.output(ctx, createArgs(opts, c.relabel())...)
	return err
}

// relabel reports whether bind mounts need the SELinux :Z suffix. Only
// podman is run on SELinux hosts by default.
func (c *CLI) relabel() bool {
	return strings.HasPrefix(filepath.Base(c.binary), "podman")
}

func createArgs(opts CreateOptions, relabel bool) []string {
	mount := opts.Workdir + ":" + WorkspaceDir
	if relabel {
		mount += ":Z"
	}
	args := []string{"create", "--name", opts.Name, "-v", mount, "-w", WorkspaceDir}
	if opts.Memory != "" {
		args = append(args, "-m", opts.Memory)
	}

	keys := make([]string, 0, len(opts.Labels))
	for k := range opts.Labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "--label", k+"="+opts.Labels[k])
	}

	args = append(args, opts.Image)
	return append(args, opts.Command...)
}

func (c *CLI) Start(ctx context.Context, name string) error {
	_, err := c.output(ctx, "start", name)
	return err
}

func (c *CLI) Stop(ctx context.Context, name string) error {
	_, err := c.output(ctx, "stop", name)
	return err
}

func (c *CLI) Remove(ctx context.Context, name string) error {
	_, err := c.output(ctx, "rm", "-f", name)
	return err
}

func (c *CLI) Exec(ctx context.Context, name string, opts ExecOptions) (int, error) {
	args := execArgs(name, opts)
	c.logger.Debug("engine exec", "binary", c.binary, "args", args)
	return c.runner.Attach(ctx, Stdio{Stdin: opts.Stdin, Stdout: opts.Stdout, Stderr: opts.Stderr}, c.binary, args...)
}

func execArgs(name string, opts ExecOptions) []string {
	args := []string{"exec"}
	if opts.Interactive {
		args = append(args, "-i")
	}
	if opts.TTY {
		args = append(args, "-t")
	}
	return append(args, "-w", WorkspaceDir, name, "sh", "-c", opts.Command)
}

func (c *CLI) Commit(ctx context.Context, name, ref string) error {
	_, err := c.output(ctx, "commit", name, ref)
	return err
}

func (c *CLI) RemoveImage(ctx context.Context, ref string) error {
	_, err := c.output(ctx, "rmi", ref)
	return err
}

// isNoSuch matches the "no such container/object" wording both podman and
// docker use for missing containers.
func isNoSuch(err error) bool {
	var engErr *Error
	if !errors.As(err, &engErr) {
		return false
	}
	return strings.Contains(strings.ToLower(engErr.Output), "no such")
}

// isMissingImage matches docker's "No such image" and podman's "image not
// known". Any other failure, such as an unreachable daemon, is not an
// absent image.
func isMissingImage(err error) bool {
	if isNoSuch(err) {
		return true
	}
	var engErr *Error
	if !errors.As(err, &engErr) {
		return false
	}
	return strings.Contains(strings.ToLower(engErr.Output), "image not known")
}
