package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

// interruptGrace is how long an engine client has to exit after being
// interrupted before it is killed.
const interruptGrace = 10 * time.Second

// Stdio is the set of streams handed to an attached engine process.
type Stdio struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Runner executes engine processes.
type Runner interface {
	// Output runs the command and returns its stdout. Failures carry stderr.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
	// Attach runs the command with the given streams and returns its exit code.
	Attach(ctx context.Context, stdio Stdio, name string, args ...string) (int, error)
}

// ExecRunner runs engine commands as subprocesses.
type ExecRunner struct{}

// command interrupts rather than kills on cancellation, so the engine
// client can forward the signal into the container before it exits.
func command(ctx context.Context, name string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Cancel = func() error { return cmd.Process.Signal(os.Interrupt) }
	cmd.WaitDelay = interruptGrace
	return cmd
}

func (ExecRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := command(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		output := stderr.Bytes()
		if len(bytes.TrimSpace(output)) == 0 {
			output = out
		}
		return out, runError(ctx, name, args, err, output)
	}
	return out, nil
}

// Attach reports the exit status even when ctx is cancelled, as long as the
// process exited on its own after the interrupt.
func (ExecRunner) Attach(ctx context.Context, stdio Stdio, name string, args ...string) (int, error) {
	cmd := command(ctx, name, args...)
	cmd.Stdin = stdio.Stdin
	cmd.Stdout = stdio.Stdout
	cmd.Stderr = stdio.Stderr

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitStatus(exitErr), nil
	}
	return -1, runError(ctx, name, args, err, nil)
}

func runError(ctx context.Context, name string, args []string, err error, output []byte) error {
	if errors.Is(err, exec.ErrNotFound) {
		return fmt.Errorf("%w: %s not found in PATH", ErrUnavailable, name)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s %s: %w", name, firstArg(args), ctxErr)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &Error{
			Args:     append([]string{name}, args...),
			ExitCode: exitStatus(exitErr),
			Output:   strings.TrimSpace(string(output)),
		}
	}
	return fmt.Errorf("running %s: %w", name, err)
}

// exitStatus follows the shell convention of 128+signal for processes
// killed by a signal.
func exitStatus(err *exec.ExitError) int {
	if code := err.ExitCode(); code >= 0 {
		return code
	}
	if ws, ok := err.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return 1
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
