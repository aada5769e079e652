// Package engine is the boundary between the sandbox manager and the
// container engine CLI (podman or docker). Everything the tool does to a
// container goes through the Engine interface.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// WorkspaceDir is where the host working directory is bind-mounted.
const WorkspaceDir = "/workspace"

// ErrUnavailable means the engine binary is missing or its service does not answer.
var ErrUnavailable = errors.New("container engine unavailable")

// Engine is the set of engine operations the sandbox manager relies on.
type Engine interface {
	// Binary returns the engine executable name, e.g. "podman".
	Binary() string

	// Ping verifies the engine binary exists and its service responds.
	Ping(ctx context.Context) error

	// Inspect returns the named container, or nil with no error when it does not exist.
	Inspect(ctx context.Context, name string) (*Container, error)
	List(ctx context.Context) ([]Summary, error)

	ImageExists(ctx context.Context, ref string) (bool, error)
	Pull(ctx context.Context, ref string) error

	Create(ctx context.Context, opts CreateOptions) error
	Start(ctx context.Context, name string) error
	Stop(ctx context.Context, name string) error
	// Remove force-removes the container, killing it if it is running.
	Remove(ctx context.Context, name string) error

	// Exec runs a shell command in the container and returns its exit code.
	// A non-zero exit code is not an error.
	Exec(ctx context.Context, name string, opts ExecOptions) (int, error)

	Commit(ctx context.Context, name, ref string) error
	RemoveImage(ctx context.Context, ref string) error
}

// Container is the subset of inspect output the manager needs.
type Container struct {
	Name      string
	Status    string // engine state: created, running, exited, ...
	Running   bool
	StartedAt string
	Memory    int64 // bytes, 0 when unlimited
	Image     string
	Labels    map[string]string
	// MountSource is the host path bind-mounted at WorkspaceDir, if any.
	MountSource string
}

// Summary is one row of the engine's container listing.
type Summary struct {
	Name    string
	Image   string
	Status  string
	Created string
}

// CreateOptions configures a detached, long-lived container.
type CreateOptions struct {
	Name    string
	Image   string
	Workdir string // host directory mounted at WorkspaceDir
	Memory  string // engine memory limit, e.g. "512m"; empty for none
	Labels  map[string]string
	Command []string
}

// ExecOptions configures a command run inside a container.
type ExecOptions struct {
	Command     string
	Interactive bool // keep stdin open
	TTY         bool // allocate a pseudo-terminal
	Stdin       io.Reader
	Stdout      io.Writer
	Stderr      io.Writer
}

// Error is a failed engine invocation.
type Error struct {
	Args     []string
	ExitCode int
	Output   string
}

func (e *Error) Error() string {
	n := len(e.Args)
	if n > 2 {
		n = 2
	}
	msg := fmt.Sprintf("%s exited with status %d", strings.Join(e.Args[:n], " "), e.ExitCode)
	if e.Output != "" {
		msg += ": " + e.Output
	}
	return msg
}
