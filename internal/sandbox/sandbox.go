// Package sandbox manages the lifecycle of the single sandbox container.
package sandbox

import (
	"io"

	"github.com/zpdzap/podbox/internal/config"
)

const (
	// ContainerName identifies the sandbox among all engine containers.
	ContainerName = "podman-sandbox"
	// SnapshotImage is the tag commit writes and reset removes.
	SnapshotImage = "localhost/podman-sandbox-state:latest"

	labelWorkdir = "podman-sandbox.workdir"
	labelImage   = "podman-sandbox.image"
	labelMemory  = "podman-sandbox.memory"
)

// keepAlive is the container entrypoint; the sandbox idles until exec'd into.
var keepAlive = []string{"sleep", "infinity"}

// StartOptions configures Start.
type StartOptions struct {
	// Image overrides the snapshot and configured image. It is persisted.
	Image string
}

// StartResult describes what Start did.
type StartResult struct {
	Image   string
	Workdir string
	Memory  string
	// Created is true when a new container was created rather than an
	// existing stopped one restarted.
	Created bool
}

// StopOptions configures Stop.
type StopOptions struct {
	SkipCommit bool
}

// StopResult describes what Stop did.
type StopResult struct {
	Committed bool
}

// ExecOptions configures Execute.
type ExecOptions struct {
	Command     string
	Interactive bool
	TTY         bool
	Stdin       io.Reader
	Stdout      io.Writer
	Stderr      io.Writer
}

// EnsureResult reports the work done to get a running container in the
// current directory.
type EnsureResult struct {
	Started   bool
	Remounted bool
	From      string // previously mounted directory when Remounted
	To        string
}

// ConfigureOptions configures Configure.
type ConfigureOptions struct {
	Changes   config.Changes
	NoRestart bool
}

// ConfigureResult describes a configuration update.
type ConfigureResult struct {
	Config     *config.Config
	Diff       config.Diff
	WasRunning bool
	Restarted  bool
	// SnapshotShadowsImage is set when the image changed but a saved state
	// exists, which start prefers over the configured image.
	SnapshotShadowsImage bool
}

// ResetResult describes a reset.
type ResetResult struct {
	// StillRunning is set when the container keeps running on the old state.
	StillRunning bool
}

// Status is a point-in-time report of the sandbox and its configuration.
type Status struct {
	Container string         `json:"container" yaml:"container"`
	State     string         `json:"state" yaml:"state"`
	Running   bool           `json:"running" yaml:"running"`
	StartedAt string         `json:"started_at,omitempty" yaml:"started_at,omitempty"`
	Memory    string         `json:"memory_limit,omitempty" yaml:"memory_limit,omitempty"`
	Image     string         `json:"image,omitempty" yaml:"image,omitempty"`
	Workdir   string         `json:"workdir,omitempty" yaml:"workdir,omitempty"`
	Snapshot  bool           `json:"snapshot" yaml:"snapshot"`
	Config    *config.Config `json:"config" yaml:"config"`
}

// StateNotCreated is reported when the engine has no sandbox container.
const StateNotCreated = "not_created"

// Entry is one container in List output.
type Entry struct {
	Name    string `json:"name" yaml:"name"`
	Image   string `json:"image" yaml:"image"`
	Status  string `json:"status" yaml:"status"`
	Created string `json:"created" yaml:"created"`
	Sandbox bool   `json:"sandbox" yaml:"sandbox"`
}

// ProgressFunc is called with status updates during slow engine work.
type ProgressFunc func(phase string)
