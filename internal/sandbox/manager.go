package sandbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/zpdzap/podbox/internal/config"
	"github.com/zpdzap/podbox/internal/engine"
)

// Manager drives the sandbox container through the engine and owns the
// persisted configuration. Container state is never cached: every
// operation asks the engine.
type Manager struct {
	engine     engine.Engine
	configPath string
	workdir    string
	logger     *slog.Logger
	progress   ProgressFunc
}

// NewManager creates a manager for the sandbox mounted from workdir.
func NewManager(eng engine.Engine, configPath, workdir string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		engine:     eng,
		configPath: configPath,
		workdir:    workdir,
		logger:     logger,
	}
}

// SetProgress installs fn to receive phase updates. Nil disables reporting.
func (m *Manager) SetProgress(fn ProgressFunc) {
	m.progress = fn
}

func (m *Manager) report(phase string) {
	if m.progress != nil {
		m.progress(phase)
	}
}

// Workdir is the host directory the sandbox should have mounted.
func (m *Manager) Workdir() string { return m.workdir }

// ConfigPath is where the configuration is persisted.
func (m *Manager) ConfigPath() string { return m.configPath }

// Config loads the current configuration, or the defaults on first run.
func (m *Manager) Config() (*config.Config, error) {
	return config.Load(m.configPath)
}

// Start brings the sandbox container up. The image is opts.Image if set,
// else the saved state if one exists, else the configured image. An
// existing stopped container is reused when it was created with the same
// settings and replaced otherwise.
func (m *Manager) Start(ctx context.Context, opts StartOptions) (*StartResult, error) {
	if err := m.engine.Ping(ctx); err != nil {
		return nil, err
	}

	cfg, err := m.Config()
	if err != nil {
		return nil, err
	}
	override := opts.Image
	if override != "" {
		if override, err = m.resolveImage(override); err != nil {
			return nil, err
		}
		if override != cfg.Image {
			cfg.Image = override
			if err := config.Save(m.configPath, cfg); err != nil {
				return nil, fmt.Errorf("saving config: %w", err)
			}
		}
	}

	want, err := m.desired(ctx, cfg, override)
	if err != nil {
		return nil, err
	}
	return m.start(ctx, want)
}

// resolveImage trims an image reference given on the command line and
// replaces "auto" with the image detected for the working directory.
func (m *Manager) resolveImage(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	switch ref {
	case "":
		return "", errors.New("image must not be empty")
	case config.AutoImage:
		return config.Detect(m.workdir).Image, nil
	}
	return ref, nil
}

func (m *Manager) desired(ctx context.Context, cfg *config.Config, override string) (settings, error) {
	want := settings{image: override, memory: cfg.MemoryLimit(), workdir: m.workdir}
	if want.image != "" {
		return want, nil
	}

	saved, err := m.engine.ImageExists(ctx, SnapshotImage)
	if err != nil {
		return settings{}, fmt.Errorf("checking saved state: %w", err)
	}
	if saved {
		want.image = SnapshotImage
	} else {
		want.image = cfg.Image
	}
	return want, nil
}

func (m *Manager) start(ctx context.Context, want settings) (*StartResult, error) {
	res := &StartResult{Image: want.image, Workdir: want.workdir, Memory: want.memory}

	c, err := m.engine.Inspect(ctx, ContainerName)
	if err != nil {
		return nil, fmt.Errorf("inspecting %s: %w", ContainerName, err)
	}

	if c != nil {
		diffs := mismatch(want, settingsOf(c))
		switch {
		case c.Running && len(diffs) == 0:
			return res, ErrAlreadyRunning
		case c.Running:
			return res, fmt.Errorf("%w with different settings (%s); run `sandbox stop && sandbox start` to apply them",
				ErrAlreadyRunning, strings.Join(diffs, ", "))
		case len(diffs) == 0:
			m.report("Starting container...")
			if err := m.engine.Start(ctx, ContainerName); err != nil {
				return nil, fmt.Errorf("starting container: %w", err)
			}
			return res, nil
		}

		m.logger.Debug("recreating container", "changes", diffs)
		m.report("Removing outdated container...")
		if err := m.engine.Remove(ctx, ContainerName); err != nil {
			return nil, fmt.Errorf("removing outdated container: %w", err)
		}
	}

	if err := m.create(ctx, want); err != nil {
		return nil, err
	}
	res.Created = true
	return res, nil
}

// create makes a fresh container from want and starts it.
func (m *Manager) create(ctx context.Context, want settings) error {
	if err := m.ensureImage(ctx, want.image); err != nil {
		return err
	}

	m.report("Creating container...")
	err := m.engine.Create(ctx, engine.CreateOptions{
		Name:    ContainerName,
		Image:   want.image,
		Workdir: want.workdir,
		Memory:  want.memory,
		Labels:  want.labels(),
		Command: keepAlive,
	})
	if err != nil {
		return fmt.Errorf("creating container: %w", err)
	}

	m.report("Starting container...")
	if err := m.engine.Start(ctx, ContainerName); err != nil {
		if rmErr := m.engine.Remove(ctx, ContainerName); rmErr != nil {
			m.logger.Debug("cleanup after failed start", "error", rmErr)
		}
		return fmt.Errorf("starting container: %w", err)
	}
	return nil
}

// ensureImage pulls ref if the engine does not have it locally.
func (m *Manager) ensureImage(ctx context.Context, ref string) error {
	ok, err := m.engine.ImageExists(ctx, ref)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	m.report(fmt.Sprintf("Pulling %s...", ref))
	if err := m.engine.Pull(ctx, ref); err != nil {
		if errors.Is(err, engine.ErrUnavailable) || ctx.Err() != nil {
			return err
		}
		return fmt.Errorf("%w: %s: %w", ErrImagePull, ref, err)
	}
	return nil
}

// Stop stops the running container, committing it first when auto-commit
// is enabled and opts does not skip it.
func (m *Manager) Stop(ctx context.Context, opts StopOptions) (*StopResult, error) {
	cfg, err := m.Config()
	if err != nil {
		return nil, err
	}

	res := &StopResult{}
	c, err := m.engine.Inspect(ctx, ContainerName)
	if err != nil {
		return nil, fmt.Errorf("inspecting %s: %w", ContainerName, err)
	}
	if c == nil || !c.Running {
		return res, ErrAlreadyStopped
	}

	if cfg.AutoCommit && !opts.SkipCommit {
		if err := m.commit(ctx); err != nil {
			return res, err
		}
		res.Committed = true
	}

	m.report("Stopping container...")
	if err := m.engine.Stop(ctx, ContainerName); err != nil {
		return res, fmt.Errorf("stopping container: %w", err)
	}
	return res, nil
}

// Execute ensures the container is running in the current directory and
// runs opts.Command in it. A non-zero exit is returned as *ExecError.
func (m *Manager) Execute(ctx context.Context, opts ExecOptions) (*EnsureResult, error) {
	res, err := m.Ensure(ctx)
	if err != nil {
		return res, err
	}
	return res, m.Exec(ctx, opts)
}

// Ensure starts the container if it is not running, and recreates it if it
// has a different directory mounted than the current one.
func (m *Manager) Ensure(ctx context.Context) (*EnsureResult, error) {
	res := &EnsureResult{To: m.workdir}

	c, err := m.engine.Inspect(ctx, ContainerName)
	if err != nil {
		return res, fmt.Errorf("%w: %w", ErrContainerUnreachable, err)
	}

	if c == nil || !c.Running {
		m.report("Container not running, starting...")
		if _, err := m.Start(ctx, StartOptions{}); err != nil && !errors.Is(err, ErrAlreadyRunning) {
			return res, fmt.Errorf("%w: %w", ErrContainerUnreachable, err)
		}
		res.Started = true
		return res, nil
	}

	mounted := mountedDirectory(c)
	if mounted == m.workdir {
		return res, nil
	}

	res.Remounted = true
	res.From = mounted
	m.logger.Debug("working directory changed", "from", mounted, "to", m.workdir)
	if err := m.remount(ctx); err != nil {
		return res, fmt.Errorf("%w: %w", ErrContainerUnreachable, err)
	}
	return res, nil
}

// remount replaces the running container with one that mounts the current
// directory. Bind mounts are fixed at create time, so this is a recreate.
func (m *Manager) remount(ctx context.Context) error {
	cfg, err := m.Config()
	if err != nil {
		return err
	}
	if cfg.AutoCommit {
		if err := m.commit(ctx); err != nil {
			return err
		}
	}

	want, err := m.desired(ctx, cfg, "")
	if err != nil {
		return err
	}

	m.report("Directory changed, remounting...")
	if err := m.engine.Remove(ctx, ContainerName); err != nil {
		return fmt.Errorf("removing container: %w", err)
	}
	return m.create(ctx, want)
}

// Exec runs opts.Command in the container without any start or remount
// checks. Callers that have not run Ensure should use Execute.
func (m *Manager) Exec(ctx context.Context, opts ExecOptions) error {
	code, err := m.engine.Exec(ctx, ContainerName, engine.ExecOptions{
		Command:     opts.Command,
		Interactive: opts.Interactive,
		TTY:         opts.TTY,
		Stdin:       opts.Stdin,
		Stdout:      opts.Stdout,
		Stderr:      opts.Stderr,
	})
	if err != nil {
		return fmt.Errorf("running command: %w", err)
	}
	if code != 0 {
		return &ExecError{Code: code}
	}
	return nil
}

// Configure applies a partial update, persists it, and restarts a running
// container so the new settings take effect unless opts.NoRestart is set.
func (m *Manager) Configure(ctx context.Context, opts ConfigureOptions) (*ConfigureResult, error) {
	changes := opts.Changes
	if changes.Empty() {
		return nil, ErrNoChanges
	}
	if changes.Memory != nil {
		memory, err := config.NormalizeMemory(*changes.Memory)
		if err != nil {
			return nil, err
		}
		changes.Memory = &memory
	}
	if changes.Image != nil {
		image, err := m.resolveImage(*changes.Image)
		if err != nil {
			return nil, err
		}
		changes.Image = &image
	}

	cfg, err := m.Config()
	if err != nil {
		return nil, err
	}
	next, diff := config.Apply(cfg, changes)
	if err := config.Save(m.configPath, next); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}
	res := &ConfigureResult{Config: next, Diff: diff}

	c, err := m.engine.Inspect(ctx, ContainerName)
	switch {
	case errors.Is(err, engine.ErrUnavailable):
		m.logger.Debug("engine unavailable, skipping restart", "error", err)
		return res, nil
	case err != nil:
		return res, fmt.Errorf("inspecting %s: %w", ContainerName, err)
	}
	res.WasRunning = c != nil && c.Running

	if res.WasRunning && !opts.NoRestart {
		m.report("Restarting container to apply changes...")
		// An auto-commit here would put a snapshot in front of a newly
		// configured image.
		_, err := m.Stop(ctx, StopOptions{SkipCommit: true})
		if err != nil && !errors.Is(err, ErrAlreadyStopped) {
			return res, fmt.Errorf("restarting: %w", err)
		}
		if _, err := m.Start(ctx, StartOptions{}); err != nil && !errors.Is(err, ErrAlreadyRunning) {
			return res, fmt.Errorf("restarting: %w", err)
		}
		res.Restarted = true
	}

	if imageChange, _ := diff.Field("image"); imageChange.Changed {
		saved, err := m.engine.ImageExists(ctx, SnapshotImage)
		if err != nil {
			m.logger.Debug("could not check saved state", "error", err)
		}
		res.SnapshotShadowsImage = saved
	}
	return res, nil
}

// Commit saves the container filesystem as SnapshotImage, replacing any
// earlier snapshot.
func (m *Manager) Commit(ctx context.Context) (string, error) {
	if err := m.commit(ctx); err != nil {
		return "", err
	}
	return SnapshotImage, nil
}

func (m *Manager) commit(ctx context.Context) error {
	c, err := m.engine.Inspect(ctx, ContainerName)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCommit, err)
	}
	if c == nil {
		return fmt.Errorf("%w: no sandbox container exists yet; run `sandbox start` first", ErrCommit)
	}

	m.report("Committing container state...")
	if err := m.engine.Commit(ctx, ContainerName, SnapshotImage); err != nil {
		return fmt.Errorf("%w: %w", ErrCommit, err)
	}
	return nil
}

// Reset deletes the saved state so the next start uses the configured image.
func (m *Manager) Reset(ctx context.Context) (*ResetResult, error) {
	if err := m.engine.Ping(ctx); err != nil {
		return nil, err
	}
	res := &ResetResult{}

	saved, err := m.engine.ImageExists(ctx, SnapshotImage)
	if err != nil {
		return nil, fmt.Errorf("checking saved state: %w", err)
	}
	if !saved {
		return res, ErrNoSnapshot
	}

	c, err := m.engine.Inspect(ctx, ContainerName)
	if err != nil {
		return nil, fmt.Errorf("inspecting %s: %w", ContainerName, err)
	}
	if c != nil {
		onSnapshot := settingsOf(c).image == SnapshotImage
		switch {
		case c.Running && onSnapshot:
			return nil, errors.New("saved state is in use by the running container; run `sandbox stop` first")
		case c.Running:
			res.StillRunning = true
		case onSnapshot:
			// Start would replace it anyway once the snapshot is gone, and
			// the engine refuses to delete an image a container uses.
			if err := m.engine.Remove(ctx, ContainerName); err != nil {
				return nil, fmt.Errorf("removing container: %w", err)
			}
		}
	}

	if err := m.engine.RemoveImage(ctx, SnapshotImage); err != nil {
		return nil, fmt.Errorf("removing saved state: %w", err)
	}
	return res, nil
}

// Status reports the container state alongside the configuration.
func (m *Manager) Status(ctx context.Context) (*Status, error) {
	cfg, err := m.Config()
	if err != nil {
		return nil, err
	}
	if err := m.engine.Ping(ctx); err != nil {
		return nil, err
	}

	st := &Status{Container: ContainerName, State: StateNotCreated, Config: cfg}

	saved, err := m.engine.ImageExists(ctx, SnapshotImage)
	if err != nil {
		return nil, fmt.Errorf("checking saved state: %w", err)
	}
	st.Snapshot = saved

	c, err := m.engine.Inspect(ctx, ContainerName)
	if err != nil {
		return nil, fmt.Errorf("inspecting %s: %w", ContainerName, err)
	}
	if c == nil {
		return st, nil
	}

	st.State = c.Status
	st.Running = c.Running
	st.Image = settingsOf(c).image
	st.Workdir = mountedDirectory(c)
	st.Memory = memoryDisplay(c)
	if c.Running {
		st.StartedAt = c.StartedAt
	}
	return st, nil
}

// List returns every container the engine knows about, flagging the sandbox.
func (m *Manager) List(ctx context.Context) ([]Entry, error) {
	summaries, err := m.engine.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing containers: %w", err)
	}

	entries := make([]Entry, 0, len(summaries))
	for _, s := range summaries {
		entries = append(entries, Entry{
			Name:    s.Name,
			Image:   s.Image,
			Status:  s.Status,
			Created: s.Created,
			Sandbox: s.Name == ContainerName,
		})
	}
	return entries, nil
}
