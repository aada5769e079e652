package sandbox

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/zpdzap/podbox/internal/engine"
)

// fakeEngine simulates a single-host engine in memory and records the
// order of operations.
type fakeEngine struct {
	container  *engine.Container
	others     []engine.Summary
	images     map[string]bool
	calls      []string
	created    []engine.CreateOptions
	lastExec   engine.ExecOptions
	execCode   int
	pingErr    error
	pullErr    error
	commitErr  error
	inspectErr error
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{images: map[string]bool{}}
}

func (f *fakeEngine) record(op string) { f.calls = append(f.calls, op) }

func (f *fakeEngine) count(op string) int {
	n := 0
	for _, c := range f.calls {
		if c == op {
			n++
		}
	}
	return n
}

func (f *fakeEngine) index(op string) int {
	for i, c := range f.calls {
		if c == op {
			return i
		}
	}
	return -1
}

func (f *fakeEngine) noSuch(name string) error {
	return &engine.Error{Args: []string{"fake", "op"}, ExitCode: 125, Output: "no such container " + name}
}

func (f *fakeEngine) Binary() string { return "fake" }

func (f *fakeEngine) Ping(ctx context.Context) error {
	f.record("ping")
	return f.pingErr
}

func (f *fakeEngine) Inspect(ctx context.Context, name string) (*engine.Container, error) {
	f.record("inspect")
	if f.inspectErr != nil {
		return nil, f.inspectErr
	}
	if f.container == nil {
		return nil, nil
	}
	c := *f.container
	return &c, nil
}

func (f *fakeEngine) List(ctx context.Context) ([]engine.Summary, error) {
	f.record("list")
	result := append([]engine.Summary(nil), f.others...)
	if f.container != nil {
		result = append(result, engine.Summary{
			Name:   f.container.Name,
			Image:  f.container.Image,
			Status: f.container.Status,
		})
	}
	return result, nil
}

func (f *fakeEngine) ImageExists(ctx context.Context, ref string) (bool, error) {
	f.record("image-exists")
	return f.images[ref], nil
}

func (f *fakeEngine) Pull(ctx context.Context, ref string) error {
	f.record("pull")
	if f.pullErr != nil {
		return f.pullErr
	}
	f.images[ref] = true
	return nil
}

func (f *fakeEngine) Create(ctx context.Context, opts engine.CreateOptions) error {
	f.record("create")
	if f.container != nil {
		return &engine.Error{Args: []string{"fake", "create"}, ExitCode: 125, Output: "name already in use"}
	}
	if !f.images[opts.Image] {
		return &engine.Error{Args: []string{"fake", "create"}, ExitCode: 125, Output: "image not known"}
	}
	labels := map[string]string{}
	for k, v := range opts.Labels {
		labels[k] = v
	}
	f.container = &engine.Container{
		Name:        opts.Name,
		Status:      "created",
		Image:       opts.Image,
		Labels:      labels,
		MountSource: opts.Workdir,
	}
	f.created = append(f.created, opts)
	return nil
}

func (f *fakeEngine) Start(ctx context.Context, name string) error {
	f.record("start")
	if f.container == nil {
		return f.noSuch(name)
	}
	f.container.Status = "running"
	f.container.Running = true
	f.container.StartedAt = "2026-10-18T10:00:00Z"
	return nil
}

func (f *fakeEngine) Stop(ctx context.Context, name string) error {
	f.record("stop")
	if f.container == nil {
		return f.noSuch(name)
	}
	f.container.Status = "exited"
	f.container.Running = false
	return nil
}

func (f *fakeEngine) Remove(ctx context.Context, name string) error {
	f.record("rm")
	f.container = nil
	return nil
}

func (f *fakeEngine) Exec(ctx context.Context, name string, opts engine.ExecOptions) (int, error) {
	f.record("exec")
	if f.container == nil || !f.container.Running {
		return -1, fmt.Errorf("container %s is not running", name)
	}
	f.lastExec = opts
	return f.execCode, nil
}

func (f *fakeEngine) Commit(ctx context.Context, name, ref string) error {
	f.record("commit")
	if f.commitErr != nil {
		return f.commitErr
	}
	if f.container == nil {
		return f.noSuch(name)
	}
	f.images[ref] = true
	return nil
}

func (f *fakeEngine) RemoveImage(ctx context.Context, ref string) error {
	f.record("rmi")
	if !f.images[ref] {
		return &engine.Error{Args: []string{"fake", "rmi"}, ExitCode: 1, Output: "image not known"}
	}
	delete(f.images, ref)
	return nil
}

func (f *fakeEngine) reset() { f.calls = nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestManager returns a manager for workdir sharing eng, with its config
// under a fresh temporary directory.
func newTestManager(t *testing.T, eng *fakeEngine, workdir string) *Manager {
	t.Helper()
	path := filepath.Join(t.TempDir(), "podman-sandbox", "config.json")
	return NewManager(eng, path, workdir, testLogger())
}

// withWorkdir returns a manager sharing m's engine and config but mounted
// from another directory.
func withWorkdir(m *Manager, workdir string) *Manager {
	return NewManager(m.engine, m.configPath, workdir, m.logger)
}
