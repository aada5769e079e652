package sandbox

import (
	"errors"
	"fmt"

	"github.com/zpdzap/podbox/internal/engine"
)

// Sentinel errors returned by the Manager.
var (
	// ErrEngineUnavailable means the engine binary is missing or its service does not answer.
	ErrEngineUnavailable = engine.ErrUnavailable

	// ErrImagePull indicates the sandbox image could not be fetched.
	ErrImagePull = errors.New("image pull failed")

	// ErrAlreadyRunning is informational: start found the container running.
	ErrAlreadyRunning = errors.New("sandbox container is already running")

	// ErrAlreadyStopped is informational: stop found nothing running.
	ErrAlreadyStopped = errors.New("sandbox container is not running")

	// ErrContainerUnreachable indicates execute could not get a running container.
	ErrContainerUnreachable = errors.New("sandbox container unreachable")

	// ErrExecution indicates the command inside the container exited non-zero.
	ErrExecution = errors.New("command failed in sandbox")

	// ErrCommit indicates the container state could not be saved.
	ErrCommit = errors.New("commit failed")

	// ErrNoSnapshot is informational: reset found no saved state.
	ErrNoSnapshot = errors.New("no saved state found")

	// ErrNoChanges indicates configure was called without any option.
	ErrNoChanges = errors.New("no configuration options provided")
)

// ExecError carries the exit code of a command run inside the sandbox.
// It wraps ErrExecution so errors.Is(err, ErrExecution) still works.
type ExecError struct {
	Code int
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("%s: exit status %d", ErrExecution.Error(), e.Code)
}

func (e *ExecError) Unwrap() error {
	return ErrExecution
}

// Informational reports whether err is a non-fatal condition that should be
// shown to the user without failing the command.
func Informational(err error) bool {
	return errors.Is(err, ErrAlreadyRunning) ||
		errors.Is(err, ErrAlreadyStopped) ||
		errors.Is(err, ErrNoSnapshot)
}
