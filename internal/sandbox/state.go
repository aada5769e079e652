package sandbox

import (
	"fmt"

	units "github.com/docker/go-units"
	"github.com/zpdzap/podbox/internal/engine"
)

// settings are the properties a container is created with. The desired
// settings come from the config and the working directory; the actual ones
// are read back from the labels written at create time.
type settings struct {
	image   string
	memory  string
	workdir string
}

func (s settings) labels() map[string]string {
	return map[string]string{
		labelImage:   s.image,
		labelMemory:  s.memory,
		labelWorkdir: s.workdir,
	}
}

// settingsOf reads back what c was created with. Containers created by
// something other than this tool lack labels, so fall back to what the
// engine reports.
func settingsOf(c *engine.Container) settings {
	s := settings{workdir: mountedDirectory(c)}

	if image, ok := c.Labels[labelImage]; ok {
		s.image = image
	} else {
		s.image = c.Image
	}

	if memory, ok := c.Labels[labelMemory]; ok {
		s.memory = memory
	} else if c.Memory > 0 {
		s.memory = units.BytesSize(float64(c.Memory))
	}
	return s
}

// mountedDirectory is the host directory last mounted at /workspace.
func mountedDirectory(c *engine.Container) string {
	if dir, ok := c.Labels[labelWorkdir]; ok && dir != "" {
		return dir
	}
	return c.MountSource
}

// mismatch lists the human-readable differences between two settings.
func mismatch(want, have settings) []string {
	var diffs []string
	if want.image != have.image {
		diffs = append(diffs, fmt.Sprintf("image %s -> %s", orNone(have.image), orNone(want.image)))
	}
	if want.memory != have.memory {
		diffs = append(diffs, fmt.Sprintf("memory %s -> %s", orUnlimited(have.memory), orUnlimited(want.memory)))
	}
	if want.workdir != have.workdir {
		diffs = append(diffs, fmt.Sprintf("directory %s -> %s", orNone(have.workdir), orNone(want.workdir)))
	}
	return diffs
}

// memoryDisplay prefers the limit as the user spelled it and falls back to
// the engine's byte count.
func memoryDisplay(c *engine.Container) string {
	if memory := c.Labels[labelMemory]; memory != "" {
		return memory
	}
	if c.Memory > 0 {
		return units.BytesSize(float64(c.Memory))
	}
	return "unlimited"
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func orUnlimited(s string) string {
	if s == "" {
		return "unlimited"
	}
	return s
}
