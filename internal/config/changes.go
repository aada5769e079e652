package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	units "github.com/docker/go-units"
)

// ErrInvalidMemory is returned for memory limits the engine would reject.
var ErrInvalidMemory = errors.New("invalid memory limit")

// Changes is a partial update to a Config. Nil fields are left untouched.
// A Memory pointing at "" clears the limit.
type Changes struct {
	Image      *string
	Memory     *string
	AutoCommit *bool
}

// Empty reports whether no field is set.
func (c Changes) Empty() bool {
	return c.Image == nil && c.Memory == nil && c.AutoCommit == nil
}

// FieldChange describes one config field before and after an update.
type FieldChange struct {
	Field   string `json:"field" yaml:"field"`
	Old     string `json:"old" yaml:"old"`
	New     string `json:"new" yaml:"new"`
	Changed bool   `json:"changed" yaml:"changed"`
}

// Diff is the per-field comparison produced by Apply, in a fixed order:
// image, memory, auto_commit.
type Diff []FieldChange

// Changed reports whether any field differs.
func (d Diff) Changed() bool {
	for _, f := range d {
		if f.Changed {
			return true
		}
	}
	return false
}

// Field returns the entry for name.
func (d Diff) Field(name string) (FieldChange, bool) {
	for _, f := range d {
		if f.Field == name {
			return f, true
		}
	}
	return FieldChange{}, false
}

// Apply merges changes into a copy of cfg and returns it with the diff.
func Apply(cfg *Config, changes Changes) (*Config, Diff) {
	next := *cfg
	if cfg.Memory != nil {
		m := *cfg.Memory
		next.Memory = &m
	}

	if changes.Image != nil && *changes.Image != "" {
		next.Image = *changes.Image
	}
	if changes.Memory != nil {
		if *changes.Memory == "" {
			next.Memory = nil
		} else {
			m := *changes.Memory
			next.Memory = &m
		}
	}
	if changes.AutoCommit != nil {
		next.AutoCommit = *changes.AutoCommit
	}

	return &next, Compare(cfg, &next)
}

// Compare diffs two configs field by field.
func Compare(old, next *Config) Diff {
	field := func(name, a, b string) FieldChange {
		return FieldChange{Field: name, Old: a, New: b, Changed: a != b}
	}
	return Diff{
		field("image", old.Image, next.Image),
		field("memory", MemoryString(old), MemoryString(next)),
		field("auto_commit", strconv.FormatBool(old.AutoCommit), strconv.FormatBool(next.AutoCommit)),
	}
}

// MemoryString renders the memory limit for display.
func MemoryString(cfg *Config) string {
	if cfg.Memory == nil {
		return "unlimited"
	}
	return *cfg.Memory
}

// NormalizeMemory validates a user-supplied memory limit. It returns "" for
// values that mean "no limit" and the trimmed input otherwise, so the user's
// spelling (512m, 1g) is what gets persisted and passed to the engine.
func NormalizeMemory(s string) (string, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "unlimited", "none", "0":
		return "", nil
	}
	n, err := units.RAMInBytes(s)
	if err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrInvalidMemory, s, err)
	}
	if n <= 0 {
		return "", fmt.Errorf("%w %q: must be positive", ErrInvalidMemory, s)
	}
	return s, nil
}
