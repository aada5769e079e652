// Package report turns sandbox state into machine-readable documents for
// the -o flag of status, list and configure --show.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/zpdzap/podbox/internal/config"
	"github.com/zpdzap/podbox/internal/sandbox"
	"gopkg.in/yaml.v3"
)

// Format selects how a report is written.
type Format string

const (
	Text Format = "text"
	JSON Format = "json"
	YAML Format = "yaml"
)

// Formats lists the accepted -o values.
var Formats = []Format{Text, JSON, YAML}

// ParseFormat validates an -o flag value. The empty string means Text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return Text, nil
	case Text, JSON, YAML:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", s)
}

// Structured reports whether f is handled by Encode rather than the human
// renderers.
func (f Format) Structured() bool {
	return f == JSON || f == YAML
}

// Encode writes v to w as JSON or YAML.
func Encode(w io.Writer, f Format, v any) error {
	switch f {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("format %q is not structured", f)
}

// ConfigDoc is the configure --show document.
type ConfigDoc struct {
	Path          string `json:"path" yaml:"path"`
	Exists        bool   `json:"exists" yaml:"exists"`
	config.Config `yaml:",inline"`
}

// Config builds the document for the configuration stored at path.
func Config(path string, cfg *config.Config) ConfigDoc {
	return ConfigDoc{Path: path, Exists: config.Exists(path), Config: *cfg}
}

// ListDoc wraps list output so both encoders produce an object, and an
// empty engine still yields "containers: []".
type ListDoc struct {
	Containers []sandbox.Entry `json:"containers" yaml:"containers"`
}

// List builds the list document.
func List(entries []sandbox.Entry) ListDoc {
	if entries == nil {
		entries = []sandbox.Entry{}
	}
	return ListDoc{Containers: entries}
}
