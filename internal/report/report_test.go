package report

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zpdzap/podbox/internal/config"
	"github.com/zpdzap/podbox/internal/sandbox"
	"gopkg.in/yaml.v3"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", Text, false},
		{"text", Text, false},
		{"JSON", JSON, false},
		{" yaml ", YAML, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEncodeStatusJSON(t *testing.T) {
	st := &sandbox.Status{
		Container: sandbox.ContainerName,
		State:     "running",
		Running:   true,
		Memory:    "512m",
		Config:    &config.Config{Image: "alpine:latest"},
	}

	var buf bytes.Buffer
	if err := Encode(&buf, JSON, st); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if got["memory_limit"] != "512m" || got["running"] != true {
		t.Errorf("decoded = %v", got)
	}
	cfg, ok := got["config"].(map[string]any)
	if !ok || cfg["memory"] != nil {
		t.Errorf("config = %v, want memory null", got["config"])
	}
}

func TestEncodeListYAML(t *testing.T) {
	doc := List([]sandbox.Entry{{Name: sandbox.ContainerName, Image: "alpine:latest", Sandbox: true}})

	var buf bytes.Buffer
	if err := Encode(&buf, YAML, doc); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var got ListDoc
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not YAML: %v\n%s", err, buf.String())
	}
	if len(got.Containers) != 1 || !got.Containers[0].Sandbox {
		t.Errorf("decoded = %+v", got)
	}
}

func TestEmptyList(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, JSON, List(nil)); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"containers": []`) {
		t.Errorf("output = %s", buf.String())
	}
}

func TestConfigDocFlattens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	memory := "1g"
	doc := Config(path, &config.Config{Image: "node:alpine", Memory: &memory, AutoCommit: true})
	if doc.Exists {
		t.Error("Exists = true for a missing file")
	}

	for _, f := range []Format{JSON, YAML} {
		var buf bytes.Buffer
		if err := Encode(&buf, f, doc); err != nil {
			t.Fatalf("Encode %s: %v", f, err)
		}
		out := buf.String()
		for _, want := range []string{"node:alpine", "1g", "auto_commit", path} {
			if !strings.Contains(out, want) {
				t.Errorf("%s output missing %q:\n%s", f, want, out)
			}
		}
		if strings.Contains(out, "Config:") || strings.Contains(out, `"Config"`) {
			t.Errorf("%s output nests the embedded config:\n%s", f, out)
		}
	}
}

func TestEncodeText(t *testing.T) {
	if err := Encode(&bytes.Buffer{}, Text, nil); err == nil {
		t.Error("Encode(Text) should fail")
	}
	if Text.Structured() || !YAML.Structured() {
		t.Error("Structured mismatch")
	}
}
