package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), Dir, ConfigFile)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Image != "alpine:latest" {
		t.Errorf("Image = %q, want %q", cfg.Image, "alpine:latest")
	}
	if cfg.Memory != nil {
		t.Errorf("Memory = %q, want nil", *cfg.Memory)
	}
	if cfg.AutoCommit {
		t.Error("AutoCommit should default to false")
	}
	if Exists(path) {
		t.Error("Load must not create the file")
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), Dir, ConfigFile)
	mem := "512m"
	cfg := &Config{Image: "python:3.11-alpine", Memory: &mem, AutoCommit: true}

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Image != "python:3.11-alpine" {
		t.Errorf("Image = %q, want %q", loaded.Image, "python:3.11-alpine")
	}
	if loaded.MemoryLimit() != "512m" {
		t.Errorf("Memory = %q, want %q", loaded.MemoryLimit(), "512m")
	}
	if !loaded.AutoCommit {
		t.Error("AutoCommit = false, want true")
	}
}

func TestSaveWritesNullMemory(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFile)
	if err := Save(path, Default()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "{\n  \"image\": \"alpine:latest\",\n  \"memory\": null,\n  \"auto_commit\": false\n}\n"
	if string(data) != want {
		t.Errorf("file content:\n%s\nwant:\n%s", data, want)
	}
}

func TestSaveLeavesNoTemporaryFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFile)
	for i := 0; i < 3; i++ {
		if err := Save(path, Default()); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("dir entries = %v, want only %s", names, ConfigFile)
	}
}

func TestLoadTolerantOfComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFile)
	content := `{
  // hand edited
  "image": "node:alpine",
  "memory": "1g", /* one gig */
  "auto_commit": true,
}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Image != "node:alpine" || cfg.MemoryLimit() != "1g" || !cfg.AutoCommit {
		t.Errorf("cfg = %+v, memory %q", cfg, cfg.MemoryLimit())
	}
}

func TestLoadLegacyMemoryKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFile)
	content := `{"image": "alpine:3.20", "memory_limit": "256m"}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MemoryLimit() != "256m" {
		t.Errorf("Memory = %q, want %q", cfg.MemoryLimit(), "256m")
	}
}

func TestLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFile)
	garbage := []byte("image = alpine")
	if err := os.WriteFile(path, garbage, 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if !errors.Is(err, ErrConfigCorrupt) {
		t.Fatalf("Load error = %v, want ErrConfigCorrupt", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != string(garbage) {
		t.Error("corrupt config file was modified")
	}
}

func TestApply(t *testing.T) {
	str := func(s string) *string { return &s }
	boolean := func(b bool) *bool { return &b }

	base := &Config{Image: "alpine:latest", Memory: str("256m"), AutoCommit: false}

	tests := []struct {
		name        string
		changes     Changes
		wantImage   string
		wantMemory  string
		wantCommit  bool
		wantChanged []string
	}{
		{"nothing", Changes{}, "alpine:latest", "256m", false, nil},
		{"image only", Changes{Image: str("python:3-alpine")}, "python:3-alpine", "256m", false, []string{"image"}},
		{"memory only", Changes{Memory: str("1g")}, "alpine:latest", "1g", false, []string{"memory"}},
		{"clear memory", Changes{Memory: str("")}, "alpine:latest", "", false, []string{"memory"}},
		{"auto commit", Changes{AutoCommit: boolean(true)}, "alpine:latest", "256m", true, []string{"auto_commit"}},
		{"same values", Changes{Image: str("alpine:latest"), AutoCommit: boolean(false)}, "alpine:latest", "256m", false, nil},
		{
			"everything",
			Changes{Image: str("node:alpine"), Memory: str("2g"), AutoCommit: boolean(true)},
			"node:alpine", "2g", true,
			[]string{"image", "memory", "auto_commit"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, diff := Apply(base, tt.changes)
			if next.Image != tt.wantImage {
				t.Errorf("Image = %q, want %q", next.Image, tt.wantImage)
			}
			if next.MemoryLimit() != tt.wantMemory {
				t.Errorf("Memory = %q, want %q", next.MemoryLimit(), tt.wantMemory)
			}
			if next.AutoCommit != tt.wantCommit {
				t.Errorf("AutoCommit = %v, want %v", next.AutoCommit, tt.wantCommit)
			}

			var changed []string
			for _, f := range diff {
				if f.Changed {
					changed = append(changed, f.Field)
				}
			}
			if len(changed) != len(tt.wantChanged) {
				t.Fatalf("changed fields = %v, want %v", changed, tt.wantChanged)
			}
			for i := range changed {
				if changed[i] != tt.wantChanged[i] {
					t.Errorf("changed fields = %v, want %v", changed, tt.wantChanged)
				}
			}
		})
	}

	if base.Image != "alpine:latest" || base.MemoryLimit() != "256m" {
		t.Error("Apply mutated its input")
	}
}

func TestApplyDiffValues(t *testing.T) {
	mem := "512m"
	_, diff := Apply(Default(), Changes{Memory: &mem})

	f, ok := diff.Field("memory")
	if !ok {
		t.Fatal("memory field missing from diff")
	}
	if f.Old != "unlimited" || f.New != "512m" || !f.Changed {
		t.Errorf("memory diff = %+v", f)
	}
	if !diff.Changed() {
		t.Error("Changed() = false, want true")
	}
}

func TestNormalizeMemory(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"512m", "512m", false},
		{" 1g ", "1g", false},
		{"2GiB", "2GiB", false},
		{"1073741824", "1073741824", false},
		{"unlimited", "", false},
		{"None", "", false},
		{"0", "", false},
		{"lots", "", true},
		{"-5m", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeMemory(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidMemory) {
					t.Errorf("err = %v, want ErrInvalidMemory", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeMemory: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name      string
		file      string
		wantLang  string
		wantImage string
	}{
		{"go project", "go.mod", "go", "golang:alpine"},
		{"node project", "package.json", "node", "node:alpine"},
		{"python project", "requirements.txt", "python", "python:3-alpine"},
		{"rust project", "Cargo.toml", "rust", "rust:alpine"},
		{"unknown project", "", "unknown", "alpine:latest"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if tt.file != "" {
				os.WriteFile(filepath.Join(dir, tt.file), []byte(""), 0o644)
			}
			d := Detect(dir)
			if d.Language != tt.wantLang {
				t.Errorf("Language = %q, want %q", d.Language, tt.wantLang)
			}
			if d.Image != tt.wantImage {
				t.Errorf("Image = %q, want %q", d.Image, tt.wantImage)
			}
		})
	}
}
