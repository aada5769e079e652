package config

import (
	"os"
	"path/filepath"
)

// Detection is the result of inspecting a project directory for a
// suitable sandbox image.
type Detection struct {
	Language string
	Image    string
}

// AutoImage is the --image value that asks for detection instead of a
// literal reference.
const AutoImage = "auto"

// Detect inspects projectDir and returns the language it looks like and a
// small image that ships its toolchain.
func Detect(projectDir string) Detection {
	checks := []struct {
		file     string
		language string
		image    string
	}{
		{"go.mod", "go", "golang:alpine"},
		{"package.json", "node", "node:alpine"},
		{"requirements.txt", "python", "python:3-alpine"},
		{"pyproject.toml", "python", "python:3-alpine"},
		{"Cargo.toml", "rust", "rust:alpine"},
		{"Gemfile", "ruby", "ruby:alpine"},
	}

	for _, c := range checks {
		if _, err := os.Stat(filepath.Join(projectDir, c.file)); err == nil {
			return Detection{Language: c.language, Image: c.image}
		}
	}
	return Detection{Language: "unknown", Image: DefaultImage}
}
