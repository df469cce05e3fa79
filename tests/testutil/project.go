// Package testutil provides test utilities and helpers for paramdocs tests.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/systmms/paramdocs/internal/config"
)

// ProjectBuilder lays out a repository of Go modules, parameter manifests, a
// document and a paramdocs.yaml in a temporary directory.
//
// Example usage:
//
//	root := NewProject(t, "github.com/acme/app", "github.com/acme/mail").
//	    WithModule("mail", "github.com/acme/mail").
//	    WithManifest("mail", mailManifest).
//	    WithReadme(readme).
//	    Write()
type ProjectBuilder struct {
	t      *testing.T
	root   string
	files  map[string]string
	config *config.Definition
}

// NewProject creates a builder whose root module is entry
func NewProject(t *testing.T, entry string, requires ...string) *ProjectBuilder {
	t.Helper()

	b := &ProjectBuilder{
		t:      t,
		root:   t.TempDir(),
		files:  make(map[string]string),
		config: &config.Definition{},
	}
	return b.WithModule(".", entry, requires...)
}

// WithModule adds a go.mod declaring path in dir
func (b *ProjectBuilder) WithModule(dir, path string, requires ...string) *ProjectBuilder {
	var gomod strings.Builder
	gomod.WriteString("module " + path + "\n\ngo 1.25\n")
	if len(requires) > 0 {
		gomod.WriteString("\nrequire (\n")
		for _, r := range requires {
			gomod.WriteString("\t" + r + " v1.0.0\n")
		}
		gomod.WriteString(")\n")
	}
	b.files[filepath.Join(dir, "go.mod")] = gomod.String()
	return b
}

// WithManifest adds a params.yaml to dir
func (b *ProjectBuilder) WithManifest(dir, content string) *ProjectBuilder {
	b.files[filepath.Join(dir, "params.yaml")] = content
	return b
}

// WithReadme sets the content of README.md
func (b *ProjectBuilder) WithReadme(content string) *ProjectBuilder {
	b.files["README.md"] = content
	return b
}

// WithConfig adjusts the paramdocs.yaml definition
func (b *ProjectBuilder) WithConfig(fn func(d *config.Definition)) *ProjectBuilder {
	fn(b.config)
	return b
}

// Write creates every file and returns the path of paramdocs.yaml
func (b *ProjectBuilder) Write() string {
	b.t.Helper()

	data, err := yaml.Marshal(b.config)
	require.NoError(b.t, err)
	b.files[config.DefaultPath] = string(data)

	for name, content := range b.files {
		WriteFile(b.t, filepath.Join(b.root, name), content)
	}
	return filepath.Join(b.root, config.DefaultPath)
}

// WriteFile writes content to path, creating parent directories
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
