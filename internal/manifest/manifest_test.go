package manifest

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	dserrors "github.com/systmms/paramdocs/internal/errors"
	"github.com/systmms/paramdocs/internal/logging"
	"github.com/systmms/paramdocs/pkg/param"
)

const mailManifest = `module: github.com/acme/mail
types:
  - name: SmtpConfig
    fields:
      - name: Host
      - name: Password
        markers:
          - kind: env
          - kind: ssm
      - name: ApiKey
        markers:
          - kind: env
            name: SENDGRID_API_KEY
          - kind: ssm
            path: Sendgrid/ApiKey
`

const mailManifestTOML = `module = "github.com/acme/mail"

[[types]]
name = "SmtpConfig"

  [[types.fields]]
  name = "Host"

  [[types.fields]]
  name = "Password"
  markers = [{ kind = "env" }, { kind = "ssm" }]

  [[types.fields]]
  name = "ApiKey"
  markers = [{ kind = "env", name = "SENDGRID_API_KEY" }, { kind = "ssm", path = "Sendgrid/ApiKey" }]
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestParse_YAMLAndTOMLAgree(t *testing.T) {
	t.Parallel()

	fromYAML, err := Parse("params.yaml", []byte(mailManifest))
	require.NoError(t, err)
	fromTOML, err := Parse("params.toml", []byte(mailManifestTOML))
	require.NoError(t, err)

	assert.Equal(t, fromYAML, fromTOML)
	assert.Equal(t, "github.com/acme/mail", fromYAML.Module)

	types, err := fromYAML.ConfigTypes()
	require.NoError(t, err)
	require.Len(t, types, 1)
	assert.Equal(t, []string{"SmtpConfig__Password", "SENDGRID_API_KEY"}, types[0].Paths(param.KindEnvSecret, "", ""))
	assert.Equal(t, []string{"SmtpConfig/Password", "Sendgrid/ApiKey"}, types[0].Paths(param.KindRemoteStore, "", ""))
}

func TestParse_Empty(t *testing.T) {
	t.Parallel()

	m, err := Parse("params.yml", nil)
	require.NoError(t, err)
	assert.Empty(t, m.Types)
}

func TestParse_SchemaViolations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{"unknown kind", "types:\n  - name: A\n    fields:\n      - name: B\n        markers:\n          - kind: vault\n"},
		{"unknown key", "modules: x\n"},
		{"field without name", "types:\n  - name: A\n    fields:\n      - markers: []\n"},
		{"invalid path", "types:\n  - name: A\n    fields:\n      - name: B\n        markers:\n          - kind: ssm\n            path: \"a b\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("params.yaml", []byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "schema validation failed")
		})
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	_, err := Parse("params.json", []byte("{}"))
	assert.ErrorContains(t, err, "unsupported manifest format")

	_, err = Parse("params.yaml", []byte("types: [unclosed"))
	assert.ErrorContains(t, err, "failed to parse")
}

func TestConfigTypes_RejectsMismatchedOverrides(t *testing.T) {
	t.Parallel()

	m := &Manifest{Types: []TypeSpec{{Name: "A", Fields: []FieldSpec{{Name: "B", Markers: []MarkerSpec{{Kind: "env", Path: "x/y"}}}}}}}
	_, err := m.ConfigTypes()
	assert.ErrorContains(t, err, "A.B: env marker takes a name")

	m = &Manifest{Types: []TypeSpec{{Name: "A", Fields: []FieldSpec{{Name: "B", Markers: []MarkerSpec{{Kind: "env"}, {Kind: "env", Name: "X"}}}}}}}
	_, err = m.ConfigTypes()
	assert.ErrorContains(t, err, "duplicate env marker")

	m = &Manifest{Types: []TypeSpec{{Name: "A", Fields: []FieldSpec{{Name: "B", Markers: []MarkerSpec{{Kind: "env", Name: "MY-KEY"}}}}}}}
	_, err = m.ConfigTypes()
	assert.ErrorContains(t, err, "invalid environment variable name")
}

func newTree(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "go.mod"), "module github.com/acme/app\n\ngo 1.25\n\nrequire (\n\tgithub.com/acme/mail v1.0.0\n\tgithub.com/other/lib v0.3.0\n)\n")
	writeFile(t, filepath.Join(root, "params.toml"), "[[types]]\nname = \"AppConfig\"\n\n  [[types.fields]]\n  name = \"Token\"\n  markers = [{ kind = \"env\" }]\n")
	writeFile(t, filepath.Join(root, "mail", "go.mod"), "module github.com/acme/mail\n\ngo 1.25\n")
	writeFile(t, filepath.Join(root, "mail", "params.yaml"), mailManifest)
	writeFile(t, filepath.Join(root, "broken", "go.mod"), "module github.com/acme/broken\n")
	writeFile(t, filepath.Join(root, "broken", "params.yaml"), "types: 3\n")
	writeFile(t, filepath.Join(root, "vendor", "x", "go.mod"), "module github.com/acme/vendored\n")
	writeFile(t, filepath.Join(root, "_old", "go.mod"), "module github.com/acme/old\n")
	return root
}

func TestLoader_Load(t *testing.T) {
	t.Parallel()

	l := NewLoader(newTree(t), nil)
	ctx := context.Background()

	app, err := l.Load(ctx, "github.com/acme/app")
	require.NoError(t, err)
	assert.Equal(t, []string{"github.com/acme/mail", "github.com/other/lib"}, app.Requires)
	require.Len(t, app.Types, 1)
	assert.Equal(t, "AppConfig", app.Types[0].Name)

	mail, err := l.Load(ctx, "github.com/acme/mail")
	require.NoError(t, err)
	assert.Empty(t, mail.Requires)
	assert.Equal(t, "SmtpConfig", mail.Types[0].Name)

	_, err = l.Load(ctx, "github.com/acme/broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema validation failed")

	_, err = l.Load(ctx, "github.com/other/lib")
	require.ErrorIs(t, err, dserrors.ErrModuleNotFound)

	paths, err := l.Modules(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"github.com/acme/app", "github.com/acme/mail"}, paths, "vendor and underscore trees are skipped")
}

func TestLoader_ReturnsCopies(t *testing.T) {
	t.Parallel()

	l := NewLoader(newTree(t), nil)
	ctx := context.Background()

	first, err := l.Load(ctx, "github.com/acme/app")
	require.NoError(t, err)
	first.Requires[0] = "mutated"

	second, err := l.Load(ctx, "github.com/acme/app")
	require.NoError(t, err)
	assert.Equal(t, "github.com/acme/mail", second.Requires[0])
}

func TestLoader_ManifestModuleMismatch(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "go.mod"), "module github.com/acme/svc\n")
	writeFile(t, filepath.Join(root, "params.yaml"), "module: github.com/acme/other\n")

	_, err := NewLoader(root, nil).Load(context.Background(), "github.com/acme/svc")
	assert.ErrorContains(t, err, "declares module github.com/acme/other")
}

func TestLoader_DuplicateModuleWarns(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a", "go.mod"), "module github.com/acme/svc\n")
	writeFile(t, filepath.Join(root, "b", "go.mod"), "module github.com/acme/svc\n")

	var buf bytes.Buffer
	l := NewLoader(root, logging.NewWithWriter(&buf, false, true))
	paths, err := l.Modules(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"github.com/acme/svc"}, paths)
	assert.Contains(t, buf.String(), "declared again")
}

func TestLoader_MissingRoot(t *testing.T) {
	t.Parallel()

	l := NewLoader(filepath.Join(t.TempDir(), "nope"), nil)
	_, err := l.Load(context.Background(), "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoader_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLoader(newTree(t), nil).Modules(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
