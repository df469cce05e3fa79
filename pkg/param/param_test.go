package param

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	dserrors "github.com/systmms/paramdocs/internal/errors"
)

type FakeConfig struct {
	SecretString          string `envsecret:"SecretAbc" ssm:""`
	SecretNumber          *int   `envsecret:"Secret123" ssm:"Forced/Path"`
	ImplicitlyNamedSecret string `envsecret:"" ssm:""`
	PlainValue            string
	notSecret             string `envsecret:""` //nolint:unused
}

func TestMarkerPaths(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		marker Marker
		want   string
	}{
		{name: "env default", marker: EnvSecret{}, want: "SmtpConfig__Password"},
		{name: "env override", marker: EnvSecret{Name: "SMTP_PASSWORD"}, want: "SMTP_PASSWORD"},
		{name: "ssm default", marker: RemoteStore{}, want: "SmtpConfig/Password"},
		{name: "ssm override", marker: RemoteStore{Override: "Mail/Password"}, want: "Mail/Password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.marker.Path("SmtpConfig", "Password"))
			assert.Equal(t, tt.want, tt.marker.Path("SmtpConfig", "Password"), "path must be deterministic")
		})
	}

	assert.Equal(t, KindEnvSecret, EnvSecret{}.Kind())
	assert.Equal(t, KindRemoteStore, RemoteStore{}.Kind())
}

func TestParseKindAndNewMarker(t *testing.T) {
	t.Parallel()

	k, err := ParseKind("ssm")
	require.NoError(t, err)
	assert.Equal(t, KindRemoteStore, k)

	_, err = ParseKind("vault")
	require.Error(t, err)

	m, err := NewMarker(KindEnvSecret, "X")
	require.NoError(t, err)
	assert.Equal(t, EnvSecret{Name: "X"}, m)

	_, err = NewMarker(Kind("nope"), "")
	require.Error(t, err)
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	ct, err := Describe(&FakeConfig{})
	require.NoError(t, err)

	assert.Equal(t, "FakeConfig", ct.Name)
	require.Len(t, ct.Fields, 4, "unexported fields are skipped")

	assert.Equal(t, []string{
		"SecretAbc=********",
		"Secret123=********",
		"FakeConfig__ImplicitlyNamedSecret=********",
	}, ct.Paths(KindEnvSecret, "", "=********"))

	assert.Equal(t, []string{
		"/Some/Module/FakeConfig/SecretString",
		"/Some/Module/Forced/Path",
		"/Some/Module/FakeConfig/ImplicitlyNamedSecret",
	}, ct.Paths(KindRemoteStore, "/Some/Module/", ""))
}

func TestDescribeRejectsNonStructs(t *testing.T) {
	t.Parallel()

	_, err := Describe(nil)
	require.Error(t, err)

	_, err = Describe(42)
	require.Error(t, err)

	_, err = Describe(struct{ A string }{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "named struct")

	_, err = DescribeAll(FakeConfig{}, "string")
	require.Error(t, err)
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	types, err := DescribeAll(FakeConfig{})
	require.NoError(t, err)

	require.NoError(t, r.Register(Module{
		Path:     "github.com/acme/mail",
		Requires: []string{"github.com/acme/core"},
		Types:    types,
	}))
	require.NoError(t, r.Register(Module{Path: "github.com/acme/core"}))

	err = r.Register(Module{Path: "github.com/acme/core"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")

	require.Error(t, r.Register(Module{}))

	assert.Equal(t, []string{"github.com/acme/core", "github.com/acme/mail"}, r.Modules())

	m, err := r.Load(context.Background(), "github.com/acme/mail")
	require.NoError(t, err)
	assert.Equal(t, []string{"github.com/acme/core"}, m.Requires)
	require.Len(t, m.Types, 1)

	// mutating a loaded copy must not leak into the registry
	m.Requires[0] = "mutated"
	again, err := r.Load(context.Background(), "github.com/acme/mail")
	require.NoError(t, err)
	assert.Equal(t, "github.com/acme/core", again.Requires[0])

	_, err = r.Load(context.Background(), "github.com/acme/unknown")
	require.ErrorIs(t, err, dserrors.ErrModuleNotFound)
}

func TestRegistryMustRegisterPanics(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.MustRegister(Module{Path: "a"})
	assert.Panics(t, func() { r.MustRegister(Module{Path: "a"}) })
}

func TestModuleOf(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	pkg := "github.com/systmms/paramdocs/pkg/param"

	assert.Equal(t, pkg, r.ModuleOf(FakeConfig{}), "falls back to the package path")
	assert.Equal(t, "", r.ModuleOf(nil))

	require.NoError(t, r.Register(Module{Path: "github.com/systmms/paramdocs"}))
	require.NoError(t, r.Register(Module{Path: "github.com/systmms/paramdocs/pkg"}))
	require.NoError(t, r.Register(Module{Path: "github.com/systmms/param"}))

	assert.Equal(t, "github.com/systmms/paramdocs/pkg", r.ModuleOf(&FakeConfig{}), "longest prefix wins")
}

type DashedConfig struct {
	ApiKey string `envsecret:"MY-API-KEY"`
}

type DottedConfig struct {
	ApiKey string `ssm:"Sendgrid/Api.Key"`
}

func TestValidatePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind  Kind
		path  string
		valid bool
	}{
		{KindEnvSecret, "SmtpConfig__Password", true},
		{KindEnvSecret, "MY-API-KEY", false},
		{KindEnvSecret, "A B", false},
		{KindEnvSecret, "", false},
		{KindRemoteStore, "/acme/mail/SmtpConfig/Password", true},
		{KindRemoteStore, "Sendgrid/api-key_2", true},
		{KindRemoteStore, "go.utils/Key", false},
		{KindRemoteStore, "Ключ/Значение", false},
		{Kind("vault"), "x", false},
	}
	for _, tt := range tests {
		err := ValidatePath(tt.kind, tt.path)
		if tt.valid {
			assert.NoError(t, err, "%s %q", tt.kind, tt.path)
		} else {
			assert.Error(t, err, "%s %q", tt.kind, tt.path)
		}
	}

	assert.NoError(t, ValidateRemotePrefix(""))
	assert.NoError(t, ValidateRemotePrefix("/acme/go/utils/"))
	assert.Error(t, ValidateRemotePrefix("/acme/go.utils/"))
}

func TestDescribeRejectsPathsNoSectionCanList(t *testing.T) {
	t.Parallel()

	_, err := Describe(DashedConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DashedConfig.ApiKey")
	assert.Contains(t, err.Error(), `"MY-API-KEY"`)

	_, err = Describe(&DottedConfig{})
	assert.ErrorContains(t, err, "invalid remote parameter path")

	assert.Error(t, RegisterTypes("github.com/acme/invalid-tags", nil, DashedConfig{}))
}

func TestRegistryRejectsInvalidPaths(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	err := r.Register(Module{
		Path: "github.com/acme/mail",
		Types: []ConfigType{{
			Name:   "SmtpConfig",
			Fields: []Field{{Name: "ApiKey", Markers: []Marker{EnvSecret{Name: "MY-API-KEY"}}}},
		}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "module github.com/acme/mail: SmtpConfig.ApiKey")
	assert.Empty(t, r.Modules(), "nothing is registered on error")
}
