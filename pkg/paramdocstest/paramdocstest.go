// Package paramdocstest keeps a module's documentation in sync from go test.
//
// A module registers its configuration types and adds one test:
//
//	func init() {
//		param.MustRegisterTypes("github.com/acme/mail", []string{"github.com/acme/core"}, SmtpConfig{})
//	}
//
//	func TestReadmeDocumentsParameters(t *testing.T) {
//		paramdocstest.RequireSynced(t, paramdocstest.Options{
//			Document:     "README.md",
//			Entry:        "github.com/acme/mail",
//			ModulePrefix: "github.com/acme/",
//		})
//	}
//
// The test updates README.md in place and fails, printing the expected section, when
// the document does not have one yet.
package paramdocstest

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/systmms/paramdocs/internal/discovery"
	"github.com/systmms/paramdocs/internal/docfile"
	"github.com/systmms/paramdocs/internal/docsync"
	"github.com/systmms/paramdocs/internal/logging"
	"github.com/systmms/paramdocs/internal/section"
	"github.com/systmms/paramdocs/pkg/param"
)

// Options describe what to synchronise
type Options struct {
	// Document is the file holding the sections
	Document string
	// Entry is the module whose dependencies are scanned
	Entry string
	// ModulePrefix restricts scanning to the organisation's modules
	ModulePrefix string
	// MaxDepth bounds the hops past the direct dependencies, discovery.DefaultMaxDepth when nil
	MaxDepth *int
	// RemotePrefix is prepended to remote store paths, derived from Entry when empty
	RemotePrefix string
	// Kinds lists the sections to keep, both when empty
	Kinds []param.Kind
	// Source resolves modules, param.DefaultRegistry when nil
	Source discovery.Source
}

// RequireSynced synchronises every requested section of the document and fails the
// test when one of them could not be brought up to date.
func RequireSynced(t testing.TB, opts Options) {
	t.Helper()

	require.NotEmpty(t, opts.Document, "paramdocstest: Document is required")
	require.NotEmpty(t, opts.Entry, "paramdocstest: Entry is required")

	source := opts.Source
	if source == nil {
		source = param.DefaultRegistry
	}
	depth := discovery.DefaultMaxDepth
	if opts.MaxDepth != nil {
		depth = *opts.MaxDepth
	}
	kinds := opts.Kinds
	if len(kinds) == 0 {
		kinds = []param.Kind{param.KindEnvSecret, param.KindRemoteStore}
	}
	prefix := opts.RemotePrefix
	if prefix == "" {
		prefix = section.DefaultRemotePrefix(opts.Entry)
	}
	require.NoError(t, param.ValidateRemotePrefix(prefix), "paramdocstest: RemotePrefix")

	out := &testWriter{t: t}
	logger := logging.NewWithWriter(out, false, true)
	scanner := discovery.New(source, logger, discovery.Options{
		ModulePrefix: opts.ModulePrefix,
		MaxDepth:     depth,
	})
	editor := docfile.New(opts.Document, docfile.WithLogger(logger))
	defer func() {
		require.NoError(t, editor.Close())
	}()

	syncer := docsync.New(scanner, editor, opts.Entry, logger, out, docsync.WithDocumentName(opts.Document))
	for _, kind := range kinds {
		spec, err := section.ForKind(kind, prefix)
		require.NoError(t, err)
		require.True(t, syncer.Sync(context.Background(), spec), "%s section of %s is not in sync", spec.Tag, opts.Document)
	}
}

// testWriter forwards output to the test log
type testWriter struct {
	t testing.TB
}

func (w *testWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}
