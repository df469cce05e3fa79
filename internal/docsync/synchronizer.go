// Package docsync keeps the parameter sections of a document in line with the
// parameters the code declares.
package docsync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/pmezard/go-difflib/difflib"

	dserrors "github.com/systmms/paramdocs/internal/errors"
	"github.com/systmms/paramdocs/internal/logging"
	"github.com/systmms/paramdocs/internal/metrics"
	"github.com/systmms/paramdocs/internal/section"
	"github.com/systmms/paramdocs/pkg/param"
)

// Editor runs one read-modify-write cycle on the document
type Editor interface {
	Edit(ctx context.Context, fn func(current string) (string, error)) error
}

// Discoverer lists the decorated parameter paths reachable from an entry module
type Discoverer interface {
	Discover(ctx context.Context, entry string, kind param.Kind, prefix, suffix string) []string
}

// DiscoverFunc adapts a function to Discoverer
type DiscoverFunc func(ctx context.Context, entry string, kind param.Kind, prefix, suffix string) []string

// Discover implements Discoverer
func (f DiscoverFunc) Discover(ctx context.Context, entry string, kind param.Kind, prefix, suffix string) []string {
	return f(ctx, entry, kind, prefix, suffix)
}

// Option configures a Synchronizer
type Option func(*Synchronizer)

// WithMetrics records outcomes on r
func WithMetrics(r *metrics.Recorder) Option {
	return func(s *Synchronizer) {
		s.metrics = r
	}
}

// WithDocumentName sets the name shown in guidance output
func WithDocumentName(name string) Option {
	return func(s *Synchronizer) {
		s.document = name
	}
}

// Synchronizer merges discovered parameters into the sections of one document
type Synchronizer struct {
	discoverer Discoverer
	editor     Editor
	entry      string
	document   string
	logger     *logging.Logger
	out        io.Writer
	metrics    *metrics.Recorder
}

// New creates a synchronizer. Guidance for missing sections is written to out.
func New(discoverer Discoverer, editor Editor, entry string, logger *logging.Logger, out io.Writer, opts ...Option) *Synchronizer {
	if logger == nil {
		logger = logging.Discard()
	}
	if out == nil {
		out = io.Discard
	}
	s := &Synchronizer{
		discoverer: discoverer,
		editor:     editor,
		entry:      entry,
		document:   "README.md",
		logger:     logger,
		out:        out,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sync brings the section described by spec up to date and reports success. When
// nothing is discovered the document is not touched. When the document lacks the
// section, the expected section is written to the output sink and false is returned.
// Failures of any kind are logged and reported as false.
func (s *Synchronizer) Sync(ctx context.Context, spec section.Spec) (ok bool) {
	start := time.Now()
	result := metrics.ResultFailed

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Synchronising the %s section panicked: %v", spec.Tag, r)
			ok = false
			result = metrics.ResultFailed
		}
		s.metrics.RecordSync(string(spec.Kind), result, time.Since(start).Seconds())
	}()

	params := s.discoverer.Discover(ctx, s.entry, spec.Kind, spec.Prefix, spec.Suffix)
	s.metrics.RecordDiscovered(string(spec.Kind), len(params))
	if len(params) == 0 {
		s.logger.Info("No %s parameters declared, nothing to document", spec.Kind)
		result = metrics.ResultEmpty
		return true
	}
	s.logger.Debug("Discovered %d %s parameter(s)", len(params), spec.Kind)

	changed := false
	err := s.editor.Edit(ctx, func(current string) (string, error) {
		m, found := section.Locate(current, spec)
		if !found {
			return current, dserrors.ErrSectionNotFound
		}
		block := section.Merge(m.Block, params, spec)
		if block == m.Block {
			return current, nil
		}
		changed = true
		return section.Replace(current, m, block), nil
	})

	switch {
	case errors.Is(err, dserrors.ErrSectionNotFound):
		result = metrics.ResultMissing
		s.logger.Warn("%s has no %s section", s.document, spec.Tag)
		if rerr := section.Render(s.out, spec, params, s.document); rerr != nil {
			s.logger.Error("Failed to write guidance: %v", rerr)
		}
		return false
	case err != nil:
		s.logger.Error("Failed to update the %s section of %s: %v", spec.Tag, s.document, err)
		return false
	}

	if changed {
		result = metrics.ResultUpdated
		s.logger.Info("Updated the %s section of %s", spec.Tag, s.document)
	} else {
		result = metrics.ResultUnchanged
		s.logger.Info("The %s section of %s is up to date", spec.Tag, s.document)
	}
	return true
}

// SyncAll synchronises every spec in turn
func (s *Synchronizer) SyncAll(ctx context.Context, specs ...section.Spec) map[param.Kind]bool {
	results := make(map[param.Kind]bool, len(specs))
	for _, spec := range specs {
		results[spec.Kind] = s.Sync(ctx, spec)
	}
	return results
}

// Result describes the state of one section without changing it
type Result struct {
	Kind     param.Kind
	Expected []string
	Missing  bool
	Stale    bool
	Diff     string
}

// UpToDate reports whether a Sync would leave the document untouched
func (r Result) UpToDate() bool {
	return !r.Missing && !r.Stale
}

// Check compares the section described by spec with what Sync would write.
// The document is never modified.
func (s *Synchronizer) Check(ctx context.Context, spec section.Spec) (Result, error) {
	res := Result{Kind: spec.Kind}
	res.Expected = s.discoverer.Discover(ctx, s.entry, spec.Kind, spec.Prefix, spec.Suffix)
	if len(res.Expected) == 0 {
		return res, nil
	}

	var diffErr error
	err := s.editor.Edit(ctx, func(current string) (string, error) {
		m, found := section.Locate(current, spec)
		if !found {
			res.Missing = true
			return current, nil
		}
		block := section.Merge(m.Block, res.Expected, spec)
		if block == m.Block {
			return current, nil
		}
		res.Stale = true
		res.Diff, diffErr = difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(m.Block),
			B:        difflib.SplitLines(block),
			FromFile: fmt.Sprintf("%s (%s, current)", filepath.Base(s.document), spec.Tag),
			ToFile:   fmt.Sprintf("%s (%s, expected)", filepath.Base(s.document), spec.Tag),
			Context:  3,
		})
		return current, nil
	})
	if err != nil {
		return res, fmt.Errorf("failed to read %s: %w", s.document, err)
	}
	if diffErr != nil {
		return res, fmt.Errorf("failed to diff the %s section: %w", spec.Tag, diffErr)
	}
	return res, nil
}
