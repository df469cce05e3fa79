// Package discovery collects the parameters declared by every module reachable from an
// entry module.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	dserrors "github.com/systmms/paramdocs/internal/errors"
	"github.com/systmms/paramdocs/internal/logging"
	"github.com/systmms/paramdocs/pkg/param"
)

const (
	// DefaultTypeSuffix is the naming convention of configuration types
	DefaultTypeSuffix = "Config"
	// DefaultMaxDepth is how many hops past the direct dependencies are followed
	DefaultMaxDepth    = 1
	defaultConcurrency = 4
)

// Source resolves a module path to its descriptor
type Source interface {
	Load(ctx context.Context, path string) (*param.Module, error)
}

// SourceFunc adapts a function to Source
type SourceFunc func(ctx context.Context, path string) (*param.Module, error)

// Load implements Source
func (f SourceFunc) Load(ctx context.Context, path string) (*param.Module, error) {
	return f(ctx, path)
}

// Chain returns a Source trying each source in order until one succeeds
func Chain(sources ...Source) Source {
	return SourceFunc(func(ctx context.Context, path string) (*param.Module, error) {
		var errs []error
		for _, s := range sources {
			m, err := s.Load(ctx, path)
			if err == nil {
				return m, nil
			}
			errs = append(errs, err)
		}
		if len(errs) == 0 {
			return nil, fmt.Errorf("%s: %w", path, dserrors.ErrModuleNotFound)
		}
		return nil, errors.Join(errs...)
	})
}

// Options tune a Scanner
type Options struct {
	// ModulePrefix restricts scanning to modules whose path starts with it
	ModulePrefix string
	// TypeSuffix selects configuration types by name
	TypeSuffix string
	// MaxDepth bounds the hops followed past the entry's direct dependencies
	MaxDepth int
	// Concurrency caps parallel module loads per hop
	Concurrency int
}

func (o Options) withDefaults() Options {
	if o.TypeSuffix == "" {
		o.TypeSuffix = DefaultTypeSuffix
	}
	if o.MaxDepth < 0 {
		o.MaxDepth = 0
	}
	if o.Concurrency <= 0 {
		o.Concurrency = defaultConcurrency
	}
	return o
}

// Scanner walks module dependencies and extracts declared parameters
type Scanner struct {
	source Source
	logger *logging.Logger
	opts   Options
}

// New creates a scanner reading modules from source
func New(source Source, logger *logging.Logger, opts Options) *Scanner {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Scanner{
		source: source,
		logger: logger,
		opts:   opts.withDefaults(),
	}
}

// Options returns the effective options
func (s *Scanner) Options() Options {
	return s.opts
}

// Modules loads the entry module and its dependencies breadth first. The direct
// dependencies are always visited; after that at most MaxDepth further hops are
// followed, and whatever is still undiscovered at that point is left out. Modules that
// fail to load are logged and skipped.
func (s *Scanner) Modules(ctx context.Context, entry string) []*param.Module {
	known := map[string]bool{entry: true}
	var loaded []*param.Module

	frontier := s.loadAll(ctx, []string{entry})
	if s.matches(entry) {
		loaded = append(loaded, frontier...)
	}

	for hop := 0; hop <= s.opts.MaxDepth; hop++ {
		var next []string
		for _, m := range frontier {
			for _, req := range m.Requires {
				if known[req] || !s.matches(req) {
					continue
				}
				known[req] = true
				next = append(next, req)
			}
		}
		if len(next) == 0 {
			break
		}
		sort.Strings(next)
		s.logger.Debug("Discovery hop %d: %s", hop+1, strings.Join(next, ", "))

		frontier = s.loadAll(ctx, next)
		loaded = append(loaded, frontier...)
	}

	if len(loaded) == 0 {
		s.logger.Debug("No modules matching %q reachable from %s", s.opts.ModulePrefix, entry)
	}
	return loaded
}

// Discover returns the decorated paths of every field marked with kind on the
// configuration types of the reachable modules, deduplicated and sorted ascending.
func (s *Scanner) Discover(ctx context.Context, entry string, kind param.Kind, prefix, suffix string) []string {
	seen := make(map[string]struct{})
	var paths []string
	for _, m := range s.Modules(ctx, entry) {
		s.logger.Debug("Inspecting module %s", m.Path)
		for _, t := range m.Types {
			if !strings.HasSuffix(t.Name, s.opts.TypeSuffix) {
				continue
			}
			for _, p := range t.Paths(kind, prefix, suffix) {
				if _, ok := seen[p]; ok {
					continue
				}
				seen[p] = struct{}{}
				paths = append(paths, p)
			}
		}
	}
	sort.Strings(paths)
	return paths
}

func (s *Scanner) matches(path string) bool {
	return strings.HasPrefix(path, s.opts.ModulePrefix)
}

// loadAll loads paths concurrently and returns the successes in input order
func (s *Scanner) loadAll(ctx context.Context, paths []string) []*param.Module {
	results := make([]*param.Module, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for i, path := range paths {
		g.Go(func() error {
			m, err := s.source.Load(gctx, path)
			if err != nil {
				s.logger.Warn("Skipping module: %v", dserrors.ModuleLoadError{Module: path, Err: err})
				return nil
			}
			results[i] = m
			return nil
		})
	}
	_ = g.Wait()

	modules := make([]*param.Module, 0, len(results))
	for _, m := range results {
		if m != nil {
			modules = append(modules, m)
		}
	}
	return modules
}
