package manifest

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"

	dserrors "github.com/systmms/paramdocs/internal/errors"
	"github.com/systmms/paramdocs/internal/logging"
	"github.com/systmms/paramdocs/pkg/param"
)

// Loader indexes the modules of a source tree on first use
type Loader struct {
	root   string
	logger *logging.Logger

	once     sync.Once
	scanErr  error
	modules  map[string]*param.Module
	failures map[string]error
}

// NewLoader creates a loader for the tree rooted at root
func NewLoader(root string, logger *logging.Logger) *Loader {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Loader{
		root:     root,
		logger:   logger,
		modules:  make(map[string]*param.Module),
		failures: make(map[string]error),
	}
}

// Root returns the scanned directory
func (l *Loader) Root() string {
	return l.root
}

// Load returns the descriptor of the module at path. Modules whose go.mod or manifest
// is broken report that error here.
func (l *Loader) Load(ctx context.Context, path string) (*param.Module, error) {
	if err := l.scan(ctx); err != nil {
		return nil, err
	}
	if err, ok := l.failures[path]; ok {
		return nil, err
	}
	m, ok := l.modules[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, dserrors.ErrModuleNotFound)
	}
	clone := m.Clone()
	return &clone, nil
}

// Modules returns the paths of every module found under the root, sorted
func (l *Loader) Modules(ctx context.Context) ([]string, error) {
	if err := l.scan(ctx); err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(l.modules))
	for p := range l.modules {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}

func (l *Loader) scan(ctx context.Context) error {
	l.once.Do(func() {
		l.scanErr = filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}

			if d.IsDir() {
				if path != l.root && skipDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if d.Name() != "go.mod" {
				return nil
			}

			l.index(filepath.Dir(path))
			return nil
		})
		if l.scanErr != nil {
			l.scanErr = fmt.Errorf("failed to scan %s: %w", l.root, l.scanErr)
			return
		}
		l.logger.Debug("Indexed %d module(s) under %s", len(l.modules), l.root)
	})
	return l.scanErr
}

// skipDir follows the go tool: hidden, underscore, vendor and testdata trees are not
// part of any module
func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") ||
		name == "vendor" || name == "testdata"
}

func (l *Loader) index(dir string) {
	gomod := filepath.Join(dir, "go.mod")
	data, err := os.ReadFile(gomod)
	if err != nil {
		l.logger.Warn("Skipping %s: %v", gomod, err)
		return
	}

	m, err := l.describe(dir, gomod, data)
	path := modfile.ModulePath(data)
	if m != nil {
		path = m.Path
	}
	if path == "" {
		l.logger.Warn("Skipping %s: %v", gomod, err)
		return
	}
	if _, dup := l.modules[path]; dup {
		l.logger.Warn("Module %s declared again in %s, keeping the first", path, dir)
		return
	}
	if err != nil {
		l.failures[path] = err
		return
	}
	l.modules[path] = m
}

func (l *Loader) describe(dir, gomod string, data []byte) (*param.Module, error) {
	f, err := modfile.Parse(gomod, data, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", gomod, err)
	}
	if f.Module == nil {
		return nil, fmt.Errorf("%s has no module directive", gomod)
	}
	path := f.Module.Mod.Path
	if err := module.CheckImportPath(path); err != nil {
		return nil, fmt.Errorf("%s: %w", gomod, err)
	}

	m := &param.Module{Path: path}
	for _, r := range f.Require {
		m.Requires = append(m.Requires, r.Mod.Path)
	}

	mf, name, err := readManifest(dir)
	if err != nil {
		return m, err
	}
	if mf == nil {
		return m, nil
	}
	if mf.Module != "" && mf.Module != path {
		return m, fmt.Errorf("%s declares module %s but go.mod declares %s", name, mf.Module, path)
	}
	for _, r := range mf.Requires {
		if !contains(m.Requires, r) {
			m.Requires = append(m.Requires, r)
		}
	}
	if m.Types, err = mf.ConfigTypes(); err != nil {
		return m, fmt.Errorf("%s: %w", name, err)
	}
	l.logger.Debug("Read %d type(s) for %s from %s", len(m.Types), path, name)
	return m, nil
}

func readManifest(dir string) (*Manifest, string, error) {
	for _, name := range FileNames {
		p := filepath.Join(dir, name)
		data, err := os.ReadFile(p)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, p, fmt.Errorf("failed to read manifest %s: %w", p, err)
		}
		mf, err := Parse(p, data)
		return mf, p, err
	}
	return nil, "", nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
