package param

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	dserrors "github.com/systmms/paramdocs/internal/errors"
)

// Registry holds module descriptors registered in-process
type Registry struct {
	mu      sync.RWMutex
	modules map[string]Module
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]Module)}
}

// Register adds a module descriptor. Registering the same path twice is an error,
// as is a marked path that no section could list.
func (r *Registry) Register(m Module) error {
	if m.Path == "" {
		return fmt.Errorf("module path cannot be empty")
	}
	for _, t := range m.Types {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("module %s: %w", m.Path, err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.modules[m.Path]; exists {
		return fmt.Errorf("module %s already registered", m.Path)
	}
	r.modules[m.Path] = m.Clone()
	return nil
}

// MustRegister is Register that panics on error, for use from init functions
func (r *Registry) MustRegister(m Module) {
	if err := r.Register(m); err != nil {
		panic(err)
	}
}

// Load returns a copy of a registered module
func (r *Registry) Load(_ context.Context, path string) (*Module, error) {
	r.mu.RLock()
	m, ok := r.modules[path]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, dserrors.ErrModuleNotFound)
	}
	cp := m.Clone()
	return &cp, nil
}

// Modules returns the registered module paths in ascending order
func (r *Registry) Modules() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	paths := make([]string, 0, len(r.modules))
	for p := range r.modules {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// ModuleOf returns the registered module owning v's package. When no registered
// module matches, the package path itself is returned.
func (r *Registry) ModuleOf(v any) string {
	pkg := packagePath(v)
	if pkg == "" {
		return ""
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	best := ""
	for p := range r.modules {
		if (pkg == p || strings.HasPrefix(pkg, p+"/")) && len(p) > len(best) {
			best = p
		}
	}
	if best == "" {
		return pkg
	}
	return best
}

func packagePath(v any) string {
	t := reflect.TypeOf(v)
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.PkgPath()
}

// DefaultRegistry is the process-wide registry used by Register and RegisterTypes
var DefaultRegistry = NewRegistry()

// Register adds m to DefaultRegistry
func Register(m Module) error {
	return DefaultRegistry.Register(m)
}

// RegisterTypes describes values and registers them as module path in DefaultRegistry
func RegisterTypes(path string, requires []string, values ...any) error {
	types, err := DescribeAll(values...)
	if err != nil {
		return fmt.Errorf("module %s: %w", path, err)
	}
	return Register(Module{Path: path, Requires: requires, Types: types})
}

// MustRegisterTypes is RegisterTypes that panics on error
func MustRegisterTypes(path string, requires []string, values ...any) {
	if err := RegisterTypes(path, requires, values...); err != nil {
		panic(err)
	}
}

// ModuleOf resolves v against DefaultRegistry
func ModuleOf(v any) string {
	return DefaultRegistry.ModuleOf(v)
}
