package param

// Module describes the configuration types a Go module declares
// and the modules it depends on.
type Module struct {
	Path     string
	Requires []string
	Types    []ConfigType
}

// ConfigType describes one configuration struct
type ConfigType struct {
	Name   string
	Fields []Field
}

// Field is a configuration field and the markers attached to it
type Field struct {
	Name    string
	Markers []Marker
}

// Marker returns the field's marker of the given kind, if any
func (f Field) Marker(kind Kind) (Marker, bool) {
	for _, m := range f.Markers {
		if m.Kind() == kind {
			return m, true
		}
	}
	return nil, false
}

// Paths returns prefix+path+suffix for every field carrying a marker of kind,
// in field order.
func (t ConfigType) Paths(kind Kind, prefix, suffix string) []string {
	var paths []string
	for _, f := range t.Fields {
		m, ok := f.Marker(kind)
		if !ok {
			continue
		}
		p := m.Path(t.Name, f.Name)
		if p == "" {
			continue
		}
		paths = append(paths, prefix+p+suffix)
	}
	return paths
}

// Clone returns a deep copy so callers cannot mutate registered descriptors
func (m Module) Clone() Module {
	out := Module{
		Path:     m.Path,
		Requires: append([]string(nil), m.Requires...),
		Types:    make([]ConfigType, len(m.Types)),
	}
	for i, t := range m.Types {
		ct := ConfigType{Name: t.Name, Fields: make([]Field, len(t.Fields))}
		for j, f := range t.Fields {
			ct.Fields[j] = Field{Name: f.Name, Markers: append([]Marker(nil), f.Markers...)}
		}
		out.Types[i] = ct
	}
	return out
}
