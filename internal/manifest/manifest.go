// Package manifest reads module descriptors from a source tree. Every directory holding
// a go.mod is a module; its requirements come from go.mod and its configuration types
// from an optional params.yaml, params.yml or params.toml next to it.
package manifest

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/systmms/paramdocs/pkg/param"
)

// FileNames lists the manifest names looked up in a module directory, in priority order
var FileNames = []string{"params.yaml", "params.yml", "params.toml"}

//go:embed schema/params.schema.json
var schemaJSON []byte

var schema = mustCompileSchema()

func mustCompileSchema() *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	if err != nil {
		panic(fmt.Sprintf("invalid embedded manifest schema: %v", err))
	}
	return s
}

// Manifest declares the configuration types of one module
type Manifest struct {
	Module   string     `json:"module,omitempty"`
	Requires []string   `json:"requires,omitempty"`
	Types    []TypeSpec `json:"types,omitempty"`
}

// TypeSpec declares one configuration type
type TypeSpec struct {
	Name   string      `json:"name"`
	Fields []FieldSpec `json:"fields,omitempty"`
}

// FieldSpec declares one field and its markers
type FieldSpec struct {
	Name    string       `json:"name"`
	Markers []MarkerSpec `json:"markers,omitempty"`
}

// MarkerSpec declares one marker. Name overrides env variables, Path overrides remote
// store fragments.
type MarkerSpec struct {
	Kind string `json:"kind"`
	Name string `json:"name,omitempty"`
	Path string `json:"path,omitempty"`
}

// Parse decodes a manifest, choosing YAML or TOML by the file extension of name, and
// validates it against the manifest schema.
func Parse(name string, data []byte) (*Manifest, error) {
	var raw map[string]interface{}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
	default:
		return nil, fmt.Errorf("unsupported manifest format: %s", name)
	}
	if raw == nil {
		raw = map[string]interface{}{}
	}

	// Validate the generic form so both formats share one schema
	jsonData, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s for validation: %w", name, err)
	}
	if err := validate(jsonData); err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", name, err)
	}

	var m Manifest
	if err := json.Unmarshal(jsonData, &m); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return &m, nil
}

func validate(jsonData []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(jsonData))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if !result.Valid() {
		var errorMessages []string
		for _, desc := range result.Errors() {
			errorMessages = append(errorMessages, desc.String())
		}
		return fmt.Errorf("schema validation failed:\n  - %s", strings.Join(errorMessages, "\n  - "))
	}
	return nil
}

// ConfigTypes converts the declared types to descriptors
func (m *Manifest) ConfigTypes() ([]param.ConfigType, error) {
	types := make([]param.ConfigType, 0, len(m.Types))
	for _, ts := range m.Types {
		ct := param.ConfigType{Name: ts.Name}
		for _, fs := range ts.Fields {
			f := param.Field{Name: fs.Name}
			for _, ms := range fs.Markers {
				marker, err := ms.marker()
				if err != nil {
					return nil, fmt.Errorf("%s.%s: %w", ts.Name, fs.Name, err)
				}
				if _, dup := f.Marker(marker.Kind()); dup {
					return nil, fmt.Errorf("%s.%s: duplicate %s marker", ts.Name, fs.Name, marker.Kind())
				}
				f.Markers = append(f.Markers, marker)
			}
			ct.Fields = append(ct.Fields, f)
		}
		if err := ct.Validate(); err != nil {
			return nil, err
		}
		types = append(types, ct)
	}
	return types, nil
}

func (ms MarkerSpec) marker() (param.Marker, error) {
	kind, err := param.ParseKind(ms.Kind)
	if err != nil {
		return nil, err
	}
	switch {
	case kind == param.KindEnvSecret && ms.Path != "":
		return nil, fmt.Errorf("env marker takes a name, not a path")
	case kind == param.KindRemoteStore && ms.Name != "":
		return nil, fmt.Errorf("ssm marker takes a path, not a name")
	}
	return param.NewMarker(kind, ms.Name+ms.Path)
}
