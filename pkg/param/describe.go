package param

import (
	"fmt"
	"reflect"
)

const (
	// TagEnvSecret is the struct tag for EnvSecret markers
	TagEnvSecret = "envsecret"
	// TagRemoteStore is the struct tag for RemoteStore markers
	TagRemoteStore = "ssm"
)

// Describe builds a ConfigType from a struct value or pointer.
// A field is marked when it carries the envsecret or ssm tag; a non-empty
// tag value is the override. Paths outside the section grammar are rejected.
func Describe(v any) (ConfigType, error) {
	t := reflect.TypeOf(v)
	if t == nil {
		return ConfigType{}, fmt.Errorf("describe requires a struct, got nil")
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return ConfigType{}, fmt.Errorf("describe requires a struct or struct pointer, got %T", v)
	}
	if t.Name() == "" {
		return ConfigType{}, fmt.Errorf("describe requires a named struct type, got %T", v)
	}

	ct := ConfigType{Name: t.Name()}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}

		var markers []Marker
		if name, ok := sf.Tag.Lookup(TagEnvSecret); ok {
			markers = append(markers, EnvSecret{Name: name})
		}
		if path, ok := sf.Tag.Lookup(TagRemoteStore); ok {
			markers = append(markers, RemoteStore{Override: path})
		}
		ct.Fields = append(ct.Fields, Field{Name: sf.Name, Markers: markers})
	}
	if err := ct.Validate(); err != nil {
		return ConfigType{}, err
	}
	return ct, nil
}

// DescribeAll describes every value, failing on the first error
func DescribeAll(values ...any) ([]ConfigType, error) {
	types := make([]ConfigType, 0, len(values))
	for _, v := range values {
		ct, err := Describe(v)
		if err != nil {
			return nil, err
		}
		types = append(types, ct)
	}
	return types, nil
}
