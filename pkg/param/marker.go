package param

import "fmt"

// Kind identifies where an externally supplied value comes from
type Kind string

const (
	// KindEnvSecret marks values supplied through environment variables
	KindEnvSecret Kind = "env"
	// KindRemoteStore marks values supplied through a remote parameter store
	KindRemoteStore Kind = "ssm"
)

// ParseKind converts a user supplied string to a Kind
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindEnvSecret, KindRemoteStore:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown parameter kind %q (expected %q or %q)", s, KindEnvSecret, KindRemoteStore)
	}
}

// Marker flags a configuration field as externally supplied.
// Path must be pure: the same inputs always give the same result.
type Marker interface {
	Kind() Kind
	Path(typeName, fieldName string) string
}

// EnvSecret marks a field read from an environment variable
type EnvSecret struct {
	// Name overrides the variable name when set
	Name string
}

// Kind implements Marker
func (EnvSecret) Kind() Kind { return KindEnvSecret }

// Path returns the variable name, "{typeName}__{fieldName}" unless overridden
func (m EnvSecret) Path(typeName, fieldName string) string {
	if m.Name != "" {
		return m.Name
	}
	return typeName + "__" + fieldName
}

// RemoteStore marks a field read from a remote parameter store
type RemoteStore struct {
	// Override replaces the path fragment when set
	Override string
}

// Kind implements Marker
func (RemoteStore) Kind() Kind { return KindRemoteStore }

// Path returns the path fragment, "{typeName}/{fieldName}" unless overridden
func (m RemoteStore) Path(typeName, fieldName string) string {
	if m.Override != "" {
		return m.Override
	}
	return typeName + "/" + fieldName
}

// NewMarker builds the marker for kind with an optional override
func NewMarker(kind Kind, override string) (Marker, error) {
	switch kind {
	case KindEnvSecret:
		return EnvSecret{Name: override}, nil
	case KindRemoteStore:
		return RemoteStore{Override: override}, nil
	default:
		return nil, fmt.Errorf("unknown parameter kind %q", kind)
	}
}
