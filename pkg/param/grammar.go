package param

import (
	"fmt"
	"regexp"
)

// Character classes of the paths a section can list. Documents are matched with
// the same classes, so a path outside them could be written once and never found again.
const (
	EnvNameClass    = `\w+`
	RemotePathClass = `[\w/\-]+`
)

var (
	envNameRe    = regexp.MustCompile(`^` + EnvNameClass + `$`)
	remotePathRe = regexp.MustCompile(`^` + RemotePathClass + `$`)
)

// ValidatePath checks that path can be listed in a section of kind
func ValidatePath(kind Kind, path string) error {
	switch kind {
	case KindEnvSecret:
		if !envNameRe.MatchString(path) {
			return fmt.Errorf("invalid environment variable name %q: only letters, digits and _ are allowed", path)
		}
	case KindRemoteStore:
		if !remotePathRe.MatchString(path) {
			return fmt.Errorf("invalid remote parameter path %q: only letters, digits and _/- are allowed", path)
		}
	default:
		return fmt.Errorf("unknown parameter kind %q", kind)
	}
	return nil
}

// ValidateRemotePrefix checks a prefix prepended to remote paths. Empty is allowed.
func ValidateRemotePrefix(prefix string) error {
	if prefix == "" || remotePathRe.MatchString(prefix) {
		return nil
	}
	return fmt.Errorf("invalid remote parameter prefix %q: only letters, digits and _/- are allowed", prefix)
}

// Validate checks every marked path of t
func (t ConfigType) Validate() error {
	for _, f := range t.Fields {
		for _, m := range f.Markers {
			if err := ValidatePath(m.Kind(), m.Path(t.Name, f.Name)); err != nil {
				return fmt.Errorf("%s.%s: %w", t.Name, f.Name, err)
			}
		}
	}
	return nil
}
