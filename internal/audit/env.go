package audit

import (
	"context"
	"os"

	"github.com/systmms/paramdocs/pkg/param"
)

// EnvChecker looks variables up in the process environment
type EnvChecker struct {
	lookup func(string) (string, bool)
}

// NewEnvChecker creates a checker over lookup, os.LookupEnv when nil
func NewEnvChecker(lookup func(string) (string, bool)) *EnvChecker {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return &EnvChecker{lookup: lookup}
}

// Kind implements Checker
func (c *EnvChecker) Kind() param.Kind {
	return param.KindEnvSecret
}

// Validate implements Checker
func (c *EnvChecker) Validate(context.Context) error {
	return nil
}

// Exists implements Checker. A variable set to the empty string counts as present.
func (c *EnvChecker) Exists(_ context.Context, names []string) (map[string]bool, error) {
	found := make(map[string]bool, len(names))
	for _, name := range names {
		if _, ok := c.lookup(name); ok {
			found[name] = true
		}
	}
	return found, nil
}
