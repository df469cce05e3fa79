// Package audit checks that documented parameters exist where they are read from.
// Only existence is checked; values are never fetched.
package audit

import (
	"context"
	"fmt"
	"sort"

	"github.com/systmms/paramdocs/pkg/param"
)

// Checker reports which paths exist in one parameter source
type Checker interface {
	Kind() param.Kind
	// Validate verifies that the source is reachable with the current credentials
	Validate(ctx context.Context) error
	// Exists returns the subset of paths present in the source
	Exists(ctx context.Context, paths []string) (map[string]bool, error)
}

// Report is the outcome of one audit
type Report struct {
	Kind    param.Kind
	Checked int
	Missing []string
}

// OK reports whether every audited parameter was found
func (r Report) OK() bool {
	return len(r.Missing) == 0
}

// Run checks every path with checker and lists the ones that are absent, sorted
func Run(ctx context.Context, checker Checker, paths []string) (Report, error) {
	report := Report{Kind: checker.Kind(), Checked: len(paths)}
	if len(paths) == 0 {
		return report, nil
	}

	found, err := checker.Exists(ctx, paths)
	if err != nil {
		return report, fmt.Errorf("failed to audit %s parameters: %w", checker.Kind(), err)
	}
	for _, p := range paths {
		if !found[p] {
			report.Missing = append(report.Missing, p)
		}
	}
	sort.Strings(report.Missing)
	return report, nil
}
