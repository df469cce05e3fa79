package testutil

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

// AssertFileContents verifies that a file exists and holds exactly expected
func AssertFileContents(t *testing.T, path string, expected string) {
	t.Helper()

	data, err := os.ReadFile(path)
	if !assert.NoError(t, err, "Failed to read file %s", path) {
		return
	}
	assert.Equal(t, expected, string(data), "File contents mismatch for %s", path)
}

// AssertFileContainsAll verifies that a file contains all specified substrings
func AssertFileContainsAll(t *testing.T, path string, substrings []string) {
	t.Helper()

	data, err := os.ReadFile(path)
	if !assert.NoError(t, err, "Failed to read file %s", path) {
		return
	}
	for _, s := range substrings {
		assert.Contains(t, string(data), s, "File %s should contain %q", path, s)
	}
}
