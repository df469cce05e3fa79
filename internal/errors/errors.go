package errors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSectionNotFound is returned when the document has no fenced block for a section
	ErrSectionNotFound = errors.New("section not found in document")

	// ErrModuleNotFound is returned by module sources that do not know a module
	ErrModuleNotFound = errors.New("module not found")
)

// UserError represents an error that should be shown to the user with helpful context
type UserError struct {
	Message    string
	Suggestion string
	Details    string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error with helpful context
type ConfigError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
}

func (e ConfigError) Error() string {
	msg := "Configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// ModuleLoadError describes a module that could not be loaded during discovery
type ModuleLoadError struct {
	Module string
	Err    error
}

func (e ModuleLoadError) Error() string {
	return fmt.Sprintf("failed to load module %s: %v", e.Module, e.Err)
}

func (e ModuleLoadError) Unwrap() error {
	return e.Err
}

// SimplifyError simplifies complex error messages for users
func SimplifyError(err error) error {
	if err == nil {
		return nil
	}

	var userErr UserError
	if errors.As(err, &userErr) {
		return err
	}
	var cfgErr ConfigError
	if errors.As(err, &cfgErr) {
		return err
	}

	if errors.Is(err, ErrSectionNotFound) {
		return UserError{
			Message:    "The document has no section to update",
			Suggestion: "Add an empty fenced block tagged secretsEnvVariables or awsParams to the document",
			Err:        err,
		}
	}

	errStr := err.Error()

	if strings.Contains(errStr, "could not lock") {
		return UserError{
			Message:    "The document is locked by another process",
			Details:    errStr,
			Suggestion: "Wait for the other paramdocs run to finish or raise lock.attempts in paramdocs.yaml",
			Err:        err,
		}
	}

	if strings.Contains(errStr, "yaml:") {
		return ConfigError{
			Message:    "Invalid YAML format",
			Suggestion: "Check for indentation errors and missing quotes",
		}
	}

	if strings.Contains(errStr, "permission denied") {
		return UserError{
			Message:    "Permission denied",
			Suggestion: "Check file permissions or run with appropriate privileges",
			Err:        err,
		}
	}

	if strings.Contains(errStr, "no such file or directory") {
		return UserError{
			Message:    "File or directory not found",
			Suggestion: "Verify the path exists and is spelled correctly",
			Err:        err,
		}
	}

	return err
}
