package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/mod/modfile"
	"gopkg.in/yaml.v3"

	dserrors "github.com/systmms/paramdocs/internal/errors"
	"github.com/systmms/paramdocs/internal/logging"
	"github.com/systmms/paramdocs/pkg/param"
)

const (
	// DefaultPath is the configuration file looked up in the repository root
	DefaultPath = "paramdocs.yaml"

	defaultDocument   = "README.md"
	defaultTypeSuffix = "Config"
	defaultMaxDepth   = 1
	defaultAttempts   = 100
	defaultDelayMs    = 100
)

// Config holds the runtime configuration
type Config struct {
	Path       string
	Logger     *logging.Logger
	Definition *Definition
}

// Definition represents the paramdocs.yaml structure
type Definition struct {
	Version      int           `yaml:"version"`
	Document     string        `yaml:"document,omitempty"`
	Entry        string        `yaml:"entry,omitempty"`
	ModulePrefix string        `yaml:"modulePrefix,omitempty"`
	TypeSuffix   string        `yaml:"typeSuffix,omitempty"`
	MaxDepth     *int          `yaml:"maxDepth,omitempty"`
	ManifestRoot string        `yaml:"manifestRoot,omitempty"`
	Sections     Sections      `yaml:"sections,omitempty"`
	Lock         LockConfig    `yaml:"lock,omitempty"`
	Metrics      MetricsConfig `yaml:"metrics,omitempty"`
	AWS          AWSConfig     `yaml:"aws,omitempty"`
}

// Sections toggles the documented sections
type Sections struct {
	Env EnvSection `yaml:"env,omitempty"`
	SSM SSMSection `yaml:"ssm,omitempty"`
}

// EnvSection configures the environment secrets block
type EnvSection struct {
	Enabled *bool `yaml:"enabled,omitempty"`
}

// SSMSection configures the remote store block
type SSMSection struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Prefix  string `yaml:"prefix,omitempty"`
}

// LockConfig tunes the exclusive lease on the document
type LockConfig struct {
	Attempts int `yaml:"attempts,omitempty"`
	DelayMs  int `yaml:"delayMs,omitempty"`
}

// MetricsConfig configures the prometheus textfile export
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// AWSConfig selects the account used by audit
type AWSConfig struct {
	Region  string `yaml:"region,omitempty"`
	Profile string `yaml:"profile,omitempty"`
}

// Load reads, validates and completes the paramdocs.yaml file
func (c *Config) Load() error {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return dserrors.ConfigError{
				Field:      "path",
				Value:      c.Path,
				Message:    "configuration file not found",
				Suggestion: "Run 'paramdocs init' to create a new configuration file",
			}
		}
		return dserrors.UserError{
			Message:    "Failed to read configuration file",
			Details:    err.Error(),
			Suggestion: "Check file permissions and path",
			Err:        err,
		}
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return dserrors.ConfigError{
			Message:    "invalid YAML syntax in configuration file",
			Suggestion: "Check for indentation errors, missing quotes, or invalid characters. Use a YAML validator",
		}
	}

	if err := def.validate(); err != nil {
		return err
	}

	c.Definition = &def
	return c.applyDefaults()
}

func (d *Definition) validate() error {
	if d.Version != 0 {
		return dserrors.ConfigError{
			Field:      "version",
			Value:      d.Version,
			Message:    "unsupported configuration version",
			Suggestion: "Set 'version: 0' at the top of your paramdocs.yaml file",
		}
	}
	if d.MaxDepth != nil && *d.MaxDepth < 0 {
		return dserrors.ConfigError{
			Field:      "maxDepth",
			Value:      *d.MaxDepth,
			Message:    "must not be negative",
			Suggestion: "Use 0 to scan only the direct dependencies of the entry module",
		}
	}
	if d.Lock.Attempts < 0 {
		return dserrors.ConfigError{
			Field:   "lock.attempts",
			Value:   d.Lock.Attempts,
			Message: "must not be negative",
		}
	}
	if d.Lock.DelayMs < 0 {
		return dserrors.ConfigError{
			Field:   "lock.delayMs",
			Value:   d.Lock.DelayMs,
			Message: "must not be negative",
		}
	}
	if err := param.ValidateRemotePrefix(d.Sections.SSM.Prefix); err != nil {
		return dserrors.ConfigError{
			Field:      "sections.ssm.prefix",
			Value:      d.Sections.SSM.Prefix,
			Message:    err.Error(),
			Suggestion: "Use slashes instead of dots, e.g. /acme/go/utils/",
		}
	}
	if !enabled(d.Sections.Env.Enabled) && !enabled(d.Sections.SSM.Enabled) {
		return dserrors.ConfigError{
			Field:      "sections",
			Message:    "every section is disabled",
			Suggestion: "Enable at least one of 'sections.env' or 'sections.ssm'",
		}
	}
	return nil
}

func (c *Config) applyDefaults() error {
	d := c.Definition
	if d.Document == "" {
		d.Document = defaultDocument
	}
	if d.TypeSuffix == "" {
		d.TypeSuffix = defaultTypeSuffix
	}
	if d.MaxDepth == nil {
		depth := defaultMaxDepth
		d.MaxDepth = &depth
	}
	if d.ManifestRoot == "" {
		d.ManifestRoot = "."
	}
	if d.Lock.Attempts == 0 {
		d.Lock.Attempts = defaultAttempts
	}
	if d.Lock.DelayMs == 0 {
		d.Lock.DelayMs = defaultDelayMs
	}

	if d.Entry == "" {
		gomod := filepath.Join(c.ManifestRootPath(), "go.mod")
		data, err := os.ReadFile(gomod)
		if err == nil {
			d.Entry = modfile.ModulePath(data)
		}
		if d.Entry == "" {
			return dserrors.ConfigError{
				Field:      "entry",
				Message:    fmt.Sprintf("no entry module configured and none found in %s", gomod),
				Suggestion: "Set 'entry:' to the module path whose dependencies should be documented",
			}
		}
		c.Logger.Debug("Using entry module %s from %s", d.Entry, gomod)
	}
	return nil
}

// ResolvePath interprets p relative to the directory of the configuration file
func (c *Config) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(filepath.Dir(c.Path), p)
}

// DocumentPath returns the absolute location of the synchronised document
func (c *Config) DocumentPath() string {
	return c.ResolvePath(c.Definition.Document)
}

// ManifestRootPath returns the directory scanned for modules
func (c *Config) ManifestRootPath() string {
	return c.ResolvePath(c.Definition.ManifestRoot)
}

// MetricsTextfile returns where metrics are exported, or "" when disabled
func (c *Config) MetricsTextfile() string {
	return c.ResolvePath(c.Definition.Metrics.Textfile)
}

// EnvEnabled reports whether the environment secrets block is maintained
func (c *Config) EnvEnabled() bool {
	return enabled(c.Definition.Sections.Env.Enabled)
}

// SSMEnabled reports whether the remote store block is maintained
func (c *Config) SSMEnabled() bool {
	return enabled(c.Definition.Sections.SSM.Enabled)
}

// LockDelay returns the wait between lock attempts
func (c *Config) LockDelay() time.Duration {
	return time.Duration(c.Definition.Lock.DelayMs) * time.Millisecond
}

func enabled(b *bool) bool {
	return b == nil || *b
}

// FindRepositoryRoot walks up from start until it finds a directory holding .git
func FindRepositoryRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", dserrors.UserError{
				Message:    fmt.Sprintf("no repository found above %s", start),
				Suggestion: "Run paramdocs inside a git checkout or pass --config explicitly",
			}
		}
		dir = parent
	}
}
