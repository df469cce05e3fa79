package commands

import (
	"fmt"
	"strings"

	"github.com/systmms/paramdocs/internal/config"
	"github.com/systmms/paramdocs/internal/discovery"
	"github.com/systmms/paramdocs/internal/docfile"
	dserrors "github.com/systmms/paramdocs/internal/errors"
	"github.com/systmms/paramdocs/internal/manifest"
	"github.com/systmms/paramdocs/internal/metrics"
	"github.com/systmms/paramdocs/internal/section"
	"github.com/systmms/paramdocs/pkg/param"
)

// workspace bundles what every documentation command needs
type workspace struct {
	cfg      *config.Config
	scanner  *discovery.Scanner
	recorder *metrics.Recorder
	specs    []section.Spec
}

// loadWorkspace loads the configuration and prepares discovery for the requested
// sections. An empty filter selects every enabled section.
func loadWorkspace(cfg *config.Config, filter []string) (*workspace, error) {
	if err := cfg.Load(); err != nil {
		return nil, err
	}
	def := cfg.Definition

	loader := manifest.NewLoader(cfg.ManifestRootPath(), cfg.Logger)
	source := discovery.Chain(loader, param.DefaultRegistry)
	scanner := discovery.New(source, cfg.Logger, discovery.Options{
		ModulePrefix: def.ModulePrefix,
		TypeSuffix:   def.TypeSuffix,
		MaxDepth:     *def.MaxDepth,
	})

	specs, err := selectSpecs(cfg, filter)
	if err != nil {
		return nil, err
	}

	return &workspace{
		cfg:      cfg,
		scanner:  scanner,
		recorder: metrics.New(),
		specs:    specs,
	}, nil
}

func selectSpecs(cfg *config.Config, filter []string) ([]section.Spec, error) {
	wanted := make(map[param.Kind]bool)
	for _, name := range filter {
		kind, err := param.ParseKind(strings.TrimSpace(name))
		if err != nil {
			return nil, dserrors.UserError{
				Message:    fmt.Sprintf("Unknown section %q", name),
				Suggestion: "Use --section env or --section ssm",
				Err:        err,
			}
		}
		wanted[kind] = true
	}

	var specs []section.Spec
	add := func(kind param.Kind, enabled bool) {
		if len(wanted) > 0 && !wanted[kind] {
			return
		}
		if !enabled {
			if wanted[kind] {
				cfg.Logger.Warn("The %s section is disabled in %s", kind, cfg.Path)
			}
			return
		}
		spec, _ := section.ForKind(kind, remotePrefix(cfg))
		specs = append(specs, spec)
	}
	add(param.KindEnvSecret, cfg.EnvEnabled())
	add(param.KindRemoteStore, cfg.SSMEnabled())

	if len(specs) == 0 {
		return nil, dserrors.UserError{
			Message:    "No section selected",
			Suggestion: "Enable a section under 'sections:' in " + cfg.Path,
		}
	}
	return specs, nil
}

// remotePrefix is the configured prefix or the one derived from the entry module
func remotePrefix(cfg *config.Config) string {
	if p := cfg.Definition.Sections.SSM.Prefix; p != "" {
		return p
	}
	return section.DefaultRemotePrefix(cfg.Definition.Entry)
}

// newEditor opens the configured document with the configured lock retry policy
func (w *workspace) newEditor() *docfile.Editor {
	return docfile.New(w.cfg.DocumentPath(),
		docfile.WithRetry(w.cfg.Definition.Lock.Attempts, w.cfg.LockDelay()),
		docfile.WithLogger(w.cfg.Logger),
		docfile.WithObserver(func(int) { w.recorder.RecordLockRetry() }),
	)
}

// writeMetrics exports the recorder when a textfile is configured
func (w *workspace) writeMetrics() {
	path := w.cfg.MetricsTextfile()
	if path == "" {
		return
	}
	if err := w.recorder.WriteTextfile(path); err != nil {
		w.cfg.Logger.Warn("Failed to write metrics to %s: %v", path, err)
		return
	}
	w.cfg.Logger.Debug("Wrote metrics to %s", path)
}
