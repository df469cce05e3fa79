package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/systmms/paramdocs/internal/config"
	"github.com/systmms/paramdocs/internal/docsync"
	dserrors "github.com/systmms/paramdocs/internal/errors"
	"github.com/systmms/paramdocs/internal/section"
)

// NewCheckCommand creates the check command
func NewCheckCommand(cfg *config.Config) *cobra.Command {
	var sections []string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify that the document is up to date without changing it",
		Long: `Compare the fenced sections of the document with what 'paramdocs sync' would
write and print the differences. Exits non-zero when a section is stale or missing,
which makes it suitable for CI.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := loadWorkspace(cfg, sections)
			if err != nil {
				return err
			}

			document := filepath.Base(cfg.DocumentPath())
			editor := ws.newEditor()
			checker := docsync.New(ws.scanner, editor, cfg.Definition.Entry, cfg.Logger, nil,
				docsync.WithDocumentName(document),
			)
			defer func() {
				if err := editor.Close(); err != nil {
					cfg.Logger.Warn("Failed to release %s: %v", editor.Path(), err)
				}
			}()

			out := cmd.OutOrStdout()
			stale := 0
			for _, spec := range ws.specs {
				res, err := checker.Check(cmd.Context(), spec)
				if err != nil {
					return fmt.Errorf("failed to check the %s section: %w", spec.Tag, err)
				}

				switch {
				case res.Missing:
					stale++
					cfg.Logger.Warn("%s has no %s section", document, spec.Tag)
					if err := section.Render(out, spec, res.Expected, document); err != nil {
						return err
					}
				case res.Stale:
					stale++
					cfg.Logger.Warn("The %s section of %s is out of date", spec.Tag, document)
					_, _ = fmt.Fprint(out, res.Diff)
				case len(res.Expected) == 0:
					cfg.Logger.Info("No %s parameters declared", spec.Kind)
				default:
					cfg.Logger.Info("The %s section of %s is up to date", spec.Tag, document)
				}
			}

			if stale > 0 {
				return dserrors.UserError{
					Message:    fmt.Sprintf("%d section(s) of %s need updating", stale, document),
					Suggestion: "Run 'paramdocs sync' and commit the result",
				}
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&sections, "section", nil, "Sections to check (env, ssm)")

	return cmd
}
