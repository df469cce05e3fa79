package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/systmms/paramdocs/internal/config"
	"github.com/systmms/paramdocs/internal/docsync"
	dserrors "github.com/systmms/paramdocs/internal/errors"
)

// NewSyncCommand creates the sync command
func NewSyncCommand(cfg *config.Config) *cobra.Command {
	var sections []string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Update the parameter sections of the document",
		Long: `Discover the parameters declared by the entry module and its dependencies and
merge them into the fenced sections of the document. Existing entries are kept.

When the document has no section for a kind of parameter, the section to add is
printed and the command fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := loadWorkspace(cfg, sections)
			if err != nil {
				return err
			}

			editor := ws.newEditor()
			syncer := docsync.New(ws.scanner, editor, cfg.Definition.Entry, cfg.Logger, cmd.OutOrStdout(),
				docsync.WithMetrics(ws.recorder),
				docsync.WithDocumentName(filepath.Base(cfg.DocumentPath())),
			)

			results := syncer.SyncAll(cmd.Context(), ws.specs...)
			if err := editor.Close(); err != nil {
				cfg.Logger.Warn("Failed to release %s: %v", editor.Path(), err)
			}
			ws.writeMetrics()

			var failed []string
			for _, spec := range ws.specs {
				if !results[spec.Kind] {
					failed = append(failed, spec.Tag)
				}
			}
			if len(failed) > 0 {
				return dserrors.UserError{
					Message:    fmt.Sprintf("Could not synchronise %s in %s", strings.Join(failed, ", "), cfg.Definition.Document),
					Suggestion: "Add the sections printed above to the document, or rerun with --debug for details",
				}
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&sections, "section", nil, "Sections to synchronise (env, ssm)")

	return cmd
}
