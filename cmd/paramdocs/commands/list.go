package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/systmms/paramdocs/internal/config"
	"github.com/systmms/paramdocs/pkg/param"
)

// listedParam is one discovered parameter and where it is declared
type listedParam struct {
	Section string `json:"section"`
	Path    string `json:"path"`
	Module  string `json:"module"`
	Type    string `json:"type"`
	Field   string `json:"field"`
}

// NewListCommand creates the list command
func NewListCommand(cfg *config.Config) *cobra.Command {
	var (
		sections   []string
		outputJSON bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the parameters declared by the entry module and its dependencies",
		Long: `List every parameter that 'paramdocs sync' would document, together with the
module, type and field that declares it. The document is not read.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := loadWorkspace(cfg, sections)
			if err != nil {
				return err
			}

			rows := ws.collect(cmd.Context())
			if outputJSON {
				return outputListJSON(cmd.OutOrStdout(), rows)
			}
			return outputListTable(cmd.OutOrStdout(), rows, cfg)
		},
	}

	cmd.Flags().StringSliceVar(&sections, "section", nil, "Sections to list (env, ssm)")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "Output in JSON format")

	return cmd
}

// collect gathers the parameters of every selected section. A path declared by
// several modules is listed once per declaration.
func (w *workspace) collect(ctx context.Context) []listedParam {
	suffix := w.scanner.Options().TypeSuffix
	modules := w.scanner.Modules(ctx, w.cfg.Definition.Entry)

	var rows []listedParam
	for _, spec := range w.specs {
		for _, m := range modules {
			for _, t := range m.Types {
				if !strings.HasSuffix(t.Name, suffix) {
					continue
				}
				for _, f := range t.Fields {
					marker, ok := f.Marker(spec.Kind)
					if !ok || marker.Path(t.Name, f.Name) == "" {
						continue
					}
					rows = append(rows, listedParam{
						Section: string(spec.Kind),
						Path:    spec.Prefix + marker.Path(t.Name, f.Name),
						Module:  m.Path,
						Type:    t.Name,
						Field:   f.Name,
					})
				}
			}
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Section != rows[j].Section {
			return rows[i].Section < rows[j].Section
		}
		return rows[i].Path < rows[j].Path
	})
	return rows
}

func outputListJSON(out io.Writer, rows []listedParam) error {
	if rows == nil {
		rows = []listedParam{}
	}
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(map[string]interface{}{
		"parameters": rows,
		"count":      len(rows),
	})
}

func outputListTable(out io.Writer, rows []listedParam, cfg *config.Config) error {
	if len(rows) == 0 {
		cfg.Logger.Info("No parameters declared by %s or its dependencies", cfg.Definition.Entry)
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "SECTION\tPARAMETER\tMODULE\tDECLARED BY\n")
	_, _ = fmt.Fprintf(w, "-------\t---------\t------\t-----------\n")

	counts := make(map[string]int)
	for _, r := range rows {
		counts[r.Section]++
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s.%s\n", r.Section, r.Path, r.Module, r.Type, r.Field)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "\n%d env, %d ssm parameter(s)\n",
		counts[string(param.KindEnvSecret)], counts[string(param.KindRemoteStore)])
	return nil
}
