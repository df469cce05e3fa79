package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/systmms/paramdocs/internal/audit"
	"github.com/systmms/paramdocs/internal/config"
	dserrors "github.com/systmms/paramdocs/internal/errors"
	"github.com/systmms/paramdocs/pkg/param"
)

// NewAuditCommand creates the audit command
func NewAuditCommand(cfg *config.Config) *cobra.Command {
	return newAuditCommand(cfg)
}

func newAuditCommand(cfg *config.Config, ssmOpts ...audit.SSMOption) *cobra.Command {
	var (
		sections []string
		region   string
		profile  string
	)

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Check that the documented parameters exist",
		Long: `Check that every discovered environment secret is set in the current
environment and that every remote parameter exists in AWS Systems Manager
Parameter Store. Only existence is checked; values are never read.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := loadWorkspace(cfg, sections)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			entry := cfg.Definition.Entry
			out := cmd.OutOrStdout()

			awsCfg := audit.SSMConfig{Region: cfg.Definition.AWS.Region, Profile: cfg.Definition.AWS.Profile}
			if region != "" {
				awsCfg.Region = region
			}
			if profile != "" {
				awsCfg.Profile = profile
			}

			var missing []string
			for _, spec := range ws.specs {
				prefix := ""
				if spec.Kind == param.KindRemoteStore {
					prefix = spec.Prefix
				}
				paths := ws.scanner.Discover(ctx, entry, spec.Kind, prefix, "")
				if len(paths) == 0 {
					cfg.Logger.Info("No %s parameters declared", spec.Kind)
					continue
				}

				checker, err := newChecker(ctx, spec.Kind, awsCfg, cfg, ssmOpts)
				if err != nil {
					return err
				}
				if err := checker.Validate(ctx); err != nil {
					return err
				}

				report, err := audit.Run(ctx, checker, paths)
				if err != nil {
					return err
				}
				ws.recorder.RecordMissing(string(spec.Kind), len(report.Missing))

				if report.OK() {
					cfg.Logger.Info("All %d %s parameter(s) present", report.Checked, spec.Kind)
					continue
				}
				_, _ = fmt.Fprintf(out, "Missing %s parameters (%d of %d):\n", spec.Kind, len(report.Missing), report.Checked)
				for _, p := range report.Missing {
					_, _ = fmt.Fprintf(out, "  ✗ %s\n", p)
				}
				missing = append(missing, report.Missing...)
			}
			ws.writeMetrics()

			if len(missing) > 0 {
				return dserrors.UserError{
					Message:    fmt.Sprintf("%d documented parameter(s) are missing", len(missing)),
					Details:    strings.Join(missing, ", "),
					Suggestion: "Set the missing environment variables or create the parameters in Parameter Store",
				}
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&sections, "section", nil, "Sections to audit (env, ssm)")
	cmd.Flags().StringVar(&region, "region", "", "AWS region (overrides aws.region)")
	cmd.Flags().StringVar(&profile, "profile", "", "AWS shared config profile (overrides aws.profile)")

	return cmd
}

func newChecker(ctx context.Context, kind param.Kind, awsCfg audit.SSMConfig, cfg *config.Config, ssmOpts []audit.SSMOption) (audit.Checker, error) {
	if kind == param.KindEnvSecret {
		return audit.NewEnvChecker(nil), nil
	}
	opts := append([]audit.SSMOption{audit.WithSSMLogger(cfg.Logger)}, ssmOpts...)
	return audit.NewSSMChecker(ctx, awsCfg, opts...)
}
