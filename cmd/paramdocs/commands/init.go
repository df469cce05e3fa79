package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/systmms/paramdocs/internal/config"
)

const exampleConfig = `version: 0

# Document holding the fenced parameter sections
document: README.md

# Module whose dependencies are scanned. Defaults to the module in go.mod.
# entry: github.com/acme/mail

# Only modules under this prefix are inspected
# modulePrefix: github.com/acme/

# Configuration types are recognised by this name suffix
typeSuffix: Config

# Hops followed past the entry's direct dependencies
maxDepth: 1

# Directory searched for go.mod files and params.yaml manifests
manifestRoot: .

sections:
  env:
    enabled: true
  ssm:
    enabled: true
    # Defaults to the entry module path without its host, e.g. /acme/mail/
    # prefix: /acme/mail/

lock:
  attempts: 100
  delayMs: 100

# metrics:
#   textfile: paramdocs.prom

# aws:
#   region: us-east-1
#   profile: default
`

// NewInitCommand creates the init command
func NewInitCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create an example paramdocs.yaml",
		Long: `Create an example paramdocs.yaml configuration file.

Then add the sections to your README:

  ` + "```" + `secretsEnvVariables
  ` + "```" + `

  ` + "```" + `awsParams
  ` + "```" + `

and run 'paramdocs sync'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(cfg.Path); err == nil {
				return fmt.Errorf("config file %s already exists", cfg.Path)
			}

			if err := os.WriteFile(cfg.Path, []byte(exampleConfig), 0o644); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}

			cfg.Logger.Info("Created %s", cfg.Path)
			cfg.Logger.Info("Next steps:")
			cfg.Logger.Info("  1. Add empty secretsEnvVariables and awsParams blocks to your README")
			cfg.Logger.Info("  2. Run 'paramdocs list' to preview the discovered parameters")
			cfg.Logger.Info("  3. Run 'paramdocs sync' to fill the sections in")
			return nil
		},
	}

	return cmd
}
