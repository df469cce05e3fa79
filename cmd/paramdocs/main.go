package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/systmms/paramdocs/cmd/paramdocs/commands"
	"github.com/systmms/paramdocs/internal/config"
	dserrors "github.com/systmms/paramdocs/internal/errors"
	"github.com/systmms/paramdocs/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", dserrors.SimplifyError(err))
		os.Exit(1)
	}
}

func run() error {
	cfg := &config.Config{}

	// Flags can also be set through PARAMDOCS_CONFIG, PARAMDOCS_DEBUG and PARAMDOCS_NO_COLOR
	v := viper.New()
	v.SetEnvPrefix("PARAMDOCS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:   "paramdocs",
		Short: "Keep README parameter sections in sync with your configuration types",
		Long: `paramdocs discovers the secrets and remote parameters your Go modules declare
on their configuration types and keeps the matching fenced sections of your
README up to date.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg.Logger = logging.New(v.GetBool("debug"), v.GetBool("no-color"))
			cfg.Path = v.GetString("config")
			if cfg.Path == "" {
				cfg.Path = defaultConfigPath()
			}
			cfg.Logger.Debug("Using configuration %s", cfg.Path)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Config file path (default: paramdocs.yaml in the repository root)")
	flags.Bool("no-color", false, "Disable colored output")
	flags.Bool("debug", false, "Enable debug logging")
	for _, name := range []string{"config", "no-color", "debug"} {
		if err := v.BindPFlag(name, flags.Lookup(name)); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}

	rootCmd.AddCommand(
		commands.NewInitCommand(cfg),
		commands.NewListCommand(cfg),
		commands.NewSyncCommand(cfg),
		commands.NewCheckCommand(cfg),
		commands.NewAuditCommand(cfg),
		commands.NewCompletionCommand(cfg),
	)

	return rootCmd.Execute()
}

// defaultConfigPath prefers the repository root and falls back to the working directory
func defaultConfigPath() string {
	root, err := config.FindRepositoryRoot(".")
	if err != nil {
		return config.DefaultPath
	}
	return filepath.Join(root, config.DefaultPath)
}
