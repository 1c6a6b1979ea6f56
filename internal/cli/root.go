// Package cli provides the command-line interface for squint.
package cli

import (
	"github.com/leapstack-labs/squint/internal/cli/commands"
	"github.com/leapstack-labs/squint/internal/cli/config"
	"github.com/spf13/cobra"
)

var cfgFile string

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "squint",
		Short: "squint - static analyzer for SQLite SQL",
		Long: `squint parses and type-checks SQLite-flavored SQL against a schema.

It resolves every column and table reference, infers the type and
nullability of each result column, and reports the first fault with its
source position.`,
		Version:       commands.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			logger := config.NewLogger(cfg.Verbose)
			cmd.SetContext(config.WithLogger(cmd.Context(), logger))

			if cfg.Verbose {
				if used := config.GetConfigFileUsed(); used != "" {
					logger.Debug("using config file", "path", used)
				}
			}
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Config file (default squint.yaml)")
	flags.String("schema", "", "SQLite database to introspect the schema from")
	flags.String("output", "text", "Output format: text, json")
	flags.Bool("verbose", false, "Enable debug logging")

	rootCmd.AddCommand(
		commands.NewCheckCommand(),
		commands.NewTablesCommand(),
		commands.NewVersionCommand(),
	)

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
