// Package commands provides the command-line interface for the govault tool.
//
// It implements commands for:
//   - encryption
//   - decryption
//   - verification
//
// The package handles command-line parsing, configuration validation,
// and environment variable binding through cobra and viper.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/idelchi/govault/internal/config"
	"github.com/idelchi/govault/internal/logic"
)

// preRun returns a PreRunE handler that stores positional args into cfg.Files
// and validates the configuration.
func preRun(cfg *config.Config) func(*cobra.Command, []string) error {
	return func(_ *cobra.Command, args []string) error {
		cfg.Files = args

		return cfg.Validate()
	}
}

// run returns a RunE handler executing the logic against the command's streams.
func run(cfg *config.Config) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		env := logic.DefaultEnv()
		env.Stdout = cmd.OutOrStdout()
		env.Stderr = cmd.ErrOrStderr()

		return logic.Run(cfg, env)
	}
}
