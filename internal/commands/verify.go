package commands

import (
	"github.com/spf13/cobra"

	"github.com/idelchi/govault/internal/config"
)

// NewVerifyCommand creates a new cobra command for the verify subcommand.
func NewVerifyCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "verify [flags] files...",
		Short: "Check that files decrypt with the password, without writing any output",
		Long: `Decrypts each file to nowhere and reports whether its padding checks out.
A wrong password and a corrupted file are reported the same way.`,
		Args: cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			cfg.Verify = true

			return preRun(cfg)(cmd, args)
		},
		RunE: run(cfg),
	}
}
