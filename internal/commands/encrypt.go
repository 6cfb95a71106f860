package commands

import (
	"github.com/spf13/cobra"

	"github.com/idelchi/govault/internal/config"
)

// NewEncryptCommand creates a new cobra command for the encrypt subcommand.
func NewEncryptCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:     "encrypt [flags] files...",
		Aliases: []string{"enc"},
		Short:   "Encrypt files",
		Args:    cobra.MinimumNArgs(1),
		PreRunE: preRun(cfg),
		RunE:    run(cfg),
	}
}
