package commands

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/idelchi/govault/internal/config"
)

// envPrefix prefixes every environment variable bound to a flag.
const envPrefix = "GOVAULT"

// NewRootCommand creates the root command with common configuration.
// It sets up environment variable binding and flag handling.
func NewRootCommand(cfg *config.Config, version string) *cobra.Command {
	vip := viper.New()

	root := &cobra.Command{
		Use:   "govault [flags] command [flags]",
		Short: "Password-based file encryption utility",
		Long: `A file encryption utility deriving an AES-256 key from a password.
Provides commands for encryption, decryption and password verification.

Every flag can also be set through the environment, e.g. GOVAULT_PASSWORD.`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return bind(vip, cmd, cfg)
		},
	}

	flags := root.PersistentFlags()

	flags.IntP("parallel", "j", runtime.NumCPU(), "Number of parallel workers, defaults to number of CPUs")
	flags.BoolP("quiet", "q", false, "Suppress non-error output")
	flags.BoolP("delete", "d", false, "Delete the original file after successful encryption/decryption")
	flags.Bool("preserve-timestamps", false, "Copy the modification time of each input to its output")
	flags.Bool("dry", false, "Show what would be done without touching any file")
	flags.Bool("stats", false, "Print processing statistics to stderr")
	flags.Bool("verbose", false, "Emit debug logs to stderr")

	flags.StringP("password", "p", "", "Password (prompted for when neither this nor --password-file is set)")
	flags.StringP("password-file", "f", "", "Path to a file holding the password")

	flags.String("encrypt-ext", ".enc", "Suffix to append to encrypted files")
	flags.String("decrypt-ext", "", "Suffix to append to decrypted files, after stripping the encrypted suffix")

	root.AddCommand(NewEncryptCommand(cfg), NewDecryptCommand(cfg), NewVerifyCommand(cfg))

	return root
}

// bind loads flags and environment variables into cfg.
func bind(vip *viper.Viper, cmd *cobra.Command, cfg *config.Config) error {
	vip.SetEnvPrefix(envPrefix)
	vip.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	vip.AutomaticEnv()

	if err := vip.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}

	if err := vip.Unmarshal(cfg); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}

	return nil
}
