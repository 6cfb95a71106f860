// Package logic implements the core business logic for the encryption/decryption.
package logic

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/idelchi/govault/internal/config"
	"github.com/idelchi/govault/internal/encryption"
	"github.com/idelchi/govault/internal/passphrase"
)

// Env is the outside world Run talks to.
type Env struct {
	Stdout io.Writer
	Stderr io.Writer

	// Prompt reads a password interactively when none is configured.
	Prompt passphrase.Reader
}

// DefaultEnv wires Run to the process's standard streams and terminal.
func DefaultEnv() Env {
	return Env{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Prompt: passphrase.FromTerminal(),
	}
}

// Run is the main logic of the application.
func Run(cfg *config.Config, env Env) error {
	start := time.Now()

	logger := NewLogger(env.Stderr, cfg.Verbose)

	if cfg.Dry {
		return dryRun(cfg, env, start)
	}

	password, source, err := resolvePassword(cfg, env.Prompt)
	if err != nil {
		return fmt.Errorf("resolving password: %w", err)
	}

	logger.Debug("resolved password", "source", source, "files", len(cfg.Files), "parallel", cfg.Parallel)

	proc, err := encryption.NewProcessor(cfg, password,
		encryption.WithLogger(logger),
		encryption.WithOutput(env.Stdout, env.Stderr),
	)
	if err != nil {
		return fmt.Errorf("creating processor: %w", err)
	}

	processed, errored, totalSize, err := proc.ProcessFiles()

	if cfg.Stats {
		printStats(env.Stderr, len(cfg.Files), processed, errored, totalSize, time.Since(start))
	}

	if err != nil {
		return fmt.Errorf("running logic: %w", err)
	}

	return nil
}

// NewLogger returns a text logger on w, at debug level when verbose.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// resolvePassword picks the password from the flag/env value, the password file,
// or an interactive prompt, in that order. Encryption prompts twice.
func resolvePassword(cfg *config.Config, prompt passphrase.Reader) (password, source string, err error) {
	switch {
	case cfg.Password.String != "":
		return cfg.Password.String, "flag", nil
	case cfg.Password.File != "":
		password, err = passphrase.FromFile(cfg.Password.File)

		return password, "file", err
	case prompt == nil:
		return "", "", passphrase.ErrEmpty
	case cfg.Decrypt || cfg.Verify:
		password, err = passphrase.Prompt(prompt, "Enter password: ")

		return password, "prompt", err
	default:
		password, err = passphrase.PromptConfirm(prompt, "Enter password: ", "Confirm password: ")

		return password, "prompt", err
	}
}

// dryRun previews what would be processed without actually encrypting/decrypting.
// Sizes are predicted output sizes; for decryption that is an upper bound.
func dryRun(cfg *config.Config, env Env, start time.Time) error {
	var totalSize int64

	for _, file := range cfg.Files {
		size := int64(0)

		if info, err := os.Stat(file); err == nil {
			switch {
			case cfg.Verify:
			case cfg.Decrypt:
				size = encryption.MaxPlaintextSize(info.Size())
			default:
				size = encryption.EncryptedSize(info.Size())
			}
		}

		totalSize += size

		if cfg.Quiet {
			continue
		}

		if cfg.Verify {
			fmt.Fprintf(env.Stdout, "Would verify %q\n", file)
		} else {
			fmt.Fprintf(env.Stdout, "Processed %q -> %q\n", file, encryption.OutputPath(file, cfg))
		}
	}

	if cfg.Stats {
		printStats(env.Stderr, len(cfg.Files), len(cfg.Files), 0, totalSize, time.Since(start))
	}

	return nil
}

func printStats(w io.Writer, scanned, processed, errored int, totalSize int64, duration time.Duration) {
	fmt.Fprintf(w, "\nStats\n")
	fmt.Fprintf(w, "  Scanned:   %d\n", scanned)
	fmt.Fprintf(w, "  Processed: %d\n", processed)
	fmt.Fprintf(w, "  Errors:    %d\n", errored)
	//nolint:gosec // totalSize is always non-negative (sum of file sizes)
	fmt.Fprintf(w, "  Size:      %s\n", humanize.IBytes(uint64(max(0, totalSize))))
	fmt.Fprintf(w, "  Duration:  %s\n", duration.Round(time.Millisecond))
}
