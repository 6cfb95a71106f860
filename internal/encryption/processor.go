package encryption

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/idelchi/govault/internal/config"
	"github.com/idelchi/govault/internal/fileutil"
)

// Result represents the outcome of processing a single file.
type Result struct {
	Input  string
	Output string

	// OutputSize is zero for verified files
	OutputSize int64

	Error error
}

// Processor handles the encryption, decryption and verification of many files.
type Processor struct {
	// cfg contains runtime configuration options
	cfg *config.Config

	// cipher performs the per-file transform
	cipher *FileCipher

	// password is shared by every file of the run
	password string

	// limit bounds the number of files processed at once
	limit int

	// logger receives diagnostic events
	logger *slog.Logger

	// stdout receives progress lines, stderr receives per-file errors
	stdout, stderr io.Writer

	// results channels processing outcomes to the printer goroutine
	results chan Result
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithCipher replaces the FileCipher used for every file.
func WithCipher(c *FileCipher) ProcessorOption {
	return func(p *Processor) {
		if c != nil {
			p.cipher = c
		}
	}
}

// WithLogger sets the logger for diagnostic events.
func WithLogger(l *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithOutput redirects progress and error lines.
func WithOutput(stdout, stderr io.Writer) ProcessorOption {
	return func(p *Processor) {
		if stdout != nil {
			p.stdout = stdout
		}

		if stderr != nil {
			p.stderr = stderr
		}
	}
}

// NewProcessor creates a new Processor with the given configuration and password.
// A Parallel value below 1 falls back to the number of CPUs.
func NewProcessor(cfg *config.Config, password string, opts ...ProcessorOption) (*Processor, error) {
	if password == "" {
		return nil, errors.New("password cannot be empty")
	}

	processor := &Processor{
		cfg:      cfg,
		cipher:   defaultCipher,
		password: password,
		limit:    cfg.Parallel,
		logger:   slog.New(slog.DiscardHandler),
		stdout:   os.Stdout,
		stderr:   os.Stderr,
		results:  make(chan Result, len(cfg.Files)),
	}

	if processor.limit < 1 {
		processor.limit = runtime.NumCPU()
	}

	for _, opt := range opts {
		opt(processor)
	}

	return processor, nil
}

// ProcessFiles concurrently processes all files specified in the configuration.
// Returns the number of successfully processed files, the number of errors,
// and the total size of the written outputs.
//
//nolint:cyclop,gocognit
func (p *Processor) ProcessFiles() (processed, errored int, totalSize int64, err error) {
	group := errgroup.Group{}
	group.SetLimit(p.limit)

	done := make(chan struct{})

	go func() {
		defer close(done)

		for result := range p.results {
			if result.Error != nil {
				errored++

				fmt.Fprintf(p.stderr, "Error processing %q: %v\n", result.Input, result.Error)

				continue
			}

			processed++

			totalSize += result.OutputSize

			if !p.cfg.Quiet {
				if p.cfg.Verify {
					fmt.Fprintf(p.stdout, "Verified %q\n", result.Input)
				} else {
					fmt.Fprintf(p.stdout, "Processed %q -> %q\n", result.Input, result.Output)
				}
			}

			if p.cfg.Delete && !p.cfg.Verify {
				if err := os.Remove(result.Input); err != nil {
					fmt.Fprintf(p.stderr, "Error deleting %q: %v\n", result.Input, err)
				} else if !p.cfg.Quiet {
					fmt.Fprintf(p.stdout, "Deleted %q\n", result.Input)
				}
			}
		}
	}()

	for _, file := range p.cfg.Files {
		group.Go(func() error {
			if p.cfg.Verify {
				if err := p.verifyFile(file); err != nil {
					p.results <- Result{Input: file, Error: err}

					return err
				}

				p.results <- Result{Input: file}

				return nil
			}

			outPath := OutputPath(file, p.cfg)

			size, err := p.processFile(file, outPath)
			if err != nil {
				p.results <- Result{Input: file, Error: err}

				return err
			}

			p.results <- Result{Input: file, Output: outPath, OutputSize: size}

			return nil
		})
	}

	err = group.Wait()

	close(p.results)

	<-done // Wait for printer to finish

	if err != nil {
		return processed, errored, totalSize, fmt.Errorf("processing files: %w", err)
	}

	return processed, errored, totalSize, nil
}

// processFile encrypts or decrypts a single file into outPath.
func (p *Processor) processFile(filename, outPath string) (int64, error) {
	info, err := os.Stat(filename)
	if err != nil {
		return 0, ioError("getting file info", err)
	}

	if info.IsDir() {
		return 0, ioError("getting file info", fmt.Errorf("%q is a directory", filename))
	}

	if filepath.Clean(filename) == filepath.Clean(outPath) {
		return 0, fmt.Errorf("output path %q equals input path", outPath)
	}

	start := time.Now()

	p.logger.Debug("processing file", "input", filename, "output", outPath, "decrypt", p.cfg.Decrypt)

	if p.cfg.Decrypt {
		err = p.cipher.DecryptFile(filename, outPath, p.password)
	} else {
		err = p.cipher.EncryptFile(filename, outPath, p.password)
	}

	if err != nil {
		p.logger.Debug("processing failed", "input", filename, "kind", KindOf(err).String())

		if p.cfg.Decrypt {
			return 0, fmt.Errorf("decrypting file: %w", err)
		}

		return 0, fmt.Errorf("encrypting file: %w", err)
	}

	size, err := fileutil.FinalizeOutput(outPath, p.cfg.PreserveTimestamps, info.ModTime())
	if err != nil {
		return 0, fmt.Errorf("finalizing output: %w", err)
	}

	p.logger.Debug("processed file", "input", filename, "size", size, "duration", time.Since(start))

	return size, nil
}

// verifyFile checks that a container decrypts with the configured password.
func (p *Processor) verifyFile(filename string) error {
	p.logger.Debug("verifying file", "input", filename)

	if err := p.cipher.Verify(filename, p.password); err != nil {
		return fmt.Errorf("verifying file: %w", err)
	}

	return nil
}

// OutputPath generates the output file path based on the input filename
// and the configured suffixes for encryption/decryption.
func OutputPath(filename string, cfg *config.Config) string {
	ext := cfg.Suffixes.Encrypt

	if cfg.Decrypt {
		filename = strings.TrimSuffix(filename, cfg.Suffixes.Encrypt)
		ext = cfg.Suffixes.Decrypt
	}

	return filepath.Join(filepath.Dir(filename),
		filepath.Base(filename)+ext)
}
