// Package fileutil provides shared file operation helpers.
package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// TempContext holds state for an atomic file write operation.
type TempContext struct {
	// SrcInfo describes the file the output is derived from.
	SrcInfo os.FileInfo
	TmpFile *os.File
	TmpName string

	outPath string
}

// NewTempContext stats the source file and creates a temp file next to outPath for atomic writing.
// Caller must defer CleanupOnError.
func NewTempContext(filename, outPath string) (*TempContext, error) {
	info, err := os.Stat(filename)
	if err != nil {
		return nil, fmt.Errorf("getting file info for %q: %w", filename, err)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(outPath), ".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("creating temporary file: %w", err)
	}

	return &TempContext{
		SrcInfo: info,
		TmpFile: tmpFile,
		TmpName: tmpFile.Name(),
		outPath: outPath,
	}, nil
}

// Commit flushes and closes the temp file, then renames it over the output path.
// The output takes the permission bits of the source file.
func (tc *TempContext) Commit() error {
	if err := tc.TmpFile.Sync(); err != nil {
		return fmt.Errorf("syncing temporary file: %w", err)
	}

	if err := tc.TmpFile.Chmod(tc.SrcInfo.Mode().Perm()); err != nil {
		return fmt.Errorf("setting file permissions: %w", err)
	}

	if err := tc.TmpFile.Close(); err != nil {
		return fmt.Errorf("closing temporary file: %w", err)
	}

	if err := os.Rename(tc.TmpName, tc.outPath); err != nil {
		return fmt.Errorf("renaming output file: %w", err)
	}

	return nil
}

// CleanupOnError closes the temp file and removes it if the write failed.
func (tc *TempContext) CleanupOnError(errp *error) {
	tc.TmpFile.Close() //nolint:errcheck,gosec // best-effort cleanup, may already be closed

	if *errp != nil {
		os.Remove(tc.TmpName) //nolint:errcheck,gosec // best-effort cleanup
	}
}

// FinalizeOutput optionally preserves timestamps and returns the output file size.
func FinalizeOutput(outPath string, preserveTimestamps bool, modTime time.Time) (int64, error) {
	if preserveTimestamps {
		if err := os.Chtimes(outPath, modTime, modTime); err != nil {
			return 0, fmt.Errorf("preserving timestamps: %w", err)
		}
	}

	outInfo, err := os.Stat(outPath)
	if err != nil {
		return 0, fmt.Errorf("stat output %q: %w", outPath, err)
	}

	return outInfo.Size(), nil
}
