package encryption

import (
	"io"
	"os"
	"path/filepath"

	"github.com/idelchi/govault/internal/fileutil"
)

//nolint:gochecknoglobals
var defaultCipher = New()

// EncryptFile encrypts inputPath into outputPath with the default FileCipher.
func EncryptFile(inputPath, outputPath, password string) error {
	return defaultCipher.EncryptFile(inputPath, outputPath, password)
}

// DecryptFile decrypts inputPath into outputPath with the default FileCipher.
func DecryptFile(inputPath, outputPath, password string) error {
	return defaultCipher.DecryptFile(inputPath, outputPath, password)
}

// EncryptFile encrypts the file at inputPath into a container at outputPath.
// The output only appears under outputPath once it has been fully written.
func (c *FileCipher) EncryptFile(inputPath, outputPath, password string) error {
	return c.transformFile(inputPath, outputPath, func(r io.Reader, w io.Writer) error {
		return c.Encrypt(r, w, password)
	})
}

// DecryptFile decrypts the container at inputPath into outputPath.
// On any failure, including a wrong password, outputPath is left untouched.
func (c *FileCipher) DecryptFile(inputPath, outputPath, password string) error {
	return c.transformFile(inputPath, outputPath, func(r io.Reader, w io.Writer) error {
		return c.Decrypt(r, w, password)
	})
}

// Verify reports whether the container at inputPath decrypts with password,
// discarding the plaintext.
func (c *FileCipher) Verify(inputPath, password string) error {
	in, err := os.Open(filepath.Clean(inputPath))
	if err != nil {
		return ioError("opening input file", err)
	}

	defer in.Close()

	return c.Decrypt(in, io.Discard, password)
}

func (c *FileCipher) transformFile(inputPath, outputPath string, transform func(io.Reader, io.Writer) error) (err error) {
	in, err := os.Open(filepath.Clean(inputPath))
	if err != nil {
		return ioError("opening input file", err)
	}

	defer in.Close()

	tc, err := fileutil.NewTempContext(inputPath, outputPath)
	if err != nil {
		return ioError("preparing output file", err)
	}

	defer tc.CleanupOnError(&err)

	if err := transform(in, tc.TmpFile); err != nil {
		return err
	}

	if err := tc.Commit(); err != nil {
		return ioError("committing output file", err)
	}

	return nil
}
