package encryption

import (
	"crypto/aes"
	"errors"
	"fmt"
	"io"
)

const (
	// SaltSize is the length of the random PBKDF2 salt at the start of a container.
	SaltSize = 16
	// IVSize is the length of the CBC initialization vector following the salt.
	IVSize = aes.BlockSize
	// HeaderSize is the fixed container header length: salt followed by IV.
	HeaderSize = SaltSize + IVSize
)

// header is the cleartext prefix of every container.
// There is no magic number or version: the layout is fixed.
type header struct {
	salt []byte
	iv   []byte
}

// newHeader draws a fresh salt and IV from rand.
func newHeader(rand io.Reader) (header, error) {
	buf := make([]byte, HeaderSize)

	if _, err := io.ReadFull(rand, buf[:SaltSize]); err != nil {
		return header{}, cryptoError("generating salt", err)
	}

	if _, err := io.ReadFull(rand, buf[SaltSize:]); err != nil {
		return header{}, cryptoError("generating IV", err)
	}

	return header{salt: buf[:SaltSize], iv: buf[SaltSize:]}, nil
}

func (h header) write(w io.Writer) error {
	if _, err := w.Write(h.salt); err != nil {
		return ioError("writing salt", err)
	}

	if _, err := w.Write(h.iv); err != nil {
		return ioError("writing IV", err)
	}

	return nil
}

// readHeader reads exactly HeaderSize bytes. A short input is a malformed container.
func readHeader(r io.Reader) (header, error) {
	buf := make([]byte, HeaderSize)

	n, err := io.ReadFull(r, buf)

	switch {
	case err == nil:
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return header{}, malformedError(
			"reading header",
			fmt.Errorf("got %d of %d header bytes: %w", n, HeaderSize, err),
		)
	default:
		return header{}, ioError("reading header", err)
	}

	return header{salt: buf[:SaltSize], iv: buf[SaltSize:]}, nil
}

// EncryptedSize returns the container length for a plaintext of n bytes.
func EncryptedSize(n int64) int64 {
	return HeaderSize + aes.BlockSize*(n/aes.BlockSize+1)
}

// MaxPlaintextSize returns the largest plaintext a container of n bytes can hold.
// Containers too short to hold a header and one block give 0.
func MaxPlaintextSize(n int64) int64 {
	body := n - HeaderSize
	if body < aes.BlockSize {
		return 0
	}

	return body - body%aes.BlockSize - 1
}
