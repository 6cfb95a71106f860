package encryption

import (
	"bufio"
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"io"
)

// encryptCBC streams r through mode into w, one pooled chunk at a time.
// The final, possibly empty, chunk is padded to a whole number of blocks.
func encryptCBC(mode cipher.BlockMode, r io.Reader, w io.Writer) error {
	bufp := getBuffer()
	defer putBuffer(bufp)

	buf := *bufp

	for {
		n, err := io.ReadFull(r, buf)

		switch {
		case err == nil:
			mode.CryptBlocks(buf, buf)

			if _, err := w.Write(buf); err != nil {
				return ioError("writing encrypted chunk", err)
			}
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			// Capacity of the pooled buffer leaves room for the padding block.
			final := pkcs7Pad(buf[:n], aes.BlockSize)
			mode.CryptBlocks(final, final)

			if _, err := w.Write(final); err != nil {
				return ioError("writing final encrypted chunk", err)
			}

			return nil
		default:
			return ioError("reading input", err)
		}
	}
}

// decryptCBC streams the ciphertext body in r through mode into w.
// The last chunk is only written after its padding has been validated.
func decryptCBC(mode cipher.BlockMode, r io.Reader, w io.Writer) error {
	bufReader := bufio.NewReaderSize(r, defaultBufferSize)

	bufp := getBuffer()
	defer putBuffer(bufp)

	buf := *bufp

	for {
		n, err := io.ReadFull(bufReader, buf)

		final := false

		switch {
		case err == nil:
			// A full chunk is final only if nothing follows it.
			if _, peekErr := bufReader.Peek(1); peekErr != nil {
				if !errors.Is(peekErr, io.EOF) {
					return ioError("reading ciphertext", peekErr)
				}

				final = true
			}
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			final = true
		default:
			return ioError("reading ciphertext", err)
		}

		chunk := buf[:n]

		if n%aes.BlockSize != 0 {
			return cryptoError("decrypting", ErrInvalidBlockSize)
		}

		if !final {
			mode.CryptBlocks(chunk, chunk)

			if _, err := w.Write(chunk); err != nil {
				return ioError("writing decrypted chunk", err)
			}

			continue
		}

		if n > 0 {
			mode.CryptBlocks(chunk, chunk)
		}

		plain, err := pkcs7Unpad(chunk)
		if err != nil {
			return cryptoError("removing padding", err)
		}

		if _, err := w.Write(plain); err != nil {
			return ioError("writing final decrypted chunk", err)
		}

		return nil
	}
}
