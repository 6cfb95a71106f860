package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"io"
)

// FileCipher encrypts and decrypts password-protected containers.
// It holds no per-call state, so one value can serve concurrent calls on distinct files.
type FileCipher struct {
	// rand supplies salts and IVs.
	rand io.Reader
}

// Option configures a FileCipher.
type Option func(*FileCipher)

// WithRandom replaces the source used for salts and IVs.
// Anything other than a cryptographically secure source is only fit for tests.
func WithRandom(r io.Reader) Option {
	return func(c *FileCipher) {
		if r != nil {
			c.rand = r
		}
	}
}

// New returns a FileCipher drawing randomness from crypto/rand unless overridden.
func New(opts ...Option) *FileCipher {
	c := &FileCipher{rand: rand.Reader}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Encrypt writes a container holding the contents of r to w.
func (c *FileCipher) Encrypt(r io.Reader, w io.Writer, password string) error {
	hdr, err := newHeader(c.rand)
	if err != nil {
		return err
	}

	block, err := newBlock(password, hdr.salt)
	if err != nil {
		return err
	}

	if err := hdr.write(w); err != nil {
		return err
	}

	return encryptCBC(cipher.NewCBCEncrypter(block, hdr.iv), r, w)
}

// Decrypt reads a container from r and writes the recovered plaintext to w.
// Plaintext of all but the final chunk may already have been written when a
// padding error is returned; DecryptFile discards such partial output.
func (c *FileCipher) Decrypt(r io.Reader, w io.Writer, password string) error {
	hdr, err := readHeader(r)
	if err != nil {
		return err
	}

	block, err := newBlock(password, hdr.salt)
	if err != nil {
		return err
	}

	return decryptCBC(cipher.NewCBCDecrypter(block, hdr.iv), r, w)
}

// newBlock derives the key and builds the AES block cipher, wiping the key afterwards.
func newBlock(password string, salt []byte) (cipher.Block, error) {
	key := DeriveKey(password, salt)
	defer zeroBytes(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, cryptoError("creating cipher", err)
	}

	return block, nil
}
