package encryption

import (
	"crypto/sha256"
	"runtime"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// Iterations is the PBKDF2 iteration count shared by encryption and decryption.
	Iterations = 100_000
	// KeySize is the derived key length, selecting AES-256.
	KeySize = 32
)

// DeriveKey derives the AES-256 key from a password and salt using PBKDF2-HMAC-SHA256.
// A wrong password still yields a key; it only shows up later as a padding failure.
func DeriveKey(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, Iterations, KeySize, sha256.New)
}

// zeroBytes overwrites a byte slice with zeros.
func zeroBytes(b []byte) {
	clear(b)
	runtime.KeepAlive(b)
}
