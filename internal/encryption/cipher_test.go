package encryption_test

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/require"

	"github.com/idelchi/govault/internal/encryption"
)

func encryptBytes(t *testing.T, c *encryption.FileCipher, plaintext []byte, password string) []byte {
	t.Helper()

	var out bytes.Buffer

	require.NoError(t, c.Encrypt(bytes.NewReader(plaintext), &out, password))

	return out.Bytes()
}

func decryptBytes(c *encryption.FileCipher, container []byte, password string) ([]byte, error) {
	var out bytes.Buffer

	err := c.Decrypt(bytes.NewReader(container), &out, password)

	return out.Bytes(), err
}

func randomBytes(t *testing.T, n int) []byte {
	t.Helper()

	b := make([]byte, n)
	_, err := rand.Read(b)
	require.NoError(t, err)

	return b
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	return path
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	const chunk = 32 * 1024

	sizes := []int{0, 1, 11, 15, 16, 17, 31, 32, 33, 1000, chunk - 1, chunk, chunk + 1, 3*chunk + 7}

	c := encryption.New()

	for _, size := range sizes {
		t.Run("size_"+strconv.Itoa(size), func(t *testing.T) {
			t.Parallel()

			plaintext := randomBytes(t, size)

			container := encryptBytes(t, c, plaintext, "correct horse")

			wantLen := encryption.HeaderSize + 16*((size+1+15)/16)
			require.Len(t, container, wantLen)
			require.EqualValues(t, wantLen, encryption.EncryptedSize(int64(size)))

			bound := encryption.MaxPlaintextSize(int64(wantLen))
			require.LessOrEqual(t, int64(size), bound)
			require.Greater(t, int64(size), bound-16)

			got, err := decryptBytes(c, container, "correct horse")
			require.NoError(t, err)
			require.Equal(t, plaintext, got)
		})
	}
}

func TestMaxPlaintextSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		container int64
		want      int64
	}{
		{0, 0},
		{encryption.HeaderSize, 0},
		{encryption.HeaderSize + 15, 0},
		{encryption.HeaderSize + 16, 15},
		{encryption.HeaderSize + 17, 15},
		{encryption.HeaderSize + 64, 63},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, encryption.MaxPlaintextSize(tt.container), "container of %d bytes", tt.container)
	}
}

func TestRoundTripSmallReads(t *testing.T) {
	t.Parallel()

	c := encryption.New()
	plaintext := randomBytes(t, 70*1024+3)

	var container bytes.Buffer

	require.NoError(t, c.Encrypt(iotest.OneByteReader(bytes.NewReader(plaintext)), &container, "pw"))

	var out bytes.Buffer

	require.NoError(t, c.Decrypt(iotest.HalfReader(bytes.NewReader(container.Bytes())), &out, "pw"))
	require.Equal(t, plaintext, out.Bytes())
}

func TestRoundTripUnicodePassword(t *testing.T) {
	t.Parallel()

	c := encryption.New()
	plaintext := []byte("Hello 世界 🌍")

	container := encryptBytes(t, c, plaintext, "пароль-密码")

	got, err := decryptBytes(c, container, "пароль-密码")
	require.NoError(t, err)
	require.Equal(t, plaintext, got)
}

func TestExampleScenario(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeFile(t, dir, "input.txt", []byte("secret data"))
	encrypted := filepath.Join(dir, "input.txt.enc")
	output := filepath.Join(dir, "output.txt")

	require.NoError(t, encryption.EncryptFile(input, encrypted, "P@ssw0rd"))

	info, err := os.Stat(encrypted)
	require.NoError(t, err)
	require.EqualValues(t, 48, info.Size())

	require.NoError(t, encryption.DecryptFile(encrypted, output, "P@ssw0rd"))

	got, err := os.ReadFile(output)
	require.NoError(t, err)
	require.Equal(t, "secret data", string(got))
}

func TestEmptyFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeFile(t, dir, "empty", nil)
	encrypted := filepath.Join(dir, "empty.enc")
	output := filepath.Join(dir, "empty.out")

	require.NoError(t, encryption.EncryptFile(input, encrypted, "x"))

	container, err := os.ReadFile(encrypted)
	require.NoError(t, err)
	require.Len(t, container, 48)

	require.NoError(t, encryption.DecryptFile(encrypted, output, "x"))

	got, err := os.ReadFile(output)
	require.NoError(t, err)
	require.Empty(t, got)
}

// A wrong key yields valid padding with probability of about 1/256,
// so the check is made over several independent containers.
func TestWrongPassword(t *testing.T) {
	t.Parallel()

	const trials = 8

	c := encryption.New()
	plaintext := []byte("secret data")

	var rejected int

	for range trials {
		container := encryptBytes(t, c, plaintext, "P@ssw0rd")

		got, err := decryptBytes(c, container, "password")
		if err == nil {
			require.NotEqual(t, plaintext, got)

			continue
		}

		require.ErrorIs(t, err, encryption.ErrCrypto)
		require.Equal(t, encryption.KindCrypto, encryption.KindOf(err))

		rejected++
	}

	require.GreaterOrEqual(t, rejected, trials-2)
}

// The salt is fixed and the IV is picked so that the final block decrypts
// to an out-of-range pad byte under the wrong key.
func TestWrongPasswordFixedHeader(t *testing.T) {
	t.Parallel()

	const (
		correct = "P@ssw0rd"
		wrong   = "password"
	)

	salt := bytes.Repeat([]byte{0x5A}, encryption.SaltSize)
	plaintext := []byte("secret data")

	block, err := aes.NewCipher(encryption.DeriveKey(wrong, salt))
	require.NoError(t, err)

	for i := range 64 {
		iv := bytes.Repeat([]byte{byte(i)}, encryption.IVSize)
		seed := slices.Concat(salt, iv)

		container := encryptBytes(t, encryption.New(encryption.WithRandom(bytes.NewReader(seed))), plaintext, correct)
		require.Equal(t, seed, container[:encryption.HeaderSize])

		body := container[encryption.HeaderSize:]
		decrypted := make([]byte, len(body))
		cipher.NewCBCDecrypter(block, iv).CryptBlocks(decrypted, body)

		if pad := decrypted[len(decrypted)-1]; pad != 0 && pad <= aes.BlockSize {
			continue
		}

		got, err := decryptBytes(encryption.New(), container, wrong)
		require.ErrorIs(t, err, encryption.ErrCrypto)
		require.ErrorIs(t, err, encryption.ErrInvalidPadding)
		require.Equal(t, encryption.KindCrypto, encryption.KindOf(err))
		require.Empty(t, got)

		got, err = decryptBytes(encryption.New(), container, correct)
		require.NoError(t, err)
		require.Equal(t, plaintext, got)

		return
	}

	t.Fatal("no IV gave an out-of-range pad byte under the wrong key")
}

func TestWrongPasswordLeavesNoOutput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeFile(t, dir, "data", []byte("data"))
	encrypted := filepath.Join(dir, "data.enc")
	output := filepath.Join(dir, "data.out")

	require.NoError(t, encryption.EncryptFile(input, encrypted, "P@ssw0rd"))

	// Truncating the container guarantees the failure independently of the key.
	container, err := os.ReadFile(encrypted)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(encrypted, container[:len(container)-1], 0o600))

	err = encryption.DecryptFile(encrypted, output, "password")
	require.ErrorIs(t, err, encryption.ErrCrypto)

	_, statErr := os.Stat(output)
	require.ErrorIs(t, statErr, fs.ErrNotExist)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2, "temporary files must be cleaned up")
}

func TestNoPlaintextLeakage(t *testing.T) {
	t.Parallel()

	c := encryption.New()

	for _, plaintext := range []string{
		"Very secret data",
		"Very secret data that spans more than a single cipher block",
		strings.Repeat("A", 64),
	} {
		container := encryptBytes(t, c, []byte(plaintext), "P@ssw0rd")

		require.NotContains(t, string(container), plaintext)
	}
}

func TestNonIdentity(t *testing.T) {
	t.Parallel()

	c := encryption.New()

	for _, plaintext := range [][]byte{
		[]byte("p"),
		[]byte("plaintext"),
		bytes.Repeat([]byte{0}, 16),
		bytes.Repeat([]byte("block"), 40),
	} {
		container := encryptBytes(t, c, plaintext, "P@ssw0rd")
		body := container[encryption.HeaderSize:]

		require.NotEqual(t, plaintext, body[:len(plaintext)])
	}
}

func TestFreshSaltAndIV(t *testing.T) {
	t.Parallel()

	c := encryption.New()
	plaintext := []byte("same input")

	first := encryptBytes(t, c, plaintext, "pw")
	second := encryptBytes(t, c, plaintext, "pw")

	require.NotEqual(t, first[:encryption.SaltSize], second[:encryption.SaltSize])
	require.NotEqual(t, first[encryption.SaltSize:encryption.HeaderSize], second[encryption.SaltSize:encryption.HeaderSize])
	require.NotEqual(t, first[encryption.HeaderSize:], second[encryption.HeaderSize:])
}

func TestHeaderLayout(t *testing.T) {
	t.Parallel()

	seed := bytes.Repeat([]byte{0xAB}, encryption.SaltSize)
	seed = append(seed, bytes.Repeat([]byte{0xCD}, encryption.IVSize)...)

	newCipher := func() *encryption.FileCipher {
		return encryption.New(encryption.WithRandom(bytes.NewReader(seed)))
	}

	first := encryptBytes(t, newCipher(), []byte("payload"), "pw")
	second := encryptBytes(t, newCipher(), []byte("payload"), "pw")

	require.Equal(t, seed, first[:encryption.HeaderSize])
	require.Equal(t, first, second, "same salt, IV and password must give the same container")

	got, err := decryptBytes(encryption.New(), first, "pw")
	require.NoError(t, err)
	require.Equal(t, "payload", string(got))
}

func TestRandomFailure(t *testing.T) {
	t.Parallel()

	c := encryption.New(encryption.WithRandom(iotest.ErrReader(errors.New("entropy exhausted"))))

	var out bytes.Buffer

	err := c.Encrypt(strings.NewReader("data"), &out, "pw")
	require.ErrorIs(t, err, encryption.ErrCrypto)
	require.Zero(t, out.Len(), "nothing may be written before salt and IV exist")
}

func TestMalformedContainer(t *testing.T) {
	t.Parallel()

	c := encryption.New()

	for _, size := range []int{0, 1, 16, encryption.HeaderSize - 1} {
		_, err := decryptBytes(c, make([]byte, size), "pw")

		require.ErrorIs(t, err, encryption.ErrMalformedContainer, "size %d", size)
		require.NotErrorIs(t, err, encryption.ErrCrypto)
		require.Equal(t, encryption.KindMalformedContainer, encryption.KindOf(err))
	}
}

func TestCorruptedBody(t *testing.T) {
	t.Parallel()

	c := encryption.New()
	container := encryptBytes(t, c, []byte("some plaintext longer than one block"), "pw")

	tests := []struct {
		name  string
		data  []byte
		cause error
	}{
		{"header only", container[:encryption.HeaderSize], encryption.ErrEmptyData},
		{"truncated by one byte", container[:len(container)-1], encryption.ErrInvalidBlockSize},
		{"extra byte", append(append([]byte{}, container...), 0), encryption.ErrInvalidBlockSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := decryptBytes(c, tt.data, "pw")
			require.ErrorIs(t, err, encryption.ErrCrypto)
			require.ErrorIs(t, err, tt.cause)
		})
	}
}

func TestIOErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeFile(t, dir, "in", []byte("data"))

	t.Run("missing input", func(t *testing.T) {
		t.Parallel()

		err := encryption.EncryptFile(filepath.Join(dir, "missing"), filepath.Join(dir, "out1"), "pw")
		require.ErrorIs(t, err, encryption.ErrIO)
		require.ErrorIs(t, err, fs.ErrNotExist)

		err = encryption.DecryptFile(filepath.Join(dir, "missing"), filepath.Join(dir, "out2"), "pw")
		require.ErrorIs(t, err, encryption.ErrIO)
	})

	t.Run("unwritable output", func(t *testing.T) {
		t.Parallel()

		err := encryption.EncryptFile(input, filepath.Join(dir, "no", "such", "dir", "out"), "pw")
		require.ErrorIs(t, err, encryption.ErrIO)
	})

	t.Run("failing reader", func(t *testing.T) {
		t.Parallel()

		var out bytes.Buffer

		err := encryption.New().Encrypt(iotest.ErrReader(io.ErrClosedPipe), &out, "pw")
		require.ErrorIs(t, err, encryption.ErrIO)
		require.ErrorIs(t, err, io.ErrClosedPipe)
	})

	t.Run("failing writer", func(t *testing.T) {
		t.Parallel()

		err := encryption.New().Encrypt(strings.NewReader("data"), failingWriter{}, "pw")
		require.ErrorIs(t, err, encryption.ErrIO)
	})
}

func TestVerify(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeFile(t, dir, "in", []byte("verify me"))
	encrypted := filepath.Join(dir, "in.enc")

	c := encryption.New()

	require.NoError(t, c.EncryptFile(input, encrypted, "pw"))
	require.NoError(t, c.Verify(encrypted, "pw"))

	short := writeFile(t, dir, "short", []byte("tiny"))
	require.ErrorIs(t, c.Verify(short, "pw"), encryption.ErrMalformedContainer)
}

func TestInPlaceOutput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "same", []byte("rewritten in place"))

	c := encryption.New()

	require.NoError(t, c.EncryptFile(path, path, "pw"))
	require.NoError(t, c.DecryptFile(path, path, "pw"))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "rewritten in place", string(got))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}
