// Package passphrase acquires passwords from files or the controlling terminal.
package passphrase

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/term"
)

// ErrMismatch is returned when the confirmation differs from the first entry.
var ErrMismatch = errors.New("passwords do not match")

// ErrEmpty is returned when an empty password is read.
var ErrEmpty = errors.New("password cannot be empty")

// Reader reads one password after showing prompt.
type Reader func(prompt string) ([]byte, error)

// Zero overwrites a byte slice with zeros.
func Zero(b []byte) {
	clear(b)
	runtime.KeepAlive(b)
}

// FromFile reads a password from path. A single trailing newline (LF or CRLF) is dropped.
func FromFile(path string) (string, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("reading password file: %w", err)
	}
	defer Zero(data)

	data = bytes.TrimSuffix(data, []byte("\n"))
	data = bytes.TrimSuffix(data, []byte("\r"))

	if len(data) == 0 {
		return "", fmt.Errorf("password file %q: %w", path, ErrEmpty)
	}

	return string(data), nil
}

// Prompt reads a single password with read.
func Prompt(read Reader, prompt string) (string, error) {
	password, err := read(prompt)
	if err != nil {
		return "", err
	}
	defer Zero(password)

	if len(password) == 0 {
		return "", ErrEmpty
	}

	return string(password), nil
}

// PromptConfirm reads a password twice with read and fails if the entries differ.
func PromptConfirm(read Reader, prompt, confirmPrompt string) (string, error) {
	password, err := read(prompt)
	if err != nil {
		return "", err
	}
	defer Zero(password)

	if len(password) == 0 {
		return "", ErrEmpty
	}

	confirm, err := read(confirmPrompt)
	if err != nil {
		return "", err
	}
	defer Zero(confirm)

	if !bytes.Equal(password, confirm) {
		return "", ErrMismatch
	}

	return string(password), nil
}

// FromTerminal returns a Reader that prompts on stderr and reads without echo,
// from stdin if it is a terminal and from /dev/tty otherwise.
func FromTerminal() Reader {
	return func(prompt string) ([]byte, error) {
		return readPassword(os.Stderr, prompt)
	}
}

func readPassword(out io.Writer, prompt string) ([]byte, error) {
	fmt.Fprint(out, prompt)

	defer fmt.Fprintln(out)

	if fd := int(os.Stdin.Fd()); term.IsTerminal(fd) { //nolint:gosec // file descriptors fit in int
		password, err := term.ReadPassword(fd)
		if err != nil {
			return nil, fmt.Errorf("reading password: %w", err)
		}

		return password, nil
	}

	tty, err := os.Open("/dev/tty")
	if err != nil {
		return nil, errors.New("cannot prompt for password: stdin is not a terminal; use --password-file or GOVAULT_PASSWORD")
	}
	defer tty.Close()

	password, err := term.ReadPassword(int(tty.Fd())) //nolint:gosec // file descriptors fit in int
	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}

	return password, nil
}
