package encryption

import (
	"errors"
	"fmt"

	goerrors "github.com/agilira/go-errors"
)

var (
	// ErrEmptyData is returned when a container carries no ciphertext blocks.
	ErrEmptyData = errors.New("empty data")
	// ErrInvalidPadding is returned when PKCS7 padding is malformed.
	ErrInvalidPadding = errors.New("invalid padding")
	// ErrInvalidBlockSize is returned when encrypted data length is not aligned with AES block size.
	ErrInvalidBlockSize = errors.New("ciphertext is not a multiple of block size")
)

var (
	// ErrIO matches every error of kind KindIO.
	ErrIO = errors.New("i/o failure")
	// ErrMalformedContainer matches every error of kind KindMalformedContainer.
	ErrMalformedContainer = errors.New("malformed container")
	// ErrCrypto matches every error of kind KindCrypto.
	// A wrong password and a corrupted ciphertext both end up here.
	ErrCrypto = errors.New("wrong password or corrupted ciphertext")
)

// Error codes attached to every *Error for rich error handling.
const (
	ErrCodeIO                 = "GOVAULT_IO"
	ErrCodeMalformedContainer = "GOVAULT_MALFORMED_CONTAINER"
	ErrCodeCrypto             = "GOVAULT_CRYPTO"
)

// Kind classifies the errors returned by FileCipher.
type Kind uint8

const (
	// KindIO covers missing inputs, unwritable outputs and any stream failure.
	KindIO Kind = iota + 1
	// KindMalformedContainer is raised when the input is shorter than the header.
	KindMalformedContainer
	// KindCrypto is raised when the ciphertext cannot be decrypted or the cipher cannot be set up.
	KindCrypto
)

func (k Kind) sentinel() error {
	switch k {
	case KindIO:
		return ErrIO
	case KindMalformedContainer:
		return ErrMalformedContainer
	case KindCrypto:
		return ErrCrypto
	default:
		return nil
	}
}

func (k Kind) String() string {
	if s := k.sentinel(); s != nil {
		return s.Error()
	}

	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Error is the error type returned by FileCipher operations.
type Error struct {
	// Kind is the class of failure.
	Kind Kind

	// Op names the step that failed, e.g. "reading header".
	Op string

	// Err is the underlying cause.
	Err error

	// detail carries the cause again as a coded go-errors value.
	detail error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}

	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying cause and, for errors built by this package,
// its coded counterpart.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)

	for _, err := range []error{e.Err, e.detail} {
		if err != nil {
			errs = append(errs, err)
		}
	}

	return errs
}

// Is reports whether target is the sentinel of e's kind.
func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

// KindOf returns the Kind of the first *Error in err's chain, or 0 if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return 0
}

// The helpers below are always given a non-nil cause.

func ioError(op string, err error) error {
	return &Error{Kind: KindIO, Op: op, Err: err, detail: goerrors.Wrap(err, ErrCodeIO, op)}
}

func malformedError(op string, err error) error {
	return &Error{
		Kind:   KindMalformedContainer,
		Op:     op,
		Err:    err,
		detail: goerrors.Wrap(err, ErrCodeMalformedContainer, op),
	}
}

func cryptoError(op string, err error) error {
	return &Error{Kind: KindCrypto, Op: op, Err: err, detail: goerrors.Wrap(err, ErrCodeCrypto, op)}
}
