// Package config holds the runtime configuration of govault and its validation.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Password selects where the password comes from.
// With both fields empty the password is prompted for.
type Password struct {
	// String is the password itself, from a flag or GOVAULT_PASSWORD.
	String string `label:"--password" mapstructure:"password" validate:"exclusive=File"`

	// File is a path to a file holding the password.
	File string `label:"--password-file" mapstructure:"password-file"`
}

// Suffixes configures output file naming.
type Suffixes struct {
	// Encrypt is appended to encrypted files and stripped when decrypting.
	Encrypt string `label:"--encrypt-ext" mapstructure:"encrypt-ext" validate:"required"`

	// Decrypt is appended to decrypted files.
	Decrypt string `label:"--decrypt-ext" mapstructure:"decrypt-ext"`
}

// Config holds the application's configuration.
type Config struct {
	Password Password `mapstructure:",squash"`
	Suffixes Suffixes `mapstructure:",squash"`

	// Parallel is the number of files processed concurrently.
	Parallel int `label:"--parallel" mapstructure:"parallel" validate:"min=1"`

	Quiet              bool `mapstructure:"quiet"`
	Delete             bool `mapstructure:"delete"`
	PreserveTimestamps bool `mapstructure:"preserve-timestamps"`
	Dry                bool `mapstructure:"dry"`
	Stats              bool `mapstructure:"stats"`
	Verbose            bool `mapstructure:"verbose"`

	// Set by the subcommand, not by flags.
	Decrypt bool `mapstructure:"-"`
	Verify  bool `mapstructure:"-"`

	// Positional arguments
	Files []string `label:"files" mapstructure:"-" validate:"min=1,dive,required"`
}

// Validate validates the configuration against the struct tags.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())

	if err := registerExclusive(validate); err != nil {
		return err
	}

	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validating configuration: %w", humanize(err))
	}

	if c.Verify && c.Delete {
		return errors.New("validating configuration: --delete cannot be used with verify")
	}

	return nil
}

// humanize turns validator errors into one readable message per field.
func humanize(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	msgs := make([]string, 0, len(validationErrors))

	for _, fe := range validationErrors {
		switch fe.Tag() {
		case "exclusive":
			msgs = append(msgs, fe.Field()+" is mutually exclusive with "+labelOf(fe.Param()))
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "min":
			if fe.Kind() == reflect.Slice {
				msgs = append(msgs, fmt.Sprintf("%s: need at least %s", fe.Field(), fe.Param()))
			} else {
				msgs = append(msgs, fe.Field()+" must be at least "+fe.Param())
			}
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed on %q", fe.Field(), fe.Tag()))
		}
	}

	return errors.New(strings.Join(msgs, "; "))
}
