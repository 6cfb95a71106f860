package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// registerExclusive adds a custom validator ensuring two fields are mutually exclusive,
// and makes validation errors report fields by their flag label.
func registerExclusive(validate *validator.Validate) error {
	if err := validate.RegisterValidation("exclusive", validateExclusive); err != nil {
		return fmt.Errorf("registering exclusive validation: %w", err)
	}

	validate.RegisterTagNameFunc(fieldLabel)

	return nil
}

// fieldLabel returns the label tag of a field, falling back to its Go name.
func fieldLabel(fld reflect.StructField) string {
	const splitSize = 2

	name := strings.SplitN(fld.Tag.Get("label"), ",", splitSize)[0]
	if name == "" || name == "-" {
		return fld.Name
	}

	return name
}

// labelOf resolves the label of a Password field by Go name, for error messages.
func labelOf(name string) string {
	fld, ok := reflect.TypeFor[Password]().FieldByName(name)
	if !ok {
		return name
	}

	return fieldLabel(fld)
}

// validateExclusive checks if two fields are mutually exclusive.
// Returns false if both fields have non-empty values.
func validateExclusive(fl validator.FieldLevel) bool {
	field := fl.Field()
	otherField := fl.Parent().FieldByName(fl.Param())

	if !field.IsValid() || !otherField.IsValid() {
		return true
	}

	if field.Kind() == reflect.String && otherField.Kind() == reflect.String {
		return field.String() == "" || otherField.String() == ""
	}

	return true
}
