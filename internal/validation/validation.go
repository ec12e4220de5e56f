// Package validation contains the logic for validating
// request data.
//
// It uses the `validator` library to enforce rules (like
// required fields or date formats) defined in struct tags
// and extracts validation errors into a format the client can
// understand
package validation

import (
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	instance *validator.Validate
)

// Validator returns the shared validator with the custom tags registered.
func Validator() *validator.Validate {
	once.Do(func() {
		instance = validator.New()
		_ = instance.RegisterValidation("isodate", isISODate)
		_ = instance.RegisterValidation("digitsonly", isDigitsOnly)
	})
	return instance
}

// Struct validates v with the shared validator.
func Struct(v any) error {
	return Validator().Struct(v)
}
