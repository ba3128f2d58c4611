// Package service contains the orchestration layer between the GraphQL
// resolvers and the store, auth, and pubsub packages.
package service

import (
	"reflect"

	"github.com/go-playground/validator/v10"

	domainerrors "github.com/libris-app/libris-server/internal/errors"
)

// validate is a shared validator instance for request validation.
var validate = func() *validator.Validate {
	v := validator.New()
	// Use JSON tag names for field names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("json")
		if name == "" {
			return fld.Name
		}
		// Remove any options (like omitempty, -)
		for i := range len(name) {
			if name[i] == ',' {
				return name[:i]
			}
		}
		return name
	})
	return v
}()

// formatValidationError converts validator errors to user-input domain
// errors, reported before any storage call runs.
func formatValidationError(err error, invalidArgs map[string]any) error {
	var validationErrs validator.ValidationErrors
	if domainerrors.As(err, &validationErrs) {
		for _, e := range validationErrs {
			field := e.Field()
			var msg *domainerrors.Error
			switch e.Tag() {
			case "required":
				msg = domainerrors.BadUserInputf("%s is required", field)
			case "min":
				msg = domainerrors.BadUserInputf("%s must be at least %s characters", field, e.Param())
			case "max":
				msg = domainerrors.BadUserInputf("%s exceeds maximum length of %s characters", field, e.Param())
			default:
				msg = domainerrors.BadUserInputf("%s is invalid", field)
			}
			return msg.WithInvalidArgs(invalidArgs)
		}
	}
	return err
}
