// internal/validator/validator.go
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"expense-tracker/internal/domain"

	"github.com/go-playground/validator/v10"
)

var Validate *validator.Validate

var nonSpace = regexp.MustCompile(`\S`)

func init() {
	Validate = validator.New()

	// Amounts are compared as numbers: gte/lte apply to the decimal value.
	Validate.RegisterCustomTypeFunc(func(v reflect.Value) any {
		if a, ok := v.Interface().(domain.Amount); ok {
			f, _ := a.Float64()
			return f
		}
		return nil
	}, domain.Amount{})

	// not empty and not only whitespace
	_ = Validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return nonSpace.MatchString(fl.Field().String())
	})

	_ = Validate.RegisterValidation("expensecategory", func(fl validator.FieldLevel) bool {
		return domain.IsCategory(fl.Field().String())
	})
}

// Error carries one human-readable message per violated constraint.
type Error struct {
	Messages []string
}

func (e *Error) Error() string {
	return strings.Join(e.Messages, ", ")
}

// Struct validates v and converts field violations into an *Error.
func Struct(v any) error {
	err := Validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, fieldErrorToString(e))
	}
	return &Error{Messages: msgs}
}

func fieldErrorToString(e validator.FieldError) string {
	switch e.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("%s is required", e.Field())
	case "expensecategory":
		return fmt.Sprintf("%s must be one of %s", e.Field(), strings.Join(domain.Categories, ", "))
	case "gte":
		if e.Field() == "Amount" {
			return "Amount must be positive"
		}
		return fmt.Sprintf("%s must be at least %s", e.Field(), e.Param())
	case "lte":
		return fmt.Sprintf("%s is too large", e.Field())
	default:
		return fmt.Sprintf("%s is invalid", e.Field())
	}
}
