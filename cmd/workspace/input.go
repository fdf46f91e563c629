package main

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		if name := field.Tag.Get("flag"); name != "" {
			return "-" + name
		}
		return field.Name
	})
	return v
}

type registerInput struct {
	Email    string `flag:"email" validate:"required,email"`
	Name     string `flag:"name" validate:"required,max=128"`
	Password string `flag:"password" validate:"required"`
	Phone    string `flag:"phone" validate:"omitempty,max=32"`
}

type loginInput struct {
	Email    string `flag:"email" validate:"required"`
	Password string `flag:"password" validate:"required"`
}

type reserveInput struct {
	Date  string `flag:"date" validate:"required,datetime=2006-01-02"`
	Start string `flag:"start" validate:"required,datetime=15:04"`
	End   string `flag:"end" validate:"required,datetime=15:04"`
	Space string `flag:"space" validate:"required,max=128"`
}

type reportInput struct {
	From     string `flag:"from" validate:"omitempty,datetime=2006-01-02"`
	To       string `flag:"to" validate:"omitempty,datetime=2006-01-02"`
	Days     int    `flag:"days" validate:"min=0"`
	Status   string `flag:"status" validate:"omitempty,oneof=pending confirmed canceled"`
	Category string `flag:"category" validate:"omitempty,oneof=desk room office"`
}

// check validates input and reports missing and malformed flags as a usage error.
func check(input any) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	var missing, malformed []string
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
		} else {
			malformed = append(malformed, fe.Field())
		}
	}

	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing "+strings.Join(missing, ", "))
	}
	if len(malformed) > 0 {
		parts = append(parts, "invalid "+strings.Join(malformed, ", "))
	}
	return usageError{err: fmt.Errorf("%s", strings.Join(parts, "; "))}
}
