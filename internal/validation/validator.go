// Package validation wraps a shared go-playground validator with the
// project's custom tags and a flat error type for HTTP responses.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

var indianMobile = regexp.MustCompile(`^[6-9][0-9]{9}$`)

// FieldError describes one failed rule.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// Errors is returned by Struct when one or more rules fail.
type Errors []FieldError

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Message
	}
	return strings.Join(msgs, "; ")
}

// Validator returns the process-wide validator.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		// indian_mobile: ten digits starting 6-9.
		_ = validate.RegisterValidation("indian_mobile", func(fl validator.FieldLevel) bool {
			return indianMobile.MatchString(fl.Field().String())
		})
		// trimmed_required rejects whitespace-only strings.
		_ = validate.RegisterValidation("trimmed_required", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		// optional_url accepts an empty string or an absolute URL.
		_ = validate.RegisterValidation("optional_url", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return s == "" || validate.Var(s, "url") == nil
		})
	})
	return validate
}

// Struct validates s and returns Errors, or nil.
func Struct(s any) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := make(Errors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Message: message(fe),
		})
	}
	return out
}

// IsIndianMobile reports whether s is a ten digit Indian mobile number.
func IsIndianMobile(s string) bool {
	return indianMobile.MatchString(s)
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "trimmed_required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be %s or more", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email", fe.Field())
	case "url", "optional_url":
		return fmt.Sprintf("%s must be a valid URL", fe.Field())
	case "indian_mobile":
		return fmt.Sprintf("%s must be a valid 10-digit Indian mobile number", fe.Field())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
