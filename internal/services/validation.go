package services

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/dimitrije/trainerhub/internal/models"
	"github.com/go-playground/validator/v10"
)

const friendCodeLength = 12

var fieldLabels = map[string]string{
	"password_current": "current password",
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// Both profile fields accept "" so owners can clear them.
	_ = v.RegisterValidation("friend_code", func(fl validator.FieldLevel) bool {
		return isFriendCode(fl.Field().String())
	})
	_ = v.RegisterValidation("team_color", func(fl validator.FieldLevel) bool {
		color := fl.Field().String()
		return color == "" || slices.Contains(models.TeamColors, color)
	})
	return v
}

func isFriendCode(code string) bool {
	if code == "" {
		return true
	}
	if len(code) != friendCodeLength {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// validateStruct runs v over s and converts field failures into a
// *ValidationError with one message per field.
func validateStruct(v *validator.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("failed to validate input: %w", err)
	}

	out := &ValidationError{Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		key, msg := fieldMessage(fe)
		if _, exists := out.Fields[key]; !exists {
			out.Fields[key] = msg
		}
	}
	return out
}

func fieldMessage(fe validator.FieldError) (string, string) {
	field := fe.Field()
	label := fieldLabel(field)

	switch fe.Tag() {
	case "required":
		return field, fmt.Sprintf("The %s field is required.", label)
	case "email":
		return field, fmt.Sprintf("The %s must be a valid email address.", label)
	case "min":
		return field, fmt.Sprintf("The %s must be at least %s characters.", label, fe.Param())
	case "max":
		return field, fmt.Sprintf("The %s may not be greater than %s characters.", label, fe.Param())
	case "len":
		return field, fmt.Sprintf("The %s must be %s characters.", label, fe.Param())
	case "numeric":
		return field, fmt.Sprintf("The %s must be a number.", label)
	case "oneof":
		return field, fmt.Sprintf("The selected %s is invalid.", label)
	case "friend_code":
		return field, fmt.Sprintf("The %s must be %d digits.", label, friendCodeLength)
	case "team_color":
		return field, fmt.Sprintf("The selected %s is invalid.", label)
	case "timezone":
		return field, fmt.Sprintf("The %s must be a valid zone.", label)
	case "eqfield":
		// Confirmation mismatches are reported against the confirmed field.
		confirmed := strings.TrimSuffix(field, "_confirmation")
		return confirmed, fmt.Sprintf("The %s confirmation does not match.", fieldLabel(confirmed))
	}
	return field, fmt.Sprintf("The %s is invalid.", label)
}

func fieldLabel(field string) string {
	if label, ok := fieldLabels[field]; ok {
		return label
	}
	return strings.ReplaceAll(field, "_", " ")
}
