package web

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// GetErrorMsg renders the first binding violation as a short human readable message.
func GetErrorMsg(ve validator.ValidationErrors) string {
	field := ve[0]

	switch field.Tag() {
	case "required":
		return field.Field() + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s", field.Field(), field.Param())
	case "max":
		return fmt.Sprintf("%s must not exceed %s", field.Field(), field.Param())
	case "email":
		return field.Field() + " must be a valid email"
	case "alphanum":
		return field.Field() + " must contain only letters and numbers"
	case "cardnumber":
		return field.Field() + " must be a 16 digit card number"
	}

	return field.Field() + " is invalid"
}
