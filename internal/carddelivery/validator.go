package carddelivery

import (
	"github.com/go-playground/validator/v10"
)

// ValidCardNumber validates that the field is a 16 digit card number.
var ValidCardNumber validator.Func = func(fl validator.FieldLevel) bool {
	number, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}

	if len(number) != 16 {
		return false
	}

	for _, r := range number {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}
