package utils

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var Validate *validator.Validate

var usernameRegex = regexp.MustCompile(`^[\w.-]+$`)

func InitValidator() {
	Validate = validator.New()

	// username: word characters, dots and dashes only
	_ = Validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRegex.MatchString(fl.Field().String())
	})
}
