package validator

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

const maxUsernameLength = 32

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	if err := validate.RegisterValidation("username", validUsername); err != nil {
		panic(err)
	}
}

// Struct validates s with the shared validator.
func Struct(s any) error {
	return validate.Struct(s)
}

// validUsername accepts printable names without surrounding whitespace.
// An empty value passes; pair the rule with required when a name is mandatory.
func validUsername(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	if name == "" {
		return true
	}
	if strings.TrimSpace(name) != name || utf8.RuneCountInString(name) > maxUsernameLength {
		return false
	}
	for _, r := range name {
		if !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}
