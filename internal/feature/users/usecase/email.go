package usecase

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// emailTag is the validator tag bound to emailPattern.
const emailTag = "user_email"

// emailPattern accepts local@domain.tld where the TLD has at least two letters.
var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation(emailTag, func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// NormalizeEmail trims surrounding whitespace. Case is preserved.
// The information separators U+001C..U+001F count as whitespace.
func NormalizeEmail(email string) string {
	return strings.TrimFunc(email, isEmailSpace)
}

func isEmailSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= '\u001c' && r <= '\u001f')
}

// ValidateEmail checks a normalized email.
// It returns ErrEmailRequired for an empty value and ErrInvalidEmail when the pattern does not match.
func ValidateEmail(email string) error {
	if email == "" {
		return ErrEmailRequired
	}
	if err := validate.Var(email, emailTag); err != nil {
		return ErrInvalidEmail
	}
	return nil
}
