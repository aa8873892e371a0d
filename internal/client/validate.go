package client

import (
	stderrors "errors"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[\d\s\-()]+$`)
)

// rules lists the checked fields in the order messages are reported.
type rules struct {
	Name  string `validate:"clientname"`
	Email string `validate:"omitempty,clientemail"`
	Phone string `validate:"omitempty,clientphone"`
}

var messages = map[string]string{
	"clientname":  "name must be at least 2 characters",
	"clientemail": "email is not valid",
	"clientphone": "phone is not valid",
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("clientname", func(fl validator.FieldLevel) bool {
		return utf8.RuneCountInString(strings.TrimSpace(fl.Field().String())) >= 2
	})
	_ = v.RegisterValidation("clientemail", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("clientphone", func(fl validator.FieldLevel) bool {
		return validPhone(fl.Field().String())
	})
	return v
}

func validPhone(phone string) bool {
	if !phonePattern.MatchString(phone) {
		return false
	}
	digits := 0
	for _, r := range phone {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	return digits >= 8
}

// Validate returns one message per broken rule, empty when r is valid.
func Validate(r Record) []string {
	return validate(defaultValidator, r)
}

var defaultValidator = newValidator()

func validate(v *validator.Validate, r Record) []string {
	err := v.Struct(rules{Name: r.Name, Email: r.Email, Phone: r.Phone})
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if msg, ok := messages[fe.Tag()]; ok {
			out = append(out, msg)
		} else {
			out = append(out, fe.Error())
		}
	}
	return out
}
