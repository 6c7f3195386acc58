// Package validate checks request payloads with struct tags and reports
// field errors by their JSON names.
package validate

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/Thomas-Okram/TapTell/internal/crypto"
)

var (
	validate   *validator.Validate
	translator ut.Translator

	notBlankTag = "notblank"
	pinTag      = "pin"
)

func init() {
	validate = validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, func(fl validator.FieldLevel) bool {
		if str, ok := fl.Field().Interface().(string); ok {
			return strings.TrimSpace(str) != ""
		}
		return false
	})
	_ = validate.RegisterValidation(pinTag, func(fl validator.FieldLevel) bool {
		str, ok := fl.Field().Interface().(string)
		return ok && crypto.ValidPIN(str)
	})

	registerFn := func(ut.Translator) error { return nil }
	for _, tag := range []string{notBlankTag, pinTag} {
		_ = validate.RegisterTranslation(tag, translator, registerFn, translateCustom)
	}
}

func translateCustom(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case notBlankTag:
		return fe.Field() + " cannot be blank"
	case pinTag:
		return "PIN must be exactly 6 digits"
	default:
		return fe.Field() + " is invalid"
	}
}

type FieldError struct {
	Field   string
	Tag     string
	Message string
}

type Errors []FieldError

func (e Errors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, fe := range e {
		msgs = append(msgs, fe.Message)
	}
	return strings.Join(msgs, "; ")
}

// MissingOnly reports whether every failure is an absent or blank field.
func (e Errors) MissingOnly() bool {
	for _, fe := range e {
		if fe.Tag != "required" && fe.Tag != notBlankTag {
			return false
		}
	}
	return len(e) > 0
}

// Struct validates v and returns Errors on failure.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := make(Errors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Tag: fe.Tag(), Message: fe.Translate(translator)})
	}
	return out
}

// Message picks the text shown to clients: missing fields collapse into
// the caller's summary, anything else uses the first translated message.
func Message(err error, missing string) string {
	var errs Errors
	if !errors.As(err, &errs) {
		return err.Error()
	}
	if errs.MissingOnly() && missing != "" {
		return missing
	}
	return errs[0].Message
}
