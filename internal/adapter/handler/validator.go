package handler

import (
	"reflect"
	"strings"

	"cradle-gate/internal/domain"

	"github.com/go-playground/validator/v10"
)

// RequestValidator implements echo.Validator on go-playground/validator.
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator registers the "role" tag, which accepts canonical
// roles only.
func NewRequestValidator() *RequestValidator {
	validate := validator.New(validator.WithRequiredStructEnabled())
	_ = validate.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return domain.Role(fl.Field().String()).Valid()
	})
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &RequestValidator{validate: validate}
}

// Validate validates i.
func (v *RequestValidator) Validate(i any) error {
	return v.validate.Struct(i)
}
