package shared

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldErrors maps form field names onto user facing messages.
type FieldErrors map[string]string

// Error implements error.
func (f FieldErrors) Error() string {
	parts := make([]string, 0, len(f))
	for field, msg := range f {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NewValidator returns a validator that reports fields by their form tag.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validate runs v over s and converts failures into FieldErrors.
func Validate(v *validator.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Este campo es obligatorio."
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Debe tener al menos %s caracteres.", fe.Param())
		}
		return fmt.Sprintf("Debe ser al menos %s.", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Debe tener como máximo %s caracteres.", fe.Param())
		}
		return fmt.Sprintf("Debe ser como máximo %s.", fe.Param())
	case "gte":
		return fmt.Sprintf("Debe ser mayor o igual a %s.", fe.Param())
	case "gt":
		return fmt.Sprintf("Debe ser mayor a %s.", fe.Param())
	case "oneof":
		return "Valor no permitido."
	case "email":
		return "Correo electrónico inválido."
	default:
		return "Valor inválido."
	}
}
