package validation

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hironxdev/trevo.lk-sub002/internal/domain/availability"
	"github.com/hironxdev/trevo.lk-sub002/internal/domain/pricing"
)

var ErrInvalidInput = errors.New("validation: invalid input")

// FieldError describes one rejected field using its json name.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

// Error wraps ErrInvalidInput with every rejected field.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		if f.Param != "" {
			parts[i] = fmt.Sprintf("%s failed %s=%s", f.Field, f.Rule, f.Param)
		} else {
			parts[i] = fmt.Sprintf("%s failed %s", f.Field, f.Rule)
		}
	}
	return fmt.Sprintf("%s: %s", ErrInvalidInput, strings.Join(parts, "; "))
}

func (e *Error) Unwrap() error { return ErrInvalidInput }

// Validator runs struct tag validation on commands and queries.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	mustRegister(v, "vertical", func(fl validator.FieldLevel) bool {
		_, err := pricing.ParseVertical(fl.Field().String())
		return err == nil
	})
	mustRegister(v, "rental_type", func(fl validator.FieldLevel) bool {
		_, err := pricing.ParseRentalType(fl.Field().String())
		return err == nil
	})
	mustRegister(v, "booking_status", func(fl validator.FieldLevel) bool {
		_, err := availability.ParseStatus(fl.Field().String())
		return err == nil
	})
	return &Validator{v: v}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

func (v *Validator) Validate(_ context.Context, message any) error {
	if message == nil {
		return nil
	}
	rv := reflect.ValueOf(message)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	err := v.v.Struct(rv.Interface())
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &Error{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Rule: fe.Tag(), Param: fe.Param()})
	}
	return out
}
