package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"gymplanner/internal/pkg/timeslot"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Report fields by their JSON name.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	_ = validate.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		_, err := timeslot.ParseClock(fl.Field().String())
		return err == nil
	})
	_ = validate.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		_, err := timeslot.ParseDate(fl.Field().String())
		return err == nil
	})
}

// Validate struct fields
func Validate(v interface{}) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"_": err.Error()}
	}

	errors := make(map[string]string)
	for _, err := range ve {
		errors[err.Field()] = err.Tag()
	}
	return errors
}
