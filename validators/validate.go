package validators

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New()
	// Report json names so messages match request fields.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Struct validates s and returns field errors keyed by json name, or nil.
func Struct(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	return FormatValidationErrors(err)
}

// FormatValidationErrors converts validation errors to a user-friendly format
func FormatValidationErrors(err error) map[string]string {
	errors := make(map[string]string)

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		errors["body"] = err.Error()
		return errors
	}
	for _, e := range validationErrs {
		field := e.Field()
		switch e.Tag() {
		case "required":
			errors[field] = fmt.Sprintf("%s is required!", field)
		case "email":
			errors[field] = "Invalid email!"
		case "min":
			if e.Kind() == reflect.String {
				errors[field] = fmt.Sprintf("%s must be at least %s characters long!", field, e.Param())
			} else {
				errors[field] = fmt.Sprintf("%s must be at least %s!", field, e.Param())
			}
		case "max":
			if e.Kind() == reflect.String {
				errors[field] = fmt.Sprintf("%s must be at most %s characters long!", field, e.Param())
			} else {
				errors[field] = fmt.Sprintf("%s must be at most %s!", field, e.Param())
			}
		case "gte":
			errors[field] = fmt.Sprintf("%s must be greater than or equal to %s!", field, e.Param())
		case "lte":
			errors[field] = fmt.Sprintf("%s must be less than or equal to %s!", field, e.Param())
		case "oneof":
			errors[field] = fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(e.Param(), " ", ", "))
		case "url":
			errors[field] = fmt.Sprintf("%s must be a valid URL!", field)
		default:
			errors[field] = fmt.Sprintf("%s is invalid!", field)
		}
	}
	return errors
}

// ParamID parses a positive numeric route parameter.
func ParamID(c *fiber.Ctx, name string) (uint, bool) {
	raw := strings.TrimSpace(c.Params(name))
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
