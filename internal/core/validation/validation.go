// Package validation holds the guard predicates shared by the services.
// They are pure and never touch storage.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON attribute name.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := jsonName(f); name != "" {
			return name
		}
		return f.Name
	})
	return v
}

// IsValidID reports whether id can identify a stored record.
func IsValidID(id int) bool {
	return id > 0
}

// IsValidStrings reports whether every value is a non-empty string.
func IsValidStrings(values ...string) bool {
	for _, s := range values {
		if s == "" {
			return false
		}
	}
	return true
}

// IsValidObject reports whether obj is non-nil and every required field is
// set, except the fields named in nullable (Go field names, e.g. "ID").
func IsValidObject(obj any, nullable ...string) bool {
	return ValidateObject(obj, nullable...) == nil
}

// ValidateObject is IsValidObject returning the reason of the rejection.
func ValidateObject(obj any, nullable ...string) error {
	if isNil(obj) {
		return errors.New("object is required")
	}
	if err := validate.StructExcept(obj, nullable...); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			msgs := make([]string, 0, len(ve))
			for _, fe := range ve {
				msgs = append(msgs, fieldError(fe))
			}
			return fmt.Errorf("%s", strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}

// IsPropertyOf reports whether key names a JSON attribute of shape.
// It keeps client-supplied query keys restricted to real entity fields.
func IsPropertyOf(key string, shape any) bool {
	if key == "" || shape == nil {
		return false
	}
	t := reflect.TypeOf(shape)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return false
	}
	for i := 0; i < t.NumField(); i++ {
		if jsonName(t.Field(i)) == key {
			return true
		}
	}
	return false
}

// IsEmptyObject reports whether obj is non-nil and holds no keys: an empty
// map, slice or array, or a struct with every field at its zero value.
func IsEmptyObject(obj any) bool {
	v := reflect.ValueOf(obj)
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return false
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		return v.Len() == 0
	case reflect.Struct:
		return v.IsZero()
	default:
		return false
	}
}

// fieldError converts a single FieldError into a human-readable message.
func fieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

func isNil(obj any) bool {
	if obj == nil {
		return true
	}
	v := reflect.ValueOf(obj)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
