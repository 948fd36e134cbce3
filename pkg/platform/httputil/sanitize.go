package httputil

import (
	"reflect"
	"strings"
)

// Sanitize trims whitespace from string and []string fields of a struct,
// descending into nested structs and slices of structs.
func Sanitize(v any) {
	val := reflect.ValueOf(v)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return
	}
	sanitizeValue(val.Elem())
}

func sanitizeValue(val reflect.Value) {
	if val.Kind() != reflect.Struct {
		return
	}
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		if !field.CanSet() {
			continue
		}
		switch field.Kind() {
		case reflect.String:
			field.SetString(strings.TrimSpace(field.String()))
		case reflect.Struct:
			sanitizeValue(field)
		case reflect.Ptr:
			if !field.IsNil() {
				sanitizeValue(field.Elem())
			}
		case reflect.Slice:
			switch field.Type().Elem().Kind() {
			case reflect.String:
				for j := 0; j < field.Len(); j++ {
					elem := field.Index(j)
					elem.SetString(strings.TrimSpace(elem.String()))
				}
			case reflect.Struct:
				for j := 0; j < field.Len(); j++ {
					sanitizeValue(field.Index(j))
				}
			}
		}
	}
}
