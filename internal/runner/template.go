package runner

import (
	"errors"
	"fmt"
	"os"
	"reflect"
)

// ExpandTemplates walks the struct pointed to by in and expands ${VAR} references in
// place. Only string and *string fields carrying a `template` tag are expanded;
// `template:"-"` skips a field. Nested structs and non-nil *struct fields are always
// traversed. Unexported fields are skipped.
func ExpandTemplates[T any](in *T, variables map[string]string) error {
	if in == nil {
		return nil
	}
	v := reflect.ValueOf(in).Elem()
	if v.Kind() != reflect.Struct {
		return fmt.Errorf("ExpandTemplates expects *struct; got *%s", v.Type())
	}
	return expandStruct(v, variables)
}

func expandStruct(v reflect.Value, variables map[string]string) error {
	var errs error
	typ := v.Type()
	for i := 0; i < typ.NumField(); i++ {
		sf := typ.Field(i)
		if !sf.IsExported() {
			continue
		}
		field := v.Field(i)
		tag, tagged := sf.Tag.Lookup("template")
		expandable := tagged && tag != "-"

		switch field.Kind() {
		case reflect.String:
			if !expandable {
				continue
			}
			expanded, err := Expand(field.String(), variables)
			if err != nil {
				errs = errors.Join(errs, fmt.Errorf("%s: %w", sf.Name, err))
				continue
			}
			field.SetString(expanded)

		case reflect.Ptr:
			if field.IsNil() {
				continue
			}
			elem := field.Elem()
			switch elem.Kind() {
			case reflect.String:
				if !expandable {
					continue
				}
				expanded, err := Expand(elem.String(), variables)
				if err != nil {
					errs = errors.Join(errs, fmt.Errorf("%s: %w", sf.Name, err))
					continue
				}
				// Replace the pointer so a value shared with the caller is left untouched.
				field.Set(reflect.ValueOf(&expanded))
			case reflect.Struct:
				errs = errors.Join(errs, expandStruct(elem, variables))
			}

		case reflect.Struct:
			errs = errors.Join(errs, expandStruct(field, variables))
		}
	}
	return errs
}

// Expand replaces ${VAR} references in the input string using the provided variables map.
// Returns an error if any referenced variable is not in the variables map.
func Expand(value string, variables map[string]string) (string, error) {
	var errs error

	result := os.Expand(value, func(key string) string {
		if val, ok := variables[key]; ok {
			return val
		}
		errs = errors.Join(errs, fmt.Errorf("variable %q is not defined or not in the allowed list", key))
		return ""
	})

	if errs != nil {
		return "", errs
	}

	return result, nil
}
