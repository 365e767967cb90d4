package util

import (
	"fmt"
	"math"
	"reflect"
	"strings"
)

// CheckIntegral fails when doc, a generically decoded YAML document, holds a
// number with a fractional part where the yaml tagged fields of v expect an
// integer. yaml.v2 truncates such numbers silently. Inline and nested
// structs are followed.
func CheckIntegral(doc any, v any) error {
	return checkIntegral(doc, reflect.TypeOf(v), "")
}

func checkIntegral(doc any, t reflect.Type, path string) error {
	if t == nil {
		return nil
	}

	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if f, ok := toFloat(doc); ok && f != math.Trunc(f) {
			return fmt.Errorf("%s: %v is not an integer", path, f)
		}
	case reflect.Struct:
		for i := range t.NumField() {
			field := t.Field(i)
			name, opts, _ := strings.Cut(field.Tag.Get("yaml"), ",")

			if opts == "inline" {
				if err := checkIntegral(doc, field.Type, path); err != nil {
					return err
				}

				continue
			}

			if name == "" || name == "-" {
				continue
			}

			value, ok := lookup(doc, name)
			if !ok {
				continue
			}

			if err := checkIntegral(value, field.Type, joinPath(path, name)); err != nil {
				return err
			}
		}
	}

	return nil
}

func toFloat(v any) (float64, bool) {
	switch f := v.(type) {
	case float64:
		return f, true
	case float32:
		return float64(f), true
	}

	return 0, false
}

func lookup(doc any, key string) (any, bool) {
	switch m := doc.(type) {
	case map[string]any:
		v, ok := m[key]
		return v, ok
	case map[any]any:
		v, ok := m[key]
		return v, ok
	}

	return nil, false
}

func joinPath(path, name string) string {
	if path == "" {
		return name
	}

	return path + "." + name
}
