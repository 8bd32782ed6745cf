package config

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

const optTag = "opt"

// FieldTypeError reports an option whose value cannot be stored in the
// schema field it targets
type FieldTypeError struct {
	Key   string
	Field string
	Want  string
	Value interface{}
}

func (e *FieldTypeError) Error() string {
	return fmt.Sprintf("option %s: cannot use %v (%T) as %s for field %s", e.Key, e.Value, e.Value, e.Want, e.Field)
}

// Resolve builds a T from defaults, overriding every opt-tagged field whose
// key is present in ns. Keys that T does not declare are ignored, so one
// namespace can feed several schemas.
func Resolve[T any](defaults T, ns Namespace) (T, error) {
	out := defaults
	rv := reflect.ValueOf(&out).Elem()
	if rv.Kind() != reflect.Struct {
		return defaults, fmt.Errorf("resolve target must be a struct, got %s", rv.Kind())
	}

	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		key, ok := field.Tag.Lookup(optTag)
		if !ok || key == "" || !field.IsExported() {
			continue
		}
		value, ok := ns.Get(key)
		if !ok {
			continue
		}
		if err := assign(rv.Field(i), value); err != nil {
			return defaults, &FieldTypeError{Key: key, Field: field.Name, Want: field.Type.String(), Value: value}
		}
	}
	return out, nil
}

// Options flattens the opt-tagged fields of a struct into an option layer
func Options(v interface{}) map[string]interface{} {
	rv := reflect.Indirect(reflect.ValueOf(v))
	if rv.Kind() != reflect.Struct {
		return nil
	}
	rt := rv.Type()
	opts := make(map[string]interface{}, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		key, ok := field.Tag.Lookup(optTag)
		if !ok || key == "" || !field.IsExported() {
			continue
		}
		opts[key] = rv.Field(i).Interface()
	}
	return opts
}

func assign(dst reflect.Value, value interface{}) error {
	src := reflect.ValueOf(value)
	if src.Type().AssignableTo(dst.Type()) {
		dst.Set(src)
		return nil
	}

	switch dst.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := toInt(value)
		if err != nil {
			return err
		}
		if dst.OverflowInt(n) {
			return fmt.Errorf("%d overflows %s", n, dst.Type())
		}
		dst.SetInt(n)
		return nil
	case reflect.Float32, reflect.Float64:
		f, err := toFloat(value)
		if err != nil {
			return err
		}
		dst.SetFloat(f)
		return nil
	case reflect.Bool:
		if s, ok := value.(string); ok {
			switch strings.ToLower(strings.TrimSpace(s)) {
			case "true":
				dst.SetBool(true)
				return nil
			case "false":
				dst.SetBool(false)
				return nil
			}
		}
	case reflect.String:
		if src.Kind() == reflect.String {
			dst.SetString(src.String())
			return nil
		}
	}
	return fmt.Errorf("unsupported conversion from %T to %s", value, dst.Type())
}

func toFloat(value interface{}) (float64, error) {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.String:
		return strconv.ParseFloat(strings.TrimSpace(rv.String()), 64)
	}
	return 0, fmt.Errorf("%T is not numeric", value)
}

// toInt accepts floats only when they hold a whole number
func toInt(value interface{}) (int64, error) {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, fmt.Errorf("%d overflows int64", u)
		}
		return int64(u), nil
	case reflect.String:
		s := strings.TrimSpace(rv.String())
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, err
		}
		return wholeNumber(f)
	case reflect.Float32, reflect.Float64:
		return wholeNumber(rv.Float())
	}
	return 0, fmt.Errorf("%T is not numeric", value)
}

func wholeNumber(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("%g is not a whole number", f)
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("%g overflows int64", f)
	}
	return int64(f), nil
}
