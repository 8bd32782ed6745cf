package rpc

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	graphql "github.com/hasura/go-graphql-client"
)

// Args wraps task arguments. Stash sends every number as float64 in JSON and
// UI-built tasks may send strings, so every getter is lenient.
type Args map[string]interface{}

// String returns a string argument or def
func (a Args) String(key, def string) string {
	switch v := a[key].(type) {
	case string:
		if v != "" {
			return v
		}
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	}
	return def
}

// Float returns a float argument or def. A present but unparseable value is
// an error so a typo never silently becomes the default.
func (a Args) Float(key string, def float64) (float64, error) {
	val, ok := a[key]
	if !ok || val == nil {
		return def, nil
	}
	switch v := val.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		if strings.TrimSpace(v) == "" {
			return def, nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("argument %s: %q is not a number", key, v)
		}
		return f, nil
	}
	return 0, fmt.Errorf("argument %s: unsupported type %T", key, val)
}

// Bool returns a bool argument or def
func (a Args) Bool(key string, def bool) (bool, error) {
	val, ok := a[key]
	if !ok || val == nil {
		return def, nil
	}
	switch v := val.(type) {
	case bool:
		return v, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return def, nil
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, fmt.Errorf("argument %s: %q is not a boolean", key, v)
		}
		return b, nil
	case float64:
		return v != 0, nil
	}
	return false, fmt.Errorf("argument %s: unsupported type %T", key, val)
}

// ID returns a Stash object ID argument, formatting numeric IDs without a
// decimal part
func (a Args) ID(key string) (graphql.ID, bool) {
	switch v := a[key].(type) {
	case float64:
		return graphql.ID(fmt.Sprintf("%.0f", v)), true
	case int:
		return graphql.ID(strconv.Itoa(v)), true
	case string:
		if v != "" {
			return graphql.ID(v), true
		}
	}
	return "", false
}

// floatField reads an optional float argument into dst
func (a Args) floatField(key string, dst *float64) error {
	v, err := a.Float(key, *dst)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

// boolField reads an optional bool argument into dst
func (a Args) boolField(key string, dst *bool) error {
	v, err := a.Bool(key, *dst)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

// optionalFloat reads a float argument, returning nil when it is absent
func (a Args) optionalFloat(key string) (*float64, error) {
	v, err := a.Float(key, math.NaN())
	if err != nil || math.IsNaN(v) {
		return nil, err
	}
	return &v, nil
}
