package strata

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// String retrieves a string value at the path, converting common
// scalar types when the stored value is not already a string.
func (t *Tree) String(path string) (string, error) {
	val, err := t.Get(path)
	if err != nil {
		return "", err
	}
	if val == nil {
		return "", nil
	}

	switch v := val.(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case fmt.Stringer:
		return v.String(), nil
	}

	rv := reflect.ValueOf(val)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), nil
	}
	return "", fmt.Errorf("cannot convert %T to string for path %s", val, path)
}

// Int64 retrieves an int64 value at the path, converting numeric
// types, parsable strings, and booleans.
func (t *Tree) Int64(path string) (int64, error) {
	val, err := t.Get(path)
	if err != nil {
		return 0, err
	}
	if val == nil {
		return 0, fmt.Errorf("value at %s is nil, cannot convert to int64", path)
	}

	rv := reflect.ValueOf(val)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Float32, reflect.Float64:
		return int64(rv.Float()), nil
	case reflect.Bool:
		if rv.Bool() {
			return 1, nil
		}
		return 0, nil
	case reflect.String:
		s := rv.String()
		if i, err := strconv.ParseInt(s, 0, 64); err == nil {
			return i, nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int64(f), nil
		}
		return 0, fmt.Errorf("cannot convert %q to int64 for path %s", s, path)
	}
	return 0, fmt.Errorf("cannot convert %T to int64 for path %s", val, path)
}

// Float64 retrieves a float64 value at the path, converting numeric
// types, parsable strings, and booleans.
func (t *Tree) Float64(path string) (float64, error) {
	val, err := t.Get(path)
	if err != nil {
		return 0, err
	}
	if val == nil {
		return 0, fmt.Errorf("value at %s is nil, cannot convert to float64", path)
	}

	rv := reflect.ValueOf(val)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Bool:
		if rv.Bool() {
			return 1, nil
		}
		return 0, nil
	case reflect.String:
		s := rv.String()
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, nil
		}
		return 0, fmt.Errorf("cannot convert %q to float64 for path %s", s, path)
	}
	return 0, fmt.Errorf("cannot convert %T to float64 for path %s", val, path)
}

// Bool retrieves a boolean value at the path. Numbers convert as
// zero=false, non-zero=true; strings go through strconv.ParseBool.
func (t *Tree) Bool(path string) (bool, error) {
	val, err := t.Get(path)
	if err != nil {
		return false, err
	}
	if val == nil {
		return false, fmt.Errorf("value at %s is nil, cannot convert to bool", path)
	}

	rv := reflect.ValueOf(val)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0, nil
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0, nil
	case reflect.String:
		s := rv.String()
		if b, err := strconv.ParseBool(s); err == nil {
			return b, nil
		}
		return false, fmt.Errorf("cannot convert %q to bool for path %s", s, path)
	}
	return false, fmt.Errorf("cannot convert %T to bool for path %s", val, path)
}

// StringSlice retrieves a string slice at the path. Sequences are
// converted element-wise; a plain string splits on commas with
// whitespace trimmed.
func (t *Tree) StringSlice(path string) ([]string, error) {
	val, err := t.Get(path)
	if err != nil {
		return nil, err
	}

	switch v := val.(type) {
	case []any:
		out := make([]string, len(v))
		for i, e := range v {
			s, ok := e.(string)
			if !ok {
				out[i] = fmt.Sprintf("%v", e)
				continue
			}
			out[i] = s
		}
		return out, nil
	case string:
		if v == "" {
			return nil, nil
		}
		parts := strings.Split(v, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts, nil
	}
	return nil, fmt.Errorf("cannot convert %T to string slice for path %s", val, path)
}

// Duration retrieves a time.Duration at the path. Strings parse with
// time.ParseDuration; integers are taken as nanoseconds; floats as
// seconds.
func (t *Tree) Duration(path string) (time.Duration, error) {
	val, err := t.Get(path)
	if err != nil {
		return 0, err
	}

	switch v := val.(type) {
	case time.Duration:
		return v, nil
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("cannot convert %q to duration for path %s: %w", v, path, err)
		}
		return d, nil
	case int64:
		return time.Duration(v), nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	}
	return 0, fmt.Errorf("cannot convert %T to duration for path %s", val, path)
}
