package querystate

import (
	"fmt"
	"reflect"
	"strconv"
)

// assignValue populates a struct field from a decoded value.
//
// Query-string values arrive as strings and are parsed per the field's kind.
// Payload values arrive typed from the codec; scalars are converted directly
// and composite values fall back to a codec round-trip into the field.
func assignValue(codec Codec, field reflect.Value, val any) error {
	if s, ok := val.(string); ok {
		return setFromString(field, s)
	}

	rv := reflect.ValueOf(val)
	if !rv.IsValid() {
		// Absent value, leave the zero.
		return nil
	}

	ft := field.Type()
	if rv.Type().AssignableTo(ft) {
		field.Set(rv)
		return nil
	}
	if isScalar(rv.Kind()) && isScalar(field.Kind()) && rv.Type().ConvertibleTo(ft) {
		field.Set(rv.Convert(ft))
		return nil
	}

	// Composite value (map, slice, nested struct): round-trip through the
	// codec to rebuild the field's native type.
	data, err := codec.Marshal(val)
	if err != nil {
		return err
	}
	return codec.Unmarshal(data, field.Addr().Interface())
}

// setFromString parses a string into a scalar field.
func setFromString(v reflect.Value, s string) error {
	switch v.Kind() {
	case reflect.String:
		v.SetString(s)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return err
		}
		v.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		i, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return err
		}
		v.SetUint(i)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		v.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}
		v.SetBool(b)
	default:
		return fmt.Errorf("cannot parse %q into %v", s, v.Kind())
	}
	return nil
}

// isScalar reports whether a kind supports direct reflect conversion.
func isScalar(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.Bool:
		return true
	default:
		return false
	}
}
