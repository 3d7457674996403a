package querystate

import (
	"errors"
	"fmt"
)

// Sentinel errors for programmatic error handling.
// Use errors.Is() to check for these error types.
var (
	// ErrNotText indicates a designated carrier field is not a string field.
	ErrNotText = errors.New("carrier field is not text")

	// ErrUnknownRole indicates a query.role tag has an unrecognized value.
	ErrUnknownRole = errors.New("unknown role")

	// ErrEncode indicates the payload could not be encoded into the carrier.
	ErrEncode = errors.New("payload encode failed")

	// ErrDecode indicates a carrier value could not be decoded.
	ErrDecode = errors.New("payload decode failed")

	// ErrConstruct indicates a field could not be populated during Deserialize.
	ErrConstruct = errors.New("construct failed")
)

// ConfigError represents a schema classification error.
// It wraps a sentinel error with the offending field and tag value.
// Classification errors are local to one type; other types are unaffected.
type ConfigError struct {
	Err   error  // Underlying sentinel error (ErrNotText, ErrUnknownRole)
	Field string // Field name that triggered the error
	Value string // Tag value, when relevant
}

func (e *ConfigError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s %q (field %s)", e.Err.Error(), e.Value, e.Field)
	}
	return fmt.Sprintf("%s (field %s)", e.Err.Error(), e.Field)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// CodecError represents a payload encode/decode failure.
type CodecError struct {
	Err   error // Underlying sentinel error (ErrEncode, ErrDecode)
	Cause error // Original error from the codec
}

func (e *CodecError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Err.Error(), e.Cause)
	}
	return e.Err.Error()
}

func (e *CodecError) Unwrap() error {
	return e.Err
}

// ConstructError represents a failure to populate a field during Deserialize.
// The original cause is carried unchanged.
type ConstructError struct {
	Err   error  // ErrConstruct
	Field string // Query key of the field that failed
	Cause error  // Original error from parsing or assignment
}

func (e *ConstructError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s for key %s: %v", e.Err.Error(), e.Field, e.Cause)
	}
	return fmt.Sprintf("%s for key %s", e.Err.Error(), e.Field)
}

func (e *ConstructError) Unwrap() error {
	return e.Err
}

// newConfigError creates a ConfigError for schema misconfiguration.
func newConfigError(sentinel error, field, value string) error {
	return &ConfigError{
		Err:   sentinel,
		Field: field,
		Value: value,
	}
}

// newCodecError creates a CodecError for carrier encode/decode failures.
func newCodecError(sentinel, cause error) error {
	return &CodecError{
		Err:   sentinel,
		Cause: cause,
	}
}

// newConstructError creates a ConstructError for field population failures.
func newConstructError(field string, cause error) error {
	return &ConstructError{
		Err:   ErrConstruct,
		Field: field,
		Cause: cause,
	}
}
