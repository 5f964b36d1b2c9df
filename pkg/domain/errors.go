package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// SettingsHeader is the single request header carrying tenant settings.
const SettingsHeader = "x-edgee-component-settings"

// Public messages written into error responses.
const (
	MsgSettingsInvalid    = "Failed to parse component settings, missing Pdforge API Key"
	MsgUpstreamUnparsable = "Failed to parse Pdforge response"
	MsgUnsupportedMethod  = "Unsupported method"
)

// Sentinel errors for the request lifecycle.
var (
	ErrConfigMissing       = errors.New("component settings header missing")
	ErrConfigAmbiguous     = errors.New("component settings header ambiguous")
	ErrConfigInvalidJSON   = errors.New("component settings are not valid JSON")
	ErrConfigMissingField  = errors.New("component settings field missing")
	ErrUnsupportedMethod   = errors.New("unsupported method")
	ErrBodyReadFailed      = errors.New("request body read failed")
	ErrBodyInvalidJSON     = errors.New("request body is not valid JSON")
	ErrUpstreamUnreachable = errors.New("upstream service unreachable")
	ErrUpstreamUnparsable  = errors.New("upstream response unparsable")
)

// ConfigErrorKind classifies settings extraction failures.
type ConfigErrorKind int

const (
	ConfigMissing ConfigErrorKind = iota
	ConfigAmbiguous
	ConfigInvalidJSON
	ConfigMissingField
)

func (k ConfigErrorKind) String() string {
	switch k {
	case ConfigMissing:
		return "missing"
	case ConfigAmbiguous:
		return "ambiguous"
	case ConfigInvalidJSON:
		return "invalid_json"
	case ConfigMissingField:
		return "missing_field"
	default:
		return "unknown"
	}
}

// ConfigError reports why tenant settings could not be extracted.
type ConfigError struct {
	Kind  ConfigErrorKind
	Field string // set for ConfigMissingField
	Count int    // occurrences seen, set for ConfigAmbiguous
	Err   error
}

func (e *ConfigError) Error() string {
	switch e.Kind {
	case ConfigMissing:
		return fmt.Sprintf("missing '%s' header", SettingsHeader)
	case ConfigAmbiguous:
		return fmt.Sprintf("expected exactly one '%s' header, found %d", SettingsHeader, e.Count)
	case ConfigInvalidJSON:
		return fmt.Sprintf("invalid '%s' header: %v", SettingsHeader, e.Err)
	case ConfigMissingField:
		return fmt.Sprintf("missing '%s' in settings", e.Field)
	default:
		return "invalid component settings"
	}
}

func (e *ConfigError) Unwrap() error { return e.Err }

func (e *ConfigError) Is(target error) bool {
	switch e.Kind {
	case ConfigMissing:
		return target == ErrConfigMissing
	case ConfigAmbiguous:
		return target == ErrConfigAmbiguous
	case ConfigInvalidJSON:
		return target == ErrConfigInvalidJSON
	case ConfigMissingField:
		return target == ErrConfigMissingField
	}
	return false
}

// BodyErrorKind classifies request body failures.
type BodyErrorKind int

const (
	BodyUnsupportedMethod BodyErrorKind = iota
	BodyReadFailed
	BodyInvalidJSON
)

func (k BodyErrorKind) String() string {
	switch k {
	case BodyUnsupportedMethod:
		return "unsupported_method"
	case BodyReadFailed:
		return "read_failed"
	case BodyInvalidJSON:
		return "invalid_json"
	default:
		return "unknown"
	}
}

// BodyError reports a request that was rejected before reaching pdforge.
type BodyError struct {
	Kind   BodyErrorKind
	Method string
	Err    error
}

func (e *BodyError) Error() string {
	switch e.Kind {
	case BodyUnsupportedMethod:
		return MsgUnsupportedMethod
	case BodyReadFailed:
		return fmt.Sprintf("Failed to read request body: %v", e.Err)
	case BodyInvalidJSON:
		return fmt.Sprintf("Failed to parse JSON body: %v", e.Err)
	default:
		return "invalid request body"
	}
}

func (e *BodyError) Unwrap() error { return e.Err }

func (e *BodyError) Is(target error) bool {
	switch e.Kind {
	case BodyUnsupportedMethod:
		return target == ErrUnsupportedMethod
	case BodyReadFailed:
		return target == ErrBodyReadFailed
	case BodyInvalidJSON:
		return target == ErrBodyInvalidJSON
	}
	return false
}

// UpstreamError reports that the pdforge call could not be completed.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	if e.Err == nil {
		return ErrUpstreamUnreachable.Error()
	}
	return e.Err.Error()
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstreamUnreachable
}

// UpstreamResponseError reports a pdforge response whose body is not JSON.
type UpstreamResponseError struct {
	StatusCode int
	Err        error
}

func (e *UpstreamResponseError) Error() string {
	return MsgUpstreamUnparsable
}

func (e *UpstreamResponseError) Unwrap() error { return e.Err }

func (e *UpstreamResponseError) Is(target error) bool {
	return target == ErrUpstreamUnparsable
}

// StatusFor maps an error to the HTTP status written back to the caller.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrUnsupportedMethod),
		errors.Is(err, ErrBodyReadFailed),
		errors.Is(err, ErrBodyInvalidJSON):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message placed in the error response body. Settings
// failures collapse to a single message so header contents never leak back.
func PublicMessage(err error) string {
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return MsgSettingsInvalid
	}
	var respErr *UpstreamResponseError
	if errors.As(err, &respErr) {
		return MsgUpstreamUnparsable
	}
	var bodyErr *BodyError
	if errors.As(err, &bodyErr) {
		return bodyErr.Error()
	}
	var upErr *UpstreamError
	if errors.As(err, &upErr) {
		return upErr.Error()
	}
	return err.Error()
}

// ErrorResponse is the JSON body of every synthesized error response.
type ErrorResponse struct {
	Error string `json:"error"`
}
