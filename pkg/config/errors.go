package config

import "fmt"

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field       string
	Value       interface{}
	Reason      string
	Suggestions []string
}

func (e *ConfigError) Error() string {
	if len(e.Suggestions) > 0 {
		return fmt.Sprintf("configuration error in field '%s': %s (%s)", e.Field, e.Reason, e.Suggestions[0])
	}
	return fmt.Sprintf("configuration error in field '%s': %s", e.Field, e.Reason)
}

// WithSuggestion attaches a remediation hint.
func (e *ConfigError) WithSuggestion(suggestion string) *ConfigError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// NewConfigValidationError reports an invalid field value.
func NewConfigValidationError(field string, value interface{}, reason string) *ConfigError {
	return &ConfigError{
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}
