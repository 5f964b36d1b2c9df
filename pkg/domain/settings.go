package domain

import "log/slog"

// TenantSettings is the per-request configuration decoded from the component
// settings header. Values are immutable once constructed.
type TenantSettings struct {
	apiKey     string
	templateID string
}

// NewTenantSettings builds settings from already validated values.
func NewTenantSettings(apiKey, templateID string) TenantSettings {
	return TenantSettings{apiKey: apiKey, templateID: templateID}
}

// APIKey returns the pdforge API key.
func (s TenantSettings) APIKey() string { return s.apiKey }

// TemplateID returns the pdforge template identifier.
func (s TenantSettings) TemplateID() string { return s.templateID }

// String never includes the API key.
func (s TenantSettings) String() string {
	return "TenantSettings{template_id=" + s.templateID + ", api_key=" + maskKey(s.apiKey) + "}"
}

// LogValue implements slog.LogValuer so settings can be logged directly.
func (s TenantSettings) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("template_id", s.templateID),
		slog.String("api_key", maskKey(s.apiKey)),
	)
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:4] + "***" + key[len(key)-4:]
}
