package adapter

import (
	"encoding/json"
	"errors"

	"github.com/polisai/pdforge-adapter/pkg/domain"
)

// Required keys of the settings document.
const (
	SettingAPIKey     = "api_key"
	SettingTemplateID = "template_id"
)

var errSettingsNotObject = errors.New("settings must be a JSON object")

// ExtractSettings decodes tenant settings from the single settings header.
// Repeated headers are rejected even when the values are identical.
func ExtractSettings(headers domain.HeaderMap) (domain.TenantSettings, error) {
	values := headers.Values(domain.SettingsHeader)
	switch len(values) {
	case 0:
		return domain.TenantSettings{}, &domain.ConfigError{Kind: domain.ConfigMissing}
	case 1:
	default:
		return domain.TenantSettings{}, &domain.ConfigError{Kind: domain.ConfigAmbiguous, Count: len(values)}
	}

	var document map[string]json.RawMessage
	if err := json.Unmarshal([]byte(values[0]), &document); err != nil {
		return domain.TenantSettings{}, &domain.ConfigError{Kind: domain.ConfigInvalidJSON, Err: err}
	}
	if document == nil {
		return domain.TenantSettings{}, &domain.ConfigError{Kind: domain.ConfigInvalidJSON, Err: errSettingsNotObject}
	}

	apiKey, err := requiredString(document, SettingAPIKey)
	if err != nil {
		return domain.TenantSettings{}, err
	}
	templateID, err := requiredString(document, SettingTemplateID)
	if err != nil {
		return domain.TenantSettings{}, err
	}

	return domain.NewTenantSettings(apiKey, templateID), nil
}

func requiredString(document map[string]json.RawMessage, field string) (string, error) {
	raw, ok := document[field]
	if !ok {
		return "", &domain.ConfigError{Kind: domain.ConfigMissingField, Field: field}
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil || value == "" {
		return "", &domain.ConfigError{Kind: domain.ConfigMissingField, Field: field, Err: err}
	}
	return value, nil
}
