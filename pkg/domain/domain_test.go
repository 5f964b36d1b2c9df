package domain

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeaderMapCaseInsensitive(t *testing.T) {
	h := HeaderMap{}
	h.Add("X-Edgee-Component-Settings", "one")
	h.Add("x-edgee-component-settings", "two")

	assert.Equal(t, []string{"one", "two"}, h.Values(SettingsHeader))
	assert.Equal(t, "one", h.Get("X-EDGEE-COMPONENT-SETTINGS"))

	h.Set("Content-Type", "application/json")
	assert.Equal(t, []string{"application/json"}, h.Values("content-type"))

	raw := HeaderMap{"Content-Type": {"text/plain"}}
	assert.Equal(t, "text/plain", raw.Get("content-type"))
	assert.Empty(t, HeaderMap(nil).Values("anything"))
}

func TestHeaderMapMergesMixedCaseKeys(t *testing.T) {
	h := HeaderMap{
		"x-edgee-component-settings": {"lower"},
		"X-Edgee-Component-Settings": {"canonical"},
		"X-EDGEE-COMPONENT-SETTINGS": {"upper"},
	}

	assert.Equal(t, []string{"lower", "upper", "canonical"}, h.Values(SettingsHeader))
	assert.Equal(t, "lower", h.Get(SettingsHeader))

	mixedOnly := HeaderMap{"Accept": {"a"}, "ACCEPT": {"b"}}
	assert.Equal(t, []string{"b", "a"}, mixedOnly.Values("accept"))
}

func TestHeaderMapClone(t *testing.T) {
	h := HeaderMap{"a": {"1"}}
	c := h.Clone()
	c.Add("a", "2")

	assert.Equal(t, []string{"1"}, h["a"])
	assert.Equal(t, []string{"1", "2"}, c["a"])
	assert.Nil(t, HeaderMap(nil).Clone())
}

func TestTenantSettingsMasksKey(t *testing.T) {
	s := NewTenantSettings("sk_live_abcdefgh1234", "invoice")

	assert.Equal(t, "sk_live_abcdefgh1234", s.APIKey())
	assert.Equal(t, "invoice", s.TemplateID())
	assert.NotContains(t, s.String(), "abcdefgh")
	assert.Contains(t, s.String(), "sk_l***1234")

	var buf bytes.Buffer
	slog.New(slog.NewJSONHandler(&buf, nil)).Info("settings", "settings", s)
	assert.NotContains(t, buf.String(), "sk_live_abcdefgh1234")
	assert.Contains(t, buf.String(), `"template_id":"invoice"`)

	assert.Contains(t, NewTenantSettings("short", "t").String(), "api_key=***")
}

func TestOutboundResponseMarkSent(t *testing.T) {
	resp := &OutboundResponse{StatusCode: 200}
	assert.False(t, resp.Sent())
	assert.True(t, resp.MarkSent())
	assert.False(t, resp.MarkSent())
	assert.True(t, resp.Sent())
}

func TestStatusAndPublicMessage(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{
			name:    "missing settings",
			err:     &ConfigError{Kind: ConfigMissing},
			status:  http.StatusInternalServerError,
			message: MsgSettingsInvalid,
		},
		{
			name:    "missing field",
			err:     &ConfigError{Kind: ConfigMissingField, Field: "api_key"},
			status:  http.StatusInternalServerError,
			message: MsgSettingsInvalid,
		},
		{
			name:    "unsupported method",
			err:     &BodyError{Kind: BodyUnsupportedMethod, Method: "GET"},
			status:  http.StatusBadRequest,
			message: "Unsupported method",
		},
		{
			name:    "read failure",
			err:     &BodyError{Kind: BodyReadFailed, Err: errors.New("connection reset")},
			status:  http.StatusBadRequest,
			message: "Failed to read request body: connection reset",
		},
		{
			name:    "invalid json",
			err:     &BodyError{Kind: BodyInvalidJSON, Err: errors.New("unexpected end of JSON input")},
			status:  http.StatusBadRequest,
			message: "Failed to parse JSON body: unexpected end of JSON input",
		},
		{
			name:    "upstream unreachable",
			err:     &UpstreamError{Err: errors.New("dial tcp: connection refused")},
			status:  http.StatusInternalServerError,
			message: "dial tcp: connection refused",
		},
		{
			name:    "upstream unparsable",
			err:     &UpstreamResponseError{StatusCode: 502, Err: errors.New("invalid character '<'")},
			status:  http.StatusInternalServerError,
			message: MsgUpstreamUnparsable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, StatusFor(tt.err))
			assert.Equal(t, tt.message, PublicMessage(tt.err))
		})
	}
}

func TestErrorSentinels(t *testing.T) {
	assert.ErrorIs(t, &ConfigError{Kind: ConfigAmbiguous, Count: 2}, ErrConfigAmbiguous)
	assert.ErrorIs(t, &ConfigError{Kind: ConfigInvalidJSON}, ErrConfigInvalidJSON)
	assert.NotErrorIs(t, &ConfigError{Kind: ConfigMissing}, ErrConfigMissingField)
	assert.ErrorIs(t, &BodyError{Kind: BodyReadFailed}, ErrBodyReadFailed)
	assert.ErrorIs(t, &UpstreamError{}, ErrUpstreamUnreachable)
	assert.ErrorIs(t, &UpstreamResponseError{}, ErrUpstreamUnparsable)

	cause := errors.New("boom")
	assert.ErrorIs(t, &BodyError{Kind: BodyInvalidJSON, Err: cause}, cause)

	assert.Equal(t, "expected exactly one 'x-edgee-component-settings' header, found 3",
		(&ConfigError{Kind: ConfigAmbiguous, Count: 3}).Error())
	assert.Equal(t, "missing 'template_id' in settings",
		(&ConfigError{Kind: ConfigMissingField, Field: "template_id"}).Error())
	assert.Equal(t, ErrUpstreamUnreachable.Error(), (&UpstreamError{}).Error())
}
