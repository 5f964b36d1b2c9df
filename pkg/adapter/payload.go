package adapter

import (
	"encoding/json"

	"github.com/polisai/pdforge-adapter/pkg/domain"
)

// EncodePayload wraps the caller's JSON under "data" next to the template id.
// The body's shape is not validated; pdforge rejects data it cannot render.
func EncodePayload(data json.RawMessage, templateID string) domain.OutboundPayload {
	return domain.OutboundPayload{
		TemplateID: templateID,
		Data:       data,
	}
}

// MarshalPayload serializes the payload for the upstream POST body.
func MarshalPayload(payload domain.OutboundPayload) ([]byte, error) {
	if payload.Data == nil {
		payload.Data = json.RawMessage("null")
	}
	return json.Marshal(payload)
}
