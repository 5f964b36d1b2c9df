package domain

import "encoding/json"

// RequestEnvelope is the structured form of an inbound request once its body
// has been fully read.
type RequestEnvelope struct {
	Method  string
	Headers HeaderMap
	Body    []byte
}

// OutboundPayload is the document posted to the pdforge sync endpoint. Data
// carries the caller's JSON unmodified.
type OutboundPayload struct {
	TemplateID string          `json:"templateId"`
	Data       json.RawMessage `json:"data"`
}

// OutboundResponse is the single response committed to the transport for a
// request. Body is nil when the response carries no content.
type OutboundResponse struct {
	StatusCode uint16
	Headers    HeaderMap
	Body       []byte

	sent bool
}

// MarkSent records that the response has been handed to the transport. It
// reports false if the response had already been sent.
func (r *OutboundResponse) MarkSent() bool {
	if r.sent {
		return false
	}
	r.sent = true
	return true
}

// Sent reports whether the response has been handed to the transport.
func (r *OutboundResponse) Sent() bool { return r.sent }
