package adapter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/polisai/pdforge-adapter/pkg/domain"
)

// Content types used by the builder helpers.
const (
	ContentTypeJSON = "application/json"
	ContentTypeHTML = "text/html; charset=utf-8"
)

// ErrAlreadySent is returned when Send is called for a response that has
// already been handed to the transport.
var ErrAlreadySent = errors.New("adapter: response already sent")

var errEmptyUpstreamBody = errors.New("empty response body")

// ResponseBuilder assembles an OutboundResponse.
type ResponseBuilder struct {
	headers    domain.HeaderMap
	statusCode uint16
	body       []byte
}

// NewResponseBuilder returns a builder for an empty 200 response.
func NewResponseBuilder() *ResponseBuilder {
	return &ResponseBuilder{
		headers:    make(domain.HeaderMap),
		statusCode: http.StatusOK,
	}
}

// SetHeader replaces the values of a header.
func (b *ResponseBuilder) SetHeader(name, value string) *ResponseBuilder {
	b.headers.Set(name, value)
	return b
}

// SetStatusCode sets the response status.
func (b *ResponseBuilder) SetStatusCode(status uint16) *ResponseBuilder {
	b.statusCode = status
	return b
}

// SetBody sets the response content.
func (b *ResponseBuilder) SetBody(body []byte) *ResponseBuilder {
	b.body = body
	return b
}

// Build returns the response. The builder must not be reused afterwards.
func (b *ResponseBuilder) Build() *domain.OutboundResponse {
	return &domain.OutboundResponse{
		StatusCode: b.statusCode,
		Headers:    b.headers,
		Body:       b.body,
	}
}

// Build returns a response with the given content type.
func Build(body []byte, status uint16, contentType string) *domain.OutboundResponse {
	return NewResponseBuilder().
		SetHeader("content-type", contentType).
		SetStatusCode(status).
		SetBody(body).
		Build()
}

// JSON returns an application/json response.
func JSON(body []byte, status uint16) *domain.OutboundResponse {
	return Build(body, status, ContentTypeJSON)
}

// HTML returns a text/html response.
func HTML(body []byte, status uint16) *domain.OutboundResponse {
	return Build(body, status, ContentTypeHTML)
}

// ErrorResponse returns {"error": message} with the given status. The message
// is JSON-encoded, so quotes and control characters are escaped.
func ErrorResponse(message string, status uint16) *domain.OutboundResponse {
	body, err := json.Marshal(domain.ErrorResponse{Error: message})
	if err != nil {
		// a struct with one string field always marshals
		body = []byte(`{"error":"internal error"}`)
	}
	return JSON(body, status)
}

// FromError maps a lifecycle error to its error response.
func FromError(err error) *domain.OutboundResponse {
	return ErrorResponse(domain.PublicMessage(err), uint16(domain.StatusFor(err)))
}

// Passthrough relays an upstream reply. The body is re-serialized in compact
// form with key order and number precision intact. When it is absent or not
// JSON, the returned response is the fixed 500 error and the error describes
// why; the malformed body is never forwarded.
func Passthrough(status int, body []byte) (*domain.OutboundResponse, error) {
	normalized, err := normalizeJSON(body)
	if err == nil && (status < 100 || status > 999) {
		err = fmt.Errorf("invalid upstream status %d", status)
	}
	if err != nil {
		respErr := &domain.UpstreamResponseError{StatusCode: status, Err: err}
		return FromError(respErr), respErr
	}
	return JSON(normalized, uint16(status)), nil
}

func normalizeJSON(body []byte) ([]byte, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errEmptyUpstreamBody
	}
	var out bytes.Buffer
	if err := json.Compact(&out, bytes.ToValidUTF8(body, []byte("\uFFFD"))); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Send commits resp to out exactly once. The outbound body stream is closed on
// every path, including empty bodies and failed writes. A second Send of the
// same response returns ErrAlreadySent and writes nothing.
func Send(resp *domain.OutboundResponse, out ResponseOutlet) (err error) {
	if resp == nil {
		return errors.New("adapter: nil response")
	}
	if !resp.MarkSent() {
		return ErrAlreadySent
	}

	stream, err := out.Commit(int(resp.StatusCode), resp.Headers)
	if err != nil {
		return fmt.Errorf("commit response: %w", err)
	}
	defer func() {
		if cerr := stream.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("finish response body: %w", cerr)
		}
	}()

	if len(resp.Body) == 0 {
		return nil
	}
	if _, err := stream.Write(resp.Body); err != nil {
		return fmt.Errorf("write response body: %w", err)
	}
	return nil
}
