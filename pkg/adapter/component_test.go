package adapter

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/polisai/pdforge-adapter/pkg/domain"
	"github.com/polisai/pdforge-adapter/pkg/upstream"
)

type fakeClient struct {
	calls   int
	apiKey  string
	payload []byte
	reply   *upstream.Response
	err     error
}

func (f *fakeClient) GeneratePDF(_ context.Context, apiKey string, payload []byte) (*upstream.Response, error) {
	f.calls++
	f.apiKey = apiKey
	f.payload = payload
	return f.reply, f.err
}

const settingsJSON = `{"api_key":"sk_live_0123456789","template_id":"invoice"}`

func request(method, settings string, body ChunkStream) *IncomingRequest {
	req := &IncomingRequest{Method: method, Body: body}
	if settings != "" {
		req.Fields = append(req.Fields, HeaderField{Name: "X-Edgee-Component-Settings", Value: []byte(settings)})
	}
	req.Fields = append(req.Fields, HeaderField{Name: "Content-Type", Value: []byte("application/json")})
	return req
}

func TestComponentHappyPath(t *testing.T) {
	client := &fakeClient{reply: &upstream.Response{StatusCode: 201, Body: []byte(`{"signedUrl":"https://x"}`)}}
	component := NewComponent(ComponentConfig{Client: client})
	out := &recordingOutlet{}

	outcome := component.Handle(context.Background(), request(http.MethodPost, settingsJSON, chunks(`{"customer":`, `"Ada"}`)), out)

	require.NoError(t, outcome.Err)
	assert.True(t, outcome.Succeeded())
	assert.Equal(t, StateResponseBuilt, outcome.Reached)
	assert.Equal(t, StateSent, outcome.Final)
	assert.Equal(t, 201, outcome.StatusCode)

	assert.Equal(t, 1, client.calls)
	assert.Equal(t, "sk_live_0123456789", client.apiKey)
	assert.Equal(t, `{"templateId":"invoice","data":{"customer":"Ada"}}`, string(client.payload))

	assert.Equal(t, 201, out.status)
	assert.Equal(t, `{"signedUrl":"https://x"}`, out.body.String())
	assert.Equal(t, ContentTypeJSON, out.headers.Get("content-type"))
	assert.Equal(t, 1, out.closed)
}

func TestComponentFailures(t *testing.T) {
	tests := []struct {
		name        string
		req         *IncomingRequest
		client      *fakeClient
		status      int
		body        string
		reached     State
		wantCalls   int
	}{
		{
			name:    "missing settings",
			req:     request(http.MethodPost, "", chunks(`{}`)),
			client:  &fakeClient{},
			status:  500,
			body:    `{"error":"Failed to parse component settings, missing Pdforge API Key"}`,
			reached: StateReceived,
		},
		{
			name:    "settings without api key",
			req:     request(http.MethodPost, `{"template_id":"invoice"}`, chunks(`{}`)),
			client:  &fakeClient{},
			status:  500,
			body:    `{"error":"Failed to parse component settings, missing Pdforge API Key"}`,
			reached: StateReceived,
		},
		{
			name:    "invalid json body",
			req:     request(http.MethodPost, settingsJSON, chunks(`{"customer":`)),
			client:  &fakeClient{},
			status:  400,
			body:    `{"error":"Failed to parse JSON body: unexpected end of JSON input"}`,
			reached: StateSettingsParsed,
		},
		{
			name:    "body read failure",
			req:     request(http.MethodPost, settingsJSON, chunks(`{"a"`, errors.New("stream reset"))),
			client:  &fakeClient{},
			status:  400,
			body:    `{"error":"Failed to read request body: stream reset"}`,
			reached: StateSettingsParsed,
		},
		{
			name:      "upstream unreachable",
			req:       request(http.MethodPost, settingsJSON, chunks(`{}`)),
			client:    &fakeClient{err: &domain.UpstreamError{Err: errors.New("dial tcp 10.0.0.1:443: connect: connection refused")}},
			status:    500,
			body:      `{"error":"dial tcp 10.0.0.1:443: connect: connection refused"}`,
			reached:   StateBodyRead,
			wantCalls: 1,
		},
		{
			name:      "upstream html",
			req:       request(http.MethodPost, settingsJSON, chunks(`{}`)),
			client:    &fakeClient{reply: &upstream.Response{StatusCode: 502, Body: []byte("<html>bad gateway</html>")}},
			status:    500,
			body:      `{"error":"Failed to parse Pdforge response"}`,
			reached:   StatePayloadSent,
			wantCalls: 1,
		},
		{
			name:      "upstream nil reply",
			req:       request(http.MethodPost, settingsJSON, chunks(`{}`)),
			client:    &fakeClient{},
			status:    500,
			body:      `{"error":"Failed to parse Pdforge response"}`,
			reached:   StatePayloadSent,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &recordingOutlet{}
			outcome := NewComponent(ComponentConfig{Client: tt.client}).Handle(context.Background(), tt.req, out)

			require.Error(t, outcome.Err)
			assert.False(t, outcome.Succeeded())
			assert.Equal(t, tt.reached, outcome.Reached)
			assert.Equal(t, StateSent, outcome.Final)
			assert.Equal(t, tt.status, outcome.StatusCode)
			assert.Equal(t, tt.wantCalls, tt.client.calls)

			assert.Equal(t, 1, out.commits)
			assert.Equal(t, tt.status, out.status)
			assert.JSONEq(t, tt.body, out.body.String())
			assert.Equal(t, ContentTypeJSON, out.headers.Get("content-type"))
			assert.Equal(t, 1, out.closed)
		})
	}
}

func TestComponentRejectsNonPostWithoutReadingBody(t *testing.T) {
	read := false
	body := ChunkStream(func(yield func([]byte, error) bool) {
		read = true
		yield([]byte(`{}`), nil)
	})

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete, http.MethodOptions} {
		client := &fakeClient{}
		out := &recordingOutlet{}

		outcome := NewComponent(ComponentConfig{Client: client}).Handle(context.Background(), request(method, settingsJSON, body), out)

		assert.ErrorIs(t, outcome.Err, domain.ErrUnsupportedMethod, method)
		assert.Equal(t, http.StatusBadRequest, out.status)
		assert.JSONEq(t, `{"error":"Unsupported method"}`, out.body.String())
		assert.Zero(t, client.calls)
	}
	assert.False(t, read)
}

func TestComponentChecksSettingsBeforeMethod(t *testing.T) {
	client := &fakeClient{}
	out := &recordingOutlet{}

	outcome := NewComponent(ComponentConfig{Client: client}).Handle(context.Background(), request(http.MethodGet, "", nil), out)

	assert.ErrorIs(t, outcome.Err, domain.ErrConfigMissing)
	assert.Equal(t, 500, out.status)
}

func TestComponentReportsSendFailure(t *testing.T) {
	client := &fakeClient{reply: &upstream.Response{StatusCode: 200, Body: []byte(`{}`)}}
	out := &recordingOutlet{writeErr: errors.New("client went away")}

	outcome := NewComponent(ComponentConfig{Client: client}).Handle(context.Background(), request(http.MethodPost, settingsJSON, chunks(`{}`)), out)

	require.NoError(t, outcome.Err)
	require.Error(t, outcome.SendErr)
	assert.True(t, outcome.Succeeded())
	assert.Equal(t, 1, out.closed)
}

func TestComponentNilRequest(t *testing.T) {
	out := &recordingOutlet{}
	outcome := NewComponent(ComponentConfig{Client: &fakeClient{}}).Handle(context.Background(), nil, out)

	assert.ErrorIs(t, outcome.Err, domain.ErrConfigMissing)
	assert.Equal(t, 1, out.commits)
}

func TestNewComponentRequiresClient(t *testing.T) {
	assert.Panics(t, func() { NewComponent(ComponentConfig{}) })
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "settings_parsed", StateSettingsParsed.String())
	assert.Equal(t, "sent", StateSent.String())
	assert.Equal(t, "unknown", State(42).String())
}

func TestComponentFailureLogCarriesTraceID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	component := NewComponent(ComponentConfig{Client: &fakeClient{}, Logger: logger})

	provider := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	ctx, span := provider.Tracer("test").Start(context.Background(), "request")
	defer span.End()

	outcome := component.Handle(ctx, request(http.MethodPost, "", nil), &recordingOutlet{})
	require.Error(t, outcome.Err)

	assert.Contains(t, buf.String(), `"msg":"request failed"`)
	assert.Contains(t, buf.String(), `"trace_id":"`+span.SpanContext().TraceID().String()+`"`)
}
