package adapter

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polisai/pdforge-adapter/pkg/domain"
)

// recordingOutlet captures what Send commits.
type recordingOutlet struct {
	commits  int
	status   int
	headers  domain.HeaderMap
	body     bytes.Buffer
	closed   int
	writeErr error
	closeErr error
}

func (o *recordingOutlet) Commit(status int, headers domain.HeaderMap) (io.WriteCloser, error) {
	o.commits++
	if o.commits > 1 {
		return nil, ErrAlreadyCommitted
	}
	o.status = status
	o.headers = headers.Clone()
	return &recordingStream{outlet: o}, nil
}

type recordingStream struct {
	outlet *recordingOutlet
}

func (s *recordingStream) Write(p []byte) (int, error) {
	if s.outlet.writeErr != nil {
		return 0, s.outlet.writeErr
	}
	return s.outlet.body.Write(p)
}

func (s *recordingStream) Close() error {
	s.outlet.closed++
	return s.outlet.closeErr
}

func TestPassthroughRelaysStatusAndCompactsBody(t *testing.T) {
	resp, err := Passthrough(201, []byte("{\n  \"signedUrl\": \"https://x\"\n}\n"))
	require.NoError(t, err)

	assert.EqualValues(t, 201, resp.StatusCode)
	assert.Equal(t, `{"signedUrl":"https://x"}`, string(resp.Body))
	assert.Equal(t, ContentTypeJSON, resp.Headers.Get("Content-Type"))
}

func TestPassthroughKeepsKeyOrderAndPrecision(t *testing.T) {
	resp, err := Passthrough(200, []byte(`{"z":1, "a":123456789012345678901234567890, "m":1.10}`))
	require.NoError(t, err)
	assert.Equal(t, `{"z":1,"a":123456789012345678901234567890,"m":1.10}`, string(resp.Body))
}

func TestPassthroughRelaysUpstreamErrors(t *testing.T) {
	resp, err := Passthrough(401, []byte(`{"error":"invalid api key"}`))
	require.NoError(t, err)
	assert.EqualValues(t, 401, resp.StatusCode)
	assert.Equal(t, `{"error":"invalid api key"}`, string(resp.Body))
}

func TestPassthroughRejectsInvalidBodies(t *testing.T) {
	for _, body := range [][]byte{nil, []byte(""), []byte("  "), []byte("<html>Bad Gateway</html>"), []byte(`{"a":`)} {
		resp, err := Passthrough(502, body)
		require.Error(t, err, string(body))

		assert.ErrorIs(t, err, domain.ErrUpstreamUnparsable)
		assert.EqualValues(t, http.StatusInternalServerError, resp.StatusCode)
		assert.JSONEq(t, `{"error":"Failed to parse Pdforge response"}`, string(resp.Body))
	}
}

func TestPassthroughRejectsInvalidStatus(t *testing.T) {
	resp, err := Passthrough(0, []byte(`{}`))
	require.Error(t, err)
	assert.EqualValues(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestErrorResponseEscapesMessage(t *testing.T) {
	resp := ErrorResponse("bad \"quote\"\nline\tand \\ slash", 400)

	assert.EqualValues(t, 400, resp.StatusCode)
	assert.Equal(t, ContentTypeJSON, resp.Headers.Get("content-type"))
	assert.Equal(t, `{"error":"bad \"quote\"\nline\tand \\ slash"}`, string(resp.Body))
}

func TestBuildHelpers(t *testing.T) {
	html := HTML([]byte("<p>ok</p>"), 200)
	assert.Equal(t, ContentTypeHTML, html.Headers.Get("content-type"))

	resp := NewResponseBuilder().SetStatusCode(204).SetHeader("X-Trace", "abc").Build()
	assert.EqualValues(t, 204, resp.StatusCode)
	assert.Equal(t, "abc", resp.Headers.Get("x-trace"))
	assert.Nil(t, resp.Body)
}

func TestSendCommitsOnce(t *testing.T) {
	out := &recordingOutlet{}
	resp := JSON([]byte(`{"ok":true}`), 200)

	require.NoError(t, Send(resp, out))
	assert.ErrorIs(t, Send(resp, out), ErrAlreadySent)

	assert.Equal(t, 1, out.commits)
	assert.Equal(t, 1, out.closed)
	assert.Equal(t, 200, out.status)
	assert.Equal(t, `{"ok":true}`, out.body.String())
	assert.True(t, resp.Sent())
}

func TestSendClosesEmptyBody(t *testing.T) {
	out := &recordingOutlet{}
	require.NoError(t, Send(NewResponseBuilder().SetStatusCode(204).Build(), out))

	assert.Equal(t, 1, out.closed)
	assert.Zero(t, out.body.Len())
}

func TestSendClosesOnWriteFailure(t *testing.T) {
	out := &recordingOutlet{writeErr: errors.New("broken pipe")}
	err := Send(JSON([]byte(`{}`), 200), out)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken pipe")
	assert.Equal(t, 1, out.closed)
}

func TestSendReportsCloseFailure(t *testing.T) {
	out := &recordingOutlet{closeErr: errors.New("flush failed")}
	err := Send(JSON([]byte(`{}`), 200), out)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "flush failed")
}

func TestSendCommitFailure(t *testing.T) {
	out := &recordingOutlet{commits: 1}
	err := Send(JSON([]byte(`{}`), 200), out)

	assert.ErrorIs(t, err, ErrAlreadyCommitted)
	assert.Zero(t, out.closed)
	assert.Error(t, Send(nil, out))
}
