package transport

import (
	"errors"
	"io"
	"net/http"

	"github.com/polisai/pdforge-adapter/pkg/adapter"
	"github.com/polisai/pdforge-adapter/pkg/domain"
)

// ErrBodyStreamClosed is returned by writes after the body stream was closed.
var ErrBodyStreamClosed = errors.New("transport: response body stream closed")

// Outlet exposes an http.ResponseWriter as an adapter.ResponseOutlet.
type Outlet struct {
	w         http.ResponseWriter
	committed bool
	status    int
}

// NewOutlet wraps w.
func NewOutlet(w http.ResponseWriter) *Outlet {
	return &Outlet{w: w}
}

// Commit writes status and headers. Only the first call succeeds.
func (o *Outlet) Commit(status int, headers domain.HeaderMap) (io.WriteCloser, error) {
	if o.committed {
		return nil, adapter.ErrAlreadyCommitted
	}
	o.committed = true
	o.status = status

	dst := o.w.Header()
	for name, values := range headers {
		dst.Del(name)
		for _, value := range values {
			dst.Add(name, value)
		}
	}
	o.w.WriteHeader(status)

	return &bodyStream{w: o.w}, nil
}

// Committed reports whether a response has been committed.
func (o *Outlet) Committed() bool { return o.committed }

// Status returns the committed status code, or 0.
func (o *Outlet) Status() int { return o.status }

// bodyStream is the outbound body handle. Close flushes buffered bytes to the
// client; it is idempotent.
type bodyStream struct {
	w      http.ResponseWriter
	closed bool
}

func (b *bodyStream) Write(p []byte) (int, error) {
	if b.closed {
		return 0, ErrBodyStreamClosed
	}
	return b.w.Write(p)
}

func (b *bodyStream) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	if err := http.NewResponseController(b.w).Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return err
	}
	return nil
}
