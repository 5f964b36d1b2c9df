package transport

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sort"

	"github.com/polisai/pdforge-adapter/pkg/adapter"
	"github.com/polisai/pdforge-adapter/pkg/logging"
)

// RequestHandler runs one request through the adapter lifecycle.
type RequestHandler interface {
	Handle(ctx context.Context, req *adapter.IncomingRequest, out adapter.ResponseOutlet) adapter.Outcome
}

// HandlerConfig holds configuration for creating a Handler.
type HandlerConfig struct {
	Component RequestHandler
	Logger    *slog.Logger
	// MaxBodyBytes caps the inbound body; 0 disables the cap.
	MaxBodyBytes int64
}

// Handler is the http.Handler for the data plane. Every method on every path
// reaches the component, which decides what is acceptable.
type Handler struct {
	component    RequestHandler
	logger       *slog.Logger
	maxBodyBytes int64
}

// NewHandler constructs the data plane handler.
func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.Component == nil {
		panic("transport: adapter component is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		component:    cfg.Component,
		logger:       logger,
		maxBodyBytes: cfg.MaxBodyBytes,
	}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx, h.logger)

	logger.Debug("received HTTP request",
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr,
		"ua", r.UserAgent(),
	)

	outlet := NewOutlet(w)
	outcome := h.component.Handle(ctx, IncomingFromHTTP(w, r, h.maxBodyBytes), outlet)

	if !outlet.Committed() {
		// the component failed before committing anything; the caller must
		// still get an answer
		logger.Error("adapter returned without committing a response",
			"stage", outcome.Reached.String(),
			"error", outcome.SendErr,
		)
		if err := adapter.Send(adapter.ErrorResponse("Internal error", http.StatusInternalServerError), outlet); err != nil {
			logger.Error("failed to send fallback response", "error", err)
		}
	}
}

// IncomingFromHTTP converts r into the adapter's request form. Header fields
// keep per-name arrival order; names are visited in sorted order because
// http.Header does not record ordering across names.
func IncomingFromHTTP(w http.ResponseWriter, r *http.Request, maxBodyBytes int64) *adapter.IncomingRequest {
	names := make([]string, 0, len(r.Header))
	for name := range r.Header {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]adapter.HeaderField, 0, len(names))
	for _, name := range names {
		for _, value := range r.Header[name] {
			fields = append(fields, adapter.HeaderField{Name: name, Value: []byte(value)})
		}
	}

	var body io.Reader
	if r.Body != nil {
		body = r.Body
		if maxBodyBytes > 0 {
			body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		}
	}

	return &adapter.IncomingRequest{
		Method: r.Method,
		Fields: fields,
		Body:   adapter.ReaderChunks(body, adapter.DefaultChunkSize),
	}
}
