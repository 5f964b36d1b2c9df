package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/polisai/pdforge-adapter/pkg/domain"
	"github.com/polisai/pdforge-adapter/pkg/logging"
	"github.com/polisai/pdforge-adapter/pkg/telemetry"
	"github.com/polisai/pdforge-adapter/pkg/upstream"
)

// Component turns one inbound request into one pdforge call and relays the
// result. It holds no per-request state and is safe for concurrent use.
type Component struct {
	client upstream.Client
	logger *slog.Logger
}

// ComponentConfig holds configuration for creating a Component.
type ComponentConfig struct {
	Client upstream.Client
	Logger *slog.Logger
}

// NewComponent constructs a Component around the upstream client.
func NewComponent(cfg ComponentConfig) *Component {
	if cfg.Client == nil {
		panic("adapter: upstream client is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Component{
		client: cfg.Client,
		logger: logger,
	}
}

// Handle runs the request lifecycle and commits exactly one response to out.
// Failures never escape: each one becomes an error-shaped response.
func (c *Component) Handle(ctx context.Context, req *IncomingRequest, out ResponseOutlet) Outcome {
	start := time.Now()
	logger := logging.FromContext(ctx, c.logger)

	outcome := Outcome{Reached: StateReceived}
	resp, err := c.process(ctx, logger, req, &outcome)
	if err != nil {
		outcome.Err = err
		level := slog.LevelWarn
		if domain.StatusFor(err) >= 500 {
			level = slog.LevelError
		}
		logger.Log(ctx, level, "request failed",
			"stage", outcome.Reached.String(),
			"status", resp.StatusCode,
			"error", err,
			"trace_id", telemetry.TraceID(ctx),
		)
	}

	outcome.StatusCode = int(resp.StatusCode)
	if sendErr := Send(resp, out); sendErr != nil {
		outcome.SendErr = sendErr
		logger.Error("failed to send response", "status", resp.StatusCode, "error", sendErr)
	}
	outcome.Final = StateSent

	result := "success"
	if !outcome.Succeeded() {
		result = "error"
	}
	telemetry.RecordRequest(ctx, telemetry.RequestMetrics{
		Stage:      outcome.Reached.String(),
		Outcome:    result,
		ErrorKind:  errorKind(err),
		StatusCode: outcome.StatusCode,
		Duration:   time.Since(start),
	})

	logger.Info("request completed",
		"status", outcome.StatusCode,
		"stage", outcome.Reached.String(),
		"duration", time.Since(start),
	)
	return outcome
}

// process walks the stages in order. The returned response is never nil.
func (c *Component) process(ctx context.Context, logger *slog.Logger, req *IncomingRequest, outcome *Outcome) (*domain.OutboundResponse, error) {
	if req == nil {
		req = &IncomingRequest{}
	}

	headers := ParseHeaders(req.Fields)

	settings, err := c.parseSettings(ctx, headers)
	if err != nil {
		return FromError(err), err
	}
	outcome.Reached = StateSettingsParsed
	logger.Debug("component settings parsed", "settings", settings)

	envelope, data, err := c.readRequest(ctx, req, headers)
	if err != nil {
		return FromError(err), err
	}
	outcome.Reached = StateBodyRead
	logger.Debug("request body read", "bytes", len(envelope.Body))

	reply, err := c.callUpstream(ctx, settings, data)
	if err != nil {
		return FromError(err), err
	}
	outcome.Reached = StatePayloadSent

	resp, err := Passthrough(reply.StatusCode, reply.Body)
	if err != nil {
		return resp, err
	}
	outcome.Reached = StateResponseBuilt
	return resp, nil
}

func (c *Component) parseSettings(ctx context.Context, headers domain.HeaderMap) (domain.TenantSettings, error) {
	_, span := telemetry.StartStage(ctx, "settings", attribute.Int("http.request.header.count", len(headers)))
	settings, err := ExtractSettings(headers)
	telemetry.EndStage(span, err)
	return settings, err
}

func (c *Component) readRequest(ctx context.Context, req *IncomingRequest, headers domain.HeaderMap) (domain.RequestEnvelope, json.RawMessage, error) {
	_, span := telemetry.StartStage(ctx, "body", attribute.String("http.request.method", req.Method))

	if err := RequireMethod(req.Method); err != nil {
		telemetry.EndStage(span, err)
		return domain.RequestEnvelope{}, nil, err
	}

	body, err := ReadBody(req.Body)
	if err != nil {
		telemetry.EndStage(span, err)
		return domain.RequestEnvelope{}, nil, err
	}
	envelope := domain.RequestEnvelope{
		Method:  req.Method,
		Headers: headers,
		Body:    body,
	}

	data, err := DecodeBody(envelope.Body)
	if err != nil {
		telemetry.EndStage(span, err)
		return envelope, nil, err
	}

	span.SetAttributes(attribute.Int("http.request.body.size", len(body)))
	telemetry.EndStage(span, nil)
	return envelope, data, nil
}

func (c *Component) callUpstream(ctx context.Context, settings domain.TenantSettings, data json.RawMessage) (*upstream.Response, error) {
	ctx, span := telemetry.StartStage(ctx, "upstream", attribute.String("pdforge.template_id", settings.TemplateID()))

	payload, err := MarshalPayload(EncodePayload(data, settings.TemplateID()))
	if err != nil {
		err = &domain.BodyError{Kind: domain.BodyInvalidJSON, Err: err}
		telemetry.EndStage(span, err)
		return nil, err
	}

	start := time.Now()
	reply, err := c.client.GeneratePDF(ctx, settings.APIKey(), payload)
	metrics := telemetry.UpstreamMetrics{Duration: time.Since(start)}
	if err != nil {
		var upErr *domain.UpstreamError
		if !errors.As(err, &upErr) {
			err = &domain.UpstreamError{Err: err}
		}
		metrics.Unreachable = true
		telemetry.RecordUpstream(ctx, metrics)
		telemetry.EndStage(span, err)
		return nil, err
	}

	if reply == nil {
		reply = &upstream.Response{}
	}
	metrics.StatusCode = reply.StatusCode
	telemetry.RecordUpstream(ctx, metrics)
	span.SetAttributes(attribute.Int("http.response.status_code", reply.StatusCode))
	telemetry.EndStage(span, nil)
	return reply, nil
}

func errorKind(err error) string {
	if err == nil {
		return ""
	}
	var cfgErr *domain.ConfigError
	if errors.As(err, &cfgErr) {
		return "config." + cfgErr.Kind.String()
	}
	var bodyErr *domain.BodyError
	if errors.As(err, &bodyErr) {
		return "body." + bodyErr.Kind.String()
	}
	var respErr *domain.UpstreamResponseError
	if errors.As(err, &respErr) {
		return "upstream.unparsable"
	}
	if errors.Is(err, domain.ErrUpstreamUnreachable) {
		return "upstream.unreachable"
	}
	return "internal"
}
