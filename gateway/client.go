package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-blog-auth/internal/errors"
	"github.com/jrsteele09/go-blog-auth/internal/utils"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	maxResponseBytes = 1 << 20
	headerRequestID  = "X-Request-ID"
	contentTypeJSON  = "application/json"
)

// call describes a single request/response pair with the backend.
type call struct {
	op     string
	method string
	path   string
	body   any
	auth   bool // send the bearer token when one is held
	out    any
	check  func() bool // reports whether the decoded out is usable
}

func (g *Gateway) do(ctx context.Context, c call) error {
	ctx, span := g.tracer.Start(ctx, "gateway."+c.op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", c.method),
			attribute.String("url.path", c.path),
		),
	)
	defer span.End()

	start := time.Now()
	err := g.roundTrip(ctx, c)
	g.metrics.observe(c.op, outcomeOf(err), time.Since(start))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		g.log.Debug().Str("op", c.op).Str("path", c.path).Err(err).Msg("backend request failed")
		return err
	}
	g.log.Debug().Str("op", c.op).Str("path", c.path).Msg("backend request ok")
	return nil
}

func (g *Gateway) roundTrip(ctx context.Context, c call) error {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	var body io.Reader
	if c.body != nil {
		payload, err := json.Marshal(c.body)
		if err != nil {
			return errors.Wrapf(err, "[gateway.%s] marshal request", c.op)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, c.method, g.baseURL+c.path, body)
	if err != nil {
		return errors.Wrapf(err, "[gateway.%s] build request", c.op)
	}
	req.Header.Set("Accept", contentTypeJSON)
	req.Header.Set(headerRequestID, uuid.New().String())
	if c.body != nil {
		req.Header.Set("Content-Type", contentTypeJSON)
	}
	if c.auth {
		if access := g.currentToken().Access; access != "" {
			req.Header.Set("Authorization", "Bearer "+access)
		}
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return apperrors.Network(c.op, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return apperrors.Network(c.op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apperrors.FromStatus(c.op, resp.StatusCode, errorMessage(payload))
	}

	if c.out != nil && len(bytes.TrimSpace(payload)) > 0 {
		if err := json.Unmarshal(payload, c.out); err != nil {
			return unreadable(c.op, resp.StatusCode, err)
		}
	}
	if c.check != nil && !c.check() {
		return unreadable(c.op, resp.StatusCode, nil)
	}
	return nil
}

func unreadable(op string, status int, err error) *apperrors.Error {
	return &apperrors.Error{
		Kind:    apperrors.KindNetwork,
		Op:      op,
		Status:  status,
		Message: "the server sent an unreadable response",
		Err:     err,
	}
}

// errorMessage extracts the user-facing message of a backend error body:
// "detail", then "non_field_errors", then the first field error as "field: message".
func errorMessage(payload []byte) string {
	var body map[string]any
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}

	if detail, ok := utils.FirstString(body["detail"]); ok {
		return detail
	}
	if msg, ok := utils.FirstString(body["non_field_errors"]); ok {
		return msg
	}

	fields := make([]string, 0, len(body))
	for field := range body {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		if msg, ok := utils.FirstString(body[field]); ok {
			return field + ": " + msg
		}
	}
	return ""
}

func outcomeOf(err error) string {
	switch apperrors.KindOf(err) {
	case 0:
		if err == nil {
			return OutcomeOK
		}
		return OutcomeNetwork
	case apperrors.KindCredential:
		return OutcomeCredential
	case apperrors.KindUnauthorized:
		return OutcomeUnauthorized
	}
	return OutcomeNetwork
}
