package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Rrens/finance-ai/internal/domain"
)

const tracerName = "github.com/Rrens/finance-ai/internal/llm"

// DefaultTimeout bounds a completion when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// Gateway resolves a provider through the Router and runs one completion
// under a deadline. Every failure it returns wraps either
// domain.ErrGatewayTimeout or domain.ErrGatewayUnavailable.
type Gateway struct {
	router  *Router
	timeout time.Duration
}

// NewGateway creates a new completion gateway
func NewGateway(router *Router, timeout time.Duration) *Gateway {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Gateway{router: router, timeout: timeout}
}

// Complete sends req to the named provider, or the default provider when
// providerName is empty.
func (g *Gateway) Complete(ctx context.Context, providerName string, req Request) (*Response, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "llm.Complete", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	provider, err := g.router.GetProvider(providerName)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "provider unavailable")
		return nil, fmt.Errorf("%w: %w", domain.ErrGatewayUnavailable, err)
	}

	span.SetAttributes(
		attribute.String("llm.provider", provider.Name()),
		attribute.String("llm.model", modelOrDefault(req.Model, provider)),
		attribute.Int("llm.messages", len(req.Messages)),
	)

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	resp, err := provider.Complete(ctx, req)
	if err != nil {
		span.RecordError(err)
		if isTimeout(ctx, err) {
			span.SetStatus(codes.Error, "timeout")
			return nil, fmt.Errorf("%w: %w", domain.ErrGatewayTimeout, err)
		}
		span.SetStatus(codes.Error, "completion failed")
		return nil, fmt.Errorf("%w: %w", domain.ErrGatewayUnavailable, err)
	}

	if resp.LatencyMs == 0 {
		resp.LatencyMs = time.Since(start).Milliseconds()
	}
	span.SetAttributes(
		attribute.Int("llm.tokens_used", resp.TokensUsed),
		attribute.Int64("llm.latency_ms", resp.LatencyMs),
	)

	return resp, nil
}

// Router exposes the provider registry
func (g *Gateway) Router() *Router {
	return g.router
}

func modelOrDefault(model string, p Provider) string {
	if model != "" {
		return model
	}
	return p.DefaultModel()
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
