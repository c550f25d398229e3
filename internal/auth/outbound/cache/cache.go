package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/mindjournal/internal/pkg/goerror"
	"github.com/shandysiswandi/mindjournal/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const revokedPrefix = "auth:revoked:"

// TokenDenylist remembers revoked access tokens by their jti until they would
// have expired anyway.
type TokenDenylist struct {
	client redis.UniversalClient
	ins    instrument.Instrumentation
}

func NewTokenDenylist(client redis.UniversalClient, ins instrument.Instrumentation) *TokenDenylist {
	return &TokenDenylist{client: client, ins: ins}
}

// Revoke denylists jti for ttl. A non-positive ttl is a no-op.
func (c *TokenDenylist) Revoke(ctx context.Context, jti string, ttl time.Duration) (err error) {
	ctx, span := c.startSpan(ctx, "Revoke")
	defer func() { c.endSpan(span, err) }()

	if ttl <= 0 {
		return nil
	}

	if err := c.client.Set(ctx, revokedPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("%w: %w", goerror.ErrUnavailable, err)
	}
	return nil
}

// IsRevoked reports whether jti was denylisted.
func (c *TokenDenylist) IsRevoked(ctx context.Context, jti string) (_ bool, err error) {
	ctx, span := c.startSpan(ctx, "IsRevoked")
	defer func() { c.endSpan(span, err) }()

	err = c.client.Get(ctx, revokedPrefix+jti).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %w", goerror.ErrUnavailable, err)
	}
	return true, nil
}

func (c *TokenDenylist) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return c.ins.Tracer("auth.outbound.cache").Start(ctx, name)
}

func (c *TokenDenylist) endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
