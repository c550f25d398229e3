package instrument

import "context"

// InvalidCorrelationID is what GetCorrelationID reports for a context that never
// went through the correlation middleware.
const InvalidCorrelationID = "[invalid_chain_id]"

type correlationKey struct{}

// SetCorrelationID returns a child context carrying the request correlation ID.
func SetCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// GetCorrelationID returns the correlation ID stored in ctx.
func GetCorrelationID(ctx context.Context) string {
	if ctx == nil {
		return InvalidCorrelationID
	}

	id, ok := ctx.Value(correlationKey{}).(string)
	if !ok || id == "" {
		return InvalidCorrelationID
	}

	return id
}
