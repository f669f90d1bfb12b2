package log

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey string

const (
	invocationIDKey ctxKey = "invocation_id"
	opIDKey         ctxKey = "op_id"
)

// ContextWithInvocationID stores the operation invocation ID in the context.
func ContextWithInvocationID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, invocationIDKey, id)
}

// ContextWithOpID stores the operation handle ID in the context.
func ContextWithOpID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, opIDKey, id)
}

// InvocationIDFromContext extracts the invocation ID from context if present.
func InvocationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(invocationIDKey).(string); ok {
		return v
	}
	return ""
}

// OpIDFromContext extracts the operation handle ID from context if present.
func OpIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(opIDKey).(string); ok {
		return v
	}
	return ""
}

// WithContext enriches logger with correlation fields carried on ctx.
func WithContext(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	if ctx == nil {
		return logger
	}
	builder := logger.With()
	added := false
	if iid := InvocationIDFromContext(ctx); iid != "" {
		builder = builder.Str("invocation_id", iid)
		added = true
	}
	if oid := OpIDFromContext(ctx); oid != "" {
		builder = builder.Str("op_id", oid)
		added = true
	}
	if !added {
		return logger
	}
	return builder.Logger()
}
