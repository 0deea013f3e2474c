package types

import (
	"context"
)

// ContextKey is a type for the keys of values stored in the context
type ContextKey string

const (
	CtxRequestID ContextKey = "ctx_request_id"
	CtxTraceID   ContextKey = "ctx_trace_id"
)

func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(CtxRequestID).(string); ok {
		return requestID
	}
	return ""
}

// SetRequestID sets the request ID in the context
func SetRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, CtxRequestID, requestID)
}

// GetTraceID returns the trace id attached to background work (e.g. a call sid),
// falling back to the request id.
func GetTraceID(ctx context.Context) string {
	if traceID, ok := ctx.Value(CtxTraceID).(string); ok && traceID != "" {
		return traceID
	}
	return GetRequestID(ctx)
}

// SetTraceID sets the trace ID in the context
func SetTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, CtxTraceID, traceID)
}
