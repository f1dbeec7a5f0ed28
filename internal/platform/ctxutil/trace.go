package ctxutil

import "context"

type traceDataKey struct{}

// TraceData ties log lines and error responses to one inbound request.
type TraceData struct {
	TraceID   string
	RequestID string
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(ctx, traceDataKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	if ctx == nil {
		return nil
	}
	if td, ok := ctx.Value(traceDataKey{}).(*TraceData); ok {
		return td
	}
	return nil
}

// RequestID is "" outside a request.
func RequestID(ctx context.Context) string {
	if td := GetTraceData(ctx); td != nil {
		return td.RequestID
	}
	return ""
}

// LogFields returns trace_id/request_id key-value pairs for the request
// carried by ctx, or nil.
func LogFields(ctx context.Context) []interface{} {
	td := GetTraceData(ctx)
	if td == nil {
		return nil
	}
	var kv []interface{}
	if td.TraceID != "" {
		kv = append(kv, "trace_id", td.TraceID)
	}
	if td.RequestID != "" {
		kv = append(kv, "request_id", td.RequestID)
	}
	return kv
}
