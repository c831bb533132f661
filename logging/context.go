package logging

import "context"

type contextKey string

const (
	RequestIDKey contextKey = "request_id"
	APIKeyKey    contextKey = "api_key"
	UserKey      contextKey = "user"
	TeamKey      contextKey = "team"
	TargetKey    contextKey = "target"
	TraceIDKey   contextKey = "trace_id"
	SpanIDKey    contextKey = "span_id"
)

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

func GetRequestID(ctx context.Context) string {
	v, _ := ctx.Value(RequestIDKey).(string)
	return v
}

func WithAPIKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, APIKeyKey, key)
}

func GetAPIKey(ctx context.Context) string {
	v, _ := ctx.Value(APIKeyKey).(string)
	return v
}

func WithUser(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

func GetUser(ctx context.Context) string {
	v, _ := ctx.Value(UserKey).(string)
	return v
}

func WithTeam(ctx context.Context, team string) context.Context {
	return context.WithValue(ctx, TeamKey, team)
}

func GetTeam(ctx context.Context) string {
	v, _ := ctx.Value(TeamKey).(string)
	return v
}

func WithTarget(ctx context.Context, target string) context.Context {
	return context.WithValue(ctx, TargetKey, target)
}

func GetTarget(ctx context.Context) string {
	v, _ := ctx.Value(TargetKey).(string)
	return v
}

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

func GetTraceID(ctx context.Context) string {
	v, _ := ctx.Value(TraceIDKey).(string)
	return v
}

func WithSpanID(ctx context.Context, spanID string) context.Context {
	return context.WithValue(ctx, SpanIDKey, spanID)
}

func GetSpanID(ctx context.Context) string {
	v, _ := ctx.Value(SpanIDKey).(string)
	return v
}

// extractContextFields extracts the fields above from ctx as
// logger.With()-compatible key-value pairs.
func extractContextFields(ctx context.Context) []any {
	var fields []any
	if v := GetRequestID(ctx); v != "" {
		fields = append(fields, "request_id", v)
	}
	if v := GetAPIKey(ctx); v != "" {
		fields = append(fields, "api_key", v)
	}
	if v := GetUser(ctx); v != "" {
		fields = append(fields, "user", v)
	}
	if v := GetTeam(ctx); v != "" {
		fields = append(fields, "team", v)
	}
	if v := GetTarget(ctx); v != "" {
		fields = append(fields, "target", v)
	}
	if v := GetTraceID(ctx); v != "" {
		fields = append(fields, "trace_id", v)
	}
	if v := GetSpanID(ctx); v != "" {
		fields = append(fields, "span_id", v)
	}
	return fields
}

// ContextLogger pairs a Logger with a fixed context.Context so callers
// that already carry one needn't repeat *Context suffixed methods.
type ContextLogger struct {
	logger *Logger
	ctx    context.Context
}

func NewContextLogger(logger *Logger, ctx context.Context) *ContextLogger {
	return &ContextLogger{logger: logger.WithContext(ctx), ctx: ctx}
}

func (cl *ContextLogger) Debug(msg string, args ...any) { cl.logger.DebugContext(cl.ctx, msg, args...) }
func (cl *ContextLogger) Info(msg string, args ...any)  { cl.logger.InfoContext(cl.ctx, msg, args...) }
func (cl *ContextLogger) Warn(msg string, args ...any)  { cl.logger.WarnContext(cl.ctx, msg, args...) }
func (cl *ContextLogger) Error(msg string, args ...any) { cl.logger.ErrorContext(cl.ctx, msg, args...) }

func (cl *ContextLogger) With(args ...any) *ContextLogger {
	return &ContextLogger{logger: cl.logger.With(args...), ctx: cl.ctx}
}
