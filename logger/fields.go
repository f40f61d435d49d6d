package logger

import (
	"context"

	"go.uber.org/zap"
)

// Standard field names for consistent structured logging across patql.
// Use these constants instead of raw strings to ensure consistency.
const (
	FieldRequestID   = "request_id"
	FieldComponent   = "component"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldRemote      = "remote"
	FieldStatus      = "status"
	FieldDurationMS  = "duration_ms"
	FieldQueryLength = "query_length"
	FieldTokens      = "tokens"
	FieldOutcome     = "outcome"
	FieldErrorKind   = "error_kind"
	FieldError       = "error"
	FieldURI         = "uri"
	FieldTool        = "tool"
	FieldFile        = "file"
	FieldAddress     = "address"
)

// Context keys for propagating logging context
type contextKey string

const (
	requestIDKey contextKey = "logger_request_id"
	componentKey contextKey = "logger_component"
)

// WithRequestID adds a request ID to the context for logging
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestID returns the request ID stored in ctx, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithComponent adds a component name to the context for logging
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, componentKey, component)
}

// FieldsFromContext extracts logging fields from context.
// Returns key-value pairs suitable for use with Infow/Errorw/etc.
func FieldsFromContext(ctx context.Context) []interface{} {
	var fields []interface{}

	if requestID := RequestID(ctx); requestID != "" {
		fields = append(fields, FieldRequestID, requestID)
	}
	if component, ok := ctx.Value(componentKey).(string); ok && component != "" {
		fields = append(fields, FieldComponent, component)
	}

	return fields
}

// LoggerFromContext returns a logger with fields extracted from context.
func LoggerFromContext(ctx context.Context) *zap.SugaredLogger {
	fields := FieldsFromContext(ctx)
	if len(fields) == 0 {
		return Logger
	}
	return Logger.With(fields...)
}

// ComponentLogger returns a named logger for a specific component.
// This is the preferred way to get a logger for dependency injection.
//
//	srv := server.New(cfg, logger.ComponentLogger("server"))
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}
