package tracing

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// TracerProvider manages the lifecycle of the OpenTelemetry tracer
type TracerProvider struct {
	tp *sdktrace.TracerProvider
}

// DecisionTracer provides distributed tracing for access decisions
type DecisionTracer struct {
	tracer trace.Tracer
}

// NewTracerProvider creates a new OpenTelemetry tracer provider
func NewTracerProvider(serviceName, serviceVersion, otlpEndpoint string) (*TracerProvider, error) {
	exporter, err := otlptracegrpc.New(
		context.Background(),
		otlptracegrpc.WithEndpoint(otlpEndpoint),
		otlptracegrpc.WithInsecure(), // TODO: Add TLS configuration
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(serviceVersion),
			semconv.ServiceNamespaceKey.String("campus-core"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)

	return &TracerProvider{tp: tp}, nil
}

// Shutdown gracefully shuts down the tracer provider
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	return tp.tp.Shutdown(ctx)
}

// NewDecisionTracer creates a new decision tracer
func NewDecisionTracer(serviceName string) *DecisionTracer {
	tracer := otel.Tracer(serviceName)
	return &DecisionTracer{tracer: tracer}
}

// StartResolutionSpan starts a span for tenant resolution
func (dt *DecisionTracer) StartResolutionSpan(ctx context.Context, host, source string) (context.Context, trace.Span) {
	ctx, span := dt.tracer.Start(ctx, "tenant_resolution",
		trace.WithAttributes(
			attribute.String("tenant.host", host),
			attribute.String("tenant.source", source),
			attribute.String("component", "tenant-resolver"),
		),
	)
	return ctx, span
}

// StartAuthorizeSpan starts a span for a policy decision
func (dt *DecisionTracer) StartAuthorizeSpan(ctx context.Context, role, resource, action string) (context.Context, trace.Span) {
	ctx, span := dt.tracer.Start(ctx, "authorize",
		trace.WithAttributes(
			attribute.String("principal.role", role),
			attribute.String("resource.kind", resource),
			attribute.String("resource.action", action),
			attribute.String("component", "policy-engine"),
		),
	)
	return ctx, span
}

// StartGatewaySpan starts a span for a scoped data gateway operation
func (dt *DecisionTracer) StartGatewaySpan(ctx context.Context, operation, resource string) (context.Context, trace.Span) {
	ctx, span := dt.tracer.Start(ctx, "gateway_operation",
		trace.WithAttributes(
			attribute.String("gateway.operation", operation),
			attribute.String("resource.kind", resource),
			attribute.String("component", "data-gateway"),
		),
	)
	return ctx, span
}

// StartAuditSpan starts a span for an audit sink write
func (dt *DecisionTracer) StartAuditSpan(ctx context.Context, kind string) (context.Context, trace.Span) {
	ctx, span := dt.tracer.Start(ctx, "audit_write",
		trace.WithAttributes(
			attribute.String("audit.kind", kind),
			attribute.String("component", "audit-sink"),
		),
	)
	return ctx, span
}

// StartCacheOperationSpan starts a span for cache operations
func (dt *DecisionTracer) StartCacheOperationSpan(ctx context.Context, operation, key string) (context.Context, trace.Span) {
	ctx, span := dt.tracer.Start(ctx, "cache_operation",
		trace.WithAttributes(
			attribute.String("cache.operation", operation),
			attribute.String("cache.key", key),
			attribute.String("component", "cache"),
		),
	)
	return ctx, span
}

// RecordDecision records the outcome of a policy decision on a span
func (dt *DecisionTracer) RecordDecision(span trace.Span, allowed bool, reason string, duration time.Duration) {
	span.SetAttributes(
		attribute.Bool("decision.allowed", allowed),
		attribute.String("decision.reason", reason),
		attribute.Int64("decision.duration_ms", duration.Milliseconds()),
	)

	if !allowed {
		span.SetStatus(codes.Error, "access denied")
	}
}

// RecordGatewayMetrics records gateway operation metrics on a span
func (dt *DecisionTracer) RecordGatewayMetrics(span trace.Span, duration time.Duration, rowCount int64, success bool) {
	span.SetAttributes(
		attribute.Int64("gateway.duration_ms", duration.Milliseconds()),
		attribute.Int64("gateway.row_count", rowCount),
		attribute.Bool("gateway.success", success),
	)

	if !success {
		span.SetStatus(codes.Error, "gateway operation failed")
	}
}

// RecordCacheMetrics records cache operation metrics on a span
func (dt *DecisionTracer) RecordCacheMetrics(span trace.Span, hit bool, duration time.Duration) {
	span.SetAttributes(
		attribute.Bool("cache.hit", hit),
		attribute.Int64("cache.duration_ms", duration.Milliseconds()),
	)
}

// RecordResolvedTenant records the resolved tenant on a resolution span
func (dt *DecisionTracer) RecordResolvedTenant(span trace.Span, tenantID string) {
	span.SetAttributes(attribute.String("tenant.id", tenantID))
}

// RecordError records an error on a span
func (dt *DecisionTracer) RecordError(span trace.Span, err error, attrs ...attribute.KeyValue) {
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(attrs...)
	span.RecordError(err)
}

// Global tracer instance. The default delegates through the otel global
// provider, so spans are no-ops until a real provider is installed.
var globalDecisionTracer = NewDecisionTracer("campus-core")

// InitGlobalTracer initializes the global decision tracer
func InitGlobalTracer(serviceName string) {
	globalDecisionTracer = NewDecisionTracer(serviceName)
}

// GetGlobalTracer returns the global decision tracer
func GetGlobalTracer() *DecisionTracer {
	return globalDecisionTracer
}
