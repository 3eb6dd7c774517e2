// Package monitoring provides Prometheus metrics for the CAMPUS-CORE
// access-control service.
//
// Usage:
//
//  1. Register the metrics endpoint in your main function:
//     router := gin.New()
//     monitoring.SetupPrometheusMetrics(router)
//
//  2. Add the HTTP metrics middleware:
//     router.Use(monitoring.HTTPMetricsMiddleware())
//
//  3. Record domain metrics where decisions happen:
//     monitoring.RecordAuthzDecision("teacher", "grade", "cross_tenant_access", false)
//     monitoring.RecordTenantResolution("subdomain", "success")
//     monitoring.RecordGatewayOperation("select", "assignment", time.Since(start), true)
//     monitoring.RecordAuditWrite("denial", "success")
//     monitoring.RecordCacheOperation("get", "hit")
package monitoring

import (
	"regexp"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campus_core_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code", "tenant_id"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "campus_core_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "tenant_id"},
	)

	// Policy engine decisions, labelled by the denial reason ("allowed"
	// for the allow path). Cross-tenant and suspicious denials are the
	// series worth alerting on.
	authzDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campus_core_authz_decisions_total",
			Help: "Total number of policy engine decisions",
		},
		[]string{"role", "resource", "reason", "allowed"},
	)

	tenantResolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campus_core_tenant_resolutions_total",
			Help: "Total number of tenant resolution attempts",
		},
		[]string{"source", "result"}, // source: header, domain, subdomain; result: success, not_found, suspended, timeout
	)

	gatewayOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campus_core_gateway_operations_total",
			Help: "Total number of scoped data gateway operations",
		},
		[]string{"operation", "resource", "status"},
	)

	gatewayOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "campus_core_gateway_operation_duration_seconds",
			Help:    "Scoped data gateway operation duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"operation", "resource"},
	)

	auditWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campus_core_audit_writes_total",
			Help: "Total number of audit sink writes",
		},
		[]string{"kind", "status"}, // kind: denial, allow_sample; status: success, error
	)

	cacheOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campus_core_cache_operations_total",
			Help: "Total number of cache operations",
		},
		[]string{"operation", "result"}, // result: hit, miss, error, success
	)

	authAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campus_core_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"method", "result"},
	)

	activeConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "campus_core_active_connections",
			Help: "Number of in-flight HTTP requests",
		},
	)

	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campus_core_errors_total",
			Help: "Total number of errors by component",
		},
		[]string{"component", "detail"},
	)
)

// SetupPrometheusMetrics registers all collectors and exposes /metrics.
// Registration errors are ignored so tests can call this repeatedly.
func SetupPrometheusMetrics(router *gin.Engine) {
	_ = prometheus.Register(httpRequestsTotal)
	_ = prometheus.Register(httpRequestDuration)
	_ = prometheus.Register(authzDecisionsTotal)
	_ = prometheus.Register(tenantResolutionsTotal)
	_ = prometheus.Register(gatewayOperationsTotal)
	_ = prometheus.Register(gatewayOperationDuration)
	_ = prometheus.Register(auditWritesTotal)
	_ = prometheus.Register(cacheOperationsTotal)
	_ = prometheus.Register(authAttemptsTotal)
	_ = prometheus.Register(activeConnections)
	_ = prometheus.Register(errorsTotal)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// HTTPMetricsMiddleware collects HTTP request metrics
func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		endpoint := normalizeEndpoint(c.Request.URL.Path)

		activeConnections.Inc()
		defer activeConnections.Dec()

		c.Next()

		tenantID := c.GetString("tenant_id")
		if tenantID == "" {
			tenantID = "unknown"
		}

		statusCode := strconv.Itoa(c.Writer.Status())
		duration := time.Since(start).Seconds()

		httpRequestsTotal.WithLabelValues(method, endpoint, statusCode, tenantID).Inc()
		httpRequestDuration.WithLabelValues(method, endpoint, tenantID).Observe(duration)

		if c.Writer.Status() >= 400 {
			errorsTotal.WithLabelValues("http", endpoint).Inc()
		}
	}
}

// RecordAuthzDecision records a policy engine decision
func RecordAuthzDecision(role, resource, reason string, allowed bool) {
	authzDecisionsTotal.WithLabelValues(role, resource, reason, strconv.FormatBool(allowed)).Inc()
	if !allowed {
		errorsTotal.WithLabelValues("authz", reason).Inc()
	}
}

// RecordTenantResolution records a tenant resolution attempt
func RecordTenantResolution(source, result string) {
	tenantResolutionsTotal.WithLabelValues(source, result).Inc()
	if result != "success" {
		errorsTotal.WithLabelValues("tenant_resolver", result).Inc()
	}
}

// RecordGatewayOperation records a scoped data gateway operation
func RecordGatewayOperation(operation, resource string, duration time.Duration, success bool) {
	status := "success"
	if !success {
		status = "error"
		errorsTotal.WithLabelValues("gateway", resource).Inc()
	}

	gatewayOperationsTotal.WithLabelValues(operation, resource, status).Inc()
	gatewayOperationDuration.WithLabelValues(operation, resource).Observe(duration.Seconds())
}

// RecordAuditWrite records an audit sink write attempt
func RecordAuditWrite(kind, status string) {
	auditWritesTotal.WithLabelValues(kind, status).Inc()
	if status == "error" {
		errorsTotal.WithLabelValues("audit", kind).Inc()
	}
}

// RecordCacheOperation records cache operation metrics
func RecordCacheOperation(operation, result string) {
	cacheOperationsTotal.WithLabelValues(operation, result).Inc()
	if result == "error" {
		errorsTotal.WithLabelValues("cache", operation).Inc()
	}
}

// RecordAuthAttempt records authentication attempt metrics
func RecordAuthAttempt(method, result string) {
	authAttemptsTotal.WithLabelValues(method, result).Inc()
	if result == "failure" {
		errorsTotal.WithLabelValues("auth", method).Inc()
	}
}

var idSegment = regexp.MustCompile(`^[0-9a-fA-F-]{8,}$|^\d+$`)

// normalizeEndpoint collapses identifier path segments so metric
// cardinality stays bounded.
func normalizeEndpoint(path string) string {
	segments := []byte(path)
	out := make([]byte, 0, len(segments))
	start := 0
	for i := 0; i <= len(path); i++ {
		if i == len(path) || path[i] == '/' {
			seg := path[start:i]
			if idSegment.MatchString(seg) {
				out = append(out, []byte(":id")...)
			} else {
				out = append(out, []byte(seg)...)
			}
			if i < len(path) {
				out = append(out, '/')
			}
			start = i + 1
		}
	}
	return string(out)
}
