package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeEndpoint(t *testing.T) {
	cases := map[string]string{
		"/api/v1/resources/assignment":                   "/api/v1/resources/assignment",
		"/api/v1/resources/assignment/12345678":          "/api/v1/resources/assignment/:id",
		"/api/v1/tenants/550e8400-e29b-41d4-a716-446655440000/audit": "/api/v1/tenants/:id/audit",
		"/health": "/health",
	}

	for in, want := range cases {
		assert.Equal(t, want, normalizeEndpoint(in), "path %s", in)
	}
}

func TestMetricsEndpointExposed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	SetupPrometheusMetrics(router)
	router.Use(HTTPMetricsMiddleware())

	RecordAuthzDecision("teacher", "grade", "cross_tenant_access", false)
	RecordTenantResolution("subdomain", "success")
	RecordGatewayOperation("select", "assignment", 0, true)
	RecordAuditWrite("denial", "success")
	RecordCacheOperation("get", "hit")
	RecordAuthAttempt("jwt", "success")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "campus_core_authz_decisions_total")
}
