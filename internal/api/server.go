package api

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edustack/campus-core/internal/access"
	"github.com/edustack/campus-core/internal/api/handlers"
	"github.com/edustack/campus-core/internal/api/middleware"
	"github.com/edustack/campus-core/internal/audit"
	"github.com/edustack/campus-core/internal/config"
	"github.com/edustack/campus-core/internal/gateway"
	"github.com/edustack/campus-core/internal/monitoring"
	"github.com/edustack/campus-core/internal/tenant"
	"github.com/edustack/campus-core/pkg/cache"
	"github.com/edustack/campus-core/pkg/logger"
)

type Server struct {
	config     *config.Config
	logger     logger.Logger
	cache      cache.ValkeyCache
	db         *sql.DB
	resolver   *tenant.Resolver
	directory  tenant.Directory
	engine     *access.Engine
	auditSvc   *audit.Service
	gateway    *gateway.Gateway
	router     *gin.Engine
	httpServer *http.Server
}

func NewServer(
	cfg *config.Config,
	log logger.Logger,
	valkeyCache cache.ValkeyCache,
	db *sql.DB,
	resolver *tenant.Resolver,
	directory tenant.Directory,
	engine *access.Engine,
	auditSvc *audit.Service,
	gw *gateway.Gateway,
) *Server {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	server := &Server{
		config:    cfg,
		logger:    log,
		cache:     valkeyCache,
		db:        db,
		resolver:  resolver,
		directory: directory,
		engine:    engine,
		auditSvc:  auditSvc,
		gateway:   gw,
		router:    router,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.router.Use(gin.Recovery())

	// CORS for the campus frontends
	s.router.Use(middleware.CORSMiddleware(s.config.CORS))

	// Request logging
	s.router.Use(middleware.RequestLogger(s.logger))

	// Prometheus request metrics
	s.router.Use(monitoring.HTTPMetricsMiddleware())

	// Authentication, then rate limiting, then tenant binding. The
	// rate limiter buckets by principal so it has to run after auth;
	// the tenant context middleware needs the principal too.
	s.router.Use(middleware.AuthMiddleware(s.config.Auth, s.cache))
	s.router.Use(middleware.RateLimiter(s.cache, s.config.RateLimit))
	s.router.Use(middleware.TenantContext(s.resolver, s.config.Tenancy, s.logger))

	// Prometheus metrics endpoint
	monitoring.SetupPrometheusMetrics(s.router)
}

func (s *Server) setupRoutes() {
	healthHandler := handlers.NewHealthHandler(s.db, s.cache, s.logger)

	// Public probes, skipped by the auth and tenant middleware
	s.router.GET("/health", healthHandler.HealthCheck)
	s.router.GET("/ready", healthHandler.ReadinessCheck)

	v1 := s.router.Group("/api/v1")

	// School records, scoped through the data gateway
	resourcesHandler := handlers.NewResourcesHandler(s.gateway, s.logger)
	v1.GET("/resources/:kind", resourcesHandler.List)
	v1.POST("/resources/:kind", resourcesHandler.Create)
	v1.PUT("/resources/:kind/:id", resourcesHandler.Update)
	v1.DELETE("/resources/:kind/:id", resourcesHandler.Delete)

	// Tenant administration
	tenantsHandler := handlers.NewTenantsHandler(s.directory, s.logger)
	v1.GET("/tenants", tenantsHandler.List)
	v1.GET("/tenants/current", tenantsHandler.GetCurrent)
	v1.POST("/tenants/:id/suspend", tenantsHandler.Suspend)
	v1.POST("/tenants/:id/activate", tenantsHandler.Activate)

	// Tenant-scoped audit queries
	auditHandler := handlers.NewAuditHandler(s.engine, s.auditSvc, s.logger)
	v1.GET("/audit/records", auditHandler.ListRecords)
}

func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("CAMPUS-CORE REST API server starting", "port", s.config.Port)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		s.logger.Info("Shutting down CAMPUS-CORE gracefully")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.httpServer.Shutdown(shutdownCtx)
}

// Handler returns the underlying Gin engine so tests (or embedders) can mount it.
func (s *Server) Handler() http.Handler {
	return s.router
}
