package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/edustack/campus-core/internal/access"
	"github.com/edustack/campus-core/internal/api"
	"github.com/edustack/campus-core/internal/audit"
	"github.com/edustack/campus-core/internal/config"
	"github.com/edustack/campus-core/internal/gateway"
	"github.com/edustack/campus-core/internal/tenant"
	"github.com/edustack/campus-core/internal/tracing"
	"github.com/edustack/campus-core/pkg/cache"
	"github.com/edustack/campus-core/pkg/logger"
)

const version = "v1.4.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger := logger.New(cfg.LogLevel)
	logger.Info("Starting CAMPUS-CORE", "version", version, "environment", cfg.Environment)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logger.Info("Shutdown signal received")
		cancel()
	}()

	// Optional distributed tracing
	if cfg.Tracing.Enabled {
		tp, err := tracing.NewTracerProvider(cfg.Tracing.ServiceName, version, cfg.Tracing.OTLPEndpoint)
		if err != nil {
			logger.Fatal("Failed to initialize tracing", "error", err)
		}
		tracing.InitGlobalTracer(cfg.Tracing.ServiceName)
		defer func() {
			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelShutdown()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				logger.Error("Tracer shutdown failed", "error", err)
			}
		}()
	}

	// Initialize Valkey cache; local development falls back to the
	// in-memory stand-in
	var valkeyCache cache.ValkeyCache
	if cfg.Cache.Enabled {
		valkeyCache, err = cache.NewValkeySingle(cfg.Cache.Addr, cfg.Cache.DB, cfg.Cache.Password,
			time.Duration(cfg.Cache.TTL)*time.Second)
		if err != nil {
			logger.Fatal("Failed to initialize Valkey cache", "error", err)
		}
		logger.Info("Valkey cache initialized", "addr", cfg.Cache.Addr)
	} else {
		valkeyCache = cache.NewNoopValkeyCache()
		logger.Warn("Cache disabled; using in-memory stand-in")
	}

	// Open Postgres: tenant directory, school records, audit log
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		logger.Fatal("Failed to open database", "error", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	pingCtx, cancelPing := context.WithTimeout(ctx, 5*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		logger.Warn("Database not reachable at startup; readiness probe will report it", "error", err)
	}
	cancelPing()

	// Tenant directory with a read-through cache in front
	var directory tenant.Directory = tenant.NewPostgresDirectory(db)
	if cfg.Cache.Enabled {
		directory = tenant.NewCachedDirectory(directory, valkeyCache,
			time.Duration(cfg.Tenancy.DirectoryCacheTTL)*time.Second)
	}
	resolver := tenant.NewResolver(directory, cfg.Tenancy.BaseDomain,
		time.Duration(cfg.Tenancy.ResolveTimeout)*time.Millisecond, logger)

	// Policy engine, optionally fed from an external rule file that is
	// watched and hot-reloaded
	rules := access.DefaultRuleTable()
	if cfg.Policy.RulesPath != "" {
		rules, err = access.LoadRuleTable(cfg.Policy.RulesPath)
		if err != nil {
			logger.Fatal("Failed to load policy rules", "path", cfg.Policy.RulesPath, "error", err)
		}
		logger.Info("Policy rules loaded", "path", cfg.Policy.RulesPath)
	}
	engine := access.NewEngine(rules, logger)

	if cfg.Policy.RulesPath != "" {
		watcher := config.NewFileWatcher(cfg.Policy.RulesPath, func(path string) {
			reloaded, err := access.LoadRuleTable(path)
			if err != nil {
				logger.Error("Policy rule reload failed; keeping previous table", "path", path, "error", err)
				return
			}
			engine.ReplaceRules(reloaded)
			logger.Info("Policy rules reloaded", "path", path)
		}, logger)
		// Start blocks in its event loop until ctx is cancelled, so it
		// has to run on its own goroutine.
		go func() {
			if err := watcher.Start(ctx); err != nil {
				logger.Error("Policy rule watcher failed", "error", err)
			}
		}()
	}

	// Audit sink
	auditSvc := audit.NewService(audit.NewPostgresRepository(db), audit.Config{
		AllowSampleRate: cfg.Audit.AllowSampleRate,
		WriteTimeout:    time.Duration(cfg.Audit.WriteTimeout) * time.Millisecond,
		RepeatWindow:    time.Duration(cfg.Audit.RepeatWindow) * time.Second,
		RepeatThreshold: cfg.Audit.RepeatThreshold,
	}, logger)

	// Scoped data gateway over the record store
	gw := gateway.New(engine, auditSvc, gateway.NewPostgresStore(db), gateway.Config{
		MaxPageSize:     cfg.Gateway.MaxPageSize,
		DefaultPageSize: cfg.Gateway.DefaultPageSize,
		QueryTimeout:    time.Duration(cfg.Gateway.QueryTimeout) * time.Millisecond,
	}, logger)

	// Initialize API server
	apiServer := api.NewServer(cfg, logger, valkeyCache, db, resolver, directory, engine, auditSvc, gw)

	// Start server
	if err := apiServer.Start(ctx); err != nil {
		logger.Fatal("Server failed to start", "error", err)
	}

	logger.Info("CAMPUS-CORE shutdown complete")
}
