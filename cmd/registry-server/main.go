// Package main provides the asset registry server entry point.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/golang/glog"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/solaius/asset-registry/pkg/audit"
	"github.com/solaius/asset-registry/pkg/authn"
	"github.com/solaius/asset-registry/pkg/cache"
	"github.com/solaius/asset-registry/pkg/config"
	"github.com/solaius/asset-registry/pkg/dblock"
	"github.com/solaius/asset-registry/pkg/inspection"
	"github.com/solaius/asset-registry/pkg/registry"
)

func main() {
	var (
		configPath   string
		listenAddr   string
		databaseType string
		databaseDSN  string
	)

	flag.StringVar(&configPath, "config", "", "Path to config file (optional)")
	flag.StringVar(&listenAddr, "listen", "", "Address to listen on (overrides config)")
	flag.StringVar(&databaseType, "db-type", "", "Database type (sqlite, postgres, or mysql; overrides config)")
	flag.StringVar(&databaseDSN, "db-dsn", "", "Database connection string (overrides config)")
	flag.Parse()

	// Initialize glog for backwards compatibility
	_ = flag.Set("logtostderr", "true")

	// Set up structured logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(configPath)
	if err != nil {
		glog.Fatalf("Failed to load config: %v", err)
	}
	if listenAddr != "" {
		cfg.ListenAddr = listenAddr
	}
	if databaseType != "" {
		cfg.DatabaseType = databaseType
	}
	if databaseDSN != "" {
		cfg.DatabaseDSN = databaseDSN
	}

	logger.Info("starting registry server",
		"listen", cfg.ListenAddr,
		"dbType", cfg.DatabaseType,
		"authMode", cfg.AuthMode,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	gormDB, err := openDatabase(cfg.DatabaseType, cfg.DatabaseDSN)
	if err != nil {
		glog.Fatalf("Failed to connect to database: %v", err)
	}

	// Stores
	versionStore := registry.NewVersionStore(gormDB)
	inspectionStore := inspection.NewStore(gormDB)
	auditStore := audit.NewStore(gormDB)

	// Serialize schema migrations across replicas.
	locker := dblock.NewMigrationLocker(gormDB)
	err = locker.WithLock(ctx, func() error {
		if err := versionStore.AutoMigrate(); err != nil {
			return fmt.Errorf("asset schema: %w", err)
		}
		if err := inspectionStore.AutoMigrate(); err != nil {
			return fmt.Errorf("inspection schema: %w", err)
		}
		if err := auditStore.AutoMigrate(); err != nil {
			return fmt.Errorf("audit schema: %w", err)
		}
		return nil
	})
	if err != nil {
		glog.Fatalf("Failed to migrate: %v", err)
	}

	// Approval machinery
	rolePolicy, err := inspection.LoadRolePolicy(cfg.RolePolicyPath)
	if err != nil {
		glog.Fatalf("Failed to load role policy: %v", err)
	}
	machine := inspection.NewMachine(rolePolicy)
	coordinator := inspection.NewCoordinator(gormDB, machine, auditStore, logger)

	// Identity
	extractor, err := buildExtractor(cfg, logger)
	if err != nil {
		glog.Fatalf("Failed to configure auth: %v", err)
	}

	auditCfg := audit.ConfigFromEnv()
	cacheManager := cache.NewManager(cache.ConfigFromEnv())

	// Router
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-User-Id", "X-User-Role"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(authn.Middleware(extractor))
	r.Use(audit.Middleware(auditStore, auditCfg, logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		sqlDB, err := gormDB.DB()
		if err != nil || sqlDB.Ping() != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(cacheManager.ReadMiddleware())
			r.Use(cacheManager.WriteInvalidationMiddleware())
			r.Mount("/assets", registry.NewRouter(versionStore, auditStore))
		})
		r.Mount("/inspections", inspection.NewRouter(inspectionStore, coordinator, versionStore))
		r.Mount("/audit", audit.NewRouter(auditStore))
	})

	// Background audit cleanup
	retention := audit.NewRetentionWorker(auditStore, auditCfg.RetentionDays, logger)
	go retention.Run(ctx)

	logger.Info("registry server ready", "listen", cfg.ListenAddr)

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: r,
	}

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			glog.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("registry server stopped")
}

func openDatabase(dbType, dsn string) (*gorm.DB, error) {
	switch dbType {
	case "sqlite":
		return gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	case "postgres":
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	case "mysql":
		return gorm.Open(mysql.Open(dsn), &gorm.Config{})
	}
	return nil, fmt.Errorf("unknown database type %q", dbType)
}

func buildExtractor(cfg *config.ServerConfig, logger *slog.Logger) (authn.Extractor, error) {
	switch cfg.AuthMode {
	case "jwt":
		logger.Info("using JWT auth",
			"subjectClaim", cfg.JWTSubjectClaim,
			"roleClaim", cfg.JWTRoleClaim,
			"hasPublicKey", cfg.JWTPublicKeyPath != "")
		return authn.NewJWTExtractor(authn.JWTExtractorConfig{
			SubjectClaim:  cfg.JWTSubjectClaim,
			RoleClaim:     cfg.JWTRoleClaim,
			PublicKeyPath: cfg.JWTPublicKeyPath,
			Issuer:        cfg.JWTIssuer,
			Audience:      cfg.JWTAudience,
			Logger:        logger,
		})
	default:
		logger.Info("using header-based auth (X-User-Id / X-User-Role)")
		return authn.HeaderExtractor(), nil
	}
}
