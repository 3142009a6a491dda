package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "risk-assessment/docs" // This is for Swagger
	"risk-assessment/internal/audit"
	"risk-assessment/internal/auth"
	"risk-assessment/internal/config"
	"risk-assessment/internal/database"
	"risk-assessment/internal/handlers"
	"risk-assessment/internal/logger"
	"risk-assessment/internal/metrics"
	"risk-assessment/internal/middleware"
	"risk-assessment/internal/notification"
	"risk-assessment/internal/repository"
	"risk-assessment/internal/service"
	"risk-assessment/internal/vault"

	httpSwagger "github.com/swaggo/http-swagger"
)

// @title Risk Assessment API
// @version 1.0
// @description Backend API for clinical study risk assessments with audit trail and role-targeted notifications

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logger
	logger.Setup(logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
	})

	slog.Info("Starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"env", cfg.App.Env,
		"log_level", cfg.Log.Level,
	)

	// Cancelled on shutdown, stops background work such as rate limiter cleanup
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The JWT signing key comes from Vault when it is enabled
	var vaultClient *vault.Client
	if cfg.Vault.Enabled {
		vaultClient, err = vault.NewClient(&cfg.Vault)
		if err != nil {
			slog.Error("Failed to initialize Vault client", "error", err)
			os.Exit(1)
		}

		startupCtx, startupCancel := getContext(10 * time.Second)
		secret, err := vaultClient.ReadSecret(startupCtx, cfg.Vault.JWTSecretPath, cfg.Vault.JWTSecretKey)
		startupCancel()
		if err != nil {
			slog.Error("Failed to read JWT signing key from Vault", "path", cfg.Vault.JWTSecretPath, "error", err)
			os.Exit(1)
		}
		cfg.JWT.Secret = secret
		slog.Info("JWT signing key loaded from Vault", "vault_addr", cfg.Vault.Address)
	}

	authService, err := auth.NewService(&cfg.JWT)
	if err != nil {
		slog.Error("Failed to initialize token service", "error", err)
		os.Exit(1)
	}

	// Initialize database
	dbCtx, dbCancel := getContext(30 * time.Second)
	db, err := database.New(dbCtx, &cfg.Database)
	if err != nil {
		dbCancel()
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func(db *database.Database) {
		if err := db.Close(); err != nil {
			slog.Error("Failed to close database connection", "error", err)
		}
	}(db)

	slog.Info("Database connection established")

	// Run database migrations
	migrator := database.NewMigrationExecutor(db.DB)
	err = migrator.RunMigrations(dbCtx, os.DirFS(cfg.Database.MigrationsPath))
	dbCancel()
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database migrations completed")

	// Initialize repositories
	studyRepo := repository.NewStudyRepository(db.DB)
	riskFactorRepo := repository.NewRiskFactorRepository(db.DB)
	assessmentRepo := repository.NewAssessmentRepository(db.DB)
	auditRepo := repository.NewAuditTrailRepository(db.DB)
	notificationRepo := repository.NewNotificationRepository(db.DB)

	// Initialize services
	auditService := service.NewAuditService(auditRepo, audit.NewAuditor(), cfg.Audit)
	notificationService := service.NewNotificationService(notificationRepo, notification.NewRouter(studyRepo), cfg.Notification)
	assessmentService := service.NewAssessmentService(assessmentRepo, studyRepo, riskFactorRepo, auditService, notificationService)

	// Initialize middleware
	authMw := middleware.NewAuthMiddleware(authService)
	corsMw := middleware.NewCORSMiddleware(&cfg.CORS)
	rateLimiter := middleware.NewRateLimiter(ctx, &cfg.RateLimit)

	// Initialize handlers
	assessmentHandler := handlers.NewAssessmentHandler(assessmentService)
	auditHandler := handlers.NewAuditHandler(auditService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	checks := map[string]handlers.HealthChecker{"database": db}
	if vaultClient != nil {
		checks["vault"] = vaultClient
	}
	healthHandler := handlers.NewHealthHandler(cfg.App.Version, checks)

	protected := func(h http.HandlerFunc) http.Handler {
		return authMw.Authenticate(h)
	}

	// Setup router
	mux := http.NewServeMux()

	// Assessment lifecycle
	mux.Handle("POST /api/v1/assessments/save", protected(assessmentHandler.Save))
	mux.Handle("POST /api/v1/assessments/draft", protected(assessmentHandler.SaveDraft))
	mux.Handle("POST /api/v1/assessments/submit", protected(assessmentHandler.Submit))
	mux.Handle("POST /api/v1/assessments/{id}/approve", protected(assessmentHandler.Approve))
	mux.Handle("POST /api/v1/assessments/{id}/reject", protected(assessmentHandler.Reject))
	mux.Handle("GET /api/v1/assessments/{id}", protected(assessmentHandler.Get))
	mux.Handle("GET /api/v1/assessments/by-study/{studyId}", protected(assessmentHandler.GetByStudy))
	mux.Handle("GET /api/v1/studies/mine", protected(assessmentHandler.MyStudies))
	mux.Handle("GET /api/v1/studies/{studyId}/edit-permission", protected(assessmentHandler.EditPermission))
	mux.Handle("GET /api/v1/risk-factors", protected(assessmentHandler.RiskFactors))

	// Audit trail
	mux.Handle("GET /api/v1/audit-trail/{assessmentId}", protected(auditHandler.GetAuditTrail))
	mux.Handle("GET /api/v1/audit-trail/{assessmentId}/severity-changes", protected(auditHandler.GetSeverityChanges))
	mux.Handle("GET /api/v1/audit-trail/{assessmentId}/risk-score-changes", protected(auditHandler.GetRiskScoreChanges))
	mux.Handle("GET /api/v1/audit-trail/{assessmentId}/risk-level-changes", protected(auditHandler.GetRiskLevelChanges))
	mux.Handle("GET /api/v1/audit-trail/{assessmentId}/user-changes", protected(auditHandler.GetUserChanges))
	mux.Handle("GET /api/v1/audit-trail/{assessmentId}/summary", protected(auditHandler.GetSummary))
	mux.Handle("GET /api/v1/audit-trail/{assessmentId}/risk-factor/{riskFactorId}", protected(auditHandler.GetRiskFactorChanges))

	// Notifications
	mux.Handle("GET /api/v1/notifications", protected(notificationHandler.List))
	mux.Handle("PUT /api/v1/notifications/{id}/read", protected(notificationHandler.MarkRead))
	mux.Handle("PUT /api/v1/notifications/mark-all-read", protected(notificationHandler.MarkAllRead))
	mux.Handle("GET /api/v1/notifications/unread-count", protected(notificationHandler.UnreadCount))

	// Health check endpoint
	mux.HandleFunc("GET /health", healthHandler.Health)

	// Prometheus metrics
	if cfg.Metrics.Enabled {
		mux.Handle("GET "+cfg.Metrics.Path, metrics.Handler())
	}

	// Swagger documentation
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	// Apply global middleware
	handler := middleware.RequestID(
		middleware.LoggingMiddleware(
			middleware.SecurityHeaders(
				corsMw.Handler(
					rateLimiter.Limit(mux),
				),
			),
		),
	)

	// Create server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.TimeoutRead,
		WriteTimeout: cfg.Server.TimeoutWrite,
		IdleTimeout:  cfg.Server.TimeoutIdle,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Server starting", "address", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Server shutting down...")
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := getContext(30 * time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped")
}
