package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/gac-quitus-api/api/swagger"
	"github.com/noah-isme/gac-quitus-api/internal/handler"
	"github.com/noah-isme/gac-quitus-api/internal/middleware"
	"github.com/noah-isme/gac-quitus-api/internal/models"
	"github.com/noah-isme/gac-quitus-api/internal/repository"
	"github.com/noah-isme/gac-quitus-api/internal/service"
	"github.com/noah-isme/gac-quitus-api/pkg/cache"
	"github.com/noah-isme/gac-quitus-api/pkg/config"
	"github.com/noah-isme/gac-quitus-api/pkg/database"
	"github.com/noah-isme/gac-quitus-api/pkg/export"
	"github.com/noah-isme/gac-quitus-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/gac-quitus-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/gac-quitus-api/pkg/middleware/requestid"
)

// @title GAC Quitus API
// @version 1.0.0
// @description Workflow de validation des dossiers et génération du quitus
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, catalog caching disabled", "error", err)
		redisClient = nil
	}

	// Repositories.
	dossierRepo := repository.NewDossierRepository(db)
	checklistRepo := repository.NewChecklistRepository(db)
	validationRepo := repository.NewValidationRepository(db)
	quitusRepo := repository.NewQuitusRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	// Services.
	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(cfg.JWT.Secret)

	notificationSvc := service.NewNotificationService(service.NewLogSender(logr), service.NotificationConfig{
		Workers:    cfg.Notifications.Workers,
		BufferSize: cfg.Notifications.BufferSize,
	}, logr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Notifications.Enabled {
		notificationSvc.Start(ctx)
		defer notificationSvc.Stop()
	}

	checklistSvc := service.NewChecklistService(checklistRepo, nil, cfg.Catalog.CacheTTL, logr)
	if redisClient != nil && cfg.Catalog.CacheEnabled {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		checklistSvc = service.NewChecklistService(checklistRepo, cacheRepo, cfg.Catalog.CacheTTL, logr)
	}

	consistencySvc := service.NewConsistencyService()
	dossierSvc := service.NewDossierService(dossierRepo, validationRepo, auditRepo, notificationSvc, metricsSvc, logr)
	validationSvc := service.NewValidationService(validationRepo, checklistSvc, dossierRepo, auditRepo, logr)
	validationSvc.SetPromoter(dossierSvc)

	quitusSvc := service.NewQuitusService(dossierRepo, validationRepo, checklistSvc, quitusRepo, consistencySvc, auditRepo, notificationSvc, export.NewPDFExporter(), cfg.Quitus.NumberPrefix, logr)
	reportSvc := service.NewReportService(dossierRepo, validationRepo, checklistSvc, consistencySvc, export.NewCSVExporter(), logr)

	// Handlers.
	dossierHandler := handler.NewDossierHandler(dossierSvc)
	validationHandler := handler.NewValidationHandler(validationSvc)
	quitusHandler := handler.NewQuitusHandler(quitusSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	checklistHandler := handler.NewChecklistHandler(checklistSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(authSvc))

	dossiers := api.Group("/dossiers")
	{
		dossiers.POST("", middleware.RequireRoles(models.RoleSecretaire), dossierHandler.Create)
		dossiers.GET("", dossierHandler.List)
		dossiers.GET("/:id", dossierHandler.Get)
		dossiers.PUT("/:id", middleware.RequireRoles(models.RoleSecretaire), dossierHandler.Update)
		dossiers.DELETE("/:id", middleware.RequireRoles(models.RoleSecretaire), dossierHandler.Delete)

		dossiers.POST("/:id/validation-type-operation", middleware.RequireRoles(models.RoleCB), validationHandler.OperationType)
		dossiers.POST("/:id/validation-controles-fond", middleware.RequireRoles(models.RoleCB), validationHandler.Controls)
		dossiers.POST("/:id/rejet-cb", middleware.RequireRoles(models.RoleCB), dossierHandler.RejectCB)

		dossiers.POST("/:id/verifications-ordonnateur", middleware.RequireRoles(models.RoleOrdonnateur), validationHandler.OrdonnateurVerifications)
		dossiers.POST("/:id/ordonnancement", middleware.RequireRoles(models.RoleOrdonnateur), dossierHandler.Ordonnance)

		dossiers.POST("/:id/validation-definitive", middleware.RequireRoles(models.RoleAgentComptable), dossierHandler.ValidateDefinitive)
		dossiers.POST("/:id/quitus", middleware.RequireRoles(models.RoleAgentComptable), quitusHandler.Generate)
		dossiers.GET("/:id/quitus", quitusHandler.Get)
		dossiers.GET("/:id/quitus/pdf", quitusHandler.PDF)

		dossiers.GET("/:id/rapport-verification", reportHandler.Verification)
	}

	api.GET("/checklists/:domain", checklistHandler.Catalog)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}
}
