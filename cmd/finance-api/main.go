package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/stafflink/finance-api/api/swagger"
	"github.com/stafflink/finance-api/internal/handler"
	"github.com/stafflink/finance-api/internal/middleware"
	"github.com/stafflink/finance-api/internal/repository"
	"github.com/stafflink/finance-api/internal/service"
	"github.com/stafflink/finance-api/pkg/cache"
	"github.com/stafflink/finance-api/pkg/config"
	"github.com/stafflink/finance-api/pkg/database"
	"github.com/stafflink/finance-api/pkg/jobs"
	"github.com/stafflink/finance-api/pkg/logger"
	corsmiddleware "github.com/stafflink/finance-api/pkg/middleware/cors"
	reqidmiddleware "github.com/stafflink/finance-api/pkg/middleware/requestid"
	"github.com/stafflink/finance-api/pkg/notify"
	"github.com/stafflink/finance-api/pkg/pdf"
)

// @title StaffLink Finance API
// @version 1.0.0
// @description Financial consistency and invoicing core for healthcare staffing
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		if cfg.Cache.Enabled {
			logr.Sugar().Fatalw("redis connection failed", "error", err)
		}
		logr.Sugar().Warnw("redis unavailable, running without cache", "error", err)
		redisClient = nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Repositories.
	timesheetRepo := repository.NewTimesheetRepository(db)
	shiftRepo := repository.NewShiftRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	counterRepo := repository.NewInvoiceCounterRepository(db)
	agencyRepo := repository.NewAgencyRepository(db)
	clientRepo := repository.NewClientRepository(db)
	changeLogRepo := repository.NewChangeLogRepository(db)
	workflowRepo := repository.NewWorkflowRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	policy := service.PolicyFromConfig(cfg.Invoicing)
	metrics := service.NewMetricsService()
	authService := service.NewAuthService(cfg.JWT)

	notifierService := service.NewNotifierService(
		notify.NewClient(cfg.Notifier),
		pdf.NewInvoiceRenderer(),
		jobs.QueueConfig{
			Workers:    cfg.Notifier.Workers,
			MaxRetries: cfg.Notifier.MaxRetries,
			RetryDelay: cfg.Notifier.RetryDelay,
			Logger:     logr,
		},
		logr,
	)
	notifierService.Start(ctx)
	defer notifierService.Stop()

	validatorService := service.NewValidatorService(
		timesheetRepo, shiftRepo, clientRepo, invoiceRepo,
		changeLogRepo, workflowRepo, policy, metrics, logr)
	generatorService := service.NewGeneratorService(
		timesheetRepo, shiftRepo, clientRepo, agencyRepo,
		invoiceRepo, counterRepo, workflowRepo, policy, metrics, logr)
	senderService := service.NewSenderService(
		invoiceRepo, timesheetRepo, clientRepo, agencyRepo,
		changeLogRepo, notifierService, cacheRepo, metrics, logr)
	invoiceService := service.NewInvoiceService(invoiceRepo, cacheRepo, cfg.Cache.InvoiceTTL, logr)
	workflowService := service.NewWorkflowService(workflowRepo)
	changeLogService := service.NewChangeLogService(changeLogRepo)

	// Handlers.
	financialHandler := handler.NewFinancialHandler(validatorService)
	invoiceHandler := handler.NewInvoiceHandler(generatorService, senderService, invoiceService)
	workflowHandler := handler.NewWorkflowHandler(workflowService)
	changeLogHandler := handler.NewChangeLogHandler(changeLogService)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(authService))
	{
		api.POST("/financial/validate", financialHandler.Validate)
		api.POST("/invoices/generate", invoiceHandler.Generate)
		api.POST("/invoices/:id/send", invoiceHandler.Send)
		api.GET("/invoices", invoiceHandler.List)
		api.GET("/invoices/:id", invoiceHandler.Get)
		api.GET("/workflows", workflowHandler.List)
		api.GET("/change-logs", changeLogHandler.List)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown incomplete", "error", err)
	}
}
