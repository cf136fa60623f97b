package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/siakad-dosen-api/api/swagger"
	"github.com/noah-isme/siakad-dosen-api/internal/handler"
	"github.com/noah-isme/siakad-dosen-api/internal/middleware"
	"github.com/noah-isme/siakad-dosen-api/internal/models"
	"github.com/noah-isme/siakad-dosen-api/internal/repository"
	"github.com/noah-isme/siakad-dosen-api/internal/service"
	"github.com/noah-isme/siakad-dosen-api/internal/simak"
	"github.com/noah-isme/siakad-dosen-api/pkg/cache"
	"github.com/noah-isme/siakad-dosen-api/pkg/config"
	"github.com/noah-isme/siakad-dosen-api/pkg/database"
	"github.com/noah-isme/siakad-dosen-api/pkg/logger"
	"github.com/noah-isme/siakad-dosen-api/pkg/jobs"
	corsmiddleware "github.com/noah-isme/siakad-dosen-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/siakad-dosen-api/pkg/middleware/requestid"
	"github.com/noah-isme/siakad-dosen-api/pkg/storage"
)

// @title SIAKAD Dosen API
// @version 0.1.0
// @description Lecturer dashboard aggregation service
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
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Dashboard.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, dashboard cache disabled", "error", err)
		} else {
			cacheRepo := repository.NewCacheRepository(redisClient)
			defer cacheRepo.Close()
			cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, true)
		}
	}

	userRepo := repository.NewUserRepository(db)
	lecturerRepo := repository.NewLecturerRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)

	simakClient := simak.NewClient(cfg.Simak, logr)

	authSvc := service.NewAuthService(userRepo, validator.New(), logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            "siakad-dosen-api",
	})
	syncSvc := service.NewSyncService(lecturerRepo, studentRepo, simakClient, metricsSvc, logr)
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Stats:    dashboardRepo,
		Advisees: studentRepo,
		Syncer:   syncSvc,
		Cache:    cacheSvc,
		Metrics:  metricsSvc,
		Logger:   logr,
		Config: service.DashboardServiceConfig{
			CurrentSemester: cfg.Dashboard.CurrentSemester,
			CacheTTL:        cfg.Dashboard.CacheTTL,
		},
	})

	exportStore, err := storage.NewLocalStorage(cfg.Export.Dir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}
	exportSigner := storage.NewSignedURLSigner(cfg.Export.SignSecret, cfg.Export.ResultTTL)
	exportSvc := service.NewRosterExportService(studentRepo, exportStore, exportSigner, logr, service.RosterExportServiceConfig{
		DownloadBasePath: cfg.APIPrefix + "/dashboard/dosen/mahasiswa/exports",
		ResultTTL:        cfg.Export.ResultTTL,
	})
	exportQueue := jobs.NewQueue("roster-export", exportSvc.Handle, jobs.QueueConfig{
		Workers: cfg.Export.Workers,
		Logger:  logr,
	})
	exportSvc.SetQueue(exportQueue)

	queueCtx, cancelQueue := context.WithCancel(context.Background())
	defer cancelQueue()
	exportQueue.Start(queueCtx)
	defer exportQueue.Stop()
	exportSvc.StartCleanup(queueCtx, cfg.Export.ResultTTL/4)

	authHandler := handler.NewAuthHandler(authSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc, lecturerRepo, studentRepo, metricsSvc, logr)
	exportHandler := handler.NewExportHandler(exportSvc, lecturerRepo)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	dashboard := api.Group("/dashboard", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleDosen))
	dashboard.GET("/dosen", dashboardHandler.Show)
	dashboard.GET("/dosen/mahasiswa/export", dashboardHandler.ExportAdvisees)
	dashboard.POST("/dosen/mahasiswa/export-jobs", exportHandler.CreateJob)
	dashboard.GET("/dosen/mahasiswa/export-jobs/:id", exportHandler.JobStatus)

	// Download links are pre-signed; no JWT so the browser can follow them.
	api.GET("/dashboard/dosen/mahasiswa/exports/:token", exportHandler.Download)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
