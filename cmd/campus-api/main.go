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
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/campushub/campus-api/api/swagger"
	"github.com/campushub/campus-api/internal/feed"
	"github.com/campushub/campus-api/internal/handler"
	"github.com/campushub/campus-api/internal/middleware"
	"github.com/campushub/campus-api/internal/models"
	"github.com/campushub/campus-api/internal/repository"
	"github.com/campushub/campus-api/internal/service"
	"github.com/campushub/campus-api/pkg/cache"
	"github.com/campushub/campus-api/pkg/config"
	"github.com/campushub/campus-api/pkg/database"
	"github.com/campushub/campus-api/pkg/jobs"
	"github.com/campushub/campus-api/pkg/logger"
	corsmiddleware "github.com/campushub/campus-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campushub/campus-api/pkg/middleware/requestid"
	"github.com/campushub/campus-api/pkg/storage"
)

// @title CampusHub API
// @version 0.1.0
// @description Ownership-scoped campus data access and live synchronization
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// The API degrades without Redis: no day-view input cache, no
		// cross-instance feed bridge.
		logr.Warn("redis unavailable, continuing without it", zap.Error(err))
		redisClient = nil
	}

	metricsSvc := service.NewMetricsService()

	hub := feed.NewHub(cfg.Feed.SubscriberBuffer, logr, metricsSvc)
	defer hub.Close()

	var publisher feed.Publisher = hub
	if cfg.Feed.RedisBridge && redisClient != nil {
		bridge := feed.NewBridge(hub, redisClient, cfg.Feed.RedisChannel, logr)
		bridge.Run(ctx)
		defer bridge.Stop()
		publisher = bridge
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)
	feedbackRepo := repository.NewFeedbackRepository(db)
	pushRepo := repository.NewPushSubscriptionRepository(db)
	rosterRepo := repository.NewRosterRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	consultationRepo := repository.NewConsultationRepository(db)
	reportRepo := repository.NewReportRepository(db)
	studyMaterialRepo := repository.NewStudyMaterialRepository(db)
	updateRepo := repository.NewUpdateRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	store, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Warn("export storage unavailable, exports disabled", zap.Error(err))
		store = nil
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)

	authSvc := service.NewAuthService(userRepo, profileRepo, validate, logr, service.AuthConfig{
		Secret:             cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})

	pushSvc := service.NewPushService(pushRepo, nil, validate, logr, jobs.QueueConfig{
		Workers:    cfg.Push.Workers,
		BufferSize: 64,
		MaxRetries: cfg.Push.MaxRetries,
		RetryDelay: cfg.Push.RetryDelay,
	})
	var dispatcher service.PushDispatcher
	if cfg.Push.Enabled {
		pushSvc.Start(ctx)
		defer pushSvc.Stop()
		dispatcher = pushSvc
	}

	profileSvc := service.NewProfileService(profileRepo, validate, logr)
	scheduleSvc := service.NewScheduleService(scheduleRepo, timetableRepo, cacheRepo, publisher, validate, logr)
	timetableSvc := service.NewTimetableService(timetableRepo, publisher, validate, logr)
	notificationSvc := service.NewNotificationService(notificationRepo, publisher, dispatcher, validate, logr)
	appointmentSvc := service.NewAppointmentService(appointmentRepo, publisher, validate, logr)
	feedbackSvc := service.NewFeedbackService(feedbackRepo, validate, logr)
	rosterSvc := service.NewRosterService(rosterRepo, validate, logr)
	assignmentSvc := service.NewAssignmentService(assignmentRepo, publisher, validate, logr)
	consultationSvc := service.NewConsultationService(consultationRepo, validate, logr)
	reportSvc := service.NewReportService(reportRepo, store, signer, validate, logr)
	studyMaterialSvc := service.NewStudyMaterialService(studyMaterialRepo, publisher, signer, validate, logr)
	updateSvc := service.NewUpdateService(updateRepo, publisher, validate, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	profileHandler := handler.NewProfileHandler(profileSvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	timetableHandler := handler.NewTimetableHandler(timetableSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	appointmentHandler := handler.NewAppointmentHandler(appointmentSvc)
	feedbackHandler := handler.NewFeedbackHandler(feedbackSvc)
	pushHandler := handler.NewPushHandler(pushSvc)
	rosterHandler := handler.NewRosterHandler(rosterSvc)
	assignmentHandler := handler.NewAssignmentHandler(assignmentSvc)
	consultationHandler := handler.NewConsultationHandler(consultationSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	studyMaterialHandler := handler.NewStudyMaterialHandler(studyMaterialSvc)
	updateHandler := handler.NewUpdateHandler(updateSvc)
	feedHandler := handler.NewFeedHandler(hub)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	protected.GET("/auth/me", authHandler.Me)
	protected.PUT("/auth/password", authHandler.ChangePassword)

	protected.GET("/profile", profileHandler.Get)
	protected.PUT("/profile", profileHandler.Update)

	schedules := protected.Group("/schedules")
	schedules.GET("", scheduleHandler.List)
	schedules.GET("/day-view", scheduleHandler.DayView)
	schedules.GET("/:id", scheduleHandler.Get)
	schedules.POST("", scheduleHandler.Create)
	schedules.PUT("/:id", scheduleHandler.Update)
	schedules.DELETE("/:id", scheduleHandler.Delete)

	timetable := protected.Group("/timetable")
	timetable.GET("", timetableHandler.ListForClass)
	timetable.GET("/mine", middleware.RequireRoles(models.RoleLecturer), timetableHandler.ListMine)
	timetable.GET("/:id", timetableHandler.Get)
	timetable.POST("", middleware.RequireRoles(models.RoleLecturer), timetableHandler.Create)
	timetable.PUT("/:id", middleware.RequireRoles(models.RoleLecturer), timetableHandler.Update)
	timetable.DELETE("/:id", middleware.RequireRoles(models.RoleLecturer), timetableHandler.Delete)

	notifications := protected.Group("/notifications")
	notifications.GET("", notificationHandler.ListRecent)
	notifications.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleLecturer), notificationHandler.Create)
	notifications.GET("/unread-count", notificationHandler.UnreadCount)
	notifications.PUT("/read-all", notificationHandler.MarkAllRead)
	notifications.PUT("/:id/read", notificationHandler.MarkRead)

	push := protected.Group("/push/subscriptions")
	push.GET("", pushHandler.List)
	push.POST("", pushHandler.Subscribe)
	push.DELETE("", pushHandler.Unsubscribe)

	appointments := protected.Group("/appointments")
	appointments.GET("", appointmentHandler.List)
	appointments.GET("/:id", appointmentHandler.Get)
	appointments.POST("", appointmentHandler.Create)
	appointments.PUT("/:id/status", appointmentHandler.UpdateStatus)
	appointments.DELETE("/:id", appointmentHandler.Delete)

	feedback := protected.Group("/feedback")
	feedback.GET("", feedbackHandler.List)
	feedback.GET("/:id", feedbackHandler.Get)
	feedback.POST("", feedbackHandler.Create)
	feedback.PUT("/:id/respond", middleware.RequireRoles(models.RoleAdmin), feedbackHandler.Respond)
	feedback.DELETE("/:id", feedbackHandler.Delete)

	roster := protected.Group("/roster", middleware.RequireRoles(models.RoleLecturer))
	roster.GET("", rosterHandler.List)
	roster.POST("", rosterHandler.Create)
	roster.PUT("/:id", rosterHandler.Update)
	roster.DELETE("/:id", rosterHandler.Delete)

	assignments := protected.Group("/assignments")
	assignments.GET("", assignmentHandler.List)
	assignments.GET("/:id", assignmentHandler.Get)
	assignments.POST("", middleware.RequireRoles(models.RoleLecturer), assignmentHandler.Create)
	assignments.PUT("/:id", middleware.RequireRoles(models.RoleLecturer), assignmentHandler.Update)
	assignments.DELETE("/:id", middleware.RequireRoles(models.RoleLecturer), assignmentHandler.Delete)

	consultations := protected.Group("/consultations", middleware.RequireRoles(models.RoleLecturer))
	consultations.GET("", consultationHandler.List)
	consultations.GET("/:id", consultationHandler.Get)
	consultations.POST("", consultationHandler.Create)
	consultations.PUT("/:id/status", consultationHandler.UpdateStatus)
	consultations.DELETE("/:id", consultationHandler.Delete)

	reports := protected.Group("/reports", middleware.RequireRoles(models.RoleLecturer))
	reports.GET("", reportHandler.List)
	reports.GET("/:id", reportHandler.Get)
	reports.POST("", reportHandler.Create)
	reports.PUT("/:id", reportHandler.Update)
	reports.DELETE("/:id", reportHandler.Delete)
	reports.POST("/export", reportHandler.Export)

	// Downloads authenticate with the signed token itself.
	api.GET("/reports/export/download", reportHandler.Download)

	materials := protected.Group("/study-materials")
	materials.GET("", studyMaterialHandler.List)
	materials.GET("/:id", studyMaterialHandler.Get)
	materials.GET("/:id/download", studyMaterialHandler.DownloadToken)
	materials.POST("", middleware.RequireRoles(models.RoleLecturer), studyMaterialHandler.Create)
	materials.PUT("/:id", middleware.RequireRoles(models.RoleLecturer), studyMaterialHandler.Update)
	materials.DELETE("/:id", middleware.RequireRoles(models.RoleLecturer), studyMaterialHandler.Delete)

	updates := protected.Group("/updates")
	updates.GET("", updateHandler.List)
	updates.GET("/:id", updateHandler.Get)
	updates.POST("", middleware.RequireRoles(models.RoleLecturer), updateHandler.Create)
	updates.PUT("/:id", middleware.RequireRoles(models.RoleLecturer), updateHandler.Update)
	updates.DELETE("/:id", middleware.RequireRoles(models.RoleLecturer), updateHandler.Delete)

	protected.GET("/feed/:collection", feedHandler.Stream)

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}
