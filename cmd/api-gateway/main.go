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

	_ "github.com/noah-isme/classroom-api/api/swagger"
	"github.com/noah-isme/classroom-api/internal/handler"
	"github.com/noah-isme/classroom-api/internal/middleware"
	"github.com/noah-isme/classroom-api/internal/repository"
	"github.com/noah-isme/classroom-api/internal/service"
	"github.com/noah-isme/classroom-api/migrations"
	"github.com/noah-isme/classroom-api/pkg/cache"
	"github.com/noah-isme/classroom-api/pkg/config"
	"github.com/noah-isme/classroom-api/pkg/database"
	"github.com/noah-isme/classroom-api/pkg/export"
	"github.com/noah-isme/classroom-api/pkg/jobs"
	"github.com/noah-isme/classroom-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/classroom-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/classroom-api/pkg/middleware/requestid"
)

// @title Classroom API
// @version 1.0.0
// @description Users, roles, teacher rosters, lessons, topics and quizzes
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg.Env, cfg.Log)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database, logr)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		applied, err := database.Migrate(ctx, db, migrations.FS)
		if err != nil {
			logr.Fatal("failed to migrate database", zap.Error(err))
		}
		logr.Info("migrations applied", zap.Strings("files", applied))
	}

	metricsSvc := service.NewMetricsService()
	validate := validator.New()
	probes := map[string]handler.Probe{"database": db.PingContext}

	var grantStore service.CacheStore
	redisClient, err := cache.Connect(ctx, cfg.Redis)
	switch {
	case err != nil:
		logr.Warn("redis unavailable, permission cache disabled", zap.Error(err))
	case redisClient != nil:
		defer redisClient.Close()
		probes["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
		if cfg.Permissions.CacheEnabled {
			grantStore = repository.NewRedisStore(redisClient, cfg.Redis.Namespace, logr)
		}
	}
	grantCache := service.NewGrantCache(grantStore, cfg.Permissions.CacheTTL, metricsSvc, logr)

	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	linkRepo := repository.NewTeacherStudentRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	topicRepo := repository.NewTopicRepository(db)
	quizRepo := repository.NewQuizRepository(db)

	tokenSvc := service.NewTokenService(service.TokenConfig{Secret: cfg.JWT.Secret, ExpiresIn: cfg.JWT.ExpiresIn})
	permissionSvc := service.NewPermissionService(roleRepo, grantCache, metricsSvc, logr)
	profileSvc := service.NewProfileService(lessonRepo, topicRepo, linkRepo, quizRepo)
	authSvc := service.NewAuthService(userRepo, profileSvc, tokenSvc, validate, logr, metricsSvc, service.AuthConfig{InactiveStatus: cfg.Auth.InactiveStatus})
	userSvc := service.NewUserService(userRepo, permissionSvc, validate, logr, cfg.Auth.BcryptCost)
	roleSvc := service.NewRoleService(roleRepo, userRepo, permissionSvc, validate, logr)
	rosterSvc := service.NewTeacherStudentService(userRepo, linkRepo, profileSvc, export.NewExporter(), validate, logr)
	lessonSvc := service.NewLessonService(lessonRepo, topicRepo, userRepo, validate, logr)
	topicSvc := service.NewTopicService(topicRepo, lessonRepo, validate)
	quizSvc := service.NewQuizService(quizRepo, topicRepo, linkRepo, validate, logr, metricsSvc)

	allocations := jobs.NewQueue("quiz-allocation", quizSvc.HandleAllocation, jobs.QueueConfig{
		Workers:     cfg.Quizzes.AllocationWorkers,
		MaxRetries:  cfg.Quizzes.AllocationRetries,
		Logger:      logr,
		OnExhausted: quizSvc.AllocationExhausted,
	})
	allocations.Start(ctx)
	defer allocations.Stop()
	quizSvc.UseQueue(allocations)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, middleware.CallerID))
	r.Use(corsmiddleware.New(corsmiddleware.DefaultOptions(cfg.CORS.AllowedOrigins)))
	r.Use(middleware.Metrics(metricsSvc))

	metricsHandler := handler.NewMetricsHandler(metricsSvc, probes)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerRoutes(r.Group(cfg.APIPrefix), routeDeps{
		authenticate: middleware.Authenticate(tokenSvc, metricsSvc),
		permissions:  permissionSvc,
		metrics:      metricsSvc,
		auth:         handler.NewAuthHandler(authSvc, userSvc, handler.CookieConfig{Secure: cfg.Auth.CookieSecure}),
		users:        handler.NewUserHandler(userSvc),
		roles:        handler.NewRoleHandler(roleSvc),
		teachers:     handler.NewTeacherHandler(rosterSvc),
		lessons:      handler.NewLessonHandler(lessonSvc, topicSvc),
		quizzes:      handler.NewQuizHandler(quizSvc),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}
