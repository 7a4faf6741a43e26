package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/mhofstetter/schulplan-api/api/swagger"
	"github.com/mhofstetter/schulplan-api/internal/handler"
	"github.com/mhofstetter/schulplan-api/internal/middleware"
	"github.com/mhofstetter/schulplan-api/internal/models"
	"github.com/mhofstetter/schulplan-api/internal/repository"
	"github.com/mhofstetter/schulplan-api/internal/service"
	"github.com/mhofstetter/schulplan-api/internal/session"
	"github.com/mhofstetter/schulplan-api/pkg/cache"
	"github.com/mhofstetter/schulplan-api/pkg/config"
	"github.com/mhofstetter/schulplan-api/pkg/database"
	"github.com/mhofstetter/schulplan-api/pkg/logger"
	corsmiddleware "github.com/mhofstetter/schulplan-api/pkg/middleware/cors"
	reqidmiddleware "github.com/mhofstetter/schulplan-api/pkg/middleware/requestid"
)

// @title Schulplan API
// @version 1.0.0
// @description Weekly timetables, lesson offerings, grade sheets and to-dos
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

	if err := database.Migrate(db, cfg.Database.Name); err != nil {
		logr.Sugar().Fatalw("failed to run migrations", "error", err)
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	todoRepo := repository.NewTodoRepository(db)

	sessions := session.NewStore(redisClient, cfg.Session.TTL)

	authSvc := service.NewAuthService(userRepo, sessions, validate, logr)
	lessonSvc := service.NewLessonService(lessonRepo, teacherRepo, validate, logr)
	timetableSvc := service.NewTimetableService(enrollmentRepo, logr)
	gradeSvc := service.NewGradeService(gradeRepo, enrollmentRepo, validate, logr)
	todoSvc := service.NewTodoService(todoRepo, logr)
	metricsSvc := service.NewMetricsService()

	authHandler := handler.NewAuthHandler(authSvc, cfg.Session)
	lessonHandler := handler.NewLessonHandler(lessonSvc)
	timetableHandler := handler.NewTimetableHandler(timetableSvc)
	gradeHandler := handler.NewGradeHandler(gradeSvc)
	todoHandler := handler.NewTodoHandler(todoSvc)

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
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "component": "postgres"})
			return
		}
		if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "component": "redis"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	authed := api.Group("")
	authed.Use(middleware.Session(authSvc, cfg.Session.CookieName))
	{
		authed.POST("/auth/logout", authHandler.Logout)
		authed.GET("/auth/me", authHandler.Me)
	}

	lessons := api.Group("/lessons")
	lessons.Use(middleware.Session(authSvc, cfg.Session.CookieName), middleware.RequireRole(models.RoleTeacher))
	{
		lessons.GET("/mine", lessonHandler.Week)
		lessons.POST("", lessonHandler.Create)
		lessons.PUT("/:id", lessonHandler.Update)
		lessons.DELETE("/:id", lessonHandler.Delete)
		if cfg.Export.Enabled {
			lessons.GET("/mine/export.pdf", lessonHandler.ExportPDF)
		}
	}

	timetable := api.Group("/timetable")
	timetable.Use(middleware.Session(authSvc, cfg.Session.CookieName), middleware.RequireRole(models.RoleStudent))
	{
		timetable.GET("", timetableHandler.Week)
		timetable.GET("/available", timetableHandler.Available)
		timetable.POST("", timetableHandler.Enroll)
		timetable.PUT("/:id", timetableHandler.Edit)
		timetable.DELETE("/:id", timetableHandler.Delete)
		if cfg.Export.Enabled {
			timetable.GET("/export.pdf", timetableHandler.ExportPDF)
		}
	}

	grades := api.Group("/grades")
	grades.Use(middleware.Session(authSvc, cfg.Session.CookieName), middleware.RequireRole(models.RoleStudent))
	{
		grades.GET("", gradeHandler.Load)
		grades.PUT("/:subject", gradeHandler.Save)
		if cfg.Export.Enabled {
			grades.GET("/export.csv", gradeHandler.ExportCSV)
		}
	}

	todos := api.Group("/todos")
	todos.Use(middleware.Session(authSvc, cfg.Session.CookieName))
	{
		todos.GET("", todoHandler.List)
		todos.POST("", todoHandler.Create)
		todos.POST("/:id/toggle", todoHandler.Toggle)
		todos.DELETE("/:id", todoHandler.Delete)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
