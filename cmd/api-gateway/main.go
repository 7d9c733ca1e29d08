package main

import (
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/sala-digital/attendance-api/api/swagger"
	"github.com/sala-digital/attendance-api/internal/attendance"
	"github.com/sala-digital/attendance-api/internal/handler"
	"github.com/sala-digital/attendance-api/internal/middleware"
	"github.com/sala-digital/attendance-api/internal/models"
	"github.com/sala-digital/attendance-api/internal/repository"
	"github.com/sala-digital/attendance-api/internal/service"
	"github.com/sala-digital/attendance-api/pkg/cache"
	"github.com/sala-digital/attendance-api/pkg/config"
	"github.com/sala-digital/attendance-api/pkg/database"
	"github.com/sala-digital/attendance-api/pkg/logger"
	corsmiddleware "github.com/sala-digital/attendance-api/pkg/middleware/cors"
	reqidmiddleware "github.com/sala-digital/attendance-api/pkg/middleware/requestid"
)

// @title Attendance Admin API
// @version 1.0.0
// @description School attendance capture, status derivation and reporting
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

	location, err := time.LoadLocation(cfg.Attendance.TimeZone)
	if err != nil {
		logr.Sugar().Fatalw("invalid attendance timezone", "tz", cfg.Attendance.TimeZone, "error", err)
	}
	policy := attendance.Policy{
		GraceMinutes:      cfg.Attendance.GraceMinutes,
		LateWindowMinutes: cfg.Attendance.LateWindowMinutes,
		LookbackDays:      cfg.Attendance.LookbackDays,
		Location:          location,
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	metricsService := service.NewMetricsService()

	var cacheService *service.CacheService
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		cacheService = service.NewCacheService(nil, metricsService, cfg.Dashboard.CacheTTL, logr, false)
	} else {
		defer redisClient.Close()
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheService = service.NewCacheService(cacheRepo, metricsService, cfg.Dashboard.CacheTTL, logr, true)
	}

	validate := validator.New()

	studentRepo := repository.NewStudentRepository(db)
	eventRepo := repository.NewAttendanceRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	permissionRepo := repository.NewPermissionRepository(db)
	userRepo := repository.NewUserRepository(db)

	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "attendance-api",
	})
	attendanceService := service.NewAttendanceService(eventRepo, studentRepo, scheduleRepo, validate, logr, metricsService, policy)
	dashboardService := service.NewDashboardService(eventRepo, studentRepo, scheduleRepo, cacheService, logr, policy, cfg.Attendance.StreakAlertThreshold, cfg.Dashboard.CacheTTL)
	reportService := service.NewReportService(eventRepo, studentRepo, scheduleRepo, logr, policy, cfg.Reports.MaxMonths)
	studentService := service.NewStudentService(studentRepo, scheduleRepo, validate, logr)
	scheduleService := service.NewScheduleService(scheduleRepo, dashboardService, validate, logr)
	permissionService := service.NewPermissionService(permissionRepo, studentRepo, validate, logr)

	authHandler := handler.NewAuthHandler(authService)
	attendanceHandler := handler.NewAttendanceHandler(attendanceService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)
	reportHandler := handler.NewReportHandler(reportService)
	studentHandler := handler.NewStudentHandler(studentService)
	scheduleHandler := handler.NewScheduleHandler(scheduleService)
	permissionHandler := handler.NewPermissionHandler(permissionService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authService), authHandler.Logout)
		auth.GET("/me", middleware.JWT(authService), authHandler.Me)
	}

	// Filing a leave request is the one public write; parents use it
	// without an account.
	api.POST("/permissions", permissionHandler.Create)

	staff := api.Group("")
	staff.Use(middleware.JWT(authService))
	staff.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleStaff))
	{
		staff.POST("/attendance/scan", attendanceHandler.Scan)
		staff.POST("/attendance/mark", attendanceHandler.Mark)
		staff.GET("/attendance/events", attendanceHandler.List)
		staff.GET("/attendance/daily-check", attendanceHandler.DailyCheck)
		staff.GET("/attendance/students/:id/history", attendanceHandler.StudentHistory)

		staff.GET("/students", studentHandler.List)
		staff.GET("/students/:id", studentHandler.Get)

		staff.GET("/schedules", scheduleHandler.ListSchedules)
		staff.GET("/schedules/:classKey", scheduleHandler.GetSchedule)
		staff.GET("/holidays", scheduleHandler.ListHolidays)

		staff.GET("/permissions", permissionHandler.List)
		staff.GET("/permissions/:id", permissionHandler.Get)
		staff.POST("/permissions/:id/review", permissionHandler.Review)

		if cfg.Dashboard.Enabled {
			staff.GET("/dashboard", dashboardHandler.Summary)
		}
		if cfg.Reports.Enabled {
			staff.GET("/reports/monthly", reportHandler.Monthly)
			staff.GET("/reports/monthly/export", reportHandler.Export)
		}
	}

	admin := api.Group("")
	admin.Use(middleware.JWT(authService))
	admin.Use(middleware.RequireRoles(models.RoleAdmin))
	{
		admin.POST("/students", studentHandler.Create)
		admin.PUT("/students/:id", studentHandler.Update)
		admin.DELETE("/students/:id", studentHandler.Deactivate)

		admin.PUT("/schedules", scheduleHandler.UpsertSchedule)
		admin.POST("/holidays", scheduleHandler.CreateHoliday)
		admin.DELETE("/holidays/:date", scheduleHandler.DeleteHoliday)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "tz", cfg.Attendance.TimeZone)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
