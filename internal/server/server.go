package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "daytracker/docs"
	"daytracker/internal/config"
	"daytracker/internal/handler"
	"daytracker/internal/middleware"
	"daytracker/internal/repository"
	"daytracker/internal/scheduler"
	"daytracker/internal/service"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Server struct {
	Engine    *gin.Engine
	DB        *gorm.DB
	Config    *config.Config
	Scheduler *scheduler.Scheduler
}

func Init(cfg *config.Config) (*Server, error) {
	db, err := repository.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to DB: %w", err)
	}
	if err := repository.Migrate(db); err != nil {
		return nil, err
	}
	zap.L().Info("connected to database", zap.String("driver", cfg.DBDriver))

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.GinZapMiddleware(zap.L()), gin.Recovery())

	// Services
	clock := service.SystemClock{Location: cfg.Location}
	store := repository.NewStore(db)
	taskService := service.NewTaskService(store, clock)
	templateService := service.NewTemplateService(store, taskService, clock)
	categoryService := service.NewCategoryService(store)
	historyService := service.NewHistoryService(store, clock)

	// Handlers
	userHandler := handler.NewUserHandler(repository.NewUserRepository(db), cfg.JWTSecret, cfg.JWTExpiry)
	healthHandler := handler.NewHealthHandler(sqlDB)
	categoryHandler := handler.NewCategoryHandler(categoryService)
	taskHandler := handler.NewTaskHandler(taskService, historyService, cfg.Location)
	templateHandler := handler.NewTemplateHandler(templateService, clock)

	// Public routes
	r.POST("/register", userHandler.Register)
	r.POST("/login", userHandler.Login)
	r.GET("/health", healthHandler.Check)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Protected routes - require authentication
	authorized := r.Group("/")
	authorized.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	{
		// Category routes
		authorized.GET("/categories", categoryHandler.GetAll)
		authorized.POST("/categories", categoryHandler.Create)
		authorized.PUT("/categories/:id", categoryHandler.Update)
		authorized.DELETE("/categories/:id", categoryHandler.Delete)

		// Task routes
		authorized.GET("/tasks/today", taskHandler.Today)
		authorized.GET("/tasks/date/:date", taskHandler.ByDate)
		authorized.GET("/tasks/completed/history", taskHandler.CompletedHistory)
		authorized.GET("/tasks/completed/stats", taskHandler.CompletedStats)
		authorized.POST("/tasks", taskHandler.Create)
		authorized.POST("/tasks/move-to-tomorrow", taskHandler.MoveToTomorrow)
		authorized.POST("/tasks/reorder", taskHandler.Reorder)
		authorized.POST("/tasks/check-duplicate", taskHandler.CheckDuplicate)
		authorized.GET("/tasks/:id", taskHandler.GetByID)
		authorized.PUT("/tasks/:id", taskHandler.Update)
		authorized.PATCH("/tasks/:id/complete", taskHandler.Complete)
		authorized.DELETE("/tasks/:id", taskHandler.Delete)
		authorized.POST("/tasks/:id/move-back", taskHandler.MoveBack)
		authorized.POST("/tasks/:id/move-up", taskHandler.MoveUp)
		authorized.POST("/tasks/:id/move-down", taskHandler.MoveDown)

		// Template routes
		authorized.GET("/templates", templateHandler.GetAll)
		authorized.POST("/templates", templateHandler.Create)
		authorized.GET("/templates/stats", templateHandler.Stats)
		authorized.POST("/templates/process-pending", templateHandler.ProcessPending)
		authorized.GET("/templates/:id", templateHandler.GetByID)
		authorized.PUT("/templates/:id", templateHandler.Update)
		authorized.DELETE("/templates/:id", templateHandler.Delete)
		authorized.PATCH("/templates/:id/toggle", templateHandler.Toggle)
		authorized.POST("/templates/:id/run", templateHandler.Run)
	}

	var sched *scheduler.Scheduler
	if cfg.TemplateCheckInterval > 0 {
		sched = scheduler.New(cfg.Location)
		jobs := scheduler.NewJobs(templateService, taskService, clock)
		if err := jobs.Register(sched, cfg.TemplateCheckInterval, cfg.AutoRollover); err != nil {
			return nil, fmt.Errorf("failed to schedule jobs: %w", err)
		}
	}

	return &Server{
		Engine:    r,
		DB:        db,
		Config:    cfg,
		Scheduler: sched,
	}, nil
}

func (s *Server) Run() {
	srv := &http.Server{
		Addr:    ":" + s.Config.ServerPort,
		Handler: s.Engine,
	}

	go func() {
		zap.L().Info("server running", zap.String("port", s.Config.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().Fatal("failed to listen", zap.Error(err))
		}
	}()

	if s.Scheduler != nil {
		s.Scheduler.Start()
		zap.L().Info("scheduler started",
			zap.Duration("template_check_interval", s.Config.TemplateCheckInterval),
			zap.Bool("auto_rollover", s.Config.AutoRollover),
		)
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.L().Info("shutting down server")

	if s.Scheduler != nil {
		s.Scheduler.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zap.L().Error("server forced to shutdown", zap.Error(err))
	}

	if sqlDB, err := s.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	zap.L().Info("server exited properly")
}
