package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/langchou/drivesynth/internal/api/handlers"
	"github.com/langchou/drivesynth/internal/config"
	"github.com/langchou/drivesynth/internal/generator"
	"github.com/langchou/drivesynth/internal/repository"
	"github.com/langchou/drivesynth/internal/service"
	"github.com/langchou/drivesynth/pkg/ws"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	logger := initLogger(cfg.Debug)
	defer logger.Sync()

	logger.Info("Starting drivesynth",
		zap.String("port", cfg.ServerPort),
		zap.Bool("legacy_fallback", cfg.LegacyFallback),
	)

	// 创建 context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 连接数据库（可选）
	var (
		runRepo    *repository.RunRepository
		sampleRepo *repository.SampleRepository
	)
	if cfg.DatabaseURL != "" {
		db, err := repository.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("Failed to connect database", zap.Error(err))
		}
		defer db.Close()

		// 执行数据库迁移
		if err := db.Migrate(ctx); err != nil {
			logger.Fatal("Failed to migrate database", zap.Error(err))
		}
		logger.Info("Database migrated successfully")

		runRepo = repository.NewRunRepository(db)
		sampleRepo = repository.NewSampleRepository(db)
	} else {
		logger.Warn("DATABASE_URL not set, runs are kept in memory only")
	}

	// 创建 WebSocket Hub
	wsHub := ws.NewHub(logger)
	go wsHub.Run()
	defer wsHub.Stop()

	// 创建生成器和任务服务
	gen := generator.New(generator.Options{
		Seed:           cfg.Seed,
		LegacyFallback: cfg.LegacyFallback,
	})
	runService := service.NewRunService(cfg, logger, gen, runRepo, sampleRepo, wsHub)

	// 新连接推送最近的任务
	wsHub.SetInitDataProvider(func() *ws.InitData {
		runs, _, err := runService.List(ctx, 20, 0)
		if err != nil {
			logger.Warn("Failed to load recent runs", zap.Error(err))
			return nil
		}
		return &ws.InitData{Runs: runs}
	})

	// 创建 HTTP 处理器
	handler := handlers.NewHandler(logger, cfg, runService, wsHub)

	// 设置 Gin 模式
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	// 注册路由
	handler.RegisterRoutes(router)

	// 启动 HTTP 服务器
	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("addr", server.Addr))

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// 优雅关闭
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// initLogger 初始化日志
func initLogger(debug bool) *zap.Logger {
	var config zap.Config
	if debug {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
	}

	logger, _ := config.Build()
	return logger
}

// corsMiddleware CORS 中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
