package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	ServerPort      string
	Debug           bool
	ShutdownTimeout time.Duration

	// Database，为空时只保存在内存
	DatabaseURL string

	// 生成器
	Seed           *uint64 // 默认随机种子
	LegacyFallback bool    // 未识别的车型/工况静默回退
	OutputDir      string  // CSV 输出目录

	// 推送
	StreamBatchSize int // 每条 samples 消息的采样点数
	MaxRetainedRuns int // 内存中保留的任务数
}

func Load() (*Config, error) {
	// 尝试加载 .env 文件（可选）
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:      getEnv("PORT", "4000"),
		Debug:           getEnvBool("DEBUG", false),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 5*time.Second),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		Seed:            getEnvUint64Ptr("SEED"),
		LegacyFallback:  getEnvBool("LEGACY_FALLBACK", false),
		OutputDir:       getEnv("OUTPUT_DIR", "sample_data"),
		StreamBatchSize: getEnvInt("STREAM_BATCH_SIZE", 500),
		MaxRetainedRuns: getEnvInt("MAX_RETAINED_RUNS", 50),
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		b, err := strconv.ParseBool(value)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		i, err := strconv.Atoi(value)
		if err == nil && i > 0 {
			return i
		}
	}
	return defaultValue
}

func getEnvUint64Ptr(key string) *uint64 {
	if value := os.Getenv(key); value != "" {
		u, err := strconv.ParseUint(value, 10, 64)
		if err == nil {
			return &u
		}
	}
	return nil
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return defaultValue
}
