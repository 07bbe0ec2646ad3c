package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/langchou/drivesynth/internal/config"
	"github.com/langchou/drivesynth/internal/export"
	"github.com/langchou/drivesynth/internal/generator"
	"github.com/langchou/drivesynth/internal/models"
)

// defaultBatch 未指定场景时生成的默认数据集
var defaultBatch = []models.Scenario{
	{ProfileType: models.ProfileHighway, VehicleType: models.VehicleSedan, Duration: 600},
	{ProfileType: models.ProfileUrban, VehicleType: models.VehicleSUV, Duration: 900},
	{ProfileType: models.ProfileMixed, VehicleType: models.VehicleSports, Duration: 1200},
}

// options 命令行参数
type options struct {
	duration float64
	profile  string
	vehicle  string
	out      string
	seed     *uint64
	legacy   bool
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Debug)
	defer logger.Sync()

	opts, err := parseFlags(os.Args[1:], cfg)
	if err != nil {
		os.Exit(2)
	}

	path, err := run(context.Background(), logger, opts, cfg.OutputDir, time.Now())
	if err != nil {
		logger.Fatal("Generation failed", zap.Error(err))
	}
	logger.Info("Data written", zap.String("path", path))
}

// parseFlags 解析参数，默认值来自环境配置
func parseFlags(args []string, cfg *config.Config) (*options, error) {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)

	opts := &options{seed: cfg.Seed}
	fs.Float64Var(&opts.duration, "duration", 0, "scenario duration in seconds")
	fs.StringVar(&opts.profile, "profile", "", "driving profile: highway, urban or mixed")
	fs.StringVar(&opts.vehicle, "vehicle", "", "vehicle type: sedan, suv or sports")
	fs.StringVar(&opts.out, "out", "", "output CSV path")
	fs.BoolVar(&opts.legacy, "legacy", cfg.LegacyFallback, "fall back to sports/mixed for unknown types")
	fs.Func("seed", "random seed for reproducible output", func(s string) error {
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return err
		}
		opts.seed = &v
		return nil
	})

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return opts, nil
}

// single 是否指定了单个场景
func (o *options) single() bool {
	return o.duration != 0 || o.profile != "" || o.vehicle != ""
}

// run 生成数据并写入 CSV，返回输出路径
func run(ctx context.Context, logger *zap.Logger, opts *options, outputDir string, now time.Time) (string, error) {
	gen := generator.New(generator.Options{
		Seed:           opts.seed,
		LegacyFallback: opts.legacy,
	})

	scenarios := defaultBatch
	if opts.single() {
		scenarios = []models.Scenario{{
			ProfileType: opts.profile,
			VehicleType: opts.vehicle,
			Duration:    opts.duration,
		}}
	}

	path := opts.out
	if path == "" {
		name := fmt.Sprintf("vehicle_dynamics_data_%s.csv", now.Format("20060102"))
		if opts.single() {
			name = scenarios[0].TestID() + ".csv"
		}
		path = filepath.Join(outputDir, name)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	tables, err := gen.GenerateBatch(ctx, scenarios, export.NewFileSink(path))
	if err != nil {
		return "", err
	}

	for _, table := range tables {
		logger.Info("Scenario generated",
			zap.String("test_id", table.TestID()),
			zap.Int("samples", table.Len()),
		)
	}
	return path, nil
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
