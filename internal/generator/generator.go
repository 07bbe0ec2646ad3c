// Package generator 串联各合成环节，生成完整的遥测结果表
package generator

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/langchou/drivesynth/internal/models"
	"github.com/langchou/drivesynth/internal/synth"
	"github.com/langchou/drivesynth/internal/vehicle"
)

// Sink 结果持久化目标
type Sink interface {
	Write(ctx context.Context, tables ...*models.ResultTable) error
}

// Options 生成器配置
type Options struct {
	// Seed 默认随机种子；场景自带种子时以场景为准，均为空时每次生成使用新的随机种子
	Seed *uint64
	// LegacyFallback 为 true 时未识别的车型/工况静默回退到 sports/mixed
	LegacyFallback bool
	// WheelDiameter 车轮直径 (m)，为 0 时使用默认值
	WheelDiameter float64
}

// Generator 遥测生成器
// 不持有可变状态，可被并发调用；每次生成各自创建随机源。
type Generator struct {
	opts Options
}

// New 创建生成器
func New(opts Options) *Generator {
	if opts.WheelDiameter <= 0 {
		opts.WheelDiameter = synth.DefaultWheelDiameter
	}
	return &Generator{opts: opts}
}

// Resolve 校验场景并解析车型参数和实际使用的工况
func (g *Generator) Resolve(sc models.Scenario) (models.VehicleParameters, string, error) {
	if math.IsNaN(sc.Duration) || math.IsInf(sc.Duration, 0) || sc.Duration <= 0 {
		return models.VehicleParameters{}, "", fmt.Errorf("%w: duration must be positive, got %v", ErrInvalidScenario, sc.Duration)
	}
	if math.Round(sc.Duration*10) > models.MaxSamples {
		return models.VehicleParameters{}, "", fmt.Errorf("%w: duration %v exceeds %v s", ErrInvalidScenario, sc.Duration, models.MaxDuration)
	}
	if models.SampleCount(sc.Duration) == 0 {
		return models.VehicleParameters{}, "", fmt.Errorf("%w: duration %v yields no samples", ErrInvalidScenario, sc.Duration)
	}

	params, ok := vehicle.Lookup(sc.VehicleType)
	if !ok {
		if !g.opts.LegacyFallback {
			return models.VehicleParameters{}, "", fmt.Errorf("%w %q", ErrUnknownVehicleType, sc.VehicleType)
		}
		params = vehicle.LookupOrDefault(sc.VehicleType)
	}

	profile := sc.ProfileType
	if !vehicle.IsProfile(profile) {
		if !g.opts.LegacyFallback {
			return models.VehicleParameters{}, "", fmt.Errorf("%w %q", ErrUnknownProfileType, sc.ProfileType)
		}
		profile = models.ProfileMixed
	}

	return params, profile, nil
}

// SeedFor 场景实际使用的随机种子
func (g *Generator) SeedFor(sc models.Scenario) uint64 {
	switch {
	case sc.Seed != nil:
		return *sc.Seed
	case g.opts.Seed != nil:
		return *g.opts.Seed
	default:
		return synth.RandomSeed()
	}
}

// Generate 生成一张结果表
func (g *Generator) Generate(sc models.Scenario) (*models.ResultTable, error) {
	params, profile, err := g.Resolve(sc)
	if err != nil {
		return nil, err
	}
	return g.run(sc, params, profile, synth.NewSource(g.SeedFor(sc)))
}

// GenerateTo 生成并写入 sink
// 写入失败时仍返回已计算的结果表，错误包装 ErrSinkFailure。
func (g *Generator) GenerateTo(ctx context.Context, sc models.Scenario, sink Sink) (*models.ResultTable, error) {
	table, err := g.Generate(sc)
	if err != nil {
		return nil, err
	}
	if sink == nil {
		return table, nil
	}
	if err := sink.Write(ctx, table); err != nil {
		return table, fmt.Errorf("%w: %w", ErrSinkFailure, err)
	}
	return table, nil
}

// GenerateBatch 依次生成多个场景，合并写入同一个 sink
func (g *Generator) GenerateBatch(ctx context.Context, scenarios []models.Scenario, sink Sink) ([]*models.ResultTable, error) {
	tables := make([]*models.ResultTable, 0, len(scenarios))
	for _, sc := range scenarios {
		table, err := g.Generate(sc)
		if err != nil {
			return nil, fmt.Errorf("generate %s: %w", sc.TestID(), err)
		}
		tables = append(tables, table)
	}
	if sink == nil {
		return tables, nil
	}
	if err := sink.Write(ctx, tables...); err != nil {
		return tables, fmt.Errorf("%w: %w", ErrSinkFailure, err)
	}
	return tables, nil
}

func (g *Generator) run(sc models.Scenario, params models.VehicleParameters, profile string, src rand.Source) (*models.ResultTable, error) {
	speed := synth.SpeedProfile(sc.Duration, profile, params.MaxSpeed, src)
	acceleration := synth.Acceleration(speed)
	distance := synth.Distance(speed, synth.TimeStep)
	rpm := synth.EngineRPM(speed, params.GearRatios, params.FinalDriveRatio, g.opts.WheelDiameter, src)
	fuel := synth.FuelConsumption(speed, acceleration, rpm, params.EngineEfficiency, params.Mass, src)

	channels := []struct {
		name   string
		values []float64
	}{
		{models.ColumnSpeed, speed},
		{models.ColumnAcceleration, acceleration},
		{models.ColumnEngineRPM, rpm},
		{models.ColumnFuelConsumption, fuel},
		{models.ColumnDistance, distance},
	}
	for _, ch := range channels {
		if i := firstNonFinite(ch.values); i >= 0 {
			return nil, fmt.Errorf("%w: %s at sample %d is %v", ErrNumericFailure, ch.name, i, ch.values[i])
		}
	}

	table := &models.ResultTable{
		VehicleType: sc.VehicleType,
		ProfileType: sc.ProfileType,
		Samples:     make([]models.Sample, len(speed)),
	}
	for i := range speed {
		table.Samples[i] = models.Sample{
			Time:            synth.SampleTime(i),
			Speed:           speed[i],
			Acceleration:    acceleration[i],
			EngineRPM:       rpm[i],
			FuelConsumption: fuel[i],
			Distance:        distance[i],
		}
	}
	return table, nil
}

func firstNonFinite(values []float64) int {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return i
		}
	}
	return -1
}
