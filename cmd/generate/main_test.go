package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/langchou/drivesynth/internal/config"
	"github.com/langchou/drivesynth/internal/export"
	"github.com/langchou/drivesynth/internal/generator"
)

func TestParseFlags(t *testing.T) {
	envSeed := uint64(3)
	cfg := &config.Config{Seed: &envSeed, LegacyFallback: true}

	opts, err := parseFlags(nil, cfg)
	require.NoError(t, err)
	assert.False(t, opts.single())
	assert.True(t, opts.legacy)
	require.NotNil(t, opts.seed)
	assert.Equal(t, uint64(3), *opts.seed)

	opts, err = parseFlags([]string{"-duration", "30", "-profile", "urban", "-vehicle", "suv", "-seed", "18446744073709551615", "-legacy=false"}, cfg)
	require.NoError(t, err)
	assert.True(t, opts.single())
	assert.False(t, opts.legacy)
	assert.Equal(t, uint64(18446744073709551615), *opts.seed)

	_, err = parseFlags([]string{"-seed", "-1"}, cfg)
	assert.Error(t, err)
}

func TestRunSingleScenario(t *testing.T) {
	seed := uint64(11)
	dir := t.TempDir()
	opts := &options{duration: 20, profile: "highway", vehicle: "sedan", seed: &seed}

	path, err := run(context.Background(), zap.NewNop(), opts, filepath.Join(dir, "nested"), time.Now())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "nested", "sedan_highway.csv"), path)

	tables, err := export.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, 200, tables[0].Len())

	// 同一种子再次生成，覆盖写入且内容一致
	_, err = run(context.Background(), zap.NewNop(), opts, filepath.Join(dir, "nested"), time.Now())
	require.NoError(t, err)
	again, err := export.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, tables[0].Samples, again[0].Samples)
}

func TestRunDefaultBatch(t *testing.T) {
	seed := uint64(5)
	dir := t.TempDir()
	now := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)

	path, err := run(context.Background(), zap.NewNop(), &options{seed: &seed}, dir, now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "vehicle_dynamics_data_20240309.csv"), path)

	tables, err := export.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, tables, 3)
	assert.Equal(t, "sedan_highway", tables[0].TestID())
	assert.Equal(t, 6000, tables[0].Len())
	assert.Equal(t, "suv_urban", tables[1].TestID())
	assert.Equal(t, 9000, tables[1].Len())
	assert.Equal(t, "sports_mixed", tables[2].TestID())
	assert.Equal(t, 12000, tables[2].Len())
}

func TestRunRejectsUnknownVehicle(t *testing.T) {
	opts := &options{duration: 10, profile: "urban", vehicle: "truck", out: filepath.Join(t.TempDir(), "out.csv")}

	_, err := run(context.Background(), zap.NewNop(), opts, "", time.Now())
	assert.ErrorIs(t, err, generator.ErrUnknownVehicleType)

	opts.legacy = true
	path, err := run(context.Background(), zap.NewNop(), opts, "", time.Now())
	require.NoError(t, err)
	tables, err := export.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "truck_urban", tables[0].TestID())
}
