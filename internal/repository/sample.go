package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/langchou/drivesynth/internal/models"
)

// SampleRepository 采样数据仓库
type SampleRepository struct {
	db *DB
}

// NewSampleRepository 创建采样仓库
func NewSampleRepository(db *DB) *SampleRepository {
	return &SampleRepository{db: db}
}

// CopyRun 批量写入一次任务的所有采样点
func (r *SampleRepository) CopyRun(ctx context.Context, runID string, samples []models.Sample) (int64, error) {
	id, err := uuid.Parse(runID)
	if err != nil {
		return 0, fmt.Errorf("parse run id: %w", err)
	}

	n, err := r.db.Pool.CopyFrom(ctx,
		pgx.Identifier{"samples"},
		[]string{"run_id", "idx", "time", "speed", "acceleration", "engine_rpm", "fuel_consumption", "distance"},
		pgx.CopyFromSlice(len(samples), func(i int) ([]any, error) {
			s := samples[i]
			return []any{id, i, s.Time, s.Speed, s.Acceleration, s.EngineRPM, s.FuelConsumption, s.Distance}, nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("copy samples: %w", err)
	}
	return n, nil
}

// ListByRunID 分页获取任务的采样点
func (r *SampleRepository) ListByRunID(ctx context.Context, runID string, limit, offset int) ([]models.Sample, error) {
	query := `
		SELECT time, speed, acceleration, engine_rpm, fuel_consumption, distance
		FROM samples WHERE run_id = $1 ORDER BY idx LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Pool.Query(ctx, query, runID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list samples by run: %w", err)
	}
	defer rows.Close()

	samples := []models.Sample{}
	for rows.Next() {
		var s models.Sample
		if err := rows.Scan(&s.Time, &s.Speed, &s.Acceleration, &s.EngineRPM, &s.FuelConsumption, &s.Distance); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate samples: %w", err)
	}

	return samples, nil
}

// Sink 把结果表写入指定任务，实现 generator.Sink
type Sink struct {
	repo  *SampleRepository
	runID string
}

// NewSink 创建数据库 sink
func (r *SampleRepository) NewSink(runID string) *Sink {
	return &Sink{repo: r, runID: runID}
}

// Write 写入采样点，多张表按顺序拼接
func (s *Sink) Write(ctx context.Context, tables ...*models.ResultTable) error {
	var samples []models.Sample
	for _, t := range tables {
		samples = append(samples, t.Samples...)
	}
	_, err := s.repo.CopyRun(ctx, s.runID, samples)
	return err
}
