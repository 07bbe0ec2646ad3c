package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/langchou/drivesynth/internal/models"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("not found")

// RunRepository 生成任务仓库
type RunRepository struct {
	db *DB
}

// NewRunRepository 创建任务仓库
func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db}
}

const runColumns = `id, test_id, vehicle_type, profile_type, duration, seed, state, sample_count, error,
	speed_max, speed_avg, rpm_max, fuel_avg, distance_m, created_at, completed_at`

// Create 创建任务记录
func (r *RunRepository) Create(ctx context.Context, run *models.Run) error {
	query := `
		INSERT INTO runs (id, test_id, vehicle_type, profile_type, duration, seed, state, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Pool.Exec(ctx, query,
		run.ID,
		run.TestID,
		run.VehicleType,
		run.ProfileType,
		run.Duration,
		formatSeed(run.Seed),
		run.State,
		run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// UpdateState 更新任务状态
func (r *RunRepository) UpdateState(ctx context.Context, id, state string) error {
	_, err := r.db.Pool.Exec(ctx, `UPDATE runs SET state = $1 WHERE id = $2`, state, id)
	if err != nil {
		return fmt.Errorf("update run state: %w", err)
	}
	return nil
}

// Complete 写入结束状态和汇总数据
func (r *RunRepository) Complete(ctx context.Context, run *models.Run) error {
	query := `
		UPDATE runs SET
			state = $1,
			seed = $2,
			sample_count = $3,
			error = $4,
			speed_max = $5,
			speed_avg = $6,
			rpm_max = $7,
			fuel_avg = $8,
			distance_m = $9,
			completed_at = $10
		WHERE id = $11
	`
	_, err := r.db.Pool.Exec(ctx, query,
		run.State,
		formatSeed(run.Seed),
		run.SampleCount,
		run.Error,
		run.SpeedMax,
		run.SpeedAvg,
		run.RPMMax,
		run.FuelAvg,
		run.DistanceM,
		run.CompletedAt,
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("complete run: %w", err)
	}
	return nil
}

// GetByID 获取任务
func (r *RunRepository) GetByID(ctx context.Context, id string) (*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE id = $1`
	run, err := scanRun(r.db.Pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run by id: %w", err)
	}
	return run, nil
}

// List 按创建时间倒序列出任务
func (r *RunRepository) List(ctx context.Context, limit, offset int) ([]*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.db.Pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, nil
}

// Count 任务总数
func (r *RunRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM runs`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count runs: %w", err)
	}
	return count, nil
}

func scanRun(row pgx.Row) (*models.Run, error) {
	run := &models.Run{}
	var (
		seed        *string
		completedAt *time.Time
	)
	err := row.Scan(
		&run.ID,
		&run.TestID,
		&run.VehicleType,
		&run.ProfileType,
		&run.Duration,
		&seed,
		&run.State,
		&run.SampleCount,
		&run.Error,
		&run.SpeedMax,
		&run.SpeedAvg,
		&run.RPMMax,
		&run.FuelAvg,
		&run.DistanceM,
		&run.CreatedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}
	run.CompletedAt = completedAt
	if seed != nil {
		v, err := strconv.ParseUint(*seed, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse seed %q: %w", *seed, err)
		}
		run.Seed = &v
	}
	return run, nil
}

// seed 为 uint64，超出 BIGINT 范围，以文本保存
func formatSeed(seed *uint64) *string {
	if seed == nil {
		return nil
	}
	s := strconv.FormatUint(*seed, 10)
	return &s
}
