package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB 数据库连接池封装
type DB struct {
	Pool *pgxpool.Pool
}

// New 创建数据库连接
func New(ctx context.Context, databaseURL string) (*DB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	// 连接池配置
	config.MaxConns = 10
	config.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// 测试连接
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close 关闭连接池
func (db *DB) Close() {
	db.Pool.Close()
}

// Migrate 执行数据库迁移
func (db *DB) Migrate(ctx context.Context) error {
	migrations := []string{
		migrationCreateRuns,
		migrationCreateSamples,
	}

	for _, m := range migrations {
		if _, err := db.Pool.Exec(ctx, m); err != nil {
			return fmt.Errorf("execute migration: %w", err)
		}
	}

	return nil
}

// 数据库迁移 SQL
const migrationCreateRuns = `
CREATE TABLE IF NOT EXISTS runs (
    id UUID PRIMARY KEY,
    test_id VARCHAR(255) NOT NULL,
    vehicle_type VARCHAR(100) NOT NULL,
    profile_type VARCHAR(100) NOT NULL,
    duration DOUBLE PRECISION NOT NULL,
    seed TEXT,
    state VARCHAR(20) NOT NULL,
    sample_count INT NOT NULL DEFAULT 0,
    error TEXT,
    speed_max DOUBLE PRECISION,
    speed_avg DOUBLE PRECISION,
    rpm_max DOUBLE PRECISION,
    fuel_avg DOUBLE PRECISION,
    distance_m DOUBLE PRECISION,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL,
    completed_at TIMESTAMP WITH TIME ZONE
);
CREATE INDEX IF NOT EXISTS idx_runs_test_id ON runs(test_id);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

const migrationCreateSamples = `
CREATE TABLE IF NOT EXISTS samples (
    run_id UUID NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    idx INT NOT NULL,
    time DOUBLE PRECISION NOT NULL,
    speed DOUBLE PRECISION NOT NULL,
    acceleration DOUBLE PRECISION NOT NULL,
    engine_rpm DOUBLE PRECISION NOT NULL,
    fuel_consumption DOUBLE PRECISION NOT NULL,
    distance DOUBLE PRECISION NOT NULL,
    PRIMARY KEY (run_id, idx)
);
`
