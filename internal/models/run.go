package models

import "time"

// Run 生成任务记录
type Run struct {
	ID          string     `json:"id" db:"id"`
	TestID      string     `json:"test_id" db:"test_id"`
	VehicleType string     `json:"vehicle_type" db:"vehicle_type"`
	ProfileType string     `json:"profile_type" db:"profile_type"`
	Duration    float64    `json:"duration" db:"duration"` // 秒
	Seed        *uint64    `json:"seed,omitempty" db:"seed"`
	State       string     `json:"state" db:"state"`
	SampleCount int        `json:"sample_count" db:"sample_count"`
	Error       *string    `json:"error,omitempty" db:"error"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	// 汇总数据 (完成后写入)
	SpeedMax  *float64 `json:"speed_max,omitempty" db:"speed_max"`   // km/h
	SpeedAvg  *float64 `json:"speed_avg,omitempty" db:"speed_avg"`   // km/h
	RPMMax    *float64 `json:"rpm_max,omitempty" db:"rpm_max"`       // rpm
	FuelAvg   *float64 `json:"fuel_avg,omitempty" db:"fuel_avg"`     // L/100km
	DistanceM *float64 `json:"distance_m,omitempty" db:"distance_m"` // m
}
