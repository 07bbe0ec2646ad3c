package models

import "math"

// 行驶工况类型
const (
	ProfileHighway = "highway"
	ProfileUrban   = "urban"
	ProfileMixed   = "mixed"
)

// 车型
const (
	VehicleSedan  = "sedan"
	VehicleSUV    = "suv"
	VehicleSports = "sports"
)

// TimeStep 采样间隔 (秒)
const TimeStep = 0.1

// MaxSamples 单个场景允许的最大采样点数 (约 27.8 小时)
const MaxSamples = 1_000_000

// MaxDuration 单个场景允许的最大时长 (秒)
const MaxDuration = MaxSamples * TimeStep

// Scenario 一次生成所用的驾驶场景
type Scenario struct {
	ProfileType string  `json:"profile_type"`
	VehicleType string  `json:"vehicle_type"`
	Duration    float64 `json:"duration"`       // 秒
	Seed        *uint64 `json:"seed,omitempty"` // 随机种子，为空时使用生成器配置
}

// TestID 场景标识，始终使用请求中的原始字符串
func (s Scenario) TestID() string {
	return s.VehicleType + "_" + s.ProfileType
}

// SampleCount 时长对应的采样点数 round(duration*10)
// 超出 MaxSamples 或非有限值时返回 0
func SampleCount(duration float64) int {
	n := math.Round(duration * 10)
	if math.IsNaN(n) || n <= 0 || n > MaxSamples {
		return 0
	}
	return int(n)
}

// VehicleParameters 车辆参数
type VehicleParameters struct {
	MaxSpeed         float64   `json:"max_speed"` // km/h
	Mass             float64   `json:"mass"`      // kg
	EngineEfficiency float64   `json:"engine_efficiency"`
	GearRatios       []float64 `json:"gear_ratios"`
	FinalDriveRatio  float64   `json:"final_drive_ratio"`
}
