package models

// CSV 列名，下游过滤统计与绘图依赖这些名称
const (
	ColumnTime            = "Time"
	ColumnSpeed           = "Speed"
	ColumnAcceleration    = "Acceleration"
	ColumnEngineRPM       = "EngineRPM"
	ColumnFuelConsumption = "FuelConsumption"
	ColumnDistance        = "Distance"
	ColumnTestID          = "TestID"
	ColumnVehicleType     = "VehicleType"
	ColumnProfileType     = "ProfileType"
)

// Columns 输出表的列顺序
var Columns = []string{
	ColumnTime,
	ColumnSpeed,
	ColumnAcceleration,
	ColumnEngineRPM,
	ColumnFuelConsumption,
	ColumnDistance,
	ColumnTestID,
	ColumnVehicleType,
	ColumnProfileType,
}

// Sample 单个采样点
type Sample struct {
	Time            float64 `json:"time"`             // s
	Speed           float64 `json:"speed"`            // km/h
	Acceleration    float64 `json:"acceleration"`     // m/s²
	EngineRPM       float64 `json:"engine_rpm"`       // rpm
	FuelConsumption float64 `json:"fuel_consumption"` // L/100km
	Distance        float64 `json:"distance"`         // m
}

// ResultTable 一次生成的完整结果
type ResultTable struct {
	VehicleType string   `json:"vehicle_type"`
	ProfileType string   `json:"profile_type"`
	Samples     []Sample `json:"samples"`
}

// TestID 由车型和工况派生，不可单独设置
func (t *ResultTable) TestID() string {
	return t.VehicleType + "_" + t.ProfileType
}

// Len 采样点数
func (t *ResultTable) Len() int {
	return len(t.Samples)
}
