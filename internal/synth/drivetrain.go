package synth

import (
	"math"
	"math/rand/v2"
)

const (
	// DefaultWheelDiameter 默认车轮直径 (m)
	DefaultWheelDiameter = 0.7
	// IdleRPM 怠速转速
	IdleRPM  = 800.0
	rpmNoise = 50.0
)

// gearThresholds 各挡位的最低车速 (km/h)
var gearThresholds = [...]float64{0, 20, 40, 60, 80, 110}

// SelectGear 按车速选择挡位 (从 1 开始)
// 满足条件的最高门限胜出，挡位数受传动比个数限制。
func SelectGear(speed float64, ratioCount int) int {
	gear := 1
	for j, threshold := range gearThresholds {
		if speed >= threshold && j < ratioCount {
			gear = j + 1
		}
	}
	return gear
}

// EngineRPM 由车速 (km/h) 计算发动机转速
func EngineRPM(speed, gearRatios []float64, finalDriveRatio, wheelDiameter float64, src rand.Source) []float64 {
	radius := wheelDiameter / 2
	rpm := make([]float64, len(speed))
	for i, v := range speed {
		if len(gearRatios) == 0 {
			continue
		}
		wheelRPM := kmhToMs(v) / radius * 60 / (2 * math.Pi)
		gear := SelectGear(v, len(gearRatios))
		rpm[i] = wheelRPM * gearRatios[gear-1] * finalDriveRatio
	}

	addNoise(rpm, rpmNoise, src)
	for i, r := range rpm {
		rpm[i] = math.Max(r, IdleRPM)
	}
	return rpm
}
