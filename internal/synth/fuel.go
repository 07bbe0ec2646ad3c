package synth

import (
	"math"
	"math/rand/v2"
)

// MaxFuelConsumption 油耗上限 (L/100km)
const MaxFuelConsumption = 50.0

const (
	gravity            = 9.81
	rollingCoefficient = 0.015
	airDensity         = 1.225 // kg/m³
	dragCoefficient    = 0.3
	frontalArea        = 2.2    // m²
	fuelEnergyDensity  = 34.8e6 // J/L
	idleSpeedThreshold = 3.0    // km/h
	idleFuelRate       = 0.5 / 3600
	minSpeedKms        = 1e-6
	fuelNoise          = 0.5
)

// FuelConsumption 按受力平衡计算瞬时油耗 (L/100km)
// rpm 作为输入通道保留，不参与受力计算。
func FuelConsumption(speed, acceleration, rpm []float64, engineEfficiency, mass float64, src rand.Source) []float64 {
	fuel := make([]float64, len(speed))
	rolling := rollingCoefficient * mass * gravity

	for i, v := range speed {
		vms := kmhToMs(v)
		force := rolling + 0.5*airDensity*dragCoefficient*frontalArea*vms*vms + mass*acceleration[i]
		power := math.Max(force*vms, 0)

		rate := power / (fuelEnergyDensity * engineEfficiency) // L/s
		if v < idleSpeedThreshold {
			rate = idleFuelRate
		}

		fuel[i] = rate / math.Max(v/3600, minSpeedKms) * 100
	}

	addNoise(fuel, fuelNoise, src)
	for i, f := range fuel {
		fuel[i] = math.Min(math.Max(f, 0), MaxFuelConsumption)
	}
	return fuel
}
