package service

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/langchou/drivesynth/internal/models"
)

// summarize 计算任务汇总数据
func summarize(run *models.Run, table *models.ResultTable) {
	run.SampleCount = table.Len()
	if table.Len() == 0 {
		return
	}

	speed := make([]float64, table.Len())
	rpm := make([]float64, table.Len())
	fuel := make([]float64, table.Len())
	for i, s := range table.Samples {
		speed[i] = s.Speed
		rpm[i] = s.EngineRPM
		fuel[i] = s.FuelConsumption
	}

	speedMax := floats.Max(speed)
	speedAvg := stat.Mean(speed, nil)
	rpmMax := floats.Max(rpm)
	fuelAvg := stat.Mean(fuel, nil)
	distance := table.Samples[table.Len()-1].Distance

	run.SpeedMax = &speedMax
	run.SpeedAvg = &speedAvg
	run.RPMMax = &rpmMax
	run.FuelAvg = &fuelAvg
	run.DistanceM = &distance
}
