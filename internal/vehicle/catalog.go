// Package vehicle 提供各车型的固定参数
package vehicle

import (
	"slices"

	"github.com/langchou/drivesynth/internal/models"
)

var catalog = map[string]models.VehicleParameters{
	models.VehicleSedan: {
		MaxSpeed:         180,
		Mass:             1500,
		EngineEfficiency: 0.35,
		GearRatios:       []float64{3.5, 2.0, 1.5, 1.0, 0.75},
		FinalDriveRatio:  3.7,
	},
	models.VehicleSUV: {
		MaxSpeed:         160,
		Mass:             2200,
		EngineEfficiency: 0.32,
		GearRatios:       []float64{3.8, 2.2, 1.6, 1.0, 0.7},
		FinalDriveRatio:  4.1,
	},
	models.VehicleSports: {
		MaxSpeed:         250,
		Mass:             1300,
		EngineEfficiency: 0.38,
		GearRatios:       []float64{3.2, 2.0, 1.4, 1.0, 0.8, 0.6},
		FinalDriveRatio:  3.5,
	},
}

// Lookup 查询车型参数，返回副本
func Lookup(vehicleType string) (models.VehicleParameters, bool) {
	p, ok := catalog[vehicleType]
	if !ok {
		return models.VehicleParameters{}, false
	}
	p.GearRatios = slices.Clone(p.GearRatios)
	return p, true
}

// LookupOrDefault 未识别的车型回退到 sports
func LookupOrDefault(vehicleType string) models.VehicleParameters {
	if p, ok := Lookup(vehicleType); ok {
		return p
	}
	p, _ := Lookup(models.VehicleSports)
	return p
}

// Types 已知车型，按名称排序
func Types() []string {
	types := make([]string, 0, len(catalog))
	for t := range catalog {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

// IsProfile 是否为已知工况
func IsProfile(profileType string) bool {
	switch profileType {
	case models.ProfileHighway, models.ProfileUrban, models.ProfileMixed:
		return true
	}
	return false
}

// Profiles 已知工况
func Profiles() []string {
	return []string{models.ProfileHighway, models.ProfileMixed, models.ProfileUrban}
}
