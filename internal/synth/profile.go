package synth

import (
	"math"
	"math/rand/v2"

	"github.com/langchou/drivesynth/internal/models"
)

// TimeStep 采样间隔 (秒)
const TimeStep = models.TimeStep

const (
	highwayRampEnd   = 30.0 // 高速工况加速阶段结束时间 (s)
	highwayTau       = 10.0 // 加速阶段时间常数 (s)
	highwayNoise     = 2.0
	urbanCycle       = 600 // 60 s 启停循环
	urbanPeak        = 50.0
	urbanNoise       = 1.0
	mixedSegment     = 1200 // 120 s 分段
	mixedCruise      = 100.0
	mixedCruiseSwing = 20.0
	mixedNoise       = 3.0
	mixedUrbanCycle  = 600
	mixedUrbanPeak   = 60.0
)

// SpeedProfile 生成车速波形 (km/h)
// 长度为 round(duration*10)，负值截断为 0。未识别的工况按 mixed 处理。
func SpeedProfile(duration float64, profileType string, maxSpeed float64, src rand.Source) []float64 {
	n := models.SampleCount(duration)
	if n <= 0 {
		return []float64{}
	}

	var speed []float64
	switch profileType {
	case models.ProfileHighway:
		speed = highwayProfile(n, maxSpeed, src)
	case models.ProfileUrban:
		speed = urbanProfile(n, src)
	default:
		speed = mixedProfile(n, src)
	}

	for i, v := range speed {
		if v < 0 {
			speed[i] = 0
		}
	}
	return speed
}

func highwayProfile(n int, maxSpeed float64, src rand.Source) []float64 {
	speed := make([]float64, n)
	for i := range speed {
		t := SampleTime(i)
		if t <= highwayRampEnd {
			speed[i] = maxSpeed * (1 - math.Exp(-t/highwayTau))
		} else {
			speed[i] = maxSpeed + 5*math.Sin(t/5)
		}
	}
	addNoise(speed, highwayNoise, src)
	return speed
}

func urbanProfile(n int, src rand.Source) []float64 {
	speed := make([]float64, n)
	for _, p := range periods(n, urbanCycle) {
		for i := p.start; i < p.end; i++ {
			tau := SampleTime(i - p.start)
			s := math.Sin(tau * math.Pi / 60)
			speed[i] = urbanPeak * s * s
		}
	}
	addNoise(speed, urbanNoise, src)
	return speed
}

func mixedProfile(n int, src rand.Source) []float64 {
	speed := make([]float64, n)
	for k, seg := range periods(n, mixedSegment) {
		part := speed[seg.start:seg.end]
		if k%2 == 0 {
			// 类高速段
			for i := range part {
				part[i] = mixedCruise + mixedCruiseSwing*math.Sin(ramp(i, len(part)))
			}
			addNoise(part, mixedNoise, src)
			continue
		}
		// 类城市段，不额外加噪声
		for _, c := range periods(len(part), mixedUrbanCycle) {
			length := c.end - c.start
			for i := 0; i < length; i++ {
				s := math.Sin(ramp(i, length))
				part[c.start+i] = mixedUrbanPeak * s * s
			}
		}
	}
	return speed
}

// SampleTime 第 i 个采样点的时间 (s)
func SampleTime(i int) float64 {
	return float64(i) / 10
}

// period 半开区间 [start, end)
type period struct {
	start, end int
}

// periods 将 [0,n) 按 size 切分，最后一段截断到 n，不补齐
func periods(n, size int) []period {
	var out []period
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		out = append(out, period{start: start, end: end})
	}
	return out
}

// ramp 第 i 个点在 [0, π] 线性插值上的取值，两端包含
func ramp(i, length int) float64 {
	if length <= 1 {
		return 0
	}
	return math.Pi * float64(i) / float64(length-1)
}
