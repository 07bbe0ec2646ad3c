package synth

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"

	"github.com/langchou/drivesynth/internal/models"
)

func TestSpeedProfileLength(t *testing.T) {
	t.Parallel()

	cases := []struct {
		duration float64
		want     int
	}{
		{600, 6000},
		{120, 1200},
		{12.34, 123},
		{90.5, 905},
	}
	for _, profile := range []string{models.ProfileHighway, models.ProfileUrban, models.ProfileMixed} {
		for _, tc := range cases {
			speed := SpeedProfile(tc.duration, profile, 180, NewSource(1))
			assert.Len(t, speed, tc.want, "profile=%s duration=%v", profile, tc.duration)
		}
	}
}

func TestSpeedProfileNonNegative(t *testing.T) {
	t.Parallel()

	for _, profile := range []string{models.ProfileHighway, models.ProfileUrban, models.ProfileMixed, "unknown"} {
		speed := SpeedProfile(1000, profile, 160, NewSource(7))
		for i, v := range speed {
			require.GreaterOrEqual(t, v, 0.0, "profile=%s index=%d", profile, i)
		}
	}
}

func TestHighwayCruisesNearMaxSpeed(t *testing.T) {
	t.Parallel()

	speed := SpeedProfile(600, models.ProfileHighway, 180, NewSource(42))
	cruise := speed[301:]
	assert.InDelta(t, 180, stat.Mean(cruise, nil), 2.0)

	// 加速阶段起点接近 0
	assert.Less(t, speed[0], 10.0)
	assert.InDelta(t, 180*(1-math.Exp(-3)), stat.Mean(speed[295:300], nil), 4.0)
}

func TestUrbanStopAndGoCycles(t *testing.T) {
	t.Parallel()

	speed := SpeedProfile(120, models.ProfileUrban, 160, NewSource(3))
	require.Len(t, speed, 1200)

	// 每个循环的起点速度接近 0，中点接近 50
	for _, start := range []int{0, 600} {
		assert.Less(t, speed[start], 4.0, "cycle start %d", start)
		assert.InDelta(t, 50, stat.Mean(speed[start+295:start+305], nil), 3.0, "cycle peak %d", start)
	}
	assert.Less(t, speed[599], 4.0)
	assert.Less(t, speed[1199], 4.0)
}

func TestUrbanPartialCycleIsClipped(t *testing.T) {
	t.Parallel()

	speed := SpeedProfile(90, models.ProfileUrban, 160, NewSource(3))
	require.Len(t, speed, 900)
	// 第二个循环只有 30 s，局部时间从 0 开始，在末尾到达峰值
	assert.Less(t, speed[600], 4.0)
	assert.InDelta(t, 50, stat.Mean(speed[895:900], nil), 3.0)
}

func TestMixedSegments(t *testing.T) {
	t.Parallel()

	speed := SpeedProfile(240, models.ProfileMixed, 250, NewSource(9))
	require.Len(t, speed, 2400)

	// 类高速段在 100~120 之间波动
	assert.InDelta(t, 100, speed[0], 12)
	assert.InDelta(t, 120, stat.Mean(speed[595:605], nil), 3)

	// 类城市段无噪声，两个 60 s 子循环从 0 开始
	assert.Equal(t, 0.0, speed[1200])
	assert.Equal(t, 0.0, speed[1800])
	assert.InDelta(t, 0.0, speed[2399], 1e-9)
	assert.InDelta(t, 60, speed[1200+300], 0.1)
}

func TestUnknownProfileTreatedAsMixed(t *testing.T) {
	t.Parallel()

	a := SpeedProfile(300, "sport", 180, NewSource(5))
	b := SpeedProfile(300, models.ProfileMixed, 180, NewSource(5))
	assert.Equal(t, b, a)
}

func TestSpeedProfileSeedReproducible(t *testing.T) {
	t.Parallel()

	a := SpeedProfile(200, models.ProfileHighway, 180, NewSource(11))
	b := SpeedProfile(200, models.ProfileHighway, 180, NewSource(11))
	c := SpeedProfile(200, models.ProfileHighway, 180, NewSource(12))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestPeriods(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []period{{0, 600}, {600, 1200}}, periods(1200, 600))
	assert.Equal(t, []period{{0, 600}, {600, 900}}, periods(900, 600))
	assert.Empty(t, periods(0, 600))
}

func TestRamp(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, ramp(0, 5))
	assert.InDelta(t, math.Pi, ramp(4, 5), 1e-12)
	assert.InDelta(t, math.Pi/2, ramp(2, 5), 1e-12)
	assert.Equal(t, 0.0, ramp(0, 1))
}
