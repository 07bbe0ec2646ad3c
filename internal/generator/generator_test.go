package generator

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"

	"github.com/langchou/drivesynth/internal/export"
	"github.com/langchou/drivesynth/internal/models"
)

func seed(v uint64) *uint64 { return &v }

func checkInvariants(t *testing.T, table *models.ResultTable) {
	t.Helper()
	for i, s := range table.Samples {
		require.GreaterOrEqual(t, s.Speed, 0.0, "speed at %d", i)
		require.GreaterOrEqual(t, s.EngineRPM, 800.0, "rpm at %d", i)
		require.GreaterOrEqual(t, s.FuelConsumption, 0.0, "fuel at %d", i)
		require.LessOrEqual(t, s.FuelConsumption, 50.0, "fuel at %d", i)
		if i > 0 {
			require.GreaterOrEqual(t, s.Distance, table.Samples[i-1].Distance, "distance at %d", i)
		}
	}
}

func TestGenerateInvariants(t *testing.T) {
	t.Parallel()

	g := New(Options{})
	for _, v := range []string{"sedan", "suv", "sports"} {
		for _, p := range []string{"highway", "urban", "mixed"} {
			for _, d := range []float64{1, 59.9, 300, 725.3} {
				table, err := g.Generate(models.Scenario{VehicleType: v, ProfileType: p, Duration: d})
				require.NoError(t, err)
				assert.Equal(t, models.SampleCount(d), table.Len())
				assert.Equal(t, v+"_"+p, table.TestID())
				checkInvariants(t, table)
			}
		}
	}
}

func TestGenerateHighwaySedan(t *testing.T) {
	t.Parallel()

	g := New(Options{})
	table, err := g.Generate(models.Scenario{VehicleType: "sedan", ProfileType: "highway", Duration: 600})
	require.NoError(t, err)
	require.Equal(t, 6000, table.Len())

	var cruise []float64
	for _, s := range table.Samples {
		if s.Time > 30 {
			cruise = append(cruise, s.Speed)
		}
		assert.GreaterOrEqual(t, s.EngineRPM, 800.0)
	}
	assert.InDelta(t, 180, stat.Mean(cruise, nil), 3)
	assert.InDelta(t, 59.9, table.Samples[599].Time, 1e-9)
}

func TestGenerateUrbanSUV(t *testing.T) {
	t.Parallel()

	g := New(Options{Seed: seed(21)})
	table, err := g.Generate(models.Scenario{VehicleType: "suv", ProfileType: "urban", Duration: 120})
	require.NoError(t, err)
	require.Equal(t, 1200, table.Len())

	// 两个 60 s 循环，边界处速度回到 0 附近
	for _, i := range []int{0, 599, 600, 1199} {
		assert.Less(t, table.Samples[i].Speed, 4.0, "sample %d", i)
	}
	for _, i := range []int{300, 900} {
		assert.Greater(t, table.Samples[i].Speed, 44.0, "sample %d", i)
	}
}

func TestGenerateRejectsInvalidDuration(t *testing.T) {
	t.Parallel()

	g := New(Options{LegacyFallback: true})
	durations := []float64{0, -5, 0.01, 1e9, 1e19, 1e300, models.MaxDuration + 0.1}
	for _, d := range durations {
		table, err := g.Generate(models.Scenario{VehicleType: "sedan", ProfileType: "highway", Duration: d})
		assert.ErrorIs(t, err, ErrInvalidScenario, "duration %v", d)
		assert.Nil(t, table)
	}
}

func TestGenerateAcceptsMaxDuration(t *testing.T) {
	t.Parallel()

	table, err := New(Options{Seed: seed(3)}).Generate(models.Scenario{VehicleType: "sedan", ProfileType: "urban", Duration: models.MaxDuration})
	require.NoError(t, err)
	assert.Equal(t, models.MaxSamples, table.Len())
}

func TestGenerateStrictRejectsUnknownTypes(t *testing.T) {
	t.Parallel()

	g := New(Options{})

	_, err := g.Generate(models.Scenario{VehicleType: "SUV", ProfileType: "urban", Duration: 10})
	assert.ErrorIs(t, err, ErrUnknownVehicleType)
	assert.ErrorIs(t, err, ErrInvalidScenario)

	_, err = g.Generate(models.Scenario{VehicleType: "suv", ProfileType: "sport", Duration: 10})
	assert.ErrorIs(t, err, ErrUnknownProfileType)
	assert.ErrorIs(t, err, ErrInvalidScenario)
}

func TestGenerateLegacyFallback(t *testing.T) {
	t.Parallel()

	g := New(Options{LegacyFallback: true, Seed: seed(8)})

	fallback, err := g.Generate(models.Scenario{VehicleType: "SUV", ProfileType: "sport", Duration: 300})
	require.NoError(t, err)
	assert.Equal(t, "SUV_sport", fallback.TestID())
	assert.Equal(t, "SUV", fallback.VehicleType)
	assert.Equal(t, "sport", fallback.ProfileType)

	// 回退后的数值与 sports/mixed 一致
	explicit, err := g.Generate(models.Scenario{VehicleType: "sports", ProfileType: "mixed", Duration: 300})
	require.NoError(t, err)
	if diff := cmp.Diff(explicit.Samples, fallback.Samples); diff != "" {
		t.Errorf("fallback samples mismatch (-sports_mixed +SUV_sport):\n%s", diff)
	}
}

func TestGenerateSeededIsReproducible(t *testing.T) {
	t.Parallel()

	g := New(Options{})
	sc := models.Scenario{VehicleType: "sports", ProfileType: "mixed", Duration: 400, Seed: seed(1234)}

	a, err := g.Generate(sc)
	require.NoError(t, err)
	b, err := g.Generate(sc)
	require.NoError(t, err)

	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("seeded runs differ:\n%s", diff)
	}
}

func TestGenerateScenarioSeedOverridesDefault(t *testing.T) {
	t.Parallel()

	g := New(Options{Seed: seed(1)})
	sc := models.Scenario{VehicleType: "sedan", ProfileType: "highway", Duration: 50}

	a, err := g.Generate(sc)
	require.NoError(t, err)
	sc.Seed = seed(2)
	b, err := g.Generate(sc)
	require.NoError(t, err)

	assert.NotEqual(t, a.Samples, b.Samples)
	assert.Equal(t, uint64(2), g.SeedFor(sc))
}

func TestGenerateUnseededDiffersButStaysInBounds(t *testing.T) {
	t.Parallel()

	g := New(Options{})
	sc := models.Scenario{VehicleType: "sedan", ProfileType: "urban", Duration: 200}

	a, err := g.Generate(sc)
	require.NoError(t, err)
	b, err := g.Generate(sc)
	require.NoError(t, err)

	assert.NotEqual(t, a.Samples, b.Samples)
	checkInvariants(t, a)
	checkInvariants(t, b)
}

func TestGenerateNumericFailure(t *testing.T) {
	t.Parallel()

	// 车轮直径极小时转速溢出为 Inf
	g := New(Options{WheelDiameter: 1e-320, Seed: seed(1)})
	table, err := g.Generate(models.Scenario{VehicleType: "sedan", ProfileType: "highway", Duration: 60})
	assert.ErrorIs(t, err, ErrNumericFailure)
	assert.Nil(t, table)
}

type failingSink struct{}

func (failingSink) Write(context.Context, ...*models.ResultTable) error {
	return errors.New("disk full")
}

func TestGenerateToSinkFailureKeepsTable(t *testing.T) {
	t.Parallel()

	g := New(Options{Seed: seed(3)})
	table, err := g.GenerateTo(context.Background(), models.Scenario{VehicleType: "sedan", ProfileType: "urban", Duration: 30}, failingSink{})
	assert.ErrorIs(t, err, ErrSinkFailure)
	require.NotNil(t, table)
	assert.Equal(t, 300, table.Len())
}

func TestGenerateToFileRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "run.csv")
	g := New(Options{Seed: seed(5)})
	sc := models.Scenario{VehicleType: "suv", ProfileType: "highway", Duration: 45}

	table, err := g.GenerateTo(context.Background(), sc, export.NewFileSink(path))
	require.NoError(t, err)

	tables, err := export.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	if diff := cmp.Diff(table, tables[0]); diff != "" {
		t.Errorf("round trip mismatch:\n%s", diff)
	}
}

func TestGenerateToInvalidScenarioWritesNothing(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "none.csv")
	g := New(Options{})
	_, err := g.GenerateTo(context.Background(), models.Scenario{VehicleType: "sedan", ProfileType: "urban"}, export.NewFileSink(path))
	assert.ErrorIs(t, err, ErrInvalidScenario)
	assert.NoFileExists(t, path)
}

func TestGenerateBatch(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "batch.csv")
	g := New(Options{Seed: seed(9)})
	scenarios := []models.Scenario{
		{VehicleType: "sedan", ProfileType: "highway", Duration: 60},
		{VehicleType: "suv", ProfileType: "urban", Duration: 90},
		{VehicleType: "sports", ProfileType: "mixed", Duration: 120},
	}

	tables, err := g.GenerateBatch(context.Background(), scenarios, export.NewFileSink(path))
	require.NoError(t, err)
	require.Len(t, tables, 3)

	read, err := export.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, read, 3)
	for i, table := range read {
		assert.Equal(t, scenarios[i].TestID(), table.TestID())
		assert.Equal(t, models.SampleCount(scenarios[i].Duration), table.Len())
	}
}

func TestGenerateBatchStopsOnInvalidScenario(t *testing.T) {
	t.Parallel()

	g := New(Options{})
	_, err := g.GenerateBatch(context.Background(), []models.Scenario{
		{VehicleType: "sedan", ProfileType: "highway", Duration: 10},
		{VehicleType: "sedan", ProfileType: "highway", Duration: 0},
	}, nil)
	assert.ErrorIs(t, err, ErrInvalidScenario)
}
