package incentive

import (
	"math/rand"
	"testing"

	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/domain"
	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/geo"
	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/testutil"
)

func TestClamp(t *testing.T) {
	assert := testutil.NewAssert(t)
	assert.Equal(5.0, clamp(5, 0, 10))
	assert.Equal(0.0, clamp(-5, 0, 10))
	assert.Equal(10.0, clamp(15, 0, 10))
}

func TestTrajectoryIntersects_PointInsidePolygon(t *testing.T) {
	assert := testutil.NewAssert(t)
	square := geo.Polygon{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 10},
		{Lat: 10, Lng: 10},
		{Lat: 10, Lng: 0},
	}
	trajectory := []domain.TrajectoryPoint{{Lat: 5, Lng: 5}}
	trip := &domain.Trip{}
	assert.True(trajectoryIntersects(square, trip, trajectory))
}

func TestTrajectoryIntersects_AllPointsOutside(t *testing.T) {
	assert := testutil.NewAssert(t)
	square := geo.Polygon{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 10},
		{Lat: 10, Lng: 10},
		{Lat: 10, Lng: 0},
	}
	trajectory := []domain.TrajectoryPoint{{Lat: 50, Lng: 50}}
	trip := &domain.Trip{}
	assert.False(trajectoryIntersects(square, trip, trajectory))
}

func TestTrajectoryIntersects_FallsBackToOriginDestination(t *testing.T) {
	assert := testutil.NewAssert(t)
	square := geo.Polygon{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 10},
		{Lat: 10, Lng: 10},
		{Lat: 10, Lng: 0},
	}
	trip := &domain.Trip{
		Origin:      domain.Location{Lat: 5, Lng: 5},
		Destination: domain.Location{Lat: 50, Lng: 50},
	}
	assert.True(trajectoryIntersects(square, trip, nil))
}

func TestSampleGamma_ProducesPositiveValues(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 100; i++ {
		v := sampleGamma(rng, 2.5)
		if v < 0 {
			t.Fatalf("expected non-negative gamma sample, got %v", v)
		}
	}
}

func TestSampleGamma_ShapeLessThanOne(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 100; i++ {
		v := sampleGamma(rng, 0.5)
		if v < 0 {
			t.Fatalf("expected non-negative gamma sample for shape<1, got %v", v)
		}
	}
}

func TestSampleBeta_StaysWithinUnitInterval(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	for i := 0; i < 200; i++ {
		v := sampleBeta(rng, 3, 4)
		if v < 0 || v > 1 {
			t.Fatalf("expected beta sample in [0,1], got %v", v)
		}
	}
}

func TestEngineDraw_StaysWithinModeRuleBounds(t *testing.T) {
	engine := &Engine{rng: rand.New(rand.NewSource(99))}
	rule := domain.ModeIncentiveRule{Min: 5, Max: 20, Mean: 10, Beta: 0.1}
	for i := 0; i < 200; i++ {
		v := engine.draw(rule)
		if v < rule.Min || v > rule.Max {
			t.Fatalf("expected draw within [%v,%v], got %v", rule.Min, rule.Max, v)
		}
	}
}

func TestEngineDraw_ZeroSpanReturnsMin(t *testing.T) {
	assert := testutil.NewAssert(t)
	engine := &Engine{rng: rand.New(rand.NewSource(1))}
	rule := domain.ModeIncentiveRule{Min: 10, Max: 10, Mean: 10, Beta: 0}
	v := engine.draw(rule)
	assert.Equal(10.0, v)
}
