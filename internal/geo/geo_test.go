package geo

import (
	"math"
	"testing"

	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/testutil"
)

func TestHaversineDistance_SamePointIsZero(t *testing.T) {
	assert := testutil.NewAssert(t)
	d := HaversineDistance(6.5244, 3.3792, 6.5244, 3.3792)
	assert.Equal(0.0, d)
}

func TestHaversineDistance_KnownDistance(t *testing.T) {
	// Lagos to Abuja is roughly 534km as the crow flies.
	d := HaversineDistance(6.5244, 3.3792, 9.0579, 7.4951)
	if d < 400000 || d > 560000 {
		t.Errorf("expected ~534km between Lagos and Abuja, got %.0fm", d)
	}
}

func TestIsValidCoordinate(t *testing.T) {
	assert := testutil.NewAssert(t)
	assert.True(IsValidCoordinate(6.5244, 3.3792))
	assert.True(IsValidCoordinate(-90, -180))
	assert.True(IsValidCoordinate(90, 180))
	assert.False(IsValidCoordinate(91, 0))
	assert.False(IsValidCoordinate(0, 181))
}

func TestIsWithinBounds(t *testing.T) {
	assert := testutil.NewAssert(t)
	bounds := BoundingBox{MinLat: 6.0, MaxLat: 7.0, MinLng: 3.0, MaxLng: 4.0}
	assert.True(IsWithinBounds(6.5, 3.5, bounds))
	assert.False(IsWithinBounds(8.0, 3.5, bounds))
}

func TestGetBoundingBox_ContainsCenter(t *testing.T) {
	assert := testutil.NewAssert(t)
	box := GetBoundingBox(6.5244, 3.3792, 5000)
	assert.True(IsWithinBounds(6.5244, 3.3792, box))
}

func TestDestinationPoint_ZeroDistanceReturnsOrigin(t *testing.T) {
	dest := DestinationPoint(6.5244, 3.3792, 0, 90)
	if math.Abs(dest.Lat-6.5244) > 1e-6 || math.Abs(dest.Lng-3.3792) > 1e-6 {
		t.Errorf("expected destination to match origin at zero distance, got %+v", dest)
	}
}

func TestBearing_DueNorth(t *testing.T) {
	b := Bearing(0, 0, 1, 0)
	if math.Abs(b) > 1e-6 {
		t.Errorf("expected bearing ~0 degrees due north, got %v", b)
	}
}

func TestPolygonContains(t *testing.T) {
	assert := testutil.NewAssert(t)
	square := Polygon{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 10},
		{Lat: 10, Lng: 10},
		{Lat: 10, Lng: 0},
	}
	assert.True(square.Contains(Coordinate{Lat: 5, Lng: 5}))
	assert.False(square.Contains(Coordinate{Lat: 20, Lng: 20}))
}

func TestPolygonContains_TooFewPointsIsFalse(t *testing.T) {
	assert := testutil.NewAssert(t)
	poly := Polygon{{Lat: 0, Lng: 0}, {Lat: 1, Lng: 1}}
	assert.False(poly.Contains(Coordinate{Lat: 0.5, Lng: 0.5}))
}

func TestParseWKTPolygon(t *testing.T) {
	assert := testutil.NewAssert(t)
	poly, err := ParseWKTPolygon("POLYGON((3.0 6.0, 4.0 6.0, 4.0 7.0, 3.0 7.0))")
	assert.Nil(err)
	if len(poly) != 4 {
		t.Fatalf("expected 4 points, got %d", len(poly))
	}
	assert.Equal(6.0, poly[0].Lat)
	assert.Equal(3.0, poly[0].Lng)
}

func TestParseWKTPolygon_MalformedInput(t *testing.T) {
	assert := testutil.NewAssert(t)
	_, err := ParseWKTPolygon("not a polygon")
	assert.NotNil(err)
}

func TestParseWKTPolygon_TooFewPoints(t *testing.T) {
	assert := testutil.NewAssert(t)
	_, err := ParseWKTPolygon("POLYGON((3.0 6.0, 4.0 6.0))")
	assert.NotNil(err)
}

func TestEstimateETA_MinimumFloor(t *testing.T) {
	assert := testutil.NewAssert(t)
	eta := EstimateETA(10, "car")
	assert.Equal(int64(60), eta)
}

func TestEstimateETA_UnknownVehicleFallsBackToDefault(t *testing.T) {
	withKnown := EstimateETA(10000, "car")
	withUnknown := EstimateETA(10000, "spaceship")
	if withKnown != withUnknown {
		t.Errorf("expected unknown vehicle type to use default speed, got %d vs %d", withUnknown, withKnown)
	}
}

func TestEstimateETAWithTraffic_RushHourMultiplies(t *testing.T) {
	base := int64(1000)
	morning := EstimateETAWithTraffic(base, 8)
	offPeak := EstimateETAWithTraffic(base, 3)
	if morning <= offPeak {
		t.Errorf("expected morning rush ETA to exceed off-peak, got %d vs %d", morning, offPeak)
	}
}
