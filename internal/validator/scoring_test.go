package validator

import (
	"testing"
	"time"

	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/domain"
	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/testutil"
)

func walkTrajectory(start time.Time, n int, stepM float64, stepSeconds int) []domain.TrajectoryPoint {
	points := make([]domain.TrajectoryPoint, n)
	lat := 6.5244
	for i := 0; i < n; i++ {
		points[i] = domain.TrajectoryPoint{
			Lat:       lat + float64(i)*0.0002,
			Lng:       3.3792,
			Timestamp: start.Add(time.Duration(i*stepSeconds) * time.Second),
		}
	}
	return points
}

func TestValidateTrip_InsufficientTrajectory(t *testing.T) {
	assert := testutil.NewAssert(t)
	trip := &domain.Trip{TravelMode: domain.TravelModeWalking}
	result := ValidateTrip(trip, []domain.TrajectoryPoint{}, Route{StraightLineDistanceM: 100})
	assert.False(result.Passed)
}

func TestValidateTrip_OutOfOrderTimestampsFails(t *testing.T) {
	assert := testutil.NewAssert(t)
	now := time.Now()
	trajectory := []domain.TrajectoryPoint{
		{Lat: 0, Lng: 0, Timestamp: now},
		{Lat: 0.001, Lng: 0, Timestamp: now.Add(-time.Second)},
		{Lat: 0.002, Lng: 0, Timestamp: now},
		{Lat: 0.003, Lng: 0, Timestamp: now},
		{Lat: 0.004, Lng: 0, Timestamp: now},
	}
	trip := &domain.Trip{TravelMode: domain.TravelModeWalking}
	result := ValidateTrip(trip, trajectory, Route{StraightLineDistanceM: 100})
	assert.False(result.Passed)
}

func TestValidateTrip_UnknownModeFails(t *testing.T) {
	assert := testutil.NewAssert(t)
	now := time.Now()
	trajectory := walkTrajectory(now, 5, 20, 30)
	trip := &domain.Trip{TravelMode: domain.TravelModeUnknown}
	result := ValidateTrip(trip, trajectory, Route{StraightLineDistanceM: 400})
	assert.False(result.Passed)
}

func TestScoreSpeed_CenterOfBandScoresMax(t *testing.T) {
	assert := testutil.NewAssert(t)
	band := speedBands[domain.TravelModeWalking]
	center := (band.min + band.max) / 2
	d := scoreSpeed(center, band)
	assert.True(d.Passed)
	assert.Equal(1.0, d.Score)
}

func TestScoreSpeed_OutsideBandFailsButClamped(t *testing.T) {
	assert := testutil.NewAssert(t)
	band := speedBands[domain.TravelModeWalking]
	d := scoreSpeed(band.max*5, band)
	assert.False(d.Passed)
	assert.Equal(0.0, d.Score)
}

func TestScoreRoute_ExactMatchScoresZeroButPasses(t *testing.T) {
	assert := testutil.NewAssert(t)
	d := scoreRoute(1000, 1000)
	assert.True(d.Passed)
	assert.Equal(0.0, d.Score)
}

func TestScoreRoute_ModestDetourScoresHigh(t *testing.T) {
	assert := testutil.NewAssert(t)
	d := scoreRoute(1200, 1000)
	assert.True(d.Passed)
	if d.Score != 1.0 {
		t.Errorf("expected score 1.0 at ratio 1.2, got %v", d.Score)
	}
}

func TestScoreRoute_ExcessiveDetourFails(t *testing.T) {
	assert := testutil.NewAssert(t)
	d := scoreRoute(5000, 1000)
	assert.False(d.Passed)
	assert.Equal(0.0, d.Score)
}

func TestScoreRoute_ZeroStraightLineFails(t *testing.T) {
	assert := testutil.NewAssert(t)
	d := scoreRoute(500, 0)
	assert.False(d.Passed)
}

func TestScoreTime_NoEndedOnFails(t *testing.T) {
	assert := testutil.NewAssert(t)
	trip := &domain.Trip{StartedOn: time.Now(), EstimatedArrivalOn: time.Now().Add(time.Hour)}
	d := scoreTime(trip, 10, speedBands[domain.TravelModeWalking])
	assert.False(d.Passed)
}

func TestScoreTime_WithinToleranceScoresHigh(t *testing.T) {
	assert := testutil.NewAssert(t)
	start := time.Now()
	ended := start.Add(30 * time.Minute)
	trip := &domain.Trip{
		StartedOn:          start,
		EstimatedArrivalOn: start.Add(28 * time.Minute),
		EndedOn:            &ended,
		TravelMode:         domain.TravelModeWalking,
	}
	d := scoreTime(trip, 5, speedBands[domain.TravelModeWalking])
	assert.True(d.Passed)
}

func TestDetectModeSegments_WalkThenDrive(t *testing.T) {
	assert := testutil.NewAssert(t)
	start := time.Now()
	points := []domain.TrajectoryPoint{
		{Lat: 0, Lng: 0, Timestamp: start},
		{Lat: 0.0003, Lng: 0, Timestamp: start.Add(30 * time.Second)},
		{Lat: 0.0006, Lng: 0, Timestamp: start.Add(60 * time.Second)},
		{Lat: 0.02, Lng: 0, Timestamp: start.Add(90 * time.Second)},
		{Lat: 0.04, Lng: 0, Timestamp: start.Add(120 * time.Second)},
	}
	modes := detectModeSegments(points)
	if len(modes) < 2 {
		t.Errorf("expected at least two distinct modes, got %v", modes)
	}
	assert.Equal(domain.TravelModeWalking, modes[0])
}

func TestValidateTrip_IntermodalWithTwoModesCanPass(t *testing.T) {
	assert := testutil.NewAssert(t)
	start := time.Now()
	ended := start.Add(120 * time.Second)
	points := []domain.TrajectoryPoint{
		{Lat: 0, Lng: 0, Timestamp: start},
		{Lat: 0.0003, Lng: 0, Timestamp: start.Add(30 * time.Second)},
		{Lat: 0.0006, Lng: 0, Timestamp: start.Add(60 * time.Second)},
		{Lat: 0.012, Lng: 0, Timestamp: start.Add(90 * time.Second)},
		{Lat: 0.024, Lng: 0, Timestamp: start.Add(120 * time.Second)},
	}
	straightLineM := trajectoryDistance(points) / 1.2
	trip := &domain.Trip{
		TravelMode:         domain.TravelModeIntermodal,
		StartedOn:          start,
		EstimatedArrivalOn: start.Add(120 * time.Second),
		EndedOn:            &ended,
	}
	result := ValidateTrip(trip, points, Route{StraightLineDistanceM: straightLineM})
	assert.True(result.Passed)
}

func TestValidateTrip_IntermodalWithOneModeFails(t *testing.T) {
	assert := testutil.NewAssert(t)
	now := time.Now()
	trajectory := walkTrajectory(now, 5, 20, 30)
	trip := &domain.Trip{TravelMode: domain.TravelModeIntermodal}
	result := ValidateTrip(trip, trajectory, Route{StraightLineDistanceM: 400})
	assert.False(result.Passed)
}

func TestScoreSpeed_IntermodalBandAcceptsWideRange(t *testing.T) {
	assert := testutil.NewAssert(t)
	d := scoreSpeed(40, intermodalBand)
	assert.True(d.Passed)
}

func TestValidModeTransition(t *testing.T) {
	assert := testutil.NewAssert(t)
	assert.True(validModeTransition(domain.TravelModeWalking, domain.TravelModeDriving))
	assert.True(validModeTransition(domain.TravelModeBiking, domain.TravelModeTransit))
	assert.False(validModeTransition(domain.TravelModeDriving, domain.TravelModeTransit))
}
