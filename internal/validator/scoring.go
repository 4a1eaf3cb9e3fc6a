// Package validator implements the Trip Validator: a scored, three-
// dimension check of whether a claimed trip's uploaded trajectory is
// consistent enough with its mode and route to earn incentives.
package validator

import (
	"math"

	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/domain"
	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/geo"
)

// speedBand is a [min,max] km/h range for a travel mode.
type speedBand struct{ min, max float64 }

// speedBands classify {walking, biking, transit, driving}. Ranges overlap
// by design — the trip's own travel_mode is authoritative; bands only
// score how consistent the observed speed is with that claim.
var speedBands = map[domain.TravelMode]speedBand{
	domain.TravelModeWalking: {0, 8},
	domain.TravelModeBiking:  {8, 25},
	domain.TravelModeTransit: {15, 50},
	domain.TravelModeDriving: {25, 120},
}

// intermodalBand is the union of every single-mode band (0-120 km/h).
// Intermodal trips mix modes by definition, so the speed dimension can't
// gate on one band the way a single-mode trip does; real discrimination
// for intermodal comes from detectModeSegments/validModeTransition below.
// This keeps scoreSpeed/scoreTime from dividing by a zero-width band.
var intermodalBand = speedBand{min: 0, max: 120}

// Result is validateTrip's scored outcome.
type Result struct {
	Passed  bool
	Score   float64
	Details map[string]any
}

func failResult(message string) Result {
	return Result{Passed: false, Score: 0, Details: map[string]any{"message": message}}
}

// ValidateTrip dispatches on trip.TravelMode and scores the uploaded
// trajectory against the planned route.
func ValidateTrip(trip *domain.Trip, trajectory []domain.TrajectoryPoint, route Route) Result {
	if len(trajectory) < domain.MinTrajectoryPoints {
		return failResult("insufficient trajectory")
	}
	for i := 1; i < len(trajectory); i++ {
		if trajectory[i].Timestamp.Before(trajectory[i-1].Timestamp) {
			return failResult("insufficient trajectory")
		}
	}

	band, known := speedBands[trip.TravelMode]
	if !known {
		if trip.TravelMode != domain.TravelModeIntermodal {
			return failResult("No validation logic defined")
		}
		band = intermodalBand
	}

	avgSpeedKMH := averageSpeedKMH(trajectory)

	speed := scoreSpeed(avgSpeedKMH, band)
	route_ := scoreRoute(trajectoryDistance(trajectory), route.StraightLineDistanceM)
	tm := scoreTime(trip, avgSpeedKMH, band)

	if trip.TravelMode == domain.TravelModeIntermodal {
		modes := detectModeSegments(trajectory)
		if len(modes) < 2 {
			return Result{
				Passed: false,
				Score:  weightedScore(speed.Score, route_.Score, tm.Score),
				Details: map[string]any{
					"speed": speed, "route": route_, "time": tm,
					"message": "intermodal trip detected fewer than two distinct modes",
				},
			}
		}
	}

	score := weightedScore(speed.Score, route_.Score, tm.Score)
	passed := speed.Passed && route_.Passed && tm.Passed && score >= 0.5

	return Result{
		Passed: passed,
		Score:  score,
		Details: map[string]any{
			"speed": speed, "route": route_, "time": tm,
			"avg_speed_kmh": avgSpeedKMH,
		},
	}
}

// Route is the planned route the trajectory is checked against.
type Route struct {
	StraightLineDistanceM float64
}

type dimension struct {
	Passed bool    `json:"passed"`
	Score  float64 `json:"score"`
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func scoreSpeed(avgKMH float64, band speedBand) dimension {
	center := (band.min + band.max) / 2
	halfwidth := (band.max - band.min) / 2
	passed := avgKMH >= band.min && avgKMH <= band.max
	score := clamp01(1 - math.Abs(avgKMH-center)/halfwidth)
	return dimension{Passed: passed, Score: score}
}

func scoreRoute(trajectoryDistanceM, straightLineDistanceM float64) dimension {
	if straightLineDistanceM <= 0 {
		return dimension{Passed: false, Score: 0}
	}
	ratio := trajectoryDistanceM / straightLineDistanceM
	passed := ratio >= 1.0 && ratio <= 3.0

	var score float64
	switch {
	case ratio < 1.2:
		// Linear rise from 0 at ratio=1.0 to 1 at ratio=1.2.
		score = clamp01((ratio - 1.0) / 0.2)
	default:
		// Linear decay from 1 at ratio=1.2 to 0 at ratio=3.0.
		score = clamp01(1 - (ratio-1.2)/(3.0-1.2))
	}
	return dimension{Passed: passed, Score: score}
}

func scoreTime(trip *domain.Trip, avgSpeedKMH float64, band speedBand) dimension {
	if trip.EndedOn == nil {
		return dimension{Passed: false, Score: 0}
	}
	planned := trip.EstimatedArrivalOn.Sub(trip.StartedOn)
	actual := trip.EndedOn.Sub(trip.StartedOn)
	if planned <= 0 {
		return dimension{Passed: false, Score: 0}
	}

	tolerance := 0.3
	if trip.TravelMode == domain.TravelModeDriving && actual > planned && avgSpeedKMH < band.min {
		tolerance = 0.6 // traffic-tolerance doubling
	}

	deviation := math.Abs(float64(actual-planned)) / float64(planned)
	passed := deviation <= tolerance
	score := clamp01(1 - deviation/tolerance)
	return dimension{Passed: passed, Score: score}
}

func weightedScore(speed, route, tm float64) float64 {
	return 0.4*speed + 0.4*route + 0.2*tm
}

func averageSpeedKMH(points []domain.TrajectoryPoint) float64 {
	distanceM := trajectoryDistance(points)
	durationS := points[len(points)-1].Timestamp.Sub(points[0].Timestamp).Seconds()
	if durationS <= 0 {
		return 0
	}
	return (distanceM / durationS) * 3.6
}

func trajectoryDistance(points []domain.TrajectoryPoint) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += geo.HaversineDistance(points[i-1].Lat, points[i-1].Lng, points[i].Lat, points[i].Lng)
	}
	return total
}

// detectModeSegments buckets consecutive trajectory legs by the speed band
// they fall in, returning the distinct set of modes observed with a valid
// transition to the previous leg's mode (walking<->{biking,transit,
// driving}, biking<->transit).
func detectModeSegments(points []domain.TrajectoryPoint) []domain.TravelMode {
	var segments []domain.TravelMode
	for i := 1; i < len(points); i++ {
		legDistanceM := geo.HaversineDistance(points[i-1].Lat, points[i-1].Lng, points[i].Lat, points[i].Lng)
		legDurationS := points[i].Timestamp.Sub(points[i-1].Timestamp).Seconds()
		if legDurationS <= 0 {
			continue
		}
		legSpeedKMH := (legDistanceM / legDurationS) * 3.6
		mode := classifySpeed(legSpeedKMH)
		if len(segments) == 0 || segments[len(segments)-1] != mode {
			if len(segments) == 0 || validModeTransition(segments[len(segments)-1], mode) {
				segments = append(segments, mode)
			}
		}
	}

	seen := map[domain.TravelMode]bool{}
	var distinct []domain.TravelMode
	for _, m := range segments {
		if !seen[m] {
			seen[m] = true
			distinct = append(distinct, m)
		}
	}
	return distinct
}

func classifySpeed(kmh float64) domain.TravelMode {
	switch {
	case kmh < 8:
		return domain.TravelModeWalking
	case kmh < 25:
		return domain.TravelModeBiking
	case kmh < 50:
		return domain.TravelModeTransit
	default:
		return domain.TravelModeDriving
	}
}

func validModeTransition(from, to domain.TravelMode) bool {
	if from == to {
		return true
	}
	allowed := map[domain.TravelMode][]domain.TravelMode{
		domain.TravelModeWalking: {domain.TravelModeBiking, domain.TravelModeTransit, domain.TravelModeDriving},
		domain.TravelModeBiking:  {domain.TravelModeWalking, domain.TravelModeTransit},
		domain.TravelModeTransit: {domain.TravelModeWalking, domain.TravelModeBiking},
		domain.TravelModeDriving: {domain.TravelModeWalking},
	}
	for _, m := range allowed[from] {
		if m == to {
			return true
		}
	}
	return false
}
