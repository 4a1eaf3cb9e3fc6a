package domain

import (
	"time"

	"github.com/google/uuid"
)

// TravelMode is the claimed mode of travel for a Trip.
type TravelMode int

const (
	TravelModeUnknown   TravelMode = 0
	TravelModeDriving   TravelMode = 1
	TravelModeBiking    TravelMode = 2
	TravelModeWalking   TravelMode = 3
	TravelModeTransit   TravelMode = 4
	TravelModeIntermodal TravelMode = 5
)

// EndStatus describes how a trip ended, as reported by the client.
type EndStatus string

const (
	EndStatusNormal    EndStatus = "normal"
	EndStatusAbandoned EndStatus = "abandoned"
)

// Trip is a user's journey with origin, destination, mode, and an optional
// uploaded trajectory used for incentive validation.
type Trip struct {
	ID                  uuid.UUID   `json:"id"`
	UserID              int64       `json:"user_id"`
	TravelMode          TravelMode  `json:"travel_mode"`
	Market              string      `json:"market"`
	Origin              Location    `json:"origin"`
	Destination         Location    `json:"destination"`
	StartedOn           time.Time   `json:"started_on"`
	EstimatedArrivalOn  time.Time   `json:"estimated_arrival_on"`
	EndedOn             *time.Time  `json:"ended_on,omitempty"`
	TripDetailUUID      string      `json:"trip_detail_uuid,omitempty"`
	NavigationApp       string      `json:"navigation_app,omitempty"`
	Distance            float64     `json:"distance"`
	TrajectoryDistance  float64     `json:"trajectory_distance"`
	EndStatus           EndStatus   `json:"end_status,omitempty"`
	ReservationID       *uuid.UUID  `json:"reservation_id,omitempty"`
	ValidationComplete  bool        `json:"validation_complete"`
}

// TrajectoryPoint is one GPS sample of a trip's path.
type TrajectoryPoint struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Timestamp time.Time `json:"timestamp"`
	Speed     float64   `json:"speed"`
	Accuracy  float64   `json:"accuracy"`
}

// TripValidationQueue is a row in the round-limited validation queue.
type TripValidationQueue struct {
	TripID    uuid.UUID `json:"trip_id"`
	Round     int       `json:"round"`
	IsDeleted bool      `json:"is_deleted"`
	CreatedOn time.Time `json:"created_on"`
}

// TripValidationResult is the scored outcome of one validation round.
type TripValidationResult struct {
	TripID        uuid.UUID      `json:"trip_id"`
	Round         int            `json:"round"`
	Passed        bool           `json:"passed"`
	Score         float64        `json:"score"`
	Dimensions    map[string]any `json:"dimensions"`
	CreatedOn     time.Time      `json:"created_on"`
}

// Validation tunables.
const (
	ValidationRoundLimitDefault  = 2
	ValidationBufferHoursDefault = 24
	MinTrajectoryPoints          = 5
)
