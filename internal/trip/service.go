// Package trip implements trip start/end bookkeeping: recording the
// user-reported journey and enqueueing it for the validator worker to
// score once its buffer window elapses.
package trip

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/domain"
	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/repository"
	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/uow"
)

// Service starts and ends trips.
type Service struct {
	repo *repository.TripRepository
	uow  *uow.UnitOfWork
}

// New creates a trip Service.
func New(repo *repository.TripRepository, unitOfWork *uow.UnitOfWork) *Service {
	return &Service{repo: repo, uow: unitOfWork}
}

// StartRequest is the inbound /trip/start request.
type StartRequest struct {
	UserID             int64
	TravelMode         domain.TravelMode
	Market             string
	Origin             domain.Location
	Destination        domain.Location
	EstimatedArrivalOn time.Time
	TripDetailUUID     string
	NavigationApp      string
	ReservationID      *uuid.UUID
}

// Start records a new trip.
func (s *Service) Start(ctx context.Context, req StartRequest) (uuid.UUID, error) {
	if req.TravelMode == domain.TravelModeUnknown {
		return uuid.Nil, fmt.Errorf("%w: travel_mode is required", domain.ErrInvalidRequest)
	}

	t := &domain.Trip{
		ID:                 uuid.New(),
		UserID:             req.UserID,
		TravelMode:         req.TravelMode,
		Market:             req.Market,
		Origin:             req.Origin,
		Destination:        req.Destination,
		StartedOn:          repository.Now(),
		EstimatedArrivalOn: req.EstimatedArrivalOn,
		TripDetailUUID:     req.TripDetailUUID,
		NavigationApp:      req.NavigationApp,
		ReservationID:      req.ReservationID,
	}
	if err := s.repo.InsertTrip(ctx, t); err != nil {
		return uuid.Nil, err
	}
	return t.ID, nil
}

// EndResult is returned from End.
type EndResult struct {
	TripID     string
	TravelMode domain.TravelMode
}

// End records a trip's completion and enqueues it for validation. Every
// trip ended here is recorded with the "normal" end status.
func (s *Service) End(ctx context.Context, tripID string, distance float64, endedOn time.Time) (*EndResult, error) {
	existing, err := s.repo.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}

	err = s.uow.Do(ctx, func(txCtx context.Context) error {
		tx := uow.Tx(txCtx)
		return s.repo.EndTrip(txCtx, tx, tripID, string(domain.EndStatusNormal), endedOn, distance)
	})
	if err != nil {
		return nil, err
	}
	if err := s.repo.EnqueueValidation(ctx, tripID, repository.Now()); err != nil {
		return nil, err
	}
	return &EndResult{TripID: tripID, TravelMode: existing.TravelMode}, nil
}

// UploadTrajectory appends GPS samples for a trip, the data the validator
// scores against the planned route.
func (s *Service) UploadTrajectory(ctx context.Context, tripID string, points []domain.TrajectoryPoint) error {
	return s.repo.InsertTrajectoryPoints(ctx, tripID, points)
}
