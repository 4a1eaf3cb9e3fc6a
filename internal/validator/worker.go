package validator

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/domain"
	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/metrics"
	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/repository"
	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/uow"
)

// IncentiveAwarder credits a validated trip with incentive coins. Satisfied
// by *incentive.Engine; the worker depends on this narrower seam instead of
// the concrete type so scoring logic stays testable without a real Engine.
type IncentiveAwarder interface {
	AwardForTrip(ctx context.Context, trip *domain.Trip, trajectory []domain.TrajectoryPoint, isFirstTrip bool) (float64, error)
}

// RouteLookup resolves the planned straight-line route a trip's trajectory
// is scored against. The worker doesn't own route planning itself — it only
// needs the distance, so it asks through this seam rather than depending on
// a full routing client.
type RouteLookup interface {
	PlannedRoute(ctx context.Context, trip *domain.Trip) (Route, error)
}

// Worker sweeps trip_validation_queue on a cron schedule and scores each
// due row against its uploaded trajectory.
type Worker struct {
	repo        *repository.TripRepository
	routes      RouteLookup
	incentive   IncentiveAwarder
	uow         *uow.UnitOfWork
	bufferHours int
	roundLimit  int
	batchSize   int
	cron        *cron.Cron
}

// Config tunes the worker's grace period, round limit, and batch size. Zero
// values fall back to the package defaults.
type Config struct {
	BufferHours int
	RoundLimit  int
	BatchSize   int
}

// New creates a validation worker. It does not start running until Start
// is called.
func New(repo *repository.TripRepository, routes RouteLookup, incentive IncentiveAwarder, unitOfWork *uow.UnitOfWork, cfg Config) *Worker {
	if cfg.BufferHours <= 0 {
		cfg.BufferHours = domain.ValidationBufferHoursDefault
	}
	if cfg.RoundLimit <= 0 {
		cfg.RoundLimit = domain.ValidationRoundLimitDefault
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &Worker{
		repo:        repo,
		routes:      routes,
		incentive:   incentive,
		uow:         unitOfWork,
		bufferHours: cfg.BufferHours,
		roundLimit:  cfg.RoundLimit,
		batchSize:   cfg.BatchSize,
		cron:        cron.New(),
	}
}

// Start schedules the sweep per the given cron expression (defaulting to
// hourly) and returns immediately; the cron library runs sweeps on its own
// goroutine.
func (w *Worker) Start(ctx context.Context, schedule string) error {
	if schedule == "" {
		schedule = "0 * * * *"
	}
	_, err := w.cron.AddFunc(schedule, func() {
		if err := w.Sweep(ctx); err != nil {
			log.Error().Err(err).Msg("validator: sweep failed")
		}
	})
	if err != nil {
		return err
	}
	w.cron.Start()
	return nil
}

// Stop halts the cron scheduler, waiting for any in-flight sweep to finish.
func (w *Worker) Stop() {
	stopCtx := w.cron.Stop()
	<-stopCtx.Done()
}

// Sweep claims a batch of due queue rows and processes each one, all inside
// the single transaction that claimed them — the FOR UPDATE SKIP LOCKED
// row lock has to stay held for the whole score-and-advance step, or a
// second worker could claim the same row the instant the claiming
// transaction committed.
func (w *Worker) Sweep(ctx context.Context) error {
	return w.uow.Do(ctx, func(txCtx context.Context) error {
		tx := uow.Tx(txCtx)
		rows, err := w.repo.ClaimDueQueueRows(txCtx, tx, w.bufferHours, w.batchSize)
		if err != nil {
			return err
		}
		for _, row := range rows {
			if err := w.processOne(txCtx, row); err != nil {
				log.Error().Err(err).Str("trip_id", row.TripID.String()).Msg("validator: process queue row")
			}
		}
		return nil
	})
}

// processOne handles one claimed queue row within the sweep's open
// transaction: if the trip is already resolved the row is simply closed
// out; otherwise the trajectory is scored and the row is either closed
// (pass, or round limit reached) or advanced to the next round.
func (w *Worker) processOne(txCtx context.Context, row domain.TripValidationQueue) error {
	tx := uow.Tx(txCtx)
	tripID := row.TripID.String()

	trip, err := w.repo.GetTrip(txCtx, tripID)
	if err != nil {
		return err
	}

	if trip.ValidationComplete {
		return w.repo.MarkQueueRowDeleted(txCtx, tx, tripID)
	}

	result, err := w.score(txCtx, trip, row.Round)
	if err != nil {
		return err
	}

	if err := w.repo.InsertValidationResult(txCtx, tx, &result); err != nil {
		return err
	}
	metrics.RecordValidationRound(result.Passed)

	if result.Passed || row.Round >= w.roundLimit {
		if err := w.repo.SetValidationComplete(txCtx, tx, tripID); err != nil {
			return err
		}
		if err := w.repo.MarkQueueRowDeleted(txCtx, tx, tripID); err != nil {
			return err
		}
		if result.Passed && w.incentive != nil {
			w.awardIncentive(txCtx, trip)
		}
		return nil
	}

	return w.repo.BumpQueueRound(txCtx, tx, tripID, row.Round+1)
}

// awardIncentive credits the incentive reward through the Ledger's own unit
// of work, best-effort: a failed award does not unwind the validation
// result just recorded in the claiming transaction.
func (w *Worker) awardIncentive(ctx context.Context, trip *domain.Trip) {
	trajectory, err := w.repo.GetTrajectory(ctx, trip.ID.String())
	if err != nil {
		log.Error().Err(err).Str("trip_id", trip.ID.String()).Msg("validator: trajectory lookup for incentive award failed")
		return
	}
	hasPriorTrip, err := w.repo.HasPriorCoinEarningTrip(ctx, trip.UserID, trip.ID.String())
	if err != nil {
		log.Error().Err(err).Str("trip_id", trip.ID.String()).Msg("validator: prior-trip lookup for incentive award failed")
		return
	}
	if _, err := w.incentive.AwardForTrip(ctx, trip, trajectory, !hasPriorTrip); err != nil {
		log.Error().Err(err).Str("trip_id", trip.ID.String()).Msg("validator: incentive award failed")
	}
}

func (w *Worker) score(ctx context.Context, trip *domain.Trip, round int) (domain.TripValidationResult, error) {
	trajectory, err := w.repo.GetTrajectory(ctx, trip.ID.String())
	if err != nil {
		return domain.TripValidationResult{}, err
	}

	route, err := w.routes.PlannedRoute(ctx, trip)
	if err != nil {
		return domain.TripValidationResult{}, err
	}

	outcome := ValidateTrip(trip, trajectory, route)
	return domain.TripValidationResult{
		TripID:     trip.ID,
		Round:      round,
		Passed:     outcome.Passed,
		Score:      outcome.Score,
		Dimensions: outcome.Details,
		CreatedOn:  repository.Now(),
	}, nil
}
