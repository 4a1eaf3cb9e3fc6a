package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/domain"
)

// TripRepository owns trip, trip_trajectory, trip_validation_queue, and
// trip_validation_result rows.
type TripRepository struct {
	pool *pgxpool.Pool
}

// NewTripRepository creates a new trip repository.
func NewTripRepository(pool *pgxpool.Pool) *TripRepository {
	return &TripRepository{pool: pool}
}

// InsertTrip records a started trip.
func (r *TripRepository) InsertTrip(ctx context.Context, t *domain.Trip) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO trip (
			id, user_id, travel_mode, market, origin_lat, origin_lng,
			dest_lat, dest_lng, started_on, estimated_arrival_on,
			trip_detail_uuid, navigation_app, distance, reservation_id,
			validation_complete
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,false)`,
		t.ID, t.UserID, t.TravelMode, t.Market, t.Origin.Lat, t.Origin.Lng,
		t.Destination.Lat, t.Destination.Lng, t.StartedOn, t.EstimatedArrivalOn,
		t.TripDetailUUID, t.NavigationApp, t.Distance, t.ReservationID)
	return err
}

// EndTrip records trip completion fields. Enqueueing validation is a
// separate call (EnqueueValidation).
func (r *TripRepository) EndTrip(ctx context.Context, tx pgx.Tx, tripID, endStatus string, endedOn time.Time, distance float64) error {
	_, err := tx.Exec(ctx, `
		UPDATE trip SET ended_on = $2, distance = $3, end_status = $4 WHERE id = $1`,
		tripID, endedOn, distance, endStatus)
	return err
}

// GetTrip loads a trip by ID.
func (r *TripRepository) GetTrip(ctx context.Context, tripID string) (*domain.Trip, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, travel_mode, market, origin_lat, origin_lng,
			dest_lat, dest_lng, started_on, estimated_arrival_on, ended_on,
			trip_detail_uuid, navigation_app, distance, trajectory_distance,
			end_status, reservation_id, validation_complete
		FROM trip WHERE id = $1`, tripID)
	return scanTripRow(row)
}

func scanTripRow(row pgx.Row) (*domain.Trip, error) {
	t := &domain.Trip{}
	err := row.Scan(&t.ID, &t.UserID, &t.TravelMode, &t.Market, &t.Origin.Lat, &t.Origin.Lng,
		&t.Destination.Lat, &t.Destination.Lng, &t.StartedOn, &t.EstimatedArrivalOn, &t.EndedOn,
		&t.TripDetailUUID, &t.NavigationApp, &t.Distance, &t.TrajectoryDistance,
		&t.EndStatus, &t.ReservationID, &t.ValidationComplete)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTripNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// GetTrajectory loads the uploaded GPS samples for a trip, ordered by time.
func (r *TripRepository) GetTrajectory(ctx context.Context, tripID string) ([]domain.TrajectoryPoint, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT lat, lng, recorded_at, speed, accuracy FROM trip_trajectory
		WHERE trip_id = $1 ORDER BY recorded_at ASC`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []domain.TrajectoryPoint
	for rows.Next() {
		var p domain.TrajectoryPoint
		if err := rows.Scan(&p.Lat, &p.Lng, &p.Timestamp, &p.Speed, &p.Accuracy); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// InsertTrajectoryPoints appends uploaded GPS samples for a trip. Points
// may arrive in several batches before the trip is claimed for validation.
func (r *TripRepository) InsertTrajectoryPoints(ctx context.Context, tripID string, points []domain.TrajectoryPoint) error {
	batch := &pgx.Batch{}
	for _, p := range points {
		batch.Queue(`
			INSERT INTO trip_trajectory (trip_id, lat, lng, recorded_at, speed, accuracy)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			tripID, p.Lat, p.Lng, p.Timestamp, p.Speed, p.Accuracy)
	}
	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range points {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// EnqueueValidation inserts a round-1 TripValidationQueue row.
func (r *TripRepository) EnqueueValidation(ctx context.Context, tripID string, createdOn time.Time) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO trip_validation_queue (trip_id, round, is_deleted, created_on)
		VALUES ($1, 1, false, $2)`, tripID, createdOn)
	return err
}

// ClaimDueQueueRows leases up to limit undeleted queue rows whose trip
// started at least bufferHours ago, using SELECT ... FOR UPDATE SKIP
// LOCKED so concurrent workers never double-process the same row.
func (r *TripRepository) ClaimDueQueueRows(ctx context.Context, tx pgx.Tx, bufferHours int, limit int) ([]domain.TripValidationQueue, error) {
	rows, err := tx.Query(ctx, `
		SELECT q.trip_id, q.round, q.is_deleted, q.created_on
		FROM trip_validation_queue q
		JOIN trip t ON t.id = q.trip_id
		WHERE q.is_deleted = false
			AND t.started_on <= now() - ($1 * interval '1 hour')
		ORDER BY q.created_on ASC
		LIMIT $2
		FOR UPDATE OF q SKIP LOCKED`, bufferHours, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.TripValidationQueue
	for rows.Next() {
		var q domain.TripValidationQueue
		if err := rows.Scan(&q.TripID, &q.Round, &q.IsDeleted, &q.CreatedOn); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// MarkQueueRowDeleted soft-deletes a queue row once validation is resolved
// or the round limit is reached.
func (r *TripRepository) MarkQueueRowDeleted(ctx context.Context, tx pgx.Tx, tripID string) error {
	_, err := tx.Exec(ctx, `UPDATE trip_validation_queue SET is_deleted = true WHERE trip_id = $1`, tripID)
	return err
}

// BumpQueueRound increments the round counter without deleting the row.
func (r *TripRepository) BumpQueueRound(ctx context.Context, tx pgx.Tx, tripID string, newRound int) error {
	_, err := tx.Exec(ctx, `UPDATE trip_validation_queue SET round = $2 WHERE trip_id = $1`, tripID, newRound)
	return err
}

// SetValidationComplete flips trip.validation_complete.
func (r *TripRepository) SetValidationComplete(ctx context.Context, tx pgx.Tx, tripID string) error {
	_, err := tx.Exec(ctx, `UPDATE trip SET validation_complete = true WHERE id = $1`, tripID)
	return err
}

// InsertValidationResult records one scored validation round.
func (r *TripRepository) InsertValidationResult(ctx context.Context, tx pgx.Tx, res *domain.TripValidationResult) error {
	details, err := json.Marshal(res.Dimensions)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO trip_validation_result (trip_id, round, passed, score, details, created_on)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		res.TripID, res.Round, res.Passed, res.Score, details, res.CreatedOn)
	return err
}

// HasPriorCoinEarningTrip reports whether the user has any validated,
// passed trip other than excludeTripID — the Incentive Engine's
// first-trip welcome-bonus check.
func (r *TripRepository) HasPriorCoinEarningTrip(ctx context.Context, userID int64, excludeTripID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM trip_validation_result res
			JOIN trip t ON t.id = res.trip_id
			WHERE t.user_id = $1 AND res.passed = true AND t.id != $2
		)`, userID, excludeTripID).Scan(&exists)
	return exists, err
}
