package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/domain"
)

// RidehailRepository owns ridehail_trip and uber_benefit_transaction rows.
type RidehailRepository struct {
	pool *pgxpool.Pool
}

// NewRidehailRepository creates a new ridehail repository.
func NewRidehailRepository(pool *pgxpool.Pool) *RidehailRepository {
	return &RidehailRepository{pool: pool}
}

// InsertTrip creates a new RidehailTrip row within the ordering transaction.
func (r *RidehailRepository) InsertTrip(ctx context.Context, tx pgx.Tx, t *domain.RidehailTrip) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO ridehail_trip (
			id, trip_id, user_id, vendor_request_id, vendor_trip_id, product_id,
			status, estimated_fare, actual_fare, benefit_credit_applied,
			pickup_lat, pickup_lng, dropoff_lat, dropoff_lng, created_on,
			completed_on, receipt_blob, webhook_event_ids
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`,
		t.ID, t.TripID, t.UserID, t.VendorRequestID, t.VendorTripID, t.ProductID,
		t.Status, t.EstimatedFare, t.ActualFare, t.BenefitCreditApplied,
		t.Pickup.Lat, t.Pickup.Lng, t.Dropoff.Lat, t.Dropoff.Lng, t.CreatedOn,
		t.CompletedOn, t.ReceiptBlob, t.WebhookEventIDs)
	return err
}

// LockTrip reads a RidehailTrip row with SELECT ... FOR UPDATE so the
// webhook handler can serialize concurrent callbacks for the same trip.
func (r *RidehailRepository) LockTrip(ctx context.Context, tx pgx.Tx, tripID uuid.UUID) (*domain.RidehailTrip, error) {
	row := tx.QueryRow(ctx, `
		SELECT id, trip_id, user_id, vendor_request_id, vendor_trip_id, product_id,
			status, estimated_fare, actual_fare, benefit_credit_applied,
			pickup_lat, pickup_lng, dropoff_lat, dropoff_lng, created_on,
			completed_on, receipt_blob, webhook_event_ids
		FROM ridehail_trip WHERE id = $1 FOR UPDATE`, tripID)
	return scanTrip(row)
}

// FindTripByVendorRequestID locates a trip by its vendor-side identifier,
// the key webhook payloads arrive keyed on (meta.resource_id).
func (r *RidehailRepository) FindTripByVendorRequestID(ctx context.Context, tx pgx.Tx, vendorRequestID string) (*domain.RidehailTrip, error) {
	row := tx.QueryRow(ctx, `
		SELECT id, trip_id, user_id, vendor_request_id, vendor_trip_id, product_id,
			status, estimated_fare, actual_fare, benefit_credit_applied,
			pickup_lat, pickup_lng, dropoff_lat, dropoff_lng, created_on,
			completed_on, receipt_blob, webhook_event_ids
		FROM ridehail_trip WHERE vendor_request_id = $1 FOR UPDATE`, vendorRequestID)
	return scanTrip(row)
}

func scanTrip(row pgx.Row) (*domain.RidehailTrip, error) {
	t := &domain.RidehailTrip{}
	err := row.Scan(&t.ID, &t.TripID, &t.UserID, &t.VendorRequestID, &t.VendorTripID, &t.ProductID,
		&t.Status, &t.EstimatedFare, &t.ActualFare, &t.BenefitCreditApplied,
		&t.Pickup.Lat, &t.Pickup.Lng, &t.Dropoff.Lat, &t.Dropoff.Lng, &t.CreatedOn,
		&t.CompletedOn, &t.ReceiptBlob, &t.WebhookEventIDs)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrRidehailTripNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// UpdateTrip persists the full mutable state of a trip within the caller's
// transaction (status, actual_fare, completed_on, receipt_blob,
// webhook_event_ids).
func (r *RidehailRepository) UpdateTrip(ctx context.Context, tx pgx.Tx, t *domain.RidehailTrip) error {
	_, err := tx.Exec(ctx, `
		UPDATE ridehail_trip SET
			status = $2, vendor_trip_id = $3, actual_fare = $4,
			completed_on = $5, receipt_blob = $6, webhook_event_ids = $7
		WHERE id = $1`,
		t.ID, t.Status, t.VendorTripID, t.ActualFare, t.CompletedOn, t.ReceiptBlob, t.WebhookEventIDs)
	return err
}

// InsertBenefitTransaction appends an UberBenefitTransaction row within the
// caller's transaction. Deposit and usage rows are both modeled this way,
// distinguished only by the sign of BenefitAmount.
func (r *RidehailRepository) InsertBenefitTransaction(ctx context.Context, tx pgx.Tx, b *domain.UberBenefitTransaction) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO uber_benefit_transaction (
			id, user_id, benefit_amount, transaction_amount, transaction_id, created_on
		) VALUES ($1,$2,$3,$4,$5,$6)`,
		b.ID, b.UserID, b.BenefitAmount, b.TransactionAmount, b.TransactionID, b.CreatedOn)
	return err
}

// SumBenefitUsed computes the user's net benefit used-to-date (the negated
// sum of all of the user's benefit rows, floored at 0), the Tier Engine's
// uber_benefit = deposit - used formula input.
func (r *RidehailRepository) SumBenefitUsed(ctx context.Context, userID int64) (float64, error) {
	var sum float64
	err := r.pool.QueryRow(ctx, `
		SELECT GREATEST(COALESCE(-SUM(benefit_amount), 0), 0) FROM uber_benefit_transaction
		WHERE user_id = $1`, userID).Scan(&sum)
	return sum, err
}

// NewID is a small helper so callers don't import uuid just for IDs.
func NewID() uuid.UUID {
	return uuid.New()
}
