package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/domain"
)

// uniqueViolationCode is the Postgres SQLSTATE for a unique constraint
// violation, the race-loser outcome when two referral redemptions for the
// same receiver commit concurrently.
const uniqueViolationCode = "23505"

// ReferralRepository owns referral_history rows.
type ReferralRepository struct {
	pool *pgxpool.Pool
}

// NewReferralRepository creates a new referral repository.
func NewReferralRepository(pool *pgxpool.Pool) *ReferralRepository {
	return &ReferralRepository{pool: pool}
}

// HasBeenReferred reports whether receiverUserID already has a
// referral_history row — the at-most-one-per-receiver invariant.
func (r *ReferralRepository) HasBeenReferred(ctx context.Context, tx pgx.Tx, receiverUserID int64) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM referral_history WHERE receiver_user_id = $1)`,
		receiverUserID).Scan(&exists)
	return exists, err
}

// InsertReferral records a successful referral within the locking
// transaction. The unique index on receiver_user_id is the last line of
// defense against a race past HasBeenReferred.
func (r *ReferralRepository) InsertReferral(ctx context.Context, tx pgx.Tx, h *domain.ReferralHistory) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO referral_history (id, sender_user_id, receiver_user_id, referral_code, reward_amount, created_on)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		h.ID, h.SenderUserID, h.ReceiverUserID, h.ReferralCode, h.RewardAmount, h.CreatedOn)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return domain.ErrReferralAlreadyClaimed
	}
	return err
}
