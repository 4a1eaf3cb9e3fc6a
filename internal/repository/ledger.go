package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/domain"
)

// LedgerRepository owns user_wallet, points_transaction, token_transaction,
// purchase_transaction, and blocked_user rows.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new ledger repository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// LockWallet reads the user_wallet row with SELECT ... FOR UPDATE, creating
// it lazily if absent, so the caller holds the per-user serialization lock
// required before inserting a PointsTransaction. Must be called with a
// context produced by uow.UnitOfWork.Do.
func (r *LedgerRepository) LockWallet(ctx context.Context, tx pgx.Tx, userID int64) (*domain.UserWallet, error) {
	row := tx.QueryRow(ctx, `
		SELECT user_id, balance, auto_refill, below_balance, refill_plan_id,
			payment_customer_id, created_on, updated_on
		FROM user_wallet WHERE user_id = $1 FOR UPDATE`, userID)

	w := &domain.UserWallet{}
	err := row.Scan(&w.UserID, &w.Balance, &w.AutoRefill, &w.BelowBalance,
		&w.RefillPlanID, &w.PaymentCustomerID, &w.CreatedOn, &w.UpdatedOn)
	if errors.Is(err, pgx.ErrNoRows) {
		w = domain.NewUserWallet(userID)
		_, err = tx.Exec(ctx, `
			INSERT INTO user_wallet (user_id, balance, auto_refill, below_balance, created_on, updated_on)
			VALUES ($1, 0, false, 0, $2, $2)
			ON CONFLICT (user_id) DO NOTHING`, userID, w.CreatedOn)
		if err != nil {
			return nil, err
		}
		return w, nil
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

// GetWallet reads a user_wallet row without locking. Returns a fresh,
// unpersisted wallet if the user has never transacted (lazy-read
// semantics — never mutates state).
func (r *LedgerRepository) GetWallet(ctx context.Context, userID int64) (*domain.UserWallet, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT user_id, balance, auto_refill, below_balance, refill_plan_id,
			payment_customer_id, created_on, updated_on
		FROM user_wallet WHERE user_id = $1`, userID)

	w := &domain.UserWallet{}
	err := row.Scan(&w.UserID, &w.Balance, &w.AutoRefill, &w.BelowBalance,
		&w.RefillPlanID, &w.PaymentCustomerID, &w.CreatedOn, &w.UpdatedOn)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.NewUserWallet(userID), nil
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

// UpdateWalletBalance writes the materialized balance cache within the
// locking transaction.
func (r *LedgerRepository) UpdateWalletBalance(ctx context.Context, tx pgx.Tx, userID int64, newBalance float64) error {
	now := time.Now().UTC()
	_, err := tx.Exec(ctx, `
		UPDATE user_wallet SET balance = $2, updated_on = $3 WHERE user_id = $1`,
		userID, newBalance, now)
	return err
}

// UpdateWalletSettings persists auto-refill configuration.
func (r *LedgerRepository) UpdateWalletSettings(ctx context.Context, userID int64, autoRefill bool, belowBalance float64, refillPlanID *int64) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE user_wallet SET auto_refill = $2, below_balance = $3, refill_plan_id = $4, updated_on = $5
		WHERE user_id = $1`, userID, autoRefill, belowBalance, refillPlanID, time.Now().UTC())
	return err
}

// SetAutoRefill flips the auto_refill flag only (used when auto-refill
// fails and must be silently disabled).
func (r *LedgerRepository) SetAutoRefill(ctx context.Context, userID int64, enabled bool) error {
	_, err := r.pool.Exec(ctx, `UPDATE user_wallet SET auto_refill = $2, updated_on = $3 WHERE user_id = $1`,
		userID, enabled, time.Now().UTC())
	return err
}

// InsertPointsTransaction appends an immutable ledger row inside the
// locking transaction.
func (r *LedgerRepository) InsertPointsTransaction(ctx context.Context, tx pgx.Tx, t *domain.PointsTransaction) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO points_transaction (
			id, user_id, activity_type, points, payer, payee,
			ref_transaction_id, note, idempotency_key, created_on
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		t.ID, t.UserID, t.ActivityType, t.Points, t.Payer, t.Payee,
		t.RefTransactionID, t.Note, t.IdempotencyKey, t.CreatedOn)
	return err
}

// SumPoints computes Σ points WHERE user_id = u — the authoritative balance
// derivation that user_wallet.balance is kept equal to. Nothing in the
// service or its tests calls it.
func (r *LedgerRepository) SumPoints(ctx context.Context, userID int64) (float64, error) {
	var sum float64
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(points), 0) FROM points_transaction WHERE user_id = $1`, userID).Scan(&sum)
	return sum, err
}

// IsBlocked reports whether a non-deleted BlockedUser row exists.
func (r *LedgerRepository) IsBlocked(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM blocked_user WHERE user_id = $1 AND is_deleted = false)`, userID).Scan(&exists)
	return exists, err
}

// InsertBlockedUser suspends a user's coin account.
func (r *LedgerRepository) InsertBlockedUser(ctx context.Context, userID int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO blocked_user (user_id, is_deleted, created_on) VALUES ($1, false, $2)
		ON CONFLICT (user_id) DO UPDATE SET is_deleted = false`, userID, time.Now().UTC())
	return err
}

// InsertPurchaseTransaction records an external card charge.
func (r *LedgerRepository) InsertPurchaseTransaction(ctx context.Context, p *domain.PurchaseTransaction) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO purchase_transaction (
			id, user_id, point_transaction_id, points, amount, currency,
			external_transaction_id, created_on
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		p.ID, p.UserID, p.PointTransactionID, p.Points, p.Amount, p.Currency,
		p.ExternalTransactionID, p.CreatedOn)
	return err
}

// SumPurchasesSince sums purchase amounts for a user from a given instant
// (the caller computes the local-midnight boundary in the user's IANA
// zone).
func (r *LedgerRepository) SumPurchasesSince(ctx context.Context, userID int64, since time.Time) (float64, error) {
	var sum float64
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM purchase_transaction
		WHERE user_id = $1 AND created_on >= $2`, userID, since).Scan(&sum)
	return sum, err
}

// SumRedeemedSince sums the absolute value of ActivityDebit points spent by
// a user from a given instant, the daily-redeem-limit check's input.
func (r *LedgerRepository) SumRedeemedSince(ctx context.Context, userID int64, since time.Time) (float64, error) {
	var sum float64
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(-points), 0) FROM points_transaction
		WHERE user_id = $1 AND activity_type = $2 AND created_on >= $3`,
		userID, domain.ActivityDebit, since).Scan(&sum)
	return sum, err
}

// NewTransactionID is a helper so callers don't import uuid directly just
// to build a PointsTransaction.
func NewTransactionID() uuid.UUID {
	return uuid.New()
}

// SumTokens computes Σ tokens for a user under a campaign, the running
// balance a new TokenTransaction row's Balance field must reflect.
func (r *LedgerRepository) SumTokens(ctx context.Context, userID int64, campaignID string) (float64, error) {
	var sum float64
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(tokens), 0) FROM token_transaction
		WHERE user_id = $1 AND campaign_id = $2`, userID, campaignID).Scan(&sum)
	return sum, err
}

// InsertTokenTransaction appends an immutable token_transaction row. Unlike
// PointsTransaction, tokens are campaign-scoped and carry their own expiry
// rather than sharing the user_wallet row lock.
func (r *LedgerRepository) InsertTokenTransaction(ctx context.Context, t *domain.TokenTransaction) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO token_transaction (
			id, user_id, campaign_id, activity_type, tokens, balance,
			issued_on, expired_on, note, created_on
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		t.ID, t.UserID, t.CampaignID, t.ActivityType, t.Tokens, t.Balance,
		t.IssuedOn, t.ExpiredOn, t.Note, t.CreatedOn)
	return err
}

// RefillPlanProduct looks up the product_id tied to a saved refill plan.
func (r *LedgerRepository) RefillPlanProduct(ctx context.Context, planID int64) (string, error) {
	var productID string
	err := r.pool.QueryRow(ctx, `SELECT product_id FROM refill_plan WHERE plan_id = $1`, planID).Scan(&productID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", domain.ErrPlanNotFound
	}
	return productID, err
}
