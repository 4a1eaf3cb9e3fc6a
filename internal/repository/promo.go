package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/domain"
)

// PromoRepository owns promo_code and promo_redemption rows.
type PromoRepository struct {
	pool *pgxpool.Pool
}

// NewPromoRepository creates a new promo repository.
func NewPromoRepository(pool *pgxpool.Pool) *PromoRepository {
	return &PromoRepository{pool: pool}
}

// LockCode reads a promo_code row with SELECT ... FOR UPDATE so redemption
// count checks and increments serialize per code, the same row-lock idiom
// LedgerRepository.LockWallet uses for user_wallet.
func (r *PromoRepository) LockCode(ctx context.Context, tx pgx.Tx, code string) (*domain.PromoCode, error) {
	row := tx.QueryRow(ctx, `
		SELECT code, type, amount, max_redemptions, redeemed, expires_on
		FROM promo_code WHERE code = $1 FOR UPDATE`, code)

	p := &domain.PromoCode{}
	err := row.Scan(&p.Code, &p.Type, &p.Amount, &p.MaxRedemptions, &p.Redeemed, &p.ExpiresOn)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrPromoCodeInvalid
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// HasRedeemed reports whether userID has already redeemed code.
func (r *PromoRepository) HasRedeemed(ctx context.Context, tx pgx.Tx, code string, userID int64) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM promo_redemption WHERE code = $1 AND user_id = $2)`,
		code, userID).Scan(&exists)
	return exists, err
}

// RecordRedemption appends a redemption row and bumps the code's counter,
// both within the locking transaction.
func (r *PromoRepository) RecordRedemption(ctx context.Context, tx pgx.Tx, code string, userID int64, redeemedOn time.Time) error {
	if _, err := tx.Exec(ctx, `
		INSERT INTO promo_redemption (code, user_id, redeemed_on) VALUES ($1,$2,$3)`,
		code, userID, redeemedOn); err != nil {
		return err
	}
	_, err := tx.Exec(ctx, `UPDATE promo_code SET redeemed = redeemed + 1 WHERE code = $1`, code)
	return err
}
