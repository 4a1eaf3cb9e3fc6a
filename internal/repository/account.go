package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AccountRepository reads the handful of account fields this service needs
// from the out-of-scope identity/session service's user table. It owns no
// writes — user accounts are created and managed elsewhere.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new account repository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// CreatedOn returns a user's account-creation instant, the referral
// service's signup-window check input.
func (r *AccountRepository) CreatedOn(ctx context.Context, userID int64) (time.Time, error) {
	var createdOn time.Time
	err := r.pool.QueryRow(ctx, `SELECT created_on FROM user_account WHERE user_id = $1`, userID).Scan(&createdOn)
	return createdOn, err
}
