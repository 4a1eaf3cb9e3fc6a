package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/domain"
)

// EnterpriseRepository owns enterprise_domain, duo_group, enterprise,
// enterprise_invite, and enterprise_block rows.
type EnterpriseRepository struct {
	pool *pgxpool.Pool
}

// NewEnterpriseRepository creates a new enterprise repository.
func NewEnterpriseRepository(pool *pgxpool.Pool) *EnterpriseRepository {
	return &EnterpriseRepository{pool: pool}
}

// EnterpriseIDsForEmail resolves the union of (a) enterprises whose
// registered domain matches email's domain and (b) enterprises with a
// direct EnterpriseInvite for email.
func (r *EnterpriseRepository) EnterpriseIDsForEmail(ctx context.Context, email, domainPart string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT enterprise_id FROM enterprise_domain WHERE domain = $1
		UNION
		SELECT enterprise_id FROM enterprise_invite WHERE email = $2`, domainPart, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GroupBelongsToEnterprise checks that groupID is scoped to one of
// enterpriseIDs.
func (r *EnterpriseRepository) GroupBelongsToEnterprise(ctx context.Context, groupID string, enterpriseIDs []string) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM duo_group WHERE group_id = $1 AND enterprise_id = ANY($2)
		)`, groupID, enterpriseIDs).Scan(&ok)
	return ok, err
}

// FindVerifiedOther looks up an Enterprise row already verified for this
// email under a different user — the duplicate-email guard.
func (r *EnterpriseRepository) FindVerifiedOther(ctx context.Context, email string, userID int64) (*domain.Enterprise, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT email, user_id, enterprise_id, group_id, verification_token,
			verification_status, expires_on, created_on
		FROM enterprise
		WHERE email = $1 AND verification_status = 'success' AND user_id != $2
		LIMIT 1`, email, userID)
	return scanEnterpriseRow(row)
}

// FindVerifiedForUser looks up this user's own already-verified row for
// email under one of enterpriseIDs — the direct-join branch.
func (r *EnterpriseRepository) FindVerifiedForUser(ctx context.Context, email string, userID int64, enterpriseIDs []string) (*domain.Enterprise, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT email, user_id, enterprise_id, group_id, verification_token,
			verification_status, expires_on, created_on
		FROM enterprise
		WHERE email = $1 AND user_id = $2 AND verification_status = 'success'
			AND enterprise_id = ANY($3)
		LIMIT 1`, email, userID, enterpriseIDs)
	return scanEnterpriseRow(row)
}

func scanEnterpriseRow(row pgx.Row) (*domain.Enterprise, error) {
	e := &domain.Enterprise{}
	err := row.Scan(&e.Email, &e.UserID, &e.EnterpriseID, &e.GroupID, &e.VerificationToken,
		&e.VerificationStatus, &e.ExpiresOn, &e.CreatedOn)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrEnterpriseNotFound
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// IsBlocked reports whether email is blocked for any of enterpriseIDs.
func (r *EnterpriseRepository) IsBlocked(ctx context.Context, email string, enterpriseIDs []string) (bool, error) {
	var blocked bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM enterprise_block
			WHERE email = $1 AND enterprise_id = ANY($2) AND is_blocked = true
		)`, email, enterpriseIDs).Scan(&blocked)
	return blocked, err
}

// UpsertPending writes (or replaces) the pending verification row for this
// email, keyed by (email, enterprise_id).
func (r *EnterpriseRepository) UpsertPending(ctx context.Context, e *domain.Enterprise) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO enterprise (email, user_id, enterprise_id, group_id,
			verification_token, verification_status, expires_on, created_on)
		VALUES ($1,$2,$3,$4,$5,'pending',$6,$7)
		ON CONFLICT (email, enterprise_id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			group_id = EXCLUDED.group_id,
			verification_token = EXCLUDED.verification_token,
			verification_status = 'pending',
			expires_on = EXCLUDED.expires_on`,
		e.Email, e.UserID, e.EnterpriseID, e.GroupID, e.VerificationToken, e.ExpiresOn, e.CreatedOn)
	return err
}

// FindByToken looks up the pending row for a verification token.
func (r *EnterpriseRepository) FindByToken(ctx context.Context, token string) (*domain.Enterprise, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT email, user_id, enterprise_id, group_id, verification_token,
			verification_status, expires_on, created_on
		FROM enterprise WHERE verification_token = $1`, token)
	e, err := scanEnterpriseRow(row)
	if errors.Is(err, domain.ErrEnterpriseNotFound) {
		return nil, domain.ErrVerificationTokenInvalid
	}
	return e, err
}

// MarkVerified flips verification_status to success and clears the token.
func (r *EnterpriseRepository) MarkVerified(ctx context.Context, email, enterpriseID string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE enterprise SET verification_status = 'success', verification_token = ''
		WHERE email = $1 AND enterprise_id = $2`, email, enterpriseID)
	return err
}

// JoinGroup idempotently adds an accepted GroupMembership row.
func (r *EnterpriseRepository) JoinGroup(ctx context.Context, userID int64, groupID string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO group_membership (user_id, group_id, status, joined_on)
		VALUES ($1, $2, 'accepted', now())
		ON CONFLICT (user_id, group_id) DO NOTHING`, userID, groupID)
	return err
}
