// Package promo implements promo code redemption: lock the code row,
// enforce expiry/exhaustion and the one-redemption-per-user rule, then
// credit the caller's wallet or token balance.
package promo

import (
	"context"
	"time"

	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/domain"
	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/ledger"
	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/repository"
	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/uow"
)

// tokenValidity is how long tokens granted by a promo code stay spendable.
const tokenValidity = 30 * 24 * time.Hour

// Service redeems promo codes.
type Service struct {
	repo   *repository.PromoRepository
	ledger *repository.LedgerRepository
	points *ledger.Ledger
	uow    *uow.UnitOfWork
}

// New creates a promo Service.
func New(repo *repository.PromoRepository, ledgerRepo *repository.LedgerRepository, points *ledger.Ledger, unitOfWork *uow.UnitOfWork) *Service {
	return &Service{repo: repo, ledger: ledgerRepo, points: points, uow: unitOfWork}
}

// Result is the outcome of a successful redemption.
type Result struct {
	Code   string
	Type   domain.PromoCodeType
	Amount float64
}

// Redeem applies code on behalf of userID. Redemption-count bookkeeping and
// the per-user redemption record commit in one transaction; crediting the
// user happens after, mirroring referral.Service.Redeem's split between
// the claim write and the Ledger's own unit of work.
func (s *Service) Redeem(ctx context.Context, code string, userID int64) (*Result, error) {
	var grant domain.PromoCode
	err := s.uow.Do(ctx, func(txCtx context.Context) error {
		tx := uow.Tx(txCtx)

		promoCode, err := s.repo.LockCode(txCtx, tx, code)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		if now.After(promoCode.ExpiresOn) || promoCode.IsExhausted() {
			return domain.ErrPromoCodeInvalid
		}

		redeemed, err := s.repo.HasRedeemed(txCtx, tx, code, userID)
		if err != nil {
			return err
		}
		if redeemed {
			return domain.ErrPromoCodeAlreadyUsed
		}

		if err := s.repo.RecordRedemption(txCtx, tx, code, userID, now); err != nil {
			return err
		}

		grant = *promoCode
		return nil
	})
	if err != nil {
		return nil, err
	}

	switch grant.Type {
	case domain.PromoCodeTokens:
		if err := s.creditTokens(ctx, userID, &grant); err != nil {
			return nil, err
		}
	default:
		if _, err := s.points.RecordTransaction(ctx, userID, domain.ActivityReward, grant.Amount,
			"promo code "+grant.Code, nil, nil, nil, nil); err != nil {
			return nil, err
		}
	}

	return &Result{Code: grant.Code, Type: grant.Type, Amount: grant.Amount}, nil
}

// creditTokens appends a token_transaction row scoped to the promo code as
// its campaign, computing the running balance from the prior sum.
func (s *Service) creditTokens(ctx context.Context, userID int64, grant *domain.PromoCode) error {
	prior, err := s.ledger.SumTokens(ctx, userID, grant.Code)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	return s.ledger.InsertTokenTransaction(ctx, &domain.TokenTransaction{
		ID:         repository.NewTransactionID(),
		UserID:     userID,
		CampaignID: grant.Code,
		ActivityType: domain.ActivityReward,
		Tokens:     grant.Amount,
		Balance:    prior + grant.Amount,
		IssuedOn:   now,
		ExpiredOn:  now.Add(tokenValidity),
		Note:       "promo code " + grant.Code,
		CreatedOn:  now,
	})
}
