// Package referral implements the referral-redemption flow: decode the
// sender's code, enforce the signup-window and one-per-receiver
// invariants, and credit the receiver through the Ledger.
package referral

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/domain"
	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/ledger"
	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/repository"
	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/uow"
)

// AccountLookup resolves a user's account-creation instant. User identity
// and signup records live outside this service, so the referral service
// reaches it through this seam rather than owning a users table, the same
// pattern validator.RouteLookup uses for route planning.
type AccountLookup interface {
	CreatedOn(ctx context.Context, userID int64) (time.Time, error)
}

// TierReader resolves the receiver's tier, whose ReferralMult scales the
// base reward — the same seam ridehail.Service uses for its benefit credit.
type TierReader interface {
	GetUserTier(ctx context.Context, userID int64) (*domain.UserTier, error)
	GetUserTierBenefits(level domain.TierLevel) domain.BenefitRules
}

// Service redeems referral codes.
type Service struct {
	repo     *repository.ReferralRepository
	accounts AccountLookup
	tier     TierReader
	ledger   *ledger.Ledger
	uow      *uow.UnitOfWork
	reward   float64
}

// New creates a referral Service. reward is the REFERRAL_COIN tunable.
func New(repo *repository.ReferralRepository, accounts AccountLookup, tier TierReader, ledgerSvc *ledger.Ledger, unitOfWork *uow.UnitOfWork, reward float64) *Service {
	return &Service{repo: repo, accounts: accounts, tier: tier, ledger: ledgerSvc, uow: unitOfWork, reward: reward}
}

// Result is the outcome of a successful redemption.
type Result struct {
	ReferralID uuid.UUID
	Toast      string
}

// Redeem applies referralCode on behalf of receiverUserID.
func (s *Service) Redeem(ctx context.Context, referralCode string, receiverUserID int64) (*Result, error) {
	senderUserID, ok := Decode(referralCode)
	if !ok {
		return nil, domain.ErrReferralCodeInvalid
	}
	if senderUserID == receiverUserID {
		return nil, domain.ErrReferralSelfReferral
	}

	createdOn, err := s.accounts.CreatedOn(ctx, receiverUserID)
	if err != nil {
		return nil, err
	}
	if time.Since(createdOn) > domain.ReferralWindowDays*24*time.Hour {
		return nil, domain.ErrReferralExpired
	}

	// The receiver's tier governs the multiplier: they're the one being
	// rewarded, and tier is resolved fresh here rather than cached alongside
	// the referral row since benefit tables can change between redemption
	// and any later audit.
	reward := s.reward
	if s.tier != nil {
		userTier, err := s.tier.GetUserTier(ctx, receiverUserID)
		if err != nil {
			return nil, fmt.Errorf("read tier: %w", err)
		}
		reward = s.reward * s.tier.GetUserTierBenefits(userTier.Level).ReferralMult
	}

	var result Result
	err = s.uow.Do(ctx, func(txCtx context.Context) error {
		tx := uow.Tx(txCtx)

		claimed, err := s.repo.HasBeenReferred(txCtx, tx, receiverUserID)
		if err != nil {
			return err
		}
		if claimed {
			return domain.ErrReferralAlreadyClaimed
		}

		referralID := uuid.New()
		if err := s.repo.InsertReferral(txCtx, tx, &domain.ReferralHistory{
			ID:             referralID,
			SenderUserID:   senderUserID,
			ReceiverUserID: receiverUserID,
			ReferralCode:   referralCode,
			RewardAmount:   reward,
			CreatedOn:      time.Now().UTC(),
		}); err != nil {
			return err
		}

		result = Result{ReferralID: referralID, Toast: toastFor(reward)}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Credited outside the referral_history transaction: the Ledger opens
	// its own unit of work, and ReferralHistory's row is already durable by
	// the time this runs, so a crediting failure here can be safely retried
	// by the caller without risking a second referral_history row.
	if _, err := s.ledger.RecordTransaction(ctx, receiverUserID, domain.ActivityReward, reward,
		"referral reward", nil, nil, nil, nil); err != nil {
		return nil, err
	}
	return &result, nil
}

func toastFor(reward float64) string {
	amount := int(reward)
	suffix := "s"
	if amount == 1 {
		suffix = ""
	}
	return "We've added " + strconv.Itoa(amount) + " Coin" + suffix + " to your Wallet!"
}
