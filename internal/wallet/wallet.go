// Package wallet wraps the Ledger with the user-facing rules: lazy wallet
// creation, blocked-user enforcement, daily purchase limits with
// auto-suspension, and auto-refill.
package wallet

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/domain"
	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/ledger"
	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/notify"
	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/payment"
	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/repository"
)

// DailyPurchaseLimitDefault is the USD ceiling on a user's daily coin
// purchases.
const DailyPurchaseLimitDefault = 100.0

// DailyRedeemLimitDefault is the coin ceiling on a user's daily /redeem
// spend, separate from the purchase limit since it bounds a different
// direction of flow (spending coins, not buying them).
const DailyRedeemLimitDefault = 500.0

// Service implements the Wallet Service.
type Service struct {
	repo          *repository.LedgerRepository
	ledger        *ledger.Ledger
	gateway       *payment.Gateway
	outbox        *notify.Outbox
	dailyLimit    float64
	redeemLimit   float64
}

// New creates a wallet Service.
func New(repo *repository.LedgerRepository, l *ledger.Ledger, gateway *payment.Gateway, outbox *notify.Outbox) *Service {
	return &Service{repo: repo, ledger: l, gateway: gateway, outbox: outbox, dailyLimit: DailyPurchaseLimitDefault, redeemLimit: DailyRedeemLimitDefault}
}

// WithRedeemLimit overrides the daily redeem limit (config-driven).
func (s *Service) WithRedeemLimit(limit float64) *Service {
	if limit > 0 {
		s.redeemLimit = limit
	}
	return s
}

// WithDailyLimit overrides the daily purchase limit (config-driven).
func (s *Service) WithDailyLimit(limit float64) *Service {
	if limit > 0 {
		s.dailyLimit = limit
	}
	return s
}

// GetUserWallet returns the wallet summary, lazily creating an empty wallet
// on first read if absent. Never mutates persisted state.
func (s *Service) GetUserWallet(ctx context.Context, userID int64) (*domain.UserWallet, error) {
	return s.repo.GetWallet(ctx, userID)
}

// UpdateSettings persists auto_refill/below_balance/refill_plan_id.
func (s *Service) UpdateSettings(ctx context.Context, userID int64, autoRefill bool, belowBalance float64, refillPlanID *int64) error {
	if refillPlanID != nil {
		if _, err := s.repo.RefillPlanProduct(ctx, *refillPlanID); err != nil {
			return err
		}
	}
	return s.repo.UpdateWalletSettings(ctx, userID, autoRefill, belowBalance, refillPlanID)
}

// Debit invokes the Ledger with a negative points delta, enforcing the
// blocked-user check, then evaluates the auto-refill trigger before
// returning.
func (s *Service) Debit(ctx context.Context, userID int64, amount float64, activityType domain.ActivityType, note string) (*ledger.Result, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: debit amount must be positive", domain.ErrInvalidRequest)
	}

	blocked, err := s.repo.IsBlocked(ctx, userID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, domain.ErrUserCoinSuspended
	}

	result, err := s.ledger.RecordTransaction(ctx, userID, activityType, -amount, note, nil, nil, nil, nil)
	if err != nil {
		return nil, err
	}

	s.maybeAutoRefill(ctx, userID, result.Balance)

	return result, nil
}

// Credit invokes the Ledger directly with a positive points delta. Credits
// always succeed regardless of BlockedUser status — system compensation
// must go through even while a user's coin activity is suspended.
func (s *Service) Credit(ctx context.Context, userID int64, amount float64, activityType domain.ActivityType, note string) (*ledger.Result, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: credit amount must be positive", domain.ErrInvalidRequest)
	}
	return s.ledger.RecordTransaction(ctx, userID, activityType, amount, note, nil, nil, nil, nil)
}

// maybeAutoRefill runs immediately after a debit: if auto_refill is
// enabled and the new balance is below threshold, attempt a refill
// purchase. Failures are absorbed — the debit stands, auto_refill is
// flipped off, and a notification is queued.
func (s *Service) maybeAutoRefill(ctx context.Context, userID int64, newBalance float64) {
	w, err := s.repo.GetWallet(ctx, userID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("wallet: auto-refill wallet lookup failed")
		return
	}
	if !w.AutoRefill || newBalance >= w.BelowBalance {
		return
	}
	if w.PaymentCustomerID == nil || w.RefillPlanID == nil {
		// Missing payment_customer_id: silently skip, no error surface.
		return
	}

	productID, err := s.repo.RefillPlanProduct(ctx, *w.RefillPlanID)
	if err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("wallet: auto-refill plan lookup failed")
		s.disableAutoRefill(ctx, userID)
		return
	}

	if _, err := s.BuyPointProduct(ctx, userID, productID, "auto-refill"); err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("wallet: auto-refill purchase failed, disabling")
		s.disableAutoRefill(ctx, userID)
	}
}

func (s *Service) disableAutoRefill(ctx context.Context, userID int64) {
	if err := s.repo.SetAutoRefill(ctx, userID, false); err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("wallet: failed to disable auto_refill")
	}
	s.outbox.AutoRefillFailedNotice(ctx, userID)
}

// BuyPointProduct purchases coins through the external payment processor,
// subject to the daily purchase limit escalation algorithm.
func (s *Service) BuyPointProduct(ctx context.Context, userID int64, productID string, zone string) (*ledger.Result, error) {
	blocked, err := s.repo.IsBlocked(ctx, userID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, domain.ErrUserCoinSuspended
	}

	product, ok := LookupProduct(productID)
	if !ok {
		return nil, fmt.Errorf("%w: unknown product %q", domain.ErrInvalidRequest, productID)
	}

	loc, err := time.LoadLocation(zone)
	if err != nil {
		loc = time.UTC
	}
	midnight := localMidnight(time.Now().In(loc))

	sum, err := s.repo.SumPurchasesSince(ctx, userID, midnight)
	if err != nil {
		return nil, err
	}

	if sum+product.Amount > s.dailyLimit {
		if sum > s.dailyLimit {
			// Second offense same day: suspend and notify.
			if err := s.repo.InsertBlockedUser(ctx, userID); err != nil {
				log.Error().Err(err).Int64("user_id", userID).Msg("wallet: failed to insert blocked user")
			}
			s.outbox.SuspensionEmail(ctx, userID)
		}
		s.outbox.LimitWarningEmail(ctx, userID)
		return nil, domain.ErrDailyPurchaseLimit
	}

	wallet, err := s.repo.GetWallet(ctx, userID)
	if err != nil {
		return nil, err
	}

	var externalTxnID string
	if wallet.PaymentCustomerID != nil {
		idempotencyKey := fmt.Sprintf("%d-%s-%d", userID, productID, midnight.Unix())
		externalTxnID, err = s.gateway.Charge(ctx, *wallet.PaymentCustomerID, int64(product.Amount*100), product.Currency, idempotencyKey)
		if err != nil {
			return nil, err
		}
	}

	result, err := s.ledger.RecordTransaction(ctx, userID, domain.ActivityPurchase, product.Points,
		fmt.Sprintf("purchase:%s", productID), nil, nil, nil, nil)
	if err != nil {
		return nil, err
	}

	if err := s.repo.InsertPurchaseTransaction(ctx, &domain.PurchaseTransaction{
		ID:                    repository.NewTransactionID(),
		UserID:                userID,
		PointTransactionID:    result.TransactionID,
		Points:                product.Points,
		Amount:                product.Amount,
		Currency:              product.Currency,
		ExternalTransactionID: externalTxnID,
		CreatedOn:             time.Now().UTC(),
	}); err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("wallet: failed to record purchase transaction")
	}

	return result, nil
}

// Redeem spends coins against a fixed redemption catalog (raffle entries,
// vouchers), enforcing the daily redeem limit and sufficient-balance check
// before debiting through the Ledger.
func (s *Service) Redeem(ctx context.Context, userID int64, productID string) (*ledger.Result, error) {
	blocked, err := s.repo.IsBlocked(ctx, userID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, domain.ErrUserCoinSuspended
	}

	product, ok := LookupRedeemProduct(productID)
	if !ok {
		return nil, fmt.Errorf("%w: unknown redeem product %q", domain.ErrInvalidRequest, productID)
	}

	midnight := localMidnight(time.Now().UTC())
	spent, err := s.repo.SumRedeemedSince(ctx, userID, midnight)
	if err != nil {
		return nil, err
	}
	if spent+product.Points > s.redeemLimit {
		return nil, domain.ErrDailyRedeemLimit
	}

	wallet, err := s.repo.GetWallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	if wallet.Balance < product.Points {
		return nil, domain.ErrInsufficientCoins
	}

	return s.ledger.RecordTransaction(ctx, userID, domain.ActivityDebit, -product.Points,
		fmt.Sprintf("redeem:%s", productID), nil, nil, nil, nil)
}

// localMidnight returns the start of the local calendar day for t.
func localMidnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
