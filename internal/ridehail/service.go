package ridehail

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/domain"
	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/geo"
	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/metrics"
	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/notify"
	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/repository"
	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/uow"
)

// TierReader resolves a user's cached tier, the source of the benefit
// credit applied to a guest trip.
type TierReader interface {
	GetUserTier(ctx context.Context, userID int64) (*domain.UserTier, error)
}

// Service is the Ride-Hailing Orchestrator.
type Service struct {
	vendor        Vendor
	repo          *repository.RidehailRepository
	walletRepo    *repository.LedgerRepository
	tierEngine    TierReader
	uow           *uow.UnitOfWork
	outbox        *notify.Outbox
	webhookSecret string
}

// New creates the Ride-Hailing Orchestrator.
func New(vendor Vendor, repo *repository.RidehailRepository, walletRepo *repository.LedgerRepository,
	tierEngine TierReader, unitOfWork *uow.UnitOfWork, outbox *notify.Outbox, webhookSecret string) *Service {
	return &Service{
		vendor:        vendor,
		repo:          repo,
		walletRepo:    walletRepo,
		tierEngine:    tierEngine,
		uow:           unitOfWork,
		outbox:        outbox,
		webhookSecret: webhookSecret,
	}
}

// Estimate returns vendor ride products for a pickup/dropoff pair.
func (s *Service) Estimate(ctx context.Context, pickup, dropoff domain.Location) ([]domain.Product, error) {
	return s.vendor.Estimate(ctx, pickup, dropoff)
}

// OrderRequest is the inbound orderGuestTrip request.
type OrderRequest struct {
	UserID        int64
	GuestPhone    string
	Pickup        domain.Location
	Dropoff       domain.Location
	ProductID     string
	FareID        string
	NoteForDriver string
	EstimatedFare float64
}

// OrderResult is returned from OrderGuestTrip.
type OrderResult struct {
	TripID          uuid.UUID
	VendorRequestID string
	BenefitApplied  float64
}

func (r OrderRequest) validate() error {
	if r.GuestPhone == "" || r.ProductID == "" || r.FareID == "" {
		return fmt.Errorf("%w: guest_phone, product_id and fare_id are required", domain.ErrInvalidRequest)
	}
	if !geo.IsValidCoordinate(r.Pickup.Lat, r.Pickup.Lng) || !geo.IsValidCoordinate(r.Dropoff.Lat, r.Dropoff.Lng) {
		return fmt.Errorf("%w: invalid pickup/dropoff coordinates", domain.ErrInvalidRequest)
	}
	if r.EstimatedFare <= 0 {
		return fmt.Errorf("%w: estimated fare must be positive", domain.ErrInvalidRequest)
	}
	return nil
}

// OrderGuestTrip books a guest trip against the vendor, applying the
// caller's tier benefit to reduce what the wallet must cover.
func (s *Service) OrderGuestTrip(ctx context.Context, req OrderRequest) (*OrderResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	userTier, err := s.tierEngine.GetUserTier(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("read tier: %w", err)
	}
	benefit := userTier.UberBenefit

	wallet, err := s.walletRepo.GetWallet(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	requiredFunds := req.EstimatedFare - benefit
	if requiredFunds < 0 {
		requiredFunds = 0
	}
	if wallet.Balance < requiredFunds {
		return nil, domain.ErrInsufficientCoins
	}

	tripID := uuid.New()
	trip := &domain.RidehailTrip{
		ID:                   tripID,
		UserID:               req.UserID,
		ProductID:            req.ProductID,
		Status:               domain.RidehailStatusProcessing,
		EstimatedFare:        req.EstimatedFare,
		BenefitCreditApplied: benefit,
		Pickup:               req.Pickup,
		Dropoff:              req.Dropoff,
		CreatedOn:            time.Now().UTC(),
	}

	err = s.uow.Do(ctx, func(txCtx context.Context) error {
		tx := uow.Tx(txCtx)

		if requiredFunds > 0 {
			if err := s.postPairedTransaction(txCtx, tx,
				req.UserID, -requiredFunds,
				domain.SystemAccountUber, requiredFunds,
				domain.ActivityWithdrawal, fmt.Sprintf("ridehail:order:%s", tripID)); err != nil {
				return fmt.Errorf("debit user / credit uber: %w", err)
			}
		}

		if benefit > 0 {
			if err := s.repo.InsertBenefitTransaction(txCtx, tx, &domain.UberBenefitTransaction{
				ID:                repository.NewID(),
				UserID:            req.UserID,
				BenefitAmount:     benefit,
				TransactionAmount: 0,
				TransactionID:     tripID,
				CreatedOn:         time.Now().UTC(),
			}); err != nil {
				return fmt.Errorf("insert benefit transaction: %w", err)
			}
		}

		return s.repo.InsertTrip(txCtx, tx, trip)
	})
	if err != nil {
		return nil, err
	}

	vendorRequestID, err := s.vendor.BookTrip(ctx, BookingRequest{
		GuestPhone:    req.GuestPhone,
		Pickup:        req.Pickup,
		Dropoff:       req.Dropoff,
		ProductID:     req.ProductID,
		FareID:        req.FareID,
		NoteForDriver: req.NoteForDriver,
	})
	if err != nil {
		s.rollbackOrder(ctx, trip, requiredFunds, benefit)
		return nil, err
	}

	if err := s.setVendorRequestID(ctx, tripID, vendorRequestID); err != nil {
		log.Error().Err(err).Str("trip_id", tripID.String()).Msg("ridehail: persist vendor_request_id failed")
	}

	return &OrderResult{TripID: tripID, VendorRequestID: vendorRequestID, BenefitApplied: benefit}, nil
}

func (s *Service) setVendorRequestID(ctx context.Context, tripID uuid.UUID, vendorRequestID string) error {
	return s.uow.Do(ctx, func(txCtx context.Context) error {
		tx := uow.Tx(txCtx)
		trip, err := s.repo.LockTrip(txCtx, tx, tripID)
		if err != nil {
			return err
		}
		trip.VendorRequestID = vendorRequestID
		return s.repo.UpdateTrip(txCtx, tx, trip)
	})
}

// rollbackOrder reverses the order-time postings when the vendor booking
// call fails.
func (s *Service) rollbackOrder(ctx context.Context, trip *domain.RidehailTrip, requiredFunds, benefit float64) {
	err := s.uow.Do(ctx, func(txCtx context.Context) error {
		tx := uow.Tx(txCtx)

		if requiredFunds > 0 {
			if err := s.postPairedTransaction(txCtx, tx,
				trip.UserID, requiredFunds,
				domain.SystemAccountUber, -requiredFunds,
				domain.ActivityRefund, fmt.Sprintf("ridehail:order-rollback:%s", trip.ID)); err != nil {
				return err
			}
		}
		if benefit > 0 {
			if err := s.repo.InsertBenefitTransaction(txCtx, tx, &domain.UberBenefitTransaction{
				ID:                repository.NewID(),
				UserID:            trip.UserID,
				BenefitAmount:     -benefit,
				TransactionAmount: 0,
				TransactionID:     trip.ID,
				CreatedOn:         time.Now().UTC(),
			}); err != nil {
				return err
			}
		}

		locked, err := s.repo.LockTrip(txCtx, tx, trip.ID)
		if err != nil {
			return err
		}
		if err := locked.UpdateStatus(domain.RidehailStatusCancelled); err != nil {
			return err
		}
		return s.repo.UpdateTrip(txCtx, tx, locked)
	})
	if err != nil {
		log.Error().Err(err).Str("trip_id", trip.ID.String()).Msg("ridehail: order rollback failed")
	}
}

// postPairedTransaction posts offsetting PointsTransaction rows for userA
// and userB within the caller's already-open transaction. It duplicates
// Ledger.RecordTransaction's paired-posting shape rather than calling it
// directly, because RecordTransaction opens its own unit of work and the
// orchestrator needs the wallet postings, benefit row, and trip write to
// commit as one transaction.
func (s *Service) postPairedTransaction(ctx context.Context, tx pgx.Tx, userA int64, deltaA float64, userB int64, deltaB float64, activityType domain.ActivityType, note string) error {
	walletA, err := s.walletRepo.LockWallet(ctx, tx, userA)
	if err != nil {
		return fmt.Errorf("lock wallet %d: %w", userA, err)
	}
	walletB, err := s.walletRepo.LockWallet(ctx, tx, userB)
	if err != nil {
		return fmt.Errorf("lock wallet %d: %w", userB, err)
	}

	txnID := uuid.New()
	newBalanceA := walletA.Balance + deltaA
	newBalanceB := walletB.Balance + deltaB

	if err := s.walletRepo.InsertPointsTransaction(ctx, tx, &domain.PointsTransaction{
		ID: txnID, UserID: userA, ActivityType: activityType, Points: deltaA,
		Payer: &userA, Payee: &userB, Note: note, CreatedOn: walletA.UpdatedOn,
	}); err != nil {
		return err
	}
	if err := s.walletRepo.UpdateWalletBalance(ctx, tx, userA, newBalanceA); err != nil {
		return err
	}

	if err := s.walletRepo.InsertPointsTransaction(ctx, tx, &domain.PointsTransaction{
		ID: uuid.New(), UserID: userB, ActivityType: activityType, Points: deltaB,
		Payer: &userA, Payee: &userB, RefTransactionID: &txnID, Note: note, CreatedOn: walletB.UpdatedOn,
	}); err != nil {
		return err
	}
	return s.walletRepo.UpdateWalletBalance(ctx, tx, userB, newBalanceB)
}

// postSingleTransaction posts a single-sided PointsTransaction, for
// settlement legs that touch only one wallet — the user-only shortfall
// debit in the refund-with-benefit path.
func (s *Service) postSingleTransaction(ctx context.Context, tx pgx.Tx, userID int64, delta float64, activityType domain.ActivityType, note string) error {
	wallet, err := s.walletRepo.LockWallet(ctx, tx, userID)
	if err != nil {
		return fmt.Errorf("lock wallet %d: %w", userID, err)
	}
	if err := s.walletRepo.InsertPointsTransaction(ctx, tx, &domain.PointsTransaction{
		ID: uuid.New(), UserID: userID, ActivityType: activityType, Points: delta,
		Note: note, CreatedOn: wallet.UpdatedOn,
	}); err != nil {
		return err
	}
	return s.walletRepo.UpdateWalletBalance(ctx, tx, userID, wallet.Balance+delta)
}

// verifySignature checks the X-Uber-Signature header (hex HMAC-SHA256 of
// the raw body) in constant time.
func (s *Service) verifySignature(rawBody []byte, signatureHex string) bool {
	mac := hmac.New(sha256.New, []byte(s.webhookSecret))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))

	decodedExpected, err1 := hex.DecodeString(expected)
	decodedGiven, err2 := hex.DecodeString(signatureHex)
	if err1 != nil || err2 != nil {
		return false
	}
	return hmac.Equal(decodedExpected, decodedGiven)
}

// HandleWebhook verifies and applies an inbound vendor callback.
func (s *Service) HandleWebhook(ctx context.Context, rawBody []byte, signatureHex string) error {
	if !s.verifySignature(rawBody, signatureHex) {
		return domain.ErrBadWebhookSignature
	}

	var payload domain.WebhookPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		return fmt.Errorf("%w: malformed webhook body", domain.ErrInvalidRequest)
	}

	outcome := "ok"
	defer func() { metrics.RecordWebhookEvent(payload.EventType, outcome) }()

	err := s.uow.Do(ctx, func(txCtx context.Context) error {
		tx := uow.Tx(txCtx)

		trip, err := s.repo.FindTripByVendorRequestID(txCtx, tx, payload.Meta.ResourceID)
		if err != nil {
			return err
		}
		if trip.HasSeenEvent(payload.EventID) {
			log.Info().Str("event_id", payload.EventID).Msg("ridehail: duplicate webhook event, no-op")
			outcome = "duplicate"
			return nil
		}

		switch payload.EventType {
		case "guests.trips.status_changed":
			s.applyStatusChange(txCtx, trip, payload.Meta.Status)
		case "guests.trips.completed":
			if err := s.handleCompleted(ctx, txCtx, tx, trip); err != nil {
				return err
			}
		case "guests.trips.cancelled":
			if err := s.handleCancelled(txCtx, tx, trip); err != nil {
				return err
			}
		default:
			log.Warn().Str("event_type", payload.EventType).Msg("ridehail: unrecognized webhook event type")
		}

		trip.MarkEventSeen(payload.EventID)
		return s.repo.UpdateTrip(txCtx, tx, trip)
	})
	if err != nil {
		outcome = "error"
	}
	return err
}

func (s *Service) applyStatusChange(ctx context.Context, trip *domain.RidehailTrip, vendorStatus string) {
	newStatus := domain.RidehailStatus(vendorStatus)
	if err := trip.UpdateStatus(newStatus); err != nil {
		log.Warn().Str("trip_id", trip.ID.String()).Str("from", string(trip.Status)).
			Str("to", vendorStatus).Msg("ridehail: illegal status transition dropped")
		return
	}
	s.outbox.RidehailStatusNotice(ctx, trip.UserID, string(newStatus))
}

func (s *Service) handleCancelled(ctx context.Context, tx pgx.Tx, trip *domain.RidehailTrip) error {
	if trip.IsTerminal() {
		return domain.ErrRidehailAlreadyTerminal
	}
	if err := trip.UpdateStatus(domain.RidehailStatusCancelled); err != nil {
		return err
	}

	refund := trip.EstimatedFare - trip.BenefitCreditApplied
	if refund < 0 {
		refund = 0
	}
	if refund > 0 {
		if err := s.postPairedTransaction(ctx, tx,
			trip.UserID, refund,
			domain.SystemAccountUber, -refund,
			domain.ActivityRefund, fmt.Sprintf("ridehail:cancel:%s", trip.ID)); err != nil {
			return err
		}
	}
	if trip.BenefitCreditApplied > 0 {
		if err := s.repo.InsertBenefitTransaction(ctx, tx, &domain.UberBenefitTransaction{
			ID:                repository.NewID(),
			UserID:            trip.UserID,
			BenefitAmount:     -trip.BenefitCreditApplied,
			TransactionAmount: 0,
			TransactionID:     trip.ID,
			CreatedOn:         time.Now().UTC(),
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) handleCompleted(ctx, txCtx context.Context, tx pgx.Tx, trip *domain.RidehailTrip) error {
	receipt, err := s.vendor.FetchReceipt(ctx, trip.VendorTripID)
	if err != nil {
		return err
	}

	if receipt.CurrencyCode != "" && !strings.EqualFold(receipt.CurrencyCode, walletCurrency) {
		log.Warn().Str("trip_id", trip.ID.String()).Str("receipt_currency", receipt.CurrencyCode).
			Msg("ridehail: receipt currency mismatch, settlement deferred")
		return domain.ErrReceiptCurrencyMismatch
	}

	actualFare, err := parseCurrencyAmount(receipt.TotalCharged)
	if err != nil {
		log.Warn().Err(err).Str("trip_id", trip.ID.String()).Msg("ridehail: receipt amount parse failed, settlement deferred")
		return fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}

	if err := trip.UpdateStatus(domain.RidehailStatusCompleted); err != nil {
		return err
	}
	trip.ActualFare = &actualFare
	raw, _ := json.Marshal(receipt)
	trip.ReceiptBlob = string(raw)

	return s.refundWithBenefit(txCtx, tx, trip, actualFare)
}

// refundWithBenefit settles the final actual fare against the benefit
// credit applied at order time.
func (s *Service) refundWithBenefit(ctx context.Context, tx pgx.Tx, trip *domain.RidehailTrip, actualFare float64) error {
	estimatedFare := trip.EstimatedFare
	benefit := trip.BenefitCreditApplied

	userPaid := estimatedFare - benefit
	if userPaid < 0 {
		userPaid = 0
	}
	userOwes := actualFare - benefit
	if userOwes < 0 {
		userOwes = 0
	}
	userRefund := userPaid - userOwes
	benefitUsed := actualFare
	if benefit < benefitUsed {
		benefitUsed = benefit
	}

	if userRefund > 0 {
		if err := s.postPairedTransaction(ctx, tx,
			trip.UserID, userRefund,
			domain.SystemAccountUber, -userRefund,
			domain.ActivityMultiParty, fmt.Sprintf("ridehail:settle-refund:%s", trip.ID)); err != nil {
			return err
		}
	} else if userRefund < 0 {
		// User underpaid (A > E): debit the shortfall from the user alone.
		// Allowed to go negative for this activity type — the balance is
		// flagged for collection by the caller, not rejected here. Uber's
		// side is untouched; it is settled in the net-transfer step below.
		if err := s.postSingleTransaction(ctx, tx, trip.UserID, userRefund,
			domain.ActivityMultiParty, fmt.Sprintf("ridehail:settle-shortfall:%s", trip.ID)); err != nil {
			return err
		}
	}

	if benefit > 0 {
		// The +benefit deposit row was already posted at order time
		// (OrderGuestTrip); settlement only adds the offsetting usage row.
		if err := s.repo.InsertBenefitTransaction(ctx, tx, &domain.UberBenefitTransaction{
			ID: repository.NewID(), UserID: trip.UserID, BenefitAmount: -benefitUsed,
			TransactionAmount: userRefund, TransactionID: trip.ID, CreatedOn: time.Now().UTC(),
		}); err != nil {
			return err
		}
	}

	// Uber-side net settlement between the platform system account and
	// Uber. Uber was credited userPaid at order time and, if a refund was
	// already paid out to the user above, debited userRefund from that —
	// so its balance going into this step is userPaid-max(userRefund,0),
	// not userPaid outright. It must end holding exactly actualFare.
	uberBalanceBeforeNet := userPaid
	if userRefund > 0 {
		uberBalanceBeforeNet = userPaid - userRefund
	}
	delta := actualFare - uberBalanceBeforeNet
	if delta != 0 {
		if err := s.postPairedTransaction(ctx, tx,
			domain.SystemAccountPlatform, -delta,
			domain.SystemAccountUber, delta,
			domain.ActivityServiceFee, fmt.Sprintf("ridehail:settle-uber-net:%s", trip.ID)); err != nil {
			return err
		}
	}

	return nil
}

// walletCurrency is the single currency the coin wallet and purchase
// catalog operate in (internal/wallet/products.go). Receipts quoted in any
// other currency are rejected.
const walletCurrency = "USD"

// parseCurrencyAmount parses vendor strings like "$15.75" into a float.
func parseCurrencyAmount(s string) (float64, error) {
	trimmed := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	if trimmed == "" {
		return 0, errors.New("empty amount")
	}
	return strconv.ParseFloat(trimmed, 64)
}
