// Package ledger implements the platform's append-only points ledger: the
// one component every higher-level service calls into, and the only
// component that mutates user_wallet balances. It is a leaf component
// with no dependencies on the services that call it.
package ledger

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/domain"
	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/metrics"
	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/repository"
	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/uow"
)

// Ledger records points transactions with per-user serialization.
type Ledger struct {
	repo *repository.LedgerRepository
	uow  *uow.UnitOfWork
}

// New creates a Ledger.
func New(repo *repository.LedgerRepository, unitOfWork *uow.UnitOfWork) *Ledger {
	return &Ledger{repo: repo, uow: unitOfWork}
}

// Result is the outcome of RecordTransaction.
type Result struct {
	Balance       float64
	TransactionID uuid.UUID
}

// RecordTransaction posts a signed points movement. If both payer and payee
// are supplied, it posts a paired transaction atomically (one row per side)
// and returns the userID side's balance.
//
// The row-level lock on user_wallet (acquired via repo.LockWallet inside
// the unit of work) is what makes concurrent writes against the same user
// serialize while writes against distinct users proceed independently.
func (l *Ledger) RecordTransaction(
	ctx context.Context,
	userID int64,
	activityType domain.ActivityType,
	points float64,
	note string,
	idempotencyKey *string,
	payer, payee *int64,
	refTransactionID *uuid.UUID,
) (*Result, error) {
	var result Result

	err := l.uow.Do(ctx, func(txCtx context.Context) error {
		tx := uow.Tx(txCtx)

		wallet, err := l.repo.LockWallet(txCtx, tx, userID)
		if err != nil {
			return fmt.Errorf("lock wallet: %w", err)
		}

		txnID := uuid.New()
		newBalance := wallet.Balance + points

		if err := l.repo.InsertPointsTransaction(txCtx, tx, &domain.PointsTransaction{
			ID:               txnID,
			UserID:           userID,
			ActivityType:     activityType,
			Points:           points,
			Payer:            payer,
			Payee:            payee,
			RefTransactionID: refTransactionID,
			Note:             note,
			IdempotencyKey:   idempotencyKey,
			CreatedOn:        wallet.UpdatedOn,
		}); err != nil {
			return fmt.Errorf("insert points transaction: %w", err)
		}

		if err := l.repo.UpdateWalletBalance(txCtx, tx, userID, newBalance); err != nil {
			return fmt.Errorf("update wallet balance: %w", err)
		}

		// Paired multi-party leg: debit/credit the counterparty within the
		// same logical operation. Each side still serializes on its own
		// user_wallet row lock, acquired in turn.
		if payer != nil && payee != nil {
			counterparty := *payee
			counterpartyDelta := -points
			if userID == *payee {
				counterparty = *payer
				counterpartyDelta = -points
			}

			cWallet, err := l.repo.LockWallet(txCtx, tx, counterparty)
			if err != nil {
				return fmt.Errorf("lock counterparty wallet: %w", err)
			}
			cBalance := cWallet.Balance + counterpartyDelta

			if err := l.repo.InsertPointsTransaction(txCtx, tx, &domain.PointsTransaction{
				ID:               uuid.New(),
				UserID:           counterparty,
				ActivityType:     activityType,
				Points:           counterpartyDelta,
				Payer:            payer,
				Payee:            payee,
				RefTransactionID: &txnID,
				Note:             note,
				CreatedOn:        cWallet.UpdatedOn,
			}); err != nil {
				return fmt.Errorf("insert counterparty transaction: %w", err)
			}
			if err := l.repo.UpdateWalletBalance(txCtx, tx, counterparty, cBalance); err != nil {
				return fmt.Errorf("update counterparty balance: %w", err)
			}
		}

		result = Result{Balance: newBalance, TransactionID: txnID}
		return nil
	})

	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("ledger: record transaction failed")
		return nil, err
	}

	metrics.RecordLedgerTransaction(strconv.Itoa(int(activityType)))
	return &result, nil
}
