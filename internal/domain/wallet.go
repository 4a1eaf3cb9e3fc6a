package domain

import (
	"time"

	"github.com/google/uuid"
)

// ActivityType enumerates the economic reason behind a points transaction.
// It never affects balance arithmetic; it is persisted for auditing only.
type ActivityType int

const (
	ActivityPurchase       ActivityType = 2
	ActivityDebit          ActivityType = 3
	ActivityReward         ActivityType = 4
	ActivityRefund         ActivityType = 5
	ActivityIncentive      ActivityType = 6
	ActivityServiceFee     ActivityType = 8
	ActivityWithdrawal     ActivityType = 11
	ActivityMultiParty     ActivityType = 18
)

// Reserved system account user IDs (2000-2199).
const (
	SystemAccountPlatform   = 2002
	SystemAccountTxnFee     = 2104
	SystemAccountParkingFee = 2105
	SystemAccountUber       = 2107
)

// UserWallet is the lazily-created, never-deleted per-user wallet record.
// balance is a materialized cache of Σ points_transaction.points for the
// user, kept in lockstep with the last transaction write in the same
// database transaction.
type UserWallet struct {
	UserID            int64      `json:"user_id"`
	Balance           float64    `json:"balance"`
	AutoRefill        bool       `json:"auto_refill"`
	BelowBalance      float64    `json:"below_balance"`
	RefillPlanID      *int64     `json:"refill_plan_id,omitempty"`
	PaymentCustomerID *string    `json:"payment_customer_id,omitempty"`
	CreatedOn         time.Time  `json:"created_on"`
	UpdatedOn         time.Time  `json:"updated_on"`
}

// NewUserWallet creates an empty wallet for lazy first-read creation.
func NewUserWallet(userID int64) *UserWallet {
	now := time.Now().UTC()
	return &UserWallet{
		UserID:    userID,
		Balance:   0,
		CreatedOn: now,
		UpdatedOn: now,
	}
}

// PointsTransaction is an append-only, immutable ledger row.
type PointsTransaction struct {
	ID              uuid.UUID    `json:"id"`
	UserID          int64        `json:"user_id"`
	ActivityType    ActivityType `json:"activity_type"`
	Points          float64      `json:"points"`
	Payer           *int64       `json:"payer,omitempty"`
	Payee           *int64       `json:"payee,omitempty"`
	RefTransactionID *uuid.UUID  `json:"ref_transaction_id,omitempty"`
	Note            string       `json:"note,omitempty"`
	IdempotencyKey  *string      `json:"idempotency_key,omitempty"`
	CreatedOn       time.Time    `json:"created_on"`
}

// TokenTransaction parallels PointsTransaction for the campaign-issued,
// expirable secondary currency.
type TokenTransaction struct {
	ID           uuid.UUID    `json:"id"`
	UserID       int64        `json:"user_id"`
	CampaignID   string       `json:"campaign_id"`
	ActivityType ActivityType `json:"activity_type"`
	Tokens       float64      `json:"tokens"`
	Balance      float64      `json:"balance"`
	IssuedOn     time.Time    `json:"issued_on"`
	ExpiredOn    time.Time    `json:"expired_on"`
	Note         string       `json:"note,omitempty"`
	CreatedOn    time.Time    `json:"created_on"`
}

// IsExpired reports whether the token balance represented by this
// transaction is unspendable (expired but retained for history).
func (t *TokenTransaction) IsExpired(at time.Time) bool {
	return at.After(t.ExpiredOn)
}

// PurchaseTransaction records an external card charge that fed an
// auto-refill or manual coin purchase.
type PurchaseTransaction struct {
	ID                   uuid.UUID `json:"id"`
	UserID               int64     `json:"user_id"`
	PointTransactionID   uuid.UUID `json:"point_transaction_id"`
	Points               float64   `json:"points"`
	Amount               float64   `json:"amount"`
	Currency             string    `json:"currency"`
	ExternalTransactionID string   `json:"external_transaction_id"`
	CreatedOn            time.Time `json:"created_on"`
}

// BlockedUser records a coin-suspension. Presence of a row with
// IsDeleted=false forbids any negative/debit-like transaction for the user.
type BlockedUser struct {
	UserID    int64     `json:"user_id"`
	IsDeleted bool      `json:"is_deleted"`
	CreatedOn time.Time `json:"created_on"`
}

// PointProduct is a purchasable coin bundle offered to the wallet service.
type PointProduct struct {
	ProductID string
	Points    float64
	Amount    float64
	Currency  string
}
