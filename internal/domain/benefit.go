package domain

import (
	"time"

	"github.com/google/uuid"
)

// TierLevel is the user's reward-tier classification.
type TierLevel string

const (
	TierGreen  TierLevel = "green"
	TierBronze TierLevel = "bronze"
	TierSilver TierLevel = "silver"
	TierGold   TierLevel = "gold"
)

// TierForPoints derives a tier level from accumulated points using the
// platform's static thresholds.
func TierForPoints(points float64) TierLevel {
	switch {
	case points >= 1501:
		return TierGold
	case points >= 1001:
		return TierSilver
	case points >= 501:
		return TierBronze
	default:
		return TierGreen
	}
}

// uberBenefitDeposits are the static monthly ride-credit deposits per tier,
// in USD.
var uberBenefitDeposits = map[TierLevel]float64{
	TierGreen:  0,
	TierBronze: 4,
	TierSilver: 6,
	TierGold:   8,
}

// UberBenefitDeposit returns the static monthly deposit for a tier.
func UberBenefitDeposit(level TierLevel) float64 {
	return uberBenefitDeposits[level]
}

// BenefitRules is the static per-tier rule table returned by
// GetUserTierBenefits.
type BenefitRules struct {
	Level          TierLevel `json:"level"`
	RaffleMult     float64   `json:"raffle_multiplier"`
	ReferralMult   float64   `json:"referral_multiplier"`
	UberCredit     float64   `json:"uber_credit"`
	ToastTemplate  string    `json:"toast_template"`
}

var benefitRuleTable = map[TierLevel]BenefitRules{
	TierGreen:  {TierGreen, 1.0, 1.00, 0, "We've added {1} Coin{2} to your Wallet!"},
	TierBronze: {TierBronze, 2.0, 1.15, 4, "We've added {1} Coin{2} to your Wallet!"},
	TierSilver: {TierSilver, 3.0, 1.25, 6, "We've added {1} Coin{2} to your Wallet!"},
	TierGold:   {TierGold, 4.0, 1.50, 8, "We've added {1} Coin{2} to your Wallet!"},
}

// BenefitRulesFor returns the static rule table for a tier level. Unknown
// levels fall back to green.
func BenefitRulesFor(level TierLevel) BenefitRules {
	rules, ok := benefitRuleTable[level]
	if !ok {
		return benefitRuleTable[TierGreen]
	}
	return rules
}

// UserTier is the cached result of an external incentive-hook lookup.
type UserTier struct {
	UserID       int64     `json:"user_id"`
	Level        TierLevel `json:"level"`
	Points       float64   `json:"points"`
	UberBenefit  float64   `json:"uber_benefit"`
	FetchedAt    time.Time `json:"fetched_at"`
}

// UberBenefitTransaction is an independent ledger of ride-credit deposits
// and usage, separate from the coin wallet.
type UberBenefitTransaction struct {
	ID                uuid.UUID `json:"id"`
	UserID            int64     `json:"user_id"`
	BenefitAmount     float64   `json:"benefit_amount"`
	TransactionAmount float64   `json:"transaction_amount"`
	TransactionID     uuid.UUID `json:"transaction_id"`
	CreatedOn         time.Time `json:"created_on"`
}
