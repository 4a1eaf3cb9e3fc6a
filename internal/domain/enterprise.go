package domain

import (
	"time"

	"github.com/google/uuid"
)

// VerificationStatus is the state of an Enterprise email-verification row.
type VerificationStatus string

const (
	VerificationStatusPending VerificationStatus = "pending"
	VerificationStatusSuccess VerificationStatus = "success"
)

// VerifyType distinguishes a plain corporate-email verification from one
// that also requires joining a specific carpool group.
type VerifyType string

const (
	VerifyTypePlain    VerifyType = "plain"
	VerifyTypeCarpool  VerifyType = "carpool"
)

// EnterpriseDomain maps a corporate email domain to an enterprise_id.
type EnterpriseDomain struct {
	EnterpriseID string `json:"enterprise_id"`
	Domain       string `json:"domain"`
}

// DuoGroup is a carpool group, optionally scoped to an enterprise.
type DuoGroup struct {
	GroupID      uuid.UUID `json:"group_id"`
	EnterpriseID *string   `json:"enterprise_id,omitempty"`
	Name         string    `json:"name"`
	CreatedOn    time.Time `json:"created_on"`
}

// Enterprise is a per-email verification row linking a user to an
// enterprise and, via VerificationToken, tracking the pending verification
// flow.
type Enterprise struct {
	Email              string              `json:"email"`
	UserID             int64               `json:"user_id"`
	EnterpriseID       string              `json:"enterprise_id"`
	GroupID            *uuid.UUID          `json:"group_id,omitempty"`
	VerificationToken  string              `json:"verification_token,omitempty"`
	VerificationStatus VerificationStatus  `json:"verification_status"`
	ExpiresOn          time.Time           `json:"expires_on"`
	CreatedOn          time.Time           `json:"created_on"`
}

// EnterpriseInvite is a direct, out-of-band invitation for an email address
// to join an enterprise regardless of domain match.
type EnterpriseInvite struct {
	Email        string `json:"email"`
	EnterpriseID string `json:"enterprise_id"`
}

// EnterpriseBlock denylists an email from joining an enterprise's groups.
type EnterpriseBlock struct {
	Email        string `json:"email"`
	EnterpriseID string `json:"enterprise_id"`
	IsBlocked    bool   `json:"is_blocked"`
}

// GroupMembershipStatus is the state of a user's DuoGroup membership.
type GroupMembershipStatus string

const (
	MembershipAccepted GroupMembershipStatus = "accepted"
)

// GroupMembership links a user to a DuoGroup.
type GroupMembership struct {
	UserID    int64                 `json:"user_id"`
	GroupID   uuid.UUID             `json:"group_id"`
	Status    GroupMembershipStatus `json:"status"`
	JoinedOn  time.Time             `json:"joined_on"`
}

// ReferralHistory records a successful referral. Invariant: at most one row
// per ReceiverUserID.
type ReferralHistory struct {
	ID             uuid.UUID `json:"id"`
	SenderUserID   int64     `json:"sender_user_id"`
	ReceiverUserID int64     `json:"receiver_user_id"`
	ReferralCode   string    `json:"referral_code"`
	RewardAmount   float64   `json:"reward_amount"`
	CreatedOn      time.Time `json:"created_on"`
}

// ReferralWindowDays is the number of days after account creation during
// which a referral code may still be redeemed.
const ReferralWindowDays = 5
