package domain

import "errors"

// Domain errors
var (
	// General errors
	ErrInvalidRequest = errors.New("invalid request")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrInternal       = errors.New("internal server error")

	// Trip errors
	ErrTripNotFound = errors.New("trip not found")

	// Ledger / wallet errors
	ErrUserCoinSuspended  = errors.New("user coin account is suspended")
	ErrDailyPurchaseLimit = errors.New("daily purchase limit exceeded")
	ErrInsufficientCoins  = errors.New("insufficient coin balance")
	ErrPlanNotFound       = errors.New("refill plan not found")
	ErrDailyRedeemLimit   = errors.New("daily redeem limit exceeded")

	// Ridehail orchestrator errors
	ErrRidehailTripNotFound      = errors.New("ridehail trip not found")
	ErrInvalidRidehailTransition = errors.New("invalid ridehail status transition")
	ErrRidehailAlreadyTerminal   = errors.New("ridehail trip already in a terminal state")
	ErrBadWebhookSignature       = errors.New("invalid webhook signature")
	ErrDuplicateWebhookEvent     = errors.New("duplicate webhook event")
	ErrReceiptCurrencyMismatch   = errors.New("receipt currency does not match wallet currency")
	ErrVendorAuth                = errors.New("vendor authentication failed")
	ErrVendorUnavailable         = errors.New("vendor service unavailable")
	ErrVendorDuplicateSession    = errors.New("vendor duplicate session")
	ErrVendorPayment             = errors.New("vendor payment error")

	// Trip validator errors
	ErrInsufficientTrajectory = errors.New("insufficient trajectory data")
	ErrValidationRoundLimit   = errors.New("validation round limit reached")

	// Incentive engine errors
	ErrNoActiveIncentiveRule = errors.New("no active incentive rule for market")
	ErrLocationOutOfService  = errors.New("location is outside service area")

	// Enterprise verifier errors
	ErrEnterpriseNotFound       = errors.New("enterprise not found for email domain")
	ErrGroupNotFound            = errors.New("carpool group not found")
	ErrEmailAlreadyVerified     = errors.New("email already verified for another user")
	ErrEmailBlocked             = errors.New("email is blocked for this enterprise")
	ErrVerificationTokenExpired = errors.New("verification token expired")
	ErrVerificationTokenInvalid = errors.New("verification token invalid")

	// Referral errors
	ErrReferralExpired        = errors.New("referral window has expired")
	ErrReferralAlreadyClaimed = errors.New("referral already claimed for this account")
	ErrReferralSelfReferral   = errors.New("cannot refer yourself")
	ErrReferralCodeInvalid    = errors.New("invalid referral code")

	// Promo code errors
	ErrPromoCodeInvalid     = errors.New("invalid or expired promo code")
	ErrPromoCodeAlreadyUsed = errors.New("promo code already used")
)

// APICode is the numeric error code surfaced in the {result:"fail",
// error:{code,msg}} envelope. Namespaces: 100xx transport/auth, 200xx
// user/resource, 230xx wallet, 470xx referral, 460xx promo, 210xx carpool
// group, 402xx vendor.
type APICode int

const (
	CodeMalformedRequest APICode = 10001
	CodeMissingHeader    APICode = 10002
	CodeMissingField     APICode = 10003
	CodeBadAuth          APICode = 10004

	CodeNotFound           APICode = 20001
	CodeGroupNotFound      APICode = 21003
	CodeGroupPending       APICode = 21005
	CodeGroupAccepted      APICode = 21006
	CodeGroupRejected      APICode = 21008
	CodeGroupAlreadyJoined APICode = 21009
	CodeGroupRemoved       APICode = 21016

	CodePlanNotFound           APICode = 23008
	CodeInsufficientCoins      APICode = 23018
	CodeUserCoinSuspended      APICode = 23032
	CodeDailyRedeemLimit       APICode = 23034
	CodeCoinPurchaseDailyLimit APICode = 23034

	CodeVendorAuth             APICode = 40202
	CodeVendorService          APICode = 40205
	CodeVendorDuplicateSession APICode = 40210
	CodeVendorPayment          APICode = 40211

	CodePromoInvalid     APICode = 46001
	CodePromoAlreadyUsed APICode = 46002

	CodeReferralInvalidCode    APICode = 47001
	CodeReferralSelf           APICode = 47002
	CodeReferralAlreadyClaimed APICode = 47003
	CodeReferralExpired        APICode = 47004
	CodeReferralVendorError    APICode = 47005
)

// CodeForError maps a sentinel domain error to its numeric API code and
// HTTP status. Unmapped errors fall through to a 500 with no stable code.
func CodeForError(err error) (code APICode, httpStatus int, ok bool) {
	switch {
	case errors.Is(err, ErrUserCoinSuspended):
		return CodeUserCoinSuspended, 403, true
	case errors.Is(err, ErrDailyPurchaseLimit):
		return CodeCoinPurchaseDailyLimit, 400, true
	case errors.Is(err, ErrInsufficientCoins):
		return CodeInsufficientCoins, 400, true
	case errors.Is(err, ErrPlanNotFound):
		return CodePlanNotFound, 404, true
	case errors.Is(err, ErrDailyRedeemLimit):
		return CodeDailyRedeemLimit, 400, true
	case errors.Is(err, ErrVendorAuth):
		return CodeVendorAuth, 502, true
	case errors.Is(err, ErrVendorUnavailable):
		return CodeVendorService, 503, true
	case errors.Is(err, ErrVendorDuplicateSession):
		return CodeVendorDuplicateSession, 409, true
	case errors.Is(err, ErrVendorPayment):
		return CodeVendorPayment, 402, true
	case errors.Is(err, ErrPromoCodeInvalid):
		return CodePromoInvalid, 400, true
	case errors.Is(err, ErrPromoCodeAlreadyUsed):
		return CodePromoAlreadyUsed, 400, true
	case errors.Is(err, ErrReferralCodeInvalid):
		return CodeReferralInvalidCode, 400, true
	case errors.Is(err, ErrReferralSelfReferral):
		return CodeReferralSelf, 400, true
	case errors.Is(err, ErrReferralAlreadyClaimed):
		return CodeReferralAlreadyClaimed, 400, true
	case errors.Is(err, ErrReferralExpired):
		return CodeReferralExpired, 400, true
	case errors.Is(err, ErrGroupNotFound):
		return CodeGroupNotFound, 404, true
	case errors.Is(err, ErrEnterpriseNotFound):
		return CodeNotFound, 404, true
	case errors.Is(err, ErrEmailAlreadyVerified):
		return CodeGroupAlreadyJoined, 409, true
	case errors.Is(err, ErrEmailBlocked):
		return CodeBadAuth, 403, true
	case errors.Is(err, ErrTripNotFound), errors.Is(err, ErrRidehailTripNotFound):
		return CodeNotFound, 404, true
	case errors.Is(err, ErrLocationOutOfService):
		return CodeNotFound, 422, true
	case errors.Is(err, ErrUnauthorized):
		return CodeBadAuth, 401, true
	case errors.Is(err, ErrForbidden):
		return CodeBadAuth, 403, true
	case errors.Is(err, ErrInvalidRequest):
		return CodeMalformedRequest, 400, true
	default:
		return 0, 500, false
	}
}
