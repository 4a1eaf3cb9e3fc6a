// Package enterprise implements the Enterprise Verifier: corporate-email
// verification gating carpool group membership.
package enterprise

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/domain"
	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/notify"
	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/repository"
)

// tokenExpiry is how long a pending verification link stays valid.
const tokenExpiry = 24 * time.Hour

// Service resolves enterprise membership and drives the email-verification
// handshake.
type Service struct {
	repo      *repository.EnterpriseRepository
	outbox    *notify.Outbox
	verifyURL string // base URL the verification link is appended to
}

// New creates an Enterprise Verifier.
func New(repo *repository.EnterpriseRepository, outbox *notify.Outbox, verifyURL string) *Service {
	return &Service{repo: repo, outbox: outbox, verifyURL: verifyURL}
}

// VerificationRequest is requestCarpoolEmailVerification's input.
type VerificationRequest struct {
	UserID     int64
	Email      string
	VerifyType domain.VerifyType
	GroupID    string // required when VerifyType == carpool
}

func emailDomain(email string) string {
	parts := strings.SplitN(email, "@", 2)
	if len(parts) != 2 {
		return ""
	}
	return strings.ToLower(parts[1])
}

// RequestCarpoolEmailVerification resolves candidate enterprises, validates
// the carpool group scope, rejects duplicate or blocked emails, and either
// joins directly (already verified) or sends a fresh verification link.
func (s *Service) RequestCarpoolEmailVerification(ctx context.Context, req VerificationRequest) error {
	domainPart := emailDomain(req.Email)
	if domainPart == "" {
		return domain.ErrInvalidRequest
	}

	enterpriseIDs, err := s.repo.EnterpriseIDsForEmail(ctx, req.Email, domainPart)
	if err != nil {
		return err
	}
	if len(enterpriseIDs) == 0 {
		return domain.ErrEnterpriseNotFound
	}

	if req.VerifyType == domain.VerifyTypeCarpool {
		belongs, err := s.repo.GroupBelongsToEnterprise(ctx, req.GroupID, enterpriseIDs)
		if err != nil {
			return err
		}
		if !belongs {
			return domain.ErrForbidden
		}
	}

	if _, err := s.repo.FindVerifiedOther(ctx, req.Email, req.UserID); err == nil {
		return domain.ErrEmailAlreadyVerified
	} else if !errors.Is(err, domain.ErrEnterpriseNotFound) {
		return err
	}

	blocked, err := s.repo.IsBlocked(ctx, req.Email, enterpriseIDs)
	if err != nil {
		return err
	}
	if blocked {
		return domain.ErrForbidden
	}

	if existing, err := s.repo.FindVerifiedForUser(ctx, req.Email, req.UserID, enterpriseIDs); err == nil {
		return s.joinEnterpriseGroup(ctx, existing.UserID, req.GroupID)
	} else if !errors.Is(err, domain.ErrEnterpriseNotFound) {
		return err
	}

	token, err := generateToken()
	if err != nil {
		return err
	}
	now := repository.Now()
	pending := &domain.Enterprise{
		Email:              req.Email,
		UserID:             req.UserID,
		EnterpriseID:       enterpriseIDs[0],
		VerificationToken:  token,
		VerificationStatus: domain.VerificationStatusPending,
		ExpiresOn:          now.Add(tokenExpiry),
		CreatedOn:          now,
	}
	if req.VerifyType == domain.VerifyTypeCarpool {
		groupID, parseErr := uuid.Parse(req.GroupID)
		if parseErr != nil {
			return domain.ErrInvalidRequest
		}
		pending.GroupID = &groupID
	}

	if err := s.repo.UpsertPending(ctx, pending); err != nil {
		return err
	}

	verifyURL := fmt.Sprintf("%s?verify_token=%s", s.verifyURL, token)
	s.outbox.VerificationEmail(ctx, req.UserID, req.Email, verifyURL)
	return nil
}

// VerifyEmail resolves a verification token, marking the row verified and
// joining the group it names. Returns the HTML page to render — success or
// error — never a JSON error.
func (s *Service) VerifyEmail(ctx context.Context, token string) string {
	row, err := s.repo.FindByToken(ctx, token)
	if err != nil {
		return errorPage("This verification link is invalid.")
	}
	if repository.Now().After(row.ExpiresOn) {
		return errorPage("This verification link has expired. Please request a new one.")
	}

	if err := s.repo.MarkVerified(ctx, row.Email, row.EnterpriseID); err != nil {
		return errorPage("Something went wrong verifying your email. Please try again.")
	}

	groupID := ""
	if row.GroupID != nil {
		groupID = row.GroupID.String()
	}
	if groupID != "" {
		if err := s.joinEnterpriseGroup(ctx, row.UserID, groupID); err != nil {
			return errorPage("Your email was verified, but we couldn't add you to the carpool group.")
		}
	}
	return successPage()
}

// joinEnterpriseGroup is idempotent: re-joining an already-accepted group
// is a no-op.
func (s *Service) joinEnterpriseGroup(ctx context.Context, userID int64, groupID string) error {
	if groupID == "" {
		return nil
	}
	return s.repo.JoinGroup(ctx, userID, groupID)
}

func generateToken() (string, error) {
	buf := make([]byte, 48) // base64url-encodes to 64 chars
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf)[:64], nil
}

func successPage() string {
	return `<!DOCTYPE html><html><head><title>Email Verified</title></head>` +
		`<body><h1>Your email has been verified.</h1>` +
		`<p>You can return to the app and continue setting up your carpool group.</p></body></html>`
}

func errorPage(message string) string {
	return `<!DOCTYPE html><html><head><title>Verification Failed</title></head>` +
		`<body><h1>We couldn't verify your email.</h1><p>` + message + `</p></body></html>`
}
