package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/referral"
)

// ReferralHandler serves /referral.
type ReferralHandler struct {
	referral *referral.Service
}

// NewReferralHandler creates a ReferralHandler.
func NewReferralHandler(referralSvc *referral.Service) *ReferralHandler {
	return &ReferralHandler{referral: referralSvc}
}

// Routes registers this handler's endpoints.
func (h *ReferralHandler) Routes(r chi.Router) {
	r.Post("/referral", h.Redeem)
}

type referralRequest struct {
	ReferralCode string `json:"referral_code" validate:"required"`
}

// POST /referral
func (h *ReferralHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req referralRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFail(w, 10003, "malformed request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		writeFail(w, 10003, err.Error(), http.StatusBadRequest)
		return
	}
	result, err := h.referral.Redeem(r.Context(), req.ReferralCode, userID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"referral_id": result.ReferralID,
		"toast":       result.Toast,
	})
}
