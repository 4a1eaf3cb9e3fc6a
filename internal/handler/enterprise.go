package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/domain"
	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/enterprise"
)

// EnterpriseHandler serves /setting_carpool_email and the HTML verification
// link target.
type EnterpriseHandler struct {
	enterprise *enterprise.Service
}

// NewEnterpriseHandler creates an EnterpriseHandler.
func NewEnterpriseHandler(enterpriseSvc *enterprise.Service) *EnterpriseHandler {
	return &EnterpriseHandler{enterprise: enterpriseSvc}
}

// Routes registers the authenticated endpoint.
func (h *EnterpriseHandler) Routes(r chi.Router) {
	r.Post("/setting_carpool_email", h.RequestVerification)
}

// PublicRoutes registers the unauthenticated HTML verification endpoint.
func (h *EnterpriseHandler) PublicRoutes(r chi.Router) {
	r.Get("/verify_carpool_email.html", h.VerifyEmail)
}

type carpoolEmailRequest struct {
	Email      string `json:"email" validate:"required,email"`
	VerifyType string `json:"verify_type" validate:"required,oneof=plain carpool"`
	GroupID    string `json:"group_id"`
}

// POST /setting_carpool_email
func (h *EnterpriseHandler) RequestVerification(w http.ResponseWriter, r *http.Request) {
	var req carpoolEmailRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFail(w, 10003, "malformed request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		writeFail(w, 10003, err.Error(), http.StatusBadRequest)
		return
	}

	err := h.enterprise.RequestCarpoolEmailVerification(r.Context(), enterprise.VerificationRequest{
		UserID:     userID(r),
		Email:      req.Email,
		VerifyType: domain.VerifyType(req.VerifyType),
		GroupID:    req.GroupID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"email": req.Email})
}

// GET /verify_carpool_email.html?verify_token=… — no JWT; renders HTML,
// never the JSON envelope, per the vendor-style email link this replaces.
func (h *EnterpriseHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("verify_token")
	page := h.enterprise.VerifyEmail(r.Context(), token)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(page))
}
