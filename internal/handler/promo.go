package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/promo"
)

// PromoHandler serves /promocode.
type PromoHandler struct {
	promo *promo.Service
}

// NewPromoHandler creates a PromoHandler.
func NewPromoHandler(promoSvc *promo.Service) *PromoHandler {
	return &PromoHandler{promo: promoSvc}
}

// Routes registers this handler's endpoints.
func (h *PromoHandler) Routes(r chi.Router) {
	r.Post("/promocode", h.Redeem)
}

type promoRequest struct {
	PromoCode string `json:"promo_code" validate:"required"`
}

// POST /promocode
func (h *PromoHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req promoRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFail(w, 10003, "malformed request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		writeFail(w, 10003, err.Error(), http.StatusBadRequest)
		return
	}
	result, err := h.promo.Redeem(r.Context(), req.PromoCode, userID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"type":  result.Type,
		"toast": "Promo code applied: " + string(result.Type),
	})
}
