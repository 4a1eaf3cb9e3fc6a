package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/wallet"
)

// WalletHandler serves /wallet, /points/buy and /redeem.
type WalletHandler struct {
	wallet *wallet.Service
}

// NewWalletHandler creates a WalletHandler.
func NewWalletHandler(walletSvc *wallet.Service) *WalletHandler {
	return &WalletHandler{wallet: walletSvc}
}

// Routes registers this handler's endpoints.
func (h *WalletHandler) Routes(r chi.Router) {
	r.Get("/wallet/summary", h.Summary)
	r.Put("/wallet/setting", h.UpdateSetting)
	r.Post("/points/buy", h.BuyPoints)
	r.Post("/redeem", h.Redeem)
}

// GET /wallet/summary
func (h *WalletHandler) Summary(w http.ResponseWriter, r *http.Request) {
	wal, err := h.wallet.GetUserWallet(r.Context(), userID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"balance": map[string]any{
			"coins":  wal.Balance,
			"tokens": 0,
		},
		"auto_refill": map[string]any{
			"enabled":       wal.AutoRefill,
			"below_balance": wal.BelowBalance,
			"refill_plan_id": wal.RefillPlanID,
		},
	})
}

type updateSettingRequest struct {
	AutoRefill   bool    `json:"auto_refill"`
	BelowBalance float64 `json:"below_balance" validate:"gte=0"`
	RefillPlanID *int64  `json:"refill_plan_id"`
}

// PUT /wallet/setting
func (h *WalletHandler) UpdateSetting(w http.ResponseWriter, r *http.Request) {
	var req updateSettingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFail(w, 10003, "malformed request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		writeFail(w, 10003, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.wallet.UpdateSettings(r.Context(), userID(r), req.AutoRefill, req.BelowBalance, req.RefillPlanID); err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, req)
}

type buyPointsRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Zone      string `json:"zone"`
}

// POST /points/buy
func (h *WalletHandler) BuyPoints(w http.ResponseWriter, r *http.Request) {
	var req buyPointsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFail(w, 10003, "malformed request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		writeFail(w, 10003, err.Error(), http.StatusBadRequest)
		return
	}
	result, err := h.wallet.BuyPointProduct(r.Context(), userID(r), req.ProductID, req.Zone)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"balance": result.Balance})
}

type redeemRequest struct {
	ID string `json:"id" validate:"required"`
}

// POST /redeem
func (h *WalletHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req redeemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFail(w, 10003, "malformed request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		writeFail(w, 10003, err.Error(), http.StatusBadRequest)
		return
	}
	result, err := h.wallet.Redeem(r.Context(), userID(r), req.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"balance": result.Balance})
}
