package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/domain"
	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/ridehail"
)

// RidehailHandler serves /ridehail/* and the vendor webhook.
type RidehailHandler struct {
	ridehail *ridehail.Service
}

// NewRidehailHandler creates a RidehailHandler.
func NewRidehailHandler(ridehailSvc *ridehail.Service) *RidehailHandler {
	return &RidehailHandler{ridehail: ridehailSvc}
}

// Routes registers the authenticated endpoints.
func (h *RidehailHandler) Routes(r chi.Router) {
	r.Post("/ridehail/estimate", h.Estimate)
	r.Post("/ridehail/order", h.Order)
}

// WebhookRoutes registers the unauthenticated vendor webhook.
func (h *RidehailHandler) WebhookRoutes(r chi.Router) {
	r.Post("/webhook/uber", h.Webhook)
}

type locationRequest struct {
	Lat     float64 `json:"lat" validate:"required"`
	Lng     float64 `json:"lng" validate:"required"`
	Name    string  `json:"name"`
	Address string  `json:"address"`
}

func (l locationRequest) toDomain() domain.Location {
	return domain.Location{Lat: l.Lat, Lng: l.Lng, Name: l.Name, Address: l.Address}
}

type estimateRequest struct {
	Pickup  locationRequest `json:"pickup" validate:"required"`
	Dropoff locationRequest `json:"dropoff" validate:"required"`
}

// POST /ridehail/estimate
func (h *RidehailHandler) Estimate(w http.ResponseWriter, r *http.Request) {
	var req estimateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFail(w, 10003, "malformed request body", http.StatusBadRequest)
		return
	}
	products, err := h.ridehail.Estimate(r.Context(), req.Pickup.toDomain(), req.Dropoff.toDomain())
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, products)
}

type ridehailTripRequest struct {
	ProductID     string  `json:"product_id" validate:"required"`
	FareID        string  `json:"fare_id" validate:"required"`
	NoteForDriver string  `json:"note_for_driver"`
	EstimatedFare float64 `json:"estimated_fare" validate:"required,gt=0"`
}

type orderRequest struct {
	Guest struct {
		Phone string `json:"phone" validate:"required"`
	} `json:"guest" validate:"required"`
	Pickup      locationRequest     `json:"pickup" validate:"required"`
	Dropoff     locationRequest     `json:"dropoff" validate:"required"`
	RidehailTrip ridehailTripRequest `json:"ridehail_trip" validate:"required"`
}

// POST /ridehail/order
func (h *RidehailHandler) Order(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFail(w, 10003, "malformed request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		writeFail(w, 10003, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.ridehail.OrderGuestTrip(r.Context(), ridehail.OrderRequest{
		UserID:        userID(r),
		GuestPhone:    req.Guest.Phone,
		Pickup:        req.Pickup.toDomain(),
		Dropoff:       req.Dropoff.toDomain(),
		ProductID:     req.RidehailTrip.ProductID,
		FareID:        req.RidehailTrip.FareID,
		NoteForDriver: req.RidehailTrip.NoteForDriver,
		EstimatedFare: req.RidehailTrip.EstimatedFare,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"trip_id":          result.TripID,
		"uber_request_id":  result.VendorRequestID,
		"benefit_applied":  result.BenefitApplied,
	})
}

// POST /webhook/uber — no JWT; authenticated by HMAC signature instead.
func (h *RidehailHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := readAll(r)
	if err != nil {
		writeFail(w, 10003, "could not read request body", http.StatusBadRequest)
		return
	}
	signature := r.Header.Get("X-Uber-Signature")
	if err := h.ridehail.HandleWebhook(r.Context(), body, signature); err != nil {
		if errors.Is(err, domain.ErrBadWebhookSignature) {
			writeFail(w, 10001, "bad signature", http.StatusUnauthorized)
			return
		}
		// Non-signature failures return 500 so the vendor retries; the
		// handler itself is idempotent on event_id.
		writeFail(w, 0, "internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}
