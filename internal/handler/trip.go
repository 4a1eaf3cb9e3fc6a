package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/domain"
	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/trip"
)

// TripHandler serves /trip/start and /trip/end.
type TripHandler struct {
	trip *trip.Service
}

// NewTripHandler creates a TripHandler.
func NewTripHandler(tripSvc *trip.Service) *TripHandler {
	return &TripHandler{trip: tripSvc}
}

// Routes registers this handler's endpoints.
func (h *TripHandler) Routes(r chi.Router) {
	r.Post("/trip/start", h.Start)
	r.Post("/trip/end", h.End)
}

type startTripRequest struct {
	TravelMode         int             `json:"travel_mode" validate:"required"`
	Market             string          `json:"market"`
	Origin             locationRequest `json:"origin" validate:"required"`
	Destination        locationRequest `json:"destination" validate:"required"`
	EstimatedArrivalOn time.Time       `json:"estimated_arrival_on"`
	TripDetailUUID     string          `json:"trip_detail_uuid"`
	NavigationApp      string          `json:"navigation_app"`
}

// POST /trip/start
func (h *TripHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startTripRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFail(w, 10003, "malformed request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		writeFail(w, 10003, err.Error(), http.StatusBadRequest)
		return
	}

	tripID, err := h.trip.Start(r.Context(), trip.StartRequest{
		UserID:             userID(r),
		TravelMode:         domain.TravelMode(req.TravelMode),
		Market:             req.Market,
		Origin:             req.Origin.toDomain(),
		Destination:        req.Destination.toDomain(),
		EstimatedArrivalOn: req.EstimatedArrivalOn,
		TripDetailUUID:     req.TripDetailUUID,
		NavigationApp:      req.NavigationApp,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, map[string]any{"trip_id": tripID})
}

type endTripRequest struct {
	TripID   string  `json:"trip_id" validate:"required"`
	Distance float64 `json:"distance" validate:"gte=0"`
	EndedOn  time.Time `json:"ended_on" validate:"required"`
}

// POST /trip/end
func (h *TripHandler) End(w http.ResponseWriter, r *http.Request) {
	var req endTripRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFail(w, 10003, "malformed request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		writeFail(w, 10003, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.trip.End(r.Context(), req.TripID, req.Distance, req.EndedOn)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"trip_id": result.TripID,
		"mode":    result.TravelMode,
	})
}
