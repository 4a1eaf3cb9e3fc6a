// Package ridehail implements the Ride-Hailing Orchestrator: guest-trip
// estimates and bookings against the external ride-hail vendor, webhook
// intake, and actual-fare settlement against the tier benefit.
package ridehail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/domain"
)

// Vendor is the external ride-hail provider's booking surface. Modeled as
// an interface so the orchestrator can be exercised against a fake in
// tests without an HTTP dependency.
type Vendor interface {
	Estimate(ctx context.Context, pickup, dropoff domain.Location) ([]domain.Product, error)
	BookTrip(ctx context.Context, req BookingRequest) (vendorRequestID string, err error)
	FetchReceipt(ctx context.Context, vendorTripID string) (*domain.Receipt, error)
}

// BookingRequest is the data sent to the vendor to place a guest trip.
type BookingRequest struct {
	GuestPhone    string
	Pickup        domain.Location
	Dropoff       domain.Location
	ProductID     string
	FareID        string
	NoteForDriver string
}

// VendorConfig configures the vendor HTTP client.
type VendorConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// vendorClient is the default Vendor, grounded on the same typed-client +
// per-call-timeout + structured-error-translation idiom as geo.MapsClient,
// wrapped in a circuit breaker.
type vendorClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	breaker    *gobreaker.CircuitBreaker
}

// NewVendorClient creates the default Vendor implementation.
func NewVendorClient(cfg VendorConfig) Vendor {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        "ridehail-vendor",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("ridehail vendor circuit breaker state change")
		},
	}

	return &vendorClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		breaker:    gobreaker.NewCircuitBreaker(settings),
	}
}

type estimateResponse struct {
	Prices []struct {
		ProductID       string  `json:"product_id"`
		Display         string  `json:"display_name"`
		FareDisplay     string  `json:"estimate"`
		FareCurrency    string  `json:"currency_code"`
		PickupETA       int64   `json:"pickup_estimate"`
		TripDuration    int64   `json:"duration"`
		NoCarsAvailable bool    `json:"no_cars_available"`
	} `json:"prices"`
}

// Estimate calls the vendor's price-estimate endpoint, retrying at most
// twice with exponential backoff since estimates are idempotent reads.
// Malformed rows (no product_id) are dropped; order is preserved.
func (c *vendorClient) Estimate(ctx context.Context, pickup, dropoff domain.Location) ([]domain.Product, error) {
	var out estimateResponse
	var lastErr error

	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(1<<attempt) * 100 * time.Millisecond):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := c.breaker.Execute(func() (any, error) {
			return c.doEstimate(ctx, pickup, dropoff)
		})
		if err == nil {
			out = result.(estimateResponse)
			lastErr = nil
			break
		}
		lastErr = translateVendorErr(err)
		if lastErr == domain.ErrVendorAuth || lastErr == domain.ErrVendorPayment {
			break // not worth retrying a 4xx that isn't transient
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}

	products := make([]domain.Product, 0, len(out.Prices))
	for _, p := range out.Prices {
		if p.ProductID == "" {
			continue
		}
		products = append(products, domain.Product{
			ProductID:       p.ProductID,
			Display:         p.Display,
			FareDisplay:     p.FareDisplay,
			FareCurrency:    p.FareCurrency,
			PickupETA:       p.PickupETA,
			TripDuration:    p.TripDuration,
			NoCarsAvailable: p.NoCarsAvailable,
		})
	}
	return products, nil
}

func (c *vendorClient) doEstimate(ctx context.Context, pickup, dropoff domain.Location) (estimateResponse, error) {
	url := fmt.Sprintf("%s/v1/estimates?start_lat=%f&start_lng=%f&end_lat=%f&end_lng=%f",
		c.baseURL, pickup.Lat, pickup.Lng, dropoff.Lat, dropoff.Lng)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return estimateResponse{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return estimateResponse{}, domain.ErrVendorUnavailable
	}
	defer resp.Body.Close()

	if err := statusToErr(resp.StatusCode); err != nil {
		return estimateResponse{}, err
	}

	var out estimateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return estimateResponse{}, fmt.Errorf("decode estimate response: %w", err)
	}
	return out, nil
}

type bookRequest struct {
	GuestPhone    string  `json:"guest_phone"`
	StartLat      float64 `json:"start_latitude"`
	StartLng      float64 `json:"start_longitude"`
	EndLat        float64 `json:"end_latitude"`
	EndLng        float64 `json:"end_longitude"`
	ProductID     string  `json:"product_id"`
	FareID        string  `json:"fare_id"`
	NoteForDriver string  `json:"note_for_driver"`
}

type bookResponse struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
}

// BookTrip places a guest trip. Writes are never retried automatically.
func (c *vendorClient) BookTrip(ctx context.Context, req BookingRequest) (string, error) {
	result, err := c.breaker.Execute(func() (any, error) {
		return c.doBook(ctx, req)
	})
	if err != nil {
		return "", translateVendorErr(err)
	}
	return result.(string), nil
}

func (c *vendorClient) doBook(ctx context.Context, req BookingRequest) (string, error) {
	body, err := json.Marshal(bookRequest{
		GuestPhone:    req.GuestPhone,
		StartLat:      req.Pickup.Lat,
		StartLng:      req.Pickup.Lng,
		EndLat:        req.Dropoff.Lat,
		EndLng:        req.Dropoff.Lng,
		ProductID:     req.ProductID,
		FareID:        req.FareID,
		NoteForDriver: req.NoteForDriver,
	})
	if err != nil {
		return "", fmt.Errorf("marshal booking request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/guests/trips", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build booking request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", domain.ErrVendorUnavailable
	}
	defer resp.Body.Close()

	if err := statusToErr(resp.StatusCode); err != nil {
		return "", err
	}

	raw, _ := io.ReadAll(resp.Body)
	var out bookResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode booking response: %w", err)
	}
	return out.RequestID, nil
}

// FetchReceipt retrieves the final receipt for a completed vendor trip.
func (c *vendorClient) FetchReceipt(ctx context.Context, vendorTripID string) (*domain.Receipt, error) {
	result, err := c.breaker.Execute(func() (any, error) {
		return c.doFetchReceipt(ctx, vendorTripID)
	})
	if err != nil {
		return nil, translateVendorErr(err)
	}
	r := result.(domain.Receipt)
	return &r, nil
}

func (c *vendorClient) doFetchReceipt(ctx context.Context, vendorTripID string) (domain.Receipt, error) {
	url := fmt.Sprintf("%s/v1/guests/trips/%s/receipt", c.baseURL, vendorTripID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.Receipt{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Receipt{}, domain.ErrVendorUnavailable
	}
	defer resp.Body.Close()

	if err := statusToErr(resp.StatusCode); err != nil {
		return domain.Receipt{}, err
	}

	var out domain.Receipt
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.Receipt{}, fmt.Errorf("decode receipt: %w", err)
	}
	return out, nil
}

func statusToErr(status int) error {
	switch {
	case status == http.StatusUnauthorized:
		return domain.ErrVendorAuth
	case status == http.StatusConflict:
		return domain.ErrVendorDuplicateSession
	case status >= 500:
		return domain.ErrVendorUnavailable
	case status >= 400:
		return domain.ErrVendorPayment
	}
	return nil
}

func translateVendorErr(err error) error {
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return domain.ErrVendorUnavailable
	}
	return err
}
