// Package payment implements the Payment Gateway Adapter: the external
// card-processor integration used by the Wallet Service to fund
// auto-refill and manual coin purchases.
//
// Grounded on the teacher's geo.MapsClient vendor-HTTP-client idiom
// (typed client, per-call timeout, structured error translation) and
// wrapped in a circuit breaker that opens after N consecutive failures.
package payment

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

// Config configures the Gateway client.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Gateway is the external card-processor client.
type Gateway struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	breaker    *gobreaker.CircuitBreaker
}

// NewGateway creates a payment Gateway client.
func NewGateway(cfg Config) *Gateway {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        "payment-gateway",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("payment gateway circuit breaker state change")
		},
	}

	return &Gateway{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		breaker:    gobreaker.NewCircuitBreaker(settings),
	}
}

// chargeRequest is the wire shape sent to the processor.
type chargeRequest struct {
	CustomerID     string  `json:"customer_id"`
	AmountCents    int64   `json:"amount_cents"`
	Currency       string  `json:"currency"`
	IdempotencyKey string  `json:"idempotency_key"`
}

type chargeResponse struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	ErrorCode     string `json:"error_code,omitempty"`
}

// Charge debits the customer's saved payment method. Writes are never
// retried automatically — the circuit breaker only protects against
// cascading failure, not against duplicate charges.
func (g *Gateway) Charge(ctx context.Context, customerID string, amountCents int64, currency, idempotencyKey string) (string, error) {
	result, err := g.breaker.Execute(func() (any, error) {
		return g.doCharge(ctx, customerID, amountCents, currency, idempotencyKey)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState {
			return "", domain.ErrVendorUnavailable
		}
		return "", err
	}
	return result.(string), nil
}

func (g *Gateway) doCharge(ctx context.Context, customerID string, amountCents int64, currency, idempotencyKey string) (string, error) {
	body, err := json.Marshal(chargeRequest{
		CustomerID:     customerID,
		AmountCents:    amountCents,
		Currency:       currency,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return "", fmt.Errorf("marshal charge request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/charges", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build charge request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Idempotency-Key", idempotencyKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", domain.ErrVendorUnavailable
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return "", domain.ErrVendorAuth
	case resp.StatusCode == http.StatusConflict:
		return "", domain.ErrVendorDuplicateSession
	case resp.StatusCode >= 500:
		return "", domain.ErrVendorUnavailable
	case resp.StatusCode >= 400:
		return "", domain.ErrVendorPayment
	}

	var out chargeResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode charge response: %w", err)
	}
	if out.Status != "succeeded" {
		return "", domain.ErrVendorPayment
	}

	return out.TransactionID, nil
}
