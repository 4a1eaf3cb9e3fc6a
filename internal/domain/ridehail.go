package domain

import (
	"time"

	"github.com/google/uuid"
)

// RidehailStatus mirrors the vendor's guest-trip lifecycle.
type RidehailStatus string

const (
	RidehailStatusProcessing RidehailStatus = "processing"
	RidehailStatusAccepted   RidehailStatus = "accepted"
	RidehailStatusArriving   RidehailStatus = "arriving"
	RidehailStatusInProgress RidehailStatus = "in_progress"
	RidehailStatusCompleted  RidehailStatus = "completed"
	RidehailStatusCancelled  RidehailStatus = "cancelled"
)

// RidehailTrip is a guest ride booked against the external ride-hail vendor
// on behalf of a user.
type RidehailTrip struct {
	ID                   uuid.UUID      `json:"id"`
	TripID               *uuid.UUID     `json:"trip_id,omitempty"`
	UserID               int64          `json:"user_id"`
	VendorRequestID      string         `json:"vendor_request_id"`
	VendorTripID         string         `json:"vendor_trip_id,omitempty"`
	ProductID            string         `json:"product_id"`
	Status               RidehailStatus `json:"status"`
	EstimatedFare        float64        `json:"estimated_fare"`
	ActualFare           *float64       `json:"actual_fare,omitempty"`
	BenefitCreditApplied float64        `json:"benefit_credit_applied"`
	Pickup               Location       `json:"pickup"`
	Dropoff              Location       `json:"dropoff"`
	CreatedOn            time.Time      `json:"created_on"`
	CompletedOn          *time.Time     `json:"completed_on,omitempty"`
	ReceiptBlob          string         `json:"receipt_blob,omitempty"`
	// WebhookEventIDs is the dedupe set of processed vendor event IDs,
	// persisted as a JSONB array so a replayed event_id is a no-op.
	WebhookEventIDs []string `json:"webhook_event_ids,omitempty"`
}

// ridehailTransitions is the adjacency map for the vendor trip state
// machine: processing -> accepted -> arriving -> in_progress -> completed,
// with cancellation allowed from any non-terminal state.
var ridehailTransitions = map[RidehailStatus][]RidehailStatus{
	RidehailStatusProcessing: {RidehailStatusAccepted, RidehailStatusCancelled},
	RidehailStatusAccepted:   {RidehailStatusArriving, RidehailStatusCancelled},
	RidehailStatusArriving:   {RidehailStatusInProgress, RidehailStatusCancelled},
	RidehailStatusInProgress: {RidehailStatusCompleted, RidehailStatusCancelled},
	RidehailStatusCompleted:  {},
	RidehailStatusCancelled:  {},
}

// CanTransitionTo reports whether newStatus is a legal next state.
func (t *RidehailTrip) CanTransitionTo(newStatus RidehailStatus) bool {
	allowed, exists := ridehailTransitions[t.Status]
	if !exists {
		return false
	}
	for _, s := range allowed {
		if s == newStatus {
			return true
		}
	}
	return false
}

// UpdateStatus transitions the trip, rejecting illegal transitions.
func (t *RidehailTrip) UpdateStatus(newStatus RidehailStatus) error {
	if !t.CanTransitionTo(newStatus) {
		return ErrInvalidRidehailTransition
	}
	t.Status = newStatus
	if newStatus == RidehailStatusCompleted || newStatus == RidehailStatusCancelled {
		now := time.Now().UTC()
		t.CompletedOn = &now
	}
	return nil
}

// IsTerminal reports whether the trip has reached a final state.
func (t *RidehailTrip) IsTerminal() bool {
	return t.Status == RidehailStatusCompleted || t.Status == RidehailStatusCancelled
}

// HasSeenEvent reports whether a webhook event_id has already been applied.
func (t *RidehailTrip) HasSeenEvent(eventID string) bool {
	for _, id := range t.WebhookEventIDs {
		if id == eventID {
			return true
		}
	}
	return false
}

// MarkEventSeen appends an event_id to the dedupe set.
func (t *RidehailTrip) MarkEventSeen(eventID string) {
	t.WebhookEventIDs = append(t.WebhookEventIDs, eventID)
}

// Product is a single ridehail vendor estimate line item.
type Product struct {
	ProductID        string  `json:"product_id"`
	Display          string  `json:"display"`
	FareDisplay      string  `json:"fare_display"`
	FareCurrency     string  `json:"fare_currency"`
	PickupETA        int64   `json:"pickup_eta"`
	TripDuration     int64   `json:"trip_duration"`
	NoCarsAvailable  bool    `json:"no_cars_available"`
}

// WebhookPayload is the inbound vendor callback shape.
type WebhookPayload struct {
	EventID      string       `json:"event_id"`
	EventTime    time.Time    `json:"event_time"`
	EventType    string       `json:"event_type"`
	ResourceHref string       `json:"resource_href"`
	Meta         WebhookMeta  `json:"meta"`
}

// WebhookMeta carries the vendor-side identifiers for an event.
type WebhookMeta struct {
	UserID     int64  `json:"user_id"`
	ResourceID string `json:"resource_id"`
	Status     string `json:"status"`
}

// Receipt is the parsed vendor trip receipt.
type Receipt struct {
	RequestID         string              `json:"request_id"`
	Subtotal          string              `json:"subtotal"`
	TotalCharged      string              `json:"total_charged"`
	TotalOwed         string              `json:"total_owed"`
	CurrencyCode      string              `json:"currency_code"`
	ChargeAdjustments []ChargeAdjustment  `json:"charge_adjustments"`
	Duration          string              `json:"duration"`
	Distance          string              `json:"distance"`
}

// ChargeAdjustment is a single line item on a vendor receipt.
type ChargeAdjustment struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Type   string  `json:"type"`
}
