// Package notify publishes user-notification and vendor-failure events to
// an async outbox topic. Push-notification delivery itself is out of
// scope here — this package only hands events to Kafka; no consumer is
// implemented here, mirroring how the original system treated the
// downstream Slack/email integration as an external collaborator.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

// Event is a single outbox message.
type Event struct {
	Kind      string         `json:"kind"`
	UserID    int64          `json:"user_id,omitempty"`
	Template  string         `json:"template,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Outbox publishes Events to Kafka.
type Outbox struct {
	writer *kafka.Writer
}

// NewOutbox creates an Outbox that publishes to the given brokers/topic.
// Methods on a nil Outbox are safe to call: Publish logs and drops the
// event instead of writing to Kafka.
func NewOutbox(brokers []string, topic string) *Outbox {
	return &Outbox{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 50 * time.Millisecond,
			Async:        true,
		},
	}
}

// Publish enqueues an event. Failures are logged, never propagated — a
// notification failure must not fail the caller's business operation.
func (o *Outbox) Publish(ctx context.Context, e Event) {
	if o == nil || o.writer == nil {
		log.Debug().Str("kind", e.Kind).Msg("notify: outbox not configured, dropping event")
		return
	}
	e.Timestamp = time.Now().UTC()
	payload, err := json.Marshal(e)
	if err != nil {
		log.Error().Err(err).Msg("notify: marshal event")
		return
	}
	if err := o.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.Kind),
		Value: payload,
	}); err != nil {
		log.Error().Err(err).Str("kind", e.Kind).Msg("notify: publish failed")
	}
}

// SuspensionEmail publishes the coin-suspension notice sent when the
// daily-limit escalation algorithm suspends a user's coin activity.
func (o *Outbox) SuspensionEmail(ctx context.Context, userID int64) {
	o.Publish(ctx, Event{Kind: "email.coin_suspended", UserID: userID, Template: "coin_suspended"})
}

// LimitWarningEmail publishes the daily-purchase-limit warning.
func (o *Outbox) LimitWarningEmail(ctx context.Context, userID int64) {
	o.Publish(ctx, Event{Kind: "email.limit_warning", UserID: userID, Template: "daily_limit_warning"})
}

// AutoRefillFailedNotice publishes the auto-refill-disabled notice.
func (o *Outbox) AutoRefillFailedNotice(ctx context.Context, userID int64) {
	o.Publish(ctx, Event{Kind: "email.auto_refill_disabled", UserID: userID, Template: "auto_refill_disabled"})
}

// VerificationEmail publishes the carpool email-verification link.
func (o *Outbox) VerificationEmail(ctx context.Context, userID int64, email, verifyURL string) {
	o.Publish(ctx, Event{
		Kind:   "email.carpool_verify",
		UserID: userID,
		Data:   map[string]any{"email": email, "verify_url": verifyURL},
	})
}

// RidehailStatusNotice publishes the guest-trip status-change push using
// the message table keyed by status.
func (o *Outbox) RidehailStatusNotice(ctx context.Context, userID int64, status string) {
	o.Publish(ctx, Event{Kind: "ridehail.status_changed", UserID: userID, Template: "ridehail_" + status})
}

// VendorFailure publishes a vendor 5xx-class failure notice, replacing the
// original SlackManager.sendVendorFailedMsg monitoring hook.
func (o *Outbox) VendorFailure(ctx context.Context, vendor string, statusCode int, detail string) {
	o.Publish(ctx, Event{
		Kind: "vendor.failure",
		Data: map[string]any{"vendor": vendor, "status_code": statusCode, "detail": detail},
	})
}
