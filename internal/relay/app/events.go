package app

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/vasu241267/s-panel/internal/platform/messagebroker"
	"github.com/vasu241267/s-panel/internal/relay/domain"
)

// NATS subjects the bot layer subscribes to for its statistics views.
const (
	SubjectDelivered = "relay.otp.delivered"
	SubjectDropped   = "relay.otp.dropped"
)

// DeliveryEvent is the fire-and-forget notification emitted after a
// send attempt resolves. Numbers are masked: the event stream is
// consumed outside the pipeline and must not leak lease identities.
type DeliveryEvent struct {
	ItemID       string             `json:"item_id"`
	Class        domain.TargetClass `json:"class"`
	Number       string             `json:"number"`
	SubscriberID int64              `json:"subscriber_id,omitempty"`
	Attempts     int                `json:"attempts"`
	Reason       string             `json:"reason,omitempty"`
	At           time.Time          `json:"at"`
}

// EventPublisher emits delivery events over NATS. Publish failures are
// logged and ignored; no pipeline behavior depends on these events
// being observed.
type EventPublisher struct {
	broker *messagebroker.NATSClient
	clock  Clock
	logger *slog.Logger
}

// NewEventPublisher builds a publisher. A nil broker disables
// publication, which keeps tests and degraded deployments simple.
func NewEventPublisher(broker *messagebroker.NATSClient, clock Clock, logger *slog.Logger) *EventPublisher {
	return &EventPublisher{
		broker: broker,
		clock:  clock,
		logger: logger.With("component", "events"),
	}
}

// Delivered publishes a success event for item.
func (p *EventPublisher) Delivered(ctx context.Context, item domain.QueueItem) {
	p.publish(ctx, SubjectDelivered, item, "")
}

// Dropped publishes a drop event with its reason.
func (p *EventPublisher) Dropped(ctx context.Context, item domain.QueueItem, reason string) {
	p.publish(ctx, SubjectDropped, item, reason)
}

func (p *EventPublisher) publish(ctx context.Context, subject string, item domain.QueueItem, reason string) {
	if p == nil || p.broker == nil {
		return
	}
	event := DeliveryEvent{
		ItemID:       item.ID.String(),
		Class:        item.Target.Class,
		Number:       domain.MaskNumber(item.Target.Number),
		SubscriberID: item.Target.SubscriberID,
		Attempts:     item.Attempts,
		Reason:       reason,
		At:           p.clock.Now(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.WarnContext(ctx, "marshal delivery event", "error", err)
		return
	}
	if err := p.broker.Publish(ctx, subject, data); err != nil {
		p.logger.WarnContext(ctx, "publish delivery event", "subject", subject, "error", err)
	}
}
