// Package events publishes indent lifecycle events to a RabbitMQ topic
// exchange.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Spok95/pharmacy-indent/internal/cart"
	"github.com/Spok95/pharmacy-indent/internal/domain/indent"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ExchangeName = "pharmacy.events"
	ExchangeType = "topic"

	EventRequestCreated = "indent.created"
	EventRequestDeleted = "indent.deleted"
	EventCartApproved   = "indent.approved"

	eventVersion   = "1.0.0"
	publishTimeout = 5 * time.Second
)

type Event struct {
	EventID      string         `json:"event_id"`
	EventType    string         `json:"event_type"`
	EventVersion string         `json:"event_version"`
	Timestamp    string         `json:"timestamp"`
	Payload      map[string]any `json:"payload"`
}

// channel is the part of *amqp.Channel the publisher needs.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher is a cart.Observer. Publish failures are logged, never
// returned: the cart change is already committed.
type Publisher struct {
	conn    *amqp.Connection
	channel channel
	log     *slog.Logger
	now     func() time.Time
}

func NewPublisher(url string, log *slog.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		ExchangeName,
		ExchangeType,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	log.Info("connected to RabbitMQ", "exchange", ExchangeName)
	return &Publisher{conn: conn, channel: ch, log: log, now: time.Now}, nil
}

func (p *Publisher) publish(ctx context.Context, eventType string, payload map[string]any) {
	ev := Event{
		EventID:      uuid.New().String(),
		EventType:    eventType,
		EventVersion: eventVersion,
		Timestamp:    p.now().UTC().Format(time.RFC3339),
		Payload:      payload,
	}
	body, err := json.Marshal(ev)
	if err != nil {
		p.log.Error("marshal event", "type", eventType, "err", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	err = p.channel.PublishWithContext(ctx, ExchangeName, eventType, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.EventID,
		AppId:        "pharmacy-indent",
	})
	if err != nil {
		p.log.Error("publish event failed", "type", eventType, "event_id", ev.EventID, "err", err)
		return
	}
	p.log.Debug("event published", "type", eventType, "event_id", ev.EventID)
}

func (p *Publisher) RequestCreated(ctx context.Context, req indent.Request) {
	p.publish(ctx, EventRequestCreated, map[string]any{
		"request_id": req.ID,
		"item_id":    req.ItemID,
		"quantity":   req.Qty,
	})
}

func (p *Publisher) RequestDeleted(ctx context.Context, id int64) {
	p.publish(ctx, EventRequestDeleted, map[string]any{"request_id": id})
}

func (p *Publisher) CartApproved(ctx context.Context, a cart.Approval) {
	bySource := map[string]int{}
	for _, b := range a.Cart.NonEmpty() {
		bySource[string(b.Source)] = len(b.Lines)
	}
	p.publish(ctx, EventCartApproved, map[string]any{
		"request_ids": a.IDs,
		"count":       len(a.IDs),
		"by_source":   bySource,
		"approved_at": a.At.UTC().Format(time.RFC3339),
	})
}

func (p *Publisher) Close() {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}
