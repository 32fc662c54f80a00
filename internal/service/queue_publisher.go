package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/avolkov/finance-tracker/internal/model"
	"github.com/avolkov/finance-tracker/internal/queue"
)

// EventPublisher pushes domain events to RabbitMQ.  Publishing is strictly
// best-effort: failures are logged and swallowed so a broker outage never
// fails the request that triggered the event.  A nil publisher is a no-op,
// which is how the server runs when no broker URL is configured.
type EventPublisher struct {
	url string
}

// NewEventPublisher returns a publisher for the given AMQP URL, or nil when
// the URL is empty.
func NewEventPublisher(url string) *EventPublisher {
	if url == "" {
		return nil
	}
	return &EventPublisher{url: url}
}

// TransactionRecorded publishes a transaction.recorded event.
func (p *EventPublisher) TransactionRecorded(ctx context.Context, t model.Transaction) {
	if p == nil {
		return
	}
	ev := queue.TransactionRecordedEvent{
		TransactionID: t.ID,
		UserID:        t.UserID,
		AmountCents:   t.AmountCents,
		Type:          t.Type,
		Category:      t.Category,
		Date:          t.Date,
		RecordedAt:    t.CreatedAt.UTC().Format(time.RFC3339),
	}
	if err := p.publish(ctx, queue.TransactionRecordedQueue, ev); err != nil {
		log.Printf("rabbitmq: publish %s failed: %v", queue.TransactionRecordedQueue, err)
	}
}

// publish opens a connection per event.  Event volume here is one message
// per write request, which does not justify a managed long-lived channel.
func (p *EventPublisher) publish(ctx context.Context, name string, payload any) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent declare; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
		return err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return ch.PublishWithContext(ctx,
		"",    // default exchange
		name,  // routing key = queue name
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
}
