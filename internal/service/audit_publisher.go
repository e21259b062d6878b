package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/lesson-seat-invitation/internal/queue"
)

// AuditPublisher publishes audit events to RabbitMQ. Publishing is
// best-effort: errors are logged and returned so callers can ignore
// failures without interrupting the request flow, and a nil publisher
// disables auditing entirely.
type AuditPublisher struct {
	URL    string
	Logger *zap.SugaredLogger
}

// NewAuditPublisher returns an AuditPublisher for the given broker URL.
func NewAuditPublisher(url string, logger *zap.SugaredLogger) *AuditPublisher {
	return &AuditPublisher{URL: url, Logger: logger}
}

// Publish sends one audit event to the durable audit queue. The
// timestamp is filled in when the event does not carry one. Messages
// are marked persistent so they survive broker restarts.
func (p *AuditPublisher) Publish(ctx context.Context, ev queue.AuditEvent) error {
	if p == nil {
		return nil
	}
	if ev.At == "" {
		ev.At = time.Now().UTC().Format(time.RFC3339)
	}

	conn, err := amqp.Dial(p.URL)
	if err != nil {
		p.Logger.Warnw("audit: dial failed", "err", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.Logger.Warnw("audit: channel open failed", "err", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queue.AuditQueueName, true, false, false, false, nil); err != nil {
		p.Logger.Warnw("audit: queue declare failed", "err", err)
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		p.Logger.Warnw("audit: marshal failed", "err", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue.AuditQueueName, false, false, pub); err != nil {
		p.Logger.Warnw("audit: publish failed", "err", err)
		return err
	}
	return nil
}
