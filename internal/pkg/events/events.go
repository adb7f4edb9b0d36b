// Package events publishes domain events to RabbitMQ. Publishing is
// best-effort: errors are logged and returned so callers can ignore failures
// without interrupting the request flow.
package events

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// CloneDetectedQueue is the durable queue new-clone events are published to.
const CloneDetectedQueue = "clone.detected"

// CloneDetected is published when a detection ping creates a new clone
// record. It carries enough context for downstream consumers (alerting,
// analytics) to act without querying the primary database.
type CloneDetected struct {
	UserID         string `json:"user_id"`
	CloneID        uint   `json:"clone_id"`
	CloneDomain    string `json:"clone_domain"`
	OriginalDomain string `json:"original_domain"`
	PageURL        string `json:"page_url,omitempty"`
	Referrer       string `json:"referrer,omitempty"`
	DetectedAt     string `json:"detected_at"`
}

// Publisher writes events to a RabbitMQ broker. A zero URL disables it.
type Publisher struct {
	url string
}

// NewPublisher creates a publisher for the given AMQP URL. Pass an empty URL
// to disable publishing entirely.
func NewPublisher(url string) *Publisher {
	return &Publisher{url: url}
}

// Enabled reports whether a broker URL is configured.
func (p *Publisher) Enabled() bool {
	return p != nil && p.url != ""
}

// PublishCloneDetected publishes one event to the clone.detected queue.
// Messages are persistent so they survive broker restarts.
func (p *Publisher) PublishCloneDetected(ctx context.Context, event CloneDetected) error {
	if !p.Enabled() {
		return nil
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		log.Printf("events: rabbitmq dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("events: rabbitmq channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent).
	if _, err := ch.QueueDeclare(
		CloneDetectedQueue, // name
		true,               // durable
		false,              // autoDelete
		false,              // exclusive
		false,              // noWait
		nil,                // args
	); err != nil {
		log.Printf("events: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("events: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",                 // default exchange
		CloneDetectedQueue, // routing key = queue name
		false,              // mandatory
		false,              // immediate
		pub,
	); err != nil {
		log.Printf("events: publish failed: %v", err)
		return err
	}

	return nil
}
