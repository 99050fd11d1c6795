package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/ukydev/pikup-intake/internal/models"
)

// SubmissionEvent is published for every persisted submission so a dispatch
// board can follow new requests. It carries the route but not the customer's
// name, email or phone.
type SubmissionEvent struct {
	SubmissionID   string          `json:"submission_id"`
	Timestamp      string          `json:"timestamp"`
	MoveType       models.MoveType `json:"move_type"`
	PickupAddress  string          `json:"pickup_address"`
	DropoffAddress string          `json:"destination_address"`
	ScheduledFor   string          `json:"scheduled_for,omitempty"`
	DistanceMiles  float64         `json:"distance_miles"`
	ItemCount      int             `json:"item_count"`
	HasStairs      bool            `json:"has_stairs"`
	EstimatedPrice models.Quote    `json:"estimated_price"`
}

// NewSubmissionEvent projects a persisted record onto the event payload.
func NewSubmissionEvent(r models.SubmissionRecord) SubmissionEvent {
	return SubmissionEvent{
		SubmissionID:   r.SubmissionID,
		Timestamp:      r.Timestamp,
		MoveType:       r.MoveType,
		PickupAddress:  r.PickupAddress,
		DropoffAddress: r.DestinationAddress,
		ScheduledFor:   r.ScheduledFor,
		DistanceMiles:  r.DistanceMiles,
		ItemCount:      r.ItemCount,
		HasStairs:      r.HasStairs,
		EstimatedPrice: models.Quote{Pending: r.PricePending, Amount: r.Price},
	}
}

// Publisher announces submissions to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, event SubmissionEvent) error
}

// Nop discards every event. It is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, SubmissionEvent) error { return nil }

var ErrPublishTimeout = errors.New("mqtt publish timed out")

const qosAtLeastOnce byte = 1

// MQTTPublisher publishes events as JSON on one topic.
type MQTTPublisher struct {
	client  mqtt.Client
	topic   string
	timeout time.Duration
}

// NewMQTTPublisher wraps a connected client.
func NewMQTTPublisher(client mqtt.Client, topic string, timeout time.Duration) *MQTTPublisher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &MQTTPublisher{client: client, topic: topic, timeout: timeout}
}

// ConnectMQTT connects to brokerURL and waits up to timeout for the
// handshake.
func ConnectMQTT(brokerURL, clientID string, timeout time.Duration) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(timeout)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		return nil, fmt.Errorf("mqtt connect to %s timed out", brokerURL)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect error: %w", err)
	}
	return client, nil
}

// Publish sends the event with QoS 1 and waits for the broker ack.
func (p *MQTTPublisher) Publish(ctx context.Context, event SubmissionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	token := p.client.Publish(p.topic, qosAtLeastOnce, false, payload)

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("mqtt publish to %s: %w", p.topic, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrPublishTimeout
	}
}

// Close disconnects, allowing in-flight work a short grace period.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}
