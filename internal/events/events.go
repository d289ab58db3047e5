// Package events publishes booking lifecycle changes so downstream
// services (notifications, floor displays, reporting) can react without
// polling the database.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/IT24101129/RestaurantEventManagement-sub001/internal/booking"
)

// StatusChanged is the wire payload for a booking status transition.
type StatusChanged struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Kind       string    `json:"resource_kind"`
	ResourceID int64     `json:"resource_id"`
	BookingID  int64     `json:"booking_id"`
	Previous   string    `json:"previous_status,omitempty"`
	Status     string    `json:"status"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	OccurredAt time.Time `json:"occurred_at"`
}

const typeStatusChanged = "booking.status.changed"

// Kafka writes status-change events to one topic, keyed by resource so a
// single resource's history stays ordered within its partition.
type Kafka struct {
	writer *kafka.Writer
}

func NewKafka(brokers []string, topic string) (*Kafka, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka: at least one broker required")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka: topic required")
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
	}
	return &Kafka{writer: w}, nil
}

// BookingChanged implements allocation.Notifier. Publishing is best effort:
// a broker outage must not fail the booking that already committed.
func (k *Kafka) BookingChanged(ctx context.Context, b booking.Booking, previous booking.Status) {
	ev := StatusChanged{
		ID:         uuid.NewString(),
		Type:       typeStatusChanged,
		Kind:       string(b.Kind),
		ResourceID: b.ResourceID,
		BookingID:  b.ID,
		Previous:   string(previous),
		Status:     string(b.Status),
		Start:      b.Interval.Start,
		End:        b.Interval.End,
		OccurredAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("events: marshal: %v", err)
		return
	}
	msg := kafka.Message{
		Key:   []byte(fmt.Sprintf("%s:%d", b.Kind, b.ResourceID)),
		Value: payload,
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		log.Printf("events: publish booking %d: %v", b.ID, err)
	}
}

func (k *Kafka) Close() error {
	return k.writer.Close()
}

// Nop drops events; the default when no brokers are configured.
type Nop struct{}

func (Nop) BookingChanged(context.Context, booking.Booking, booking.Status) {}
