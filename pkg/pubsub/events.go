package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
)

const (
	envelopeVersion       = 1
	defaultPublishTimeout = 10 * time.Second
)

// Envelope is the stable JSON body of every published event.
type Envelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	EventType  string          `json:"eventType"`
	OccurredAt time.Time       `json:"occurredAt"`
	Data       json.RawMessage `json:"data"`
}

type publishResult interface {
	Get(ctx context.Context) (string, error)
}

type publisher interface {
	Publish(ctx context.Context, msg *pubsub.Message) publishResult
}

// EventPublisher serializes domain events into envelopes and publishes them
// synchronously, waiting for the server id.
type EventPublisher struct {
	pub     publisher
	timeout time.Duration
	now     func() time.Time
}

// NewEventPublisher wraps a topic publisher. It returns nil for a nil topic.
func NewEventPublisher(p *pubsub.Publisher) *EventPublisher {
	if p == nil {
		return nil
	}
	return newEventPublisher(&gcpPublisher{Publisher: p})
}

func newEventPublisher(p publisher) *EventPublisher {
	return &EventPublisher{pub: p, timeout: defaultPublishTimeout, now: time.Now}
}

// Publish sends data as eventType keyed by aggregateID and returns the
// server-assigned message id.
func (p *EventPublisher) Publish(ctx context.Context, eventType, aggregateID string, data any) (string, error) {
	if p == nil || p.pub == nil {
		return "", errors.New("event publisher not configured")
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	env := Envelope{
		Version:    envelopeVersion,
		EventID:    uuid.NewString(),
		EventType:  eventType,
		OccurredAt: p.now().UTC(),
		Data:       raw,
	}
	body, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("marshal envelope: %w", err)
	}

	msg := &pubsub.Message{
		Data: body,
		Attributes: map[string]string{
			"event_id":     env.EventID,
			"event_type":   eventType,
			"aggregate_id": aggregateID,
			"occurred_at":  env.OccurredAt.Format(time.RFC3339Nano),
		},
	}

	publishCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	result := p.pub.Publish(publishCtx, msg)
	if result == nil {
		return "", fmt.Errorf("publisher returned nil for %s", eventType)
	}
	id, err := result.Get(publishCtx)
	if err != nil {
		return "", fmt.Errorf("publish %s: %w", eventType, err)
	}
	return id, nil
}

type gcpPublisher struct {
	*pubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *pubsub.Message) publishResult {
	if p == nil || p.Publisher == nil {
		return nil
	}
	return &gcpPublishResult{PublishResult: p.Publisher.Publish(ctx, msg)}
}

type gcpPublishResult struct {
	*pubsub.PublishResult
}

func (r *gcpPublishResult) Get(ctx context.Context) (string, error) {
	if r == nil || r.PublishResult == nil {
		return "", errors.New("publish result is nil")
	}
	return r.PublishResult.Get(ctx)
}
