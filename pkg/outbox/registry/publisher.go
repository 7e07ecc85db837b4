package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/angelmondragon/gigmarket-backend/pkg/config"
	"github.com/angelmondragon/gigmarket-backend/pkg/db/models"
	"github.com/angelmondragon/gigmarket-backend/pkg/enums"
	"github.com/angelmondragon/gigmarket-backend/pkg/outbox"
	"github.com/angelmondragon/gigmarket-backend/pkg/outbox/payloads"
	"github.com/google/uuid"
)

// EventDescriptor links an event type to its aggregate/topic/payload schema.
type EventDescriptor struct {
	EventType      enums.OutboxEventType
	AggregateType  enums.OutboxAggregateType
	Topic          string
	PayloadFactory func() interface{}
}

// ResolvedEvent is the result of decoding an outbox row.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    interface{}
}

// EventRegistry maps each supported event type to its descriptor.
type EventRegistry struct {
	entries map[enums.OutboxEventType]EventDescriptor
}

// NonRetryableError signals the dispatcher should stop retrying a row.
type NonRetryableError struct {
	Err error
}

// Error implements error.
func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

// Unwrap exposes the wrapped error.
func (e NonRetryableError) Unwrap() error {
	return e.Err
}

// NewEventRegistry builds the registry. Every event goes to the domain topic;
// consumers filter on the event_type attribute.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	topic := strings.TrimSpace(cfg.DomainTopic)
	if topic == "" {
		return nil, fmt.Errorf("domain topic is required")
	}

	reg := &EventRegistry{entries: make(map[enums.OutboxEventType]EventDescriptor)}
	orderEvent := func() interface{} { return &payloads.OrderEvent{} }
	withdrawalEvent := func() interface{} { return &payloads.WithdrawalEvent{} }

	for _, eventType := range []enums.OutboxEventType{
		enums.EventOrderCreated,
		enums.EventOrderPaid,
		enums.EventOrderAccepted,
		enums.EventOrderSubmitted,
		enums.EventOrderCancelled,
		enums.EventOrderDisputed,
	} {
		reg.register(EventDescriptor{
			EventType:      eventType,
			AggregateType:  enums.AggregateOrder,
			Topic:          topic,
			PayloadFactory: orderEvent,
		})
	}
	reg.register(EventDescriptor{
		EventType:      enums.EventOrderCompleted,
		AggregateType:  enums.AggregateOrder,
		Topic:          topic,
		PayloadFactory: func() interface{} { return &payloads.OrderCompletedEvent{} },
	})
	reg.register(EventDescriptor{
		EventType:      enums.EventReviewSubmitted,
		AggregateType:  enums.AggregateOrder,
		Topic:          topic,
		PayloadFactory: func() interface{} { return &payloads.ReviewSubmittedEvent{} },
	})
	for _, eventType := range []enums.OutboxEventType{
		enums.EventWithdrawalRequested,
		enums.EventWithdrawalProcessed,
		enums.EventWithdrawalRejected,
	} {
		reg.register(EventDescriptor{
			EventType:      eventType,
			AggregateType:  enums.AggregateWithdrawal,
			Topic:          topic,
			PayloadFactory: withdrawalEvent,
		})
	}

	return reg, nil
}

func (r *EventRegistry) register(desc EventDescriptor) {
	if desc.PayloadFactory == nil {
		return
	}
	r.entries[desc.EventType] = desc
}

// Resolve validates the row and decodes its typed payload.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.entries[event.EventType]
	if !ok {
		return nil, NewNonRetryableError(fmt.Errorf("unsupported event type %s", event.EventType))
	}
	if desc.AggregateType != event.AggregateType {
		return nil, NewNonRetryableError(fmt.Errorf("aggregate mismatch: expected %s got %s", desc.AggregateType, event.AggregateType))
	}
	if event.AggregateID == uuid.Nil {
		return nil, NewNonRetryableError(fmt.Errorf("missing aggregate_id"))
	}
	envelope, payload, err := r.DecodePayload(event.EventType, event.Payload)
	if err != nil {
		return nil, err
	}
	return &ResolvedEvent{
		Descriptor: desc,
		Envelope:   envelope,
		Payload:    payload,
	}, nil
}

// DecodePayload decodes a published envelope into the typed payload registered
// for eventType. Consumers use it on Pub/Sub message bodies.
func (r *EventRegistry) DecodePayload(eventType enums.OutboxEventType, raw []byte) (outbox.PayloadEnvelope, interface{}, error) {
	desc, ok := r.entries[eventType]
	if !ok {
		return outbox.PayloadEnvelope{}, nil, NewNonRetryableError(fmt.Errorf("unsupported event type %s", eventType))
	}

	envelope, err := outbox.DecodeEnvelope(raw)
	if err != nil {
		return outbox.PayloadEnvelope{}, nil, NewNonRetryableError(fmt.Errorf("decode envelope: %w", err))
	}

	trimmed := bytes.TrimSpace(envelope.Data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return envelope, nil, NewNonRetryableError(fmt.Errorf("payload missing for %s", eventType))
	}

	payload := desc.PayloadFactory()
	if err := json.Unmarshal(envelope.Data, payload); err != nil {
		return envelope, nil, NewNonRetryableError(fmt.Errorf("decode %s payload: %w", eventType, err))
	}
	return envelope, payload, nil
}

// NewNonRetryableError wraps an error to signal no retries.
func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}
