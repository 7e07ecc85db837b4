package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/gigmarket-backend/internal/analytics/router"
	"github.com/angelmondragon/gigmarket-backend/internal/analytics/types"
	"github.com/angelmondragon/gigmarket-backend/pkg/enums"
	"github.com/angelmondragon/gigmarket-backend/pkg/logger"
	"github.com/angelmondragon/gigmarket-backend/pkg/outbox"
)

func TestBuildEnvelope(t *testing.T) {
	svc := newTestService(t, &stubHandler{}, &stubManager{})
	aggregateID := uuid.NewString()
	payload := outbox.PayloadEnvelope{
		EventID:    uuid.NewString(),
		OccurredAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Data:       json.RawMessage(`{"order_id":"` + aggregateID + `"}`),
	}
	msg := buildMessage(payload, map[string]string{
		"event_type":     "order_completed",
		"aggregate_type": "order",
		"aggregate_id":   aggregateID,
	})

	env, err := svc.buildEnvelope(msg)
	require.NoError(t, err)
	assert.Equal(t, enums.EventOrderCompleted, env.EventType)
	assert.Equal(t, enums.AggregateOrder, env.AggregateType)
	assert.Equal(t, aggregateID, env.AggregateID)
	assert.Equal(t, payload.EventID, env.EventID)
	assert.True(t, payload.OccurredAt.Equal(env.OccurredAt))
}

func TestBuildEnvelopeRejectsUnknownAttributes(t *testing.T) {
	svc := newTestService(t, &stubHandler{}, &stubManager{})
	payload := outbox.PayloadEnvelope{EventID: uuid.NewString(), Data: json.RawMessage(`{}`)}

	_, err := svc.buildEnvelope(buildMessage(payload, map[string]string{"event_type": "nope", "aggregate_type": "order", "aggregate_id": "x"}))
	require.Error(t, err)
	_, err = svc.buildEnvelope(buildMessage(payload, map[string]string{"event_type": "order_paid", "aggregate_type": "store", "aggregate_id": "x"}))
	require.Error(t, err)
	_, err = svc.buildEnvelope(buildMessage(payload, map[string]string{"event_type": "order_paid", "aggregate_type": "order"}))
	require.Error(t, err)
}

func TestProcessAlreadyProcessed(t *testing.T) {
	manager := &stubManager{checkResult: true}
	handler := &stubHandler{}
	svc := newTestService(t, handler, manager)

	res := svc.process(context.Background(), buildAnalyticsMessage(t))
	assert.False(t, res.nack)
	assert.False(t, handler.called)
	assert.Len(t, manager.checked, 1)
}

func TestProcessHandlerErrorRetries(t *testing.T) {
	manager := &stubManager{}
	handler := &stubHandler{err: errors.New("boom")}
	svc := newTestService(t, handler, manager)

	res := svc.process(context.Background(), buildAnalyticsMessage(t))
	assert.True(t, res.nack)
	assert.True(t, handler.called)
	assert.Len(t, manager.deleted, 1)
}

func TestProcessIdempotencyFailureRetries(t *testing.T) {
	manager := &stubManager{checkErr: errors.New("redis down")}
	handler := &stubHandler{}
	svc := newTestService(t, handler, manager)

	res := svc.process(context.Background(), buildAnalyticsMessage(t))
	assert.True(t, res.nack)
	assert.False(t, handler.called)
}

func TestProcessInvalidEnvelope(t *testing.T) {
	manager := &stubManager{}
	handler := &stubHandler{}
	svc := newTestService(t, handler, manager)

	res := svc.process(context.Background(), &gcppubsub.Message{Data: []byte("invalid json")})
	assert.False(t, res.nack)
	assert.False(t, handler.called)
	assert.Empty(t, manager.checked)
}

func TestProcessUnsupportedEvent(t *testing.T) {
	manager := &stubManager{}
	handler := &stubHandler{err: router.ErrUnsupportedEventType}
	svc := newTestService(t, handler, manager)

	res := svc.process(context.Background(), buildAnalyticsMessage(t))
	assert.False(t, res.nack)
	assert.Empty(t, manager.deleted)
}

func TestNewServiceValidation(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "analytics-test", Output: io.Discard})
	_, err := NewService(nil, &stubHandler{}, &stubManager{}, logg)
	require.Error(t, err)
}

func buildAnalyticsMessage(t *testing.T) *gcppubsub.Message {
	t.Helper()
	payload := outbox.PayloadEnvelope{
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       json.RawMessage(`{"foo":"bar"}`),
	}
	return buildMessage(payload, map[string]string{
		"event_type":     "withdrawal_processed",
		"aggregate_type": "withdrawal",
		"aggregate_id":   uuid.NewString(),
	})
}

func buildMessage(payload outbox.PayloadEnvelope, attrs map[string]string) *gcppubsub.Message {
	data, _ := json.Marshal(payload)
	return &gcppubsub.Message{
		ID:         "msg-1",
		Data:       data,
		Attributes: attrs,
	}
}

func newTestService(t *testing.T, handler Handler, manager *stubManager) *Service {
	t.Helper()
	return &Service{
		handler: handler,
		manager: manager,
		logg:    logger.New(logger.Options{ServiceName: "analytics-test", Output: io.Discard}),
	}
}

type stubHandler struct {
	called   bool
	envelope types.Envelope
	err      error
}

func (h *stubHandler) Handle(ctx context.Context, envelope types.Envelope) error {
	h.called = true
	h.envelope = envelope
	return h.err
}

type stubManager struct {
	checkResult bool
	checkErr    error
	deleteErr   error
	checked     []uuid.UUID
	deleted     []uuid.UUID
}

func (s *stubManager) CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error) {
	s.checked = append(s.checked, eventID)
	return s.checkResult, s.checkErr
}

func (s *stubManager) Delete(ctx context.Context, consumer string, eventID uuid.UUID) error {
	s.deleted = append(s.deleted, eventID)
	return s.deleteErr
}
