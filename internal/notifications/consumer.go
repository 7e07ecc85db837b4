package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/angelmondragon/gigmarket-backend/pkg/db/models"
	"github.com/angelmondragon/gigmarket-backend/pkg/enums"
	"github.com/angelmondragon/gigmarket-backend/pkg/logger"
	"github.com/angelmondragon/gigmarket-backend/pkg/outbox"
	"github.com/angelmondragon/gigmarket-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/gigmarket-backend/pkg/types"
)

const consumerName = "notifications"

type repository interface {
	Create(ctx context.Context, notification *models.Notification) error
}

type eventGuard interface {
	Once(ctx context.Context, consumer string, eventID uuid.UUID, fn func(context.Context) error) (bool, error)
}

// Consumer turns domain events into in-app notifications for the users they
// concern. A notification failure never reaches the financial transaction
// that emitted the event.
type Consumer struct {
	repo         repository
	subscription *pubsub.Subscriber
	guard        eventGuard
	logg         *logger.Logger
}

// NewConsumer builds a notification consumer. subscription may be nil when the
// consumer is only driven through Handle.
func NewConsumer(repo repository, subscription *pubsub.Subscriber, guard eventGuard, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if guard == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		guard:        guard,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	if c.subscription == nil {
		return fmt.Errorf("notification subscription required")
	}
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		logCtx := c.logg.WithField(ctx, "message_id", msg.ID)
		if err := c.Handle(logCtx, msg.Attributes["event_type"], msg.Data); err != nil {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

// Handle processes one published envelope. A returned error means the message
// should be redelivered; malformed payloads are logged and dropped.
func (c *Consumer) Handle(ctx context.Context, eventType string, data []byte) error {
	logCtx := c.logg.WithField(ctx, "event_type", eventType)

	parsed, err := enums.ParseOutboxEventType(eventType)
	if err != nil {
		c.logg.Info(logCtx, "skipping unknown event")
		return nil
	}

	envelope, err := outbox.DecodeEnvelope(data)
	if err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return nil
	}
	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return nil
	}
	logCtx = c.logg.WithField(logCtx, "event_id", eventID.String())

	notes, err := buildNotifications(parsed, envelope)
	if err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		return nil
	}
	if len(notes) == 0 {
		c.logg.Debug(logCtx, "event produces no notifications")
		return nil
	}

	duplicate, err := c.guard.Once(ctx, consumerName, eventID, func(ctx context.Context) error {
		for i := range notes {
			if err := c.repo.Create(ctx, &notes[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		return err
	}
	if duplicate {
		c.logg.Info(logCtx, "event already processed")
		return nil
	}
	c.logg.Info(c.logg.WithField(logCtx, "notifications", len(notes)), "notifications created")
	return nil
}

func buildNotifications(eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) ([]models.Notification, error) {
	var actorID uuid.UUID
	if envelope.Actor != nil {
		actorID = envelope.Actor.UserID
	}

	switch eventType {
	case enums.EventOrderCreated:
		var p payloads.OrderEvent
		if err := json.Unmarshal(envelope.Data, &p); err != nil {
			return nil, err
		}
		return []models.Notification{orderNote(p.SellerID, p.OrderID, enums.NotificationTypeOrderReceived,
			"New order received",
			fmt.Sprintf("You have a new order for %q worth %s.", p.ListingTitle, types.Money(p.TotalAmountCents)))}, nil

	case enums.EventOrderAccepted, enums.EventOrderSubmitted, enums.EventOrderCancelled, enums.EventOrderDisputed:
		var p payloads.OrderEvent
		if err := json.Unmarshal(envelope.Data, &p); err != nil {
			return nil, err
		}
		message := fmt.Sprintf("Order for %q is now %s.", p.ListingTitle, strings.ReplaceAll(string(p.Status), "_", " "))
		if p.Reason != "" {
			message = fmt.Sprintf("%s Reason: %s", message, p.Reason)
		}
		notes := []models.Notification{}
		for _, recipient := range []uuid.UUID{p.BuyerID, p.SellerID} {
			if recipient == uuid.Nil || recipient == actorID {
				continue
			}
			notes = append(notes, orderNote(recipient, p.OrderID, enums.NotificationTypeOrderUpdate, "Order updated", message))
		}
		return notes, nil

	case enums.EventOrderCompleted:
		var p payloads.OrderCompletedEvent
		if err := json.Unmarshal(envelope.Data, &p); err != nil {
			return nil, err
		}
		return []models.Notification{orderNote(p.SellerID, p.OrderID, enums.NotificationTypeOrderUpdate,
			"Payment released",
			fmt.Sprintf("Order for %q is complete. %s was added to your wallet after a %s platform fee.",
				p.ListingTitle, types.Money(p.NetCents), types.Money(p.CommissionCents)))}, nil

	case enums.EventReviewSubmitted:
		var p payloads.ReviewSubmittedEvent
		if err := json.Unmarshal(envelope.Data, &p); err != nil {
			return nil, err
		}
		return []models.Notification{orderNote(p.SellerID, p.OrderID, enums.NotificationTypeReviewReceived,
			"New review",
			fmt.Sprintf("A customer rated your work %d/5. Your rating is now %s.", p.Rating, p.SellerRating))}, nil

	case enums.EventWithdrawalProcessed:
		var p payloads.WithdrawalEvent
		if err := json.Unmarshal(envelope.Data, &p); err != nil {
			return nil, err
		}
		return []models.Notification{withdrawalNote(p, enums.NotificationTypePayoutProcessed,
			"Payout processed",
			fmt.Sprintf("Your withdrawal of %s has been processed.", types.Money(p.AmountCents)))}, nil

	case enums.EventWithdrawalRejected:
		var p payloads.WithdrawalEvent
		if err := json.Unmarshal(envelope.Data, &p); err != nil {
			return nil, err
		}
		message := fmt.Sprintf("Your withdrawal of %s was rejected and the funds returned to your wallet.", types.Money(p.AmountCents))
		if p.Reason != "" {
			message = fmt.Sprintf("%s Reason: %s", message, p.Reason)
		}
		return []models.Notification{withdrawalNote(p, enums.NotificationTypePayoutRejected, "Payout rejected", message)}, nil
	}
	return nil, nil
}

func orderNote(userID, orderID uuid.UUID, kind enums.NotificationType, title, message string) models.Notification {
	return models.Notification{
		UserID:  userID,
		Type:    kind,
		Title:   title,
		Message: strings.TrimSpace(message),
		Link:    stringPtr(fmt.Sprintf("/orders/%s", orderID)),
	}
}

func withdrawalNote(p payloads.WithdrawalEvent, kind enums.NotificationType, title, message string) models.Notification {
	return models.Notification{
		UserID:  p.UserID,
		Type:    kind,
		Title:   title,
		Message: strings.TrimSpace(message),
		Link:    stringPtr(fmt.Sprintf("/wallet/withdrawals/%s", p.WithdrawalID)),
	}
}

func stringPtr(value string) *string {
	return &value
}
