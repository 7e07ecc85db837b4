package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type column of outbox_events.
type OutboxAggregateType string

const (
	AggregateOrder      OutboxAggregateType = "order"
	AggregateWithdrawal OutboxAggregateType = "withdrawal"
	AggregateWallet     OutboxAggregateType = "wallet"
	AggregateReview     OutboxAggregateType = "review"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateOrder,
	AggregateWithdrawal,
	AggregateWallet,
	AggregateReview,
}

// IsValid reports whether the value matches a known aggregate type.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type column of outbox_events.
type OutboxEventType string

const (
	EventOrderCreated        OutboxEventType = "order_created"
	EventOrderPaid           OutboxEventType = "order_paid"
	EventOrderAccepted       OutboxEventType = "order_accepted"
	EventOrderSubmitted      OutboxEventType = "order_submitted"
	EventOrderCancelled      OutboxEventType = "order_cancelled"
	EventOrderCompleted      OutboxEventType = "order_completed"
	EventOrderDisputed       OutboxEventType = "order_disputed"
	EventReviewSubmitted     OutboxEventType = "review_submitted"
	EventWithdrawalRequested OutboxEventType = "withdrawal_requested"
	EventWithdrawalProcessed OutboxEventType = "withdrawal_processed"
	EventWithdrawalRejected  OutboxEventType = "withdrawal_rejected"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderCreated,
	EventOrderPaid,
	EventOrderAccepted,
	EventOrderSubmitted,
	EventOrderCancelled,
	EventOrderCompleted,
	EventOrderDisputed,
	EventReviewSubmitted,
	EventWithdrawalRequested,
	EventWithdrawalProcessed,
	EventWithdrawalRejected,
}

// IsValid reports whether the value matches a known event type.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
