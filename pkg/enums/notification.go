package enums

import "fmt"

// NotificationType classifies in-app notifications.
type NotificationType string

const (
	NotificationTypeOrderReceived   NotificationType = "order_received"
	NotificationTypeOrderUpdate     NotificationType = "order_update"
	NotificationTypePayoutProcessed NotificationType = "payout_processed"
	NotificationTypePayoutRejected  NotificationType = "payout_rejected"
	NotificationTypeReviewReceived  NotificationType = "review_received"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeOrderReceived,
	NotificationTypeOrderUpdate,
	NotificationTypePayoutProcessed,
	NotificationTypePayoutRejected,
	NotificationTypeReviewReceived,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
