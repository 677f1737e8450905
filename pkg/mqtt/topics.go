package mqtt

import "fmt"

// Topic constants for plant placement messaging
const (
	// Human-facing placement change notifications
	TopicNotificationBase = "automation/plants/notification"

	// Retained placement context, one message per location
	TopicContextBase = "automation/plants/context"
)

// NotificationTopic constructs the notification topic for a location
// Pattern: automation/plants/notification/{location}
func NotificationTopic(location string) string {
	return fmt.Sprintf("%s/%s", TopicNotificationBase, location)
}

// ContextTopic constructs the retained placement context topic for a location
// Pattern: automation/plants/context/{location}
func ContextTopic(location string) string {
	return fmt.Sprintf("%s/%s", TopicContextBase, location)
}
