package hardening

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/the3rdPoliceman/plant-hardener/pkg/mqtt"
	"github.com/the3rdPoliceman/plant-hardener/pkg/push"
)

// Notifier delivers a placement change notification. Delivery must be
// confirmed before the new state is committed.
type Notifier interface {
	Notify(ctx context.Context, title, body string) error
}

// MQTTNotifier publishes notifications to the plant notification topic
type MQTTNotifier struct {
	client   mqtt.Client
	location string
	logger   *slog.Logger
}

// NewMQTTNotifier creates an MQTT-backed notifier for a location
func NewMQTTNotifier(client mqtt.Client, location string, logger *slog.Logger) *MQTTNotifier {
	return &MQTTNotifier{
		client:   client,
		location: location,
		logger:   logger,
	}
}

// Notify publishes the notification at QoS 1 so the broker acknowledges it
func (n *MQTTNotifier) Notify(ctx context.Context, title, body string) error {
	payload, err := json.Marshal(map[string]string{
		"title":     title,
		"message":   body,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %v: %w", err, ErrNotificationDelivery)
	}

	topic := mqtt.NotificationTopic(n.location)
	if err := n.client.Publish(topic, 1, false, payload); err != nil {
		return fmt.Errorf("mqtt notification failed: %v: %w", err, ErrNotificationDelivery)
	}

	n.logger.Info("Published placement notification", "topic", topic)
	return nil
}

// PushNotifier delivers notifications via the push endpoint
type PushNotifier struct {
	client push.Client
	logger *slog.Logger
}

// NewPushNotifier creates a push-backed notifier
func NewPushNotifier(client push.Client, logger *slog.Logger) *PushNotifier {
	return &PushNotifier{
		client: client,
		logger: logger,
	}
}

// Notify sends the push notification
func (n *PushNotifier) Notify(ctx context.Context, title, body string) error {
	if err := n.client.Send(ctx, push.Message{Title: title, Body: body}); err != nil {
		return fmt.Errorf("push notification failed: %v: %w", err, ErrNotificationDelivery)
	}

	n.logger.Info("Sent push notification", "title", title)
	return nil
}

// MultiNotifier fans a notification out to every configured sink. All sinks
// must succeed; a failed sink blocks the state commit so the next run
// retries (duplicates on the sinks that already delivered are acceptable).
type MultiNotifier struct {
	notifiers []Notifier
}

// NewMultiNotifier combines notifiers into one
func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers}
}

// Notify delivers to every sink, stopping at the first failure
func (n *MultiNotifier) Notify(ctx context.Context, title, body string) error {
	for _, notifier := range n.notifiers {
		if err := notifier.Notify(ctx, title, body); err != nil {
			return err
		}
	}
	return nil
}
