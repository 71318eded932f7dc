// Package notification dispatches push notifications through the message
// broker. Delivery is fire-and-forget: failures are logged, never surfaced
// to the triggering request.
package notification

import (
	"context"

	"github.com/karobar-labs/karobar-backend/pkg/logger"
	"github.com/karobar-labs/karobar-backend/pkg/messaging"
)

// EventPublisher is the subset of the messaging publisher the dispatcher needs
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// User types routing notification delivery to the right device registry
const (
	UserTypeOwner    = "owner"
	UserTypeEmployee = "employee"
	UserTypeCustomer = "customer"
)

// Dispatcher publishes notification events
type Dispatcher struct {
	publisher EventPublisher
	logger    *logger.Logger
}

// NewDispatcher creates a notification dispatcher
func NewDispatcher(publisher EventPublisher, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		publisher: publisher,
		logger:    log.WithComponent("notification"),
	}
}

// SendGeneralNotification publishes a general push notification for a user.
// Errors are swallowed after logging.
func (d *Dispatcher) SendGeneralNotification(ctx context.Context, userID, userType, title, body string, data map[string]any) {
	if d.publisher == nil {
		return
	}

	event := messaging.GeneralNotificationEvent{
		UserID:   userID,
		UserType: userType,
		Title:    title,
		Body:     body,
		Data:     data,
	}

	if err := d.publisher.Publish(ctx, messaging.EventNotificationGeneral, event); err != nil {
		d.logger.Warn().
			Err(err).
			Str("user_id", userID).
			Str("user_type", userType).
			Str("title", title).
			Msg("failed to dispatch notification")
	}
}
