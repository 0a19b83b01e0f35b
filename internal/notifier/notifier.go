package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/workshophub/workshop-booking/internal/models"
	"github.com/workshophub/workshop-booking/internal/repository"
	"github.com/workshophub/workshop-booking/internal/service"
)

// Notifier turns booking.created events into Notification rows, one per
// active admin. Delivery is best-effort by contract: the booking that
// triggered the event has already committed.
type Notifier struct {
	users         repository.UserRepository
	notifications repository.NotificationRepository
}

func New(users repository.UserRepository, notifications repository.NotificationRepository) *Notifier {
	return &Notifier{users: users, notifications: notifications}
}

func (n *Notifier) Start(msgs <-chan amqp.Delivery) {
	go func() {
		for msg := range msgs {
			n.handleMessage(msg)
		}
		log.Println("[Notifier] channel closed, stopping consumer")
	}()
}

func (n *Notifier) handleMessage(msg amqp.Delivery) {
	if msg.RoutingKey != "booking.created" {
		msg.Ack(false)
		return
	}

	var event service.BookingEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		log.Printf("[Notifier] failed to unmarshal: %v", err)
		msg.Nack(false, false)
		return
	}

	ctx := context.Background()
	admins, err := n.users.FindActiveAdmins(ctx)
	if err != nil {
		log.Printf("[Notifier] failed to load admins: %v", err)
		msg.Nack(false, true) // requeue
		return
	}

	notifications := make([]models.Notification, len(admins))
	for i, admin := range admins {
		notifications[i] = models.Notification{
			AdminID: admin.ID,
			Type:    "NEW_BOOKING",
			Message: fmt.Sprintf("New booking by %s for %s", event.AttendeeName, event.WorkshopTitle),
		}
	}
	if err := n.notifications.CreateBatch(ctx, notifications); err != nil {
		log.Printf("[Notifier] failed to store notifications for %s: %v", event.BookingCode, err)
		msg.Nack(false, true) // requeue
		return
	}

	log.Printf("[Notifier] notified %d admins about booking %s", len(admins), event.BookingCode)
	msg.Ack(false)
}
