package worker

import (
	"context"
	"log"

	"vecar-shop/internal/broker"
	"vecar-shop/internal/models"
	"vecar-shop/internal/notify"
)

// NotificationWorker consumes order events and relays them to the staff
// mailbox.
type NotificationWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	relay        *notify.Relay
}

// NewNotificationWorker creates a new notification worker
func NewNotificationWorker(consumer *broker.Consumer, relay *notify.Relay) *NotificationWorker {
	eventHandler := broker.NewEventHandler()

	eventHandler.OnOrderPlaced(func(ctx context.Context, event *models.OrderPlacedEvent) error {
		if err := relay.SendOrderPlaced(ctx, event); err != nil {
			// Delivery is best effort. Log and move on so the consumer
			// keeps draining the topic.
			log.Printf("Failed to relay order %d: %v", event.OrderID, err)
		}
		return nil
	})

	return &NotificationWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
		relay:        relay,
	}
}

// Start starts the worker
func (w *NotificationWorker) Start(ctx context.Context) error {
	log.Println("Starting notification worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *NotificationWorker) Stop() error {
	log.Println("Stopping notification worker...")
	return w.consumer.Close()
}
