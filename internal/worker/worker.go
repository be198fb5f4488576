package worker

import (
	"context"

	"victoria-kids-api/internal/broker"
	"victoria-kids-api/internal/mailer"
	"victoria-kids-api/internal/models"
	"victoria-kids-api/internal/util"

	"go.uber.org/zap"
)

// NotificationWorker consumes shop events and turns them into
// outbound emails. Delivery is best effort: a failed email is logged
// and the event is still committed, never retried into the workflow.
type NotificationWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	mailer       *mailer.Mailer
	logger       *zap.Logger
}

// NewNotificationWorker creates a new notification worker
func NewNotificationWorker(consumer *broker.Consumer, m *mailer.Mailer) *NotificationWorker {
	w := &NotificationWorker{
		consumer: consumer,
		mailer:   m,
		logger:   util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnUserRegistered(w.handleUserRegistered)
	eventHandler.OnNewsletterSubscribed(w.handleNewsletterSubscribed)
	eventHandler.OnOrderCreated(w.handleOrderCreated)
	eventHandler.OnPaymentCompleted(w.handlePaymentCompleted)
	w.eventHandler = eventHandler

	return w
}

// Start begins consuming events; blocks until ctx is cancelled
func (w *NotificationWorker) Start(ctx context.Context) error {
	w.logger.Info("Notification worker starting")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop shuts down the worker's consumer
func (w *NotificationWorker) Stop() error {
	return w.consumer.Close()
}

func (w *NotificationWorker) handleUserRegistered(ctx context.Context, event *models.UserRegisteredEvent) error {
	if err := w.mailer.SendWelcome(event.Email, event.Name); err != nil {
		w.logger.Error("Failed to send welcome email",
			zap.String("email", event.Email), zap.Error(err))
	}
	return nil
}

func (w *NotificationWorker) handleNewsletterSubscribed(ctx context.Context, event *models.NewsletterSubscribedEvent) error {
	if err := w.mailer.SendNewsletterWelcome(event.Email, event.Name); err != nil {
		w.logger.Error("Failed to send newsletter welcome email",
			zap.String("email", event.Email), zap.Error(err))
	}
	return nil
}

func (w *NotificationWorker) handleOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error {
	if event.Email == "" {
		w.logger.Warn("Order created event without email", zap.Int64("order_id", event.OrderID))
		return nil
	}
	if err := w.mailer.SendOrderConfirmation(event.Email, event); err != nil {
		w.logger.Error("Failed to send order confirmation",
			zap.Int64("order_id", event.OrderID), zap.Error(err))
	}
	return nil
}

func (w *NotificationWorker) handlePaymentCompleted(ctx context.Context, event *models.PaymentCompletedEvent) error {
	if event.Email == "" {
		w.logger.Warn("Payment completed event without email", zap.Int64("order_id", event.OrderID))
		return nil
	}
	if err := w.mailer.SendPaymentReceipt(event.Email, event.OrderNumber); err != nil {
		w.logger.Error("Failed to send payment receipt",
			zap.Int64("order_id", event.OrderID), zap.Error(err))
	}
	return nil
}
