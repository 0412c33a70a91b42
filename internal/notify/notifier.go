// Package notify delivers the side effects of committed order changes:
// the admin email, admin and user notification documents, realtime events
// and the optional order event stream. Nothing here can fail an order.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hostelbites/api/internal/database"
	"github.com/hostelbites/api/internal/enum"
	"github.com/hostelbites/api/internal/metrics"
	"github.com/hostelbites/api/internal/service"
	"github.com/hostelbites/api/internal/ws"
	"github.com/jackc/pgx/v5/pgtype"
)

// Channel names, used as the metrics label.
const (
	ChannelEmail             = "email"
	ChannelAdminNotification = "admin_notification"
	ChannelUserNotification  = "user_notification"
	ChannelKafka             = "kafka"
)

// Store defines the DB methods the notifier writes through.
type Store interface {
	CreateAdminNotification(ctx context.Context, arg database.CreateAdminNotificationParams) (database.AdminNotification, error)
	CreateNotification(ctx context.Context, arg database.CreateNotificationParams) (database.Notification, error)
}

type Config struct {
	From         string
	AdminAddress string
}

// Notifier implements service.OrderNotifier. mailer, pub and producer are
// optional.
type Notifier struct {
	store    Store
	mailer   Mailer
	pub      service.EventPublisher
	producer EventProducer
	cfg      Config
}

var _ service.OrderNotifier = (*Notifier)(nil)

func New(store Store, mailer Mailer, pub service.EventPublisher, producer EventProducer, cfg Config) *Notifier {
	return &Notifier{store: store, mailer: mailer, pub: pub, producer: producer, cfg: cfg}
}

// OrderPlaced tells admins about a new order: realtime event, admin
// notification and email. Every channel is attempted; failures are joined.
func (n *Notifier) OrderPlaced(ctx context.Context, o database.Order) error {
	n.publishOrder(o.UserID, ws.EventOrderCreated, o)

	var errs []error

	an, err := n.store.CreateAdminNotification(ctx, database.CreateAdminNotificationParams{
		Type:       enum.AdminNotificationOrderPlaced,
		OrderID:    o.ID,
		UserID:     o.UserID,
		UserName:   o.UserName,
		Total:      o.TotalAmount,
		ItemsCount: int32(len(o.Items)),
	})
	if err != nil {
		errs = append(errs, failure(ChannelAdminNotification, err))
	} else {
		n.publish(ws.TopicAdminNotifications, ws.EventAdminNotificationCreated, an)
	}

	if err := n.emailAdmin(ctx, o); err != nil {
		errs = append(errs, failure(ChannelEmail, err))
	}

	if err := n.produce(ctx, newOrderEvent(ws.EventOrderCreated, o, "")); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// OrderStatusChanged pushes the new status and leaves the customer a
// notification describing it.
func (n *Notifier) OrderStatusChanged(ctx context.Context, o database.Order, previous string) error {
	n.publishOrder(o.UserID, ws.EventOrderUpdated, o)

	var errs []error

	if msg, ok := statusMessage(o, previous); ok {
		notif, err := n.store.CreateNotification(ctx, database.CreateNotificationParams{
			UserID:  o.UserID,
			Type:    enum.NotificationTypeOrder,
			Title:   msg.title,
			Message: msg.message,
			OrderID: pgtype.UUID{Bytes: o.ID, Valid: true},
			Icon:    msg.icon,
			Color:   msg.color,
		})
		if err != nil {
			errs = append(errs, failure(ChannelUserNotification, err))
		} else {
			n.publish(ws.NotificationsTopic(o.UserID), ws.EventNotificationCreated, notif)
		}
	}

	if err := n.produce(ctx, newOrderEvent(ws.EventOrderUpdated, o, previous)); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (n *Notifier) OrderUpdated(ctx context.Context, o database.Order) error {
	n.publishOrder(o.UserID, ws.EventOrderUpdated, o)
	return n.produce(ctx, newOrderEvent(ws.EventOrderUpdated, o, o.Status))
}

func (n *Notifier) OrderDeleted(ctx context.Context, o database.Order) error {
	n.publishOrder(o.UserID, ws.EventOrderDeleted, map[string]string{"id": o.ID.String()})
	return n.produce(ctx, newOrderEvent(ws.EventOrderDeleted, o, o.Status))
}

func (n *Notifier) emailAdmin(ctx context.Context, o database.Order) error {
	if n.mailer == nil || n.cfg.AdminAddress == "" {
		return nil
	}
	subject, html, err := OrderEmail(SummaryFromOrder(o))
	if err != nil {
		return fmt.Errorf("render email: %w", err)
	}
	return n.mailer.Send(ctx, Email{
		From:    n.cfg.From,
		To:      []string{n.cfg.AdminAddress},
		Subject: subject,
		HTML:    html,
	})
}

func (n *Notifier) produce(ctx context.Context, ev OrderEvent) error {
	if n.producer == nil {
		return nil
	}
	if err := n.producer.PublishOrderEvent(ctx, ev); err != nil {
		return failure(ChannelKafka, err)
	}
	return nil
}

// publishOrder sends an order event to admins and to the order's owner.
func (n *Notifier) publishOrder(userID uuid.UUID, eventType string, payload any) {
	n.publish(ws.TopicAdminOrders, eventType, payload)
	n.publish(ws.UserOrdersTopic(userID), eventType, payload)
}

func (n *Notifier) publish(topic, eventType string, payload any) {
	service.Publish(n.pub, topic, eventType, payload)
}

// failure wraps err as a delivery failure on channel and counts it.
func failure(channel string, err error) error {
	metrics.NotificationFailures.WithLabelValues(channel).Inc()
	return fmt.Errorf("%s: %w: %w", channel, service.ErrNotificationDelivery, err)
}

type userMessage struct {
	title, message, icon, color string
}

// statusMessage describes a status change to the customer.
func statusMessage(o database.Order, previous string) (userMessage, bool) {
	switch o.Status {
	case enum.OrderStatusPreparing:
		if previous == enum.OrderStatusPaymentPending {
			return userMessage{"Payment Verified", "Your payment has been verified. We have started preparing your order.", "CheckCircle", "green"}, true
		}
		return userMessage{"Order Preparing", "Your order is being prepared.", "ChefHat", "blue"}, true
	case enum.OrderStatusOutForDelivery:
		return userMessage{"Out for Delivery", fmt.Sprintf("Your order is on its way to room %s.", o.RoomNumber), "Truck", "purple"}, true
	case enum.OrderStatusReadyForPickup:
		return userMessage{"Ready for Pickup", "Your order is ready. Please collect it from the counter.", "Package", "orange"}, true
	case enum.OrderStatusDelivered:
		return userMessage{"Order Delivered", "Your order has been delivered. Enjoy your meal!", "CheckCircle", "green"}, true
	case enum.OrderStatusCancelled:
		return userMessage{"Order Cancelled", "Your order has been cancelled. Contact the canteen if you have already paid.", "AlertCircle", "orange"}, true
	}
	return userMessage{}, false
}
