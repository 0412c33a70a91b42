package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hostelbites/api/internal/database"
	"github.com/hostelbites/api/internal/enum"
	"github.com/hostelbites/api/internal/logging"
	"github.com/hostelbites/api/internal/ws"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type AdminNotificationStore interface {
	ListAdminNotifications(ctx context.Context, arg database.ListAdminNotificationsParams) ([]database.AdminNotification, error)
	GetAdminNotification(ctx context.Context, id uuid.UUID) (database.AdminNotification, error)
	MarkAdminNotificationHandled(ctx context.Context, arg database.MarkAdminNotificationHandledParams) (database.AdminNotification, error)
	ReleaseAdminNotification(ctx context.Context, arg database.ReleaseAdminNotificationParams) error
}

// orderActions is the part of AdminOrders that handling a notification drives.
type orderActions interface {
	GetOrder(ctx context.Context, orderID uuid.UUID) (database.Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, next string) (database.Order, error)
	CancelOrder(ctx context.Context, orderID uuid.UUID) (database.Order, error)
}

// AdminNotificationService lets an admin accept or decline a new order
// straight from its notification.
type AdminNotificationService struct {
	store  AdminNotificationStore
	orders orderActions
	pub    EventPublisher
}

func NewAdminNotificationService(store AdminNotificationStore, orders orderActions, pub EventPublisher) *AdminNotificationService {
	return &AdminNotificationService{store: store, orders: orders, pub: pub}
}

// List returns the newest notifications first. handled filters when non-nil.
func (s *AdminNotificationService) List(ctx context.Context, handled *bool, limit int32) ([]database.AdminNotification, error) {
	arg := database.ListAdminNotificationsParams{Limit: limit}
	if arg.Limit <= 0 || arg.Limit > 200 {
		arg.Limit = 50
	}
	if handled != nil {
		arg.Handled = pgtype.Bool{Bool: *handled, Valid: true}
	}
	list, err := s.store.ListAdminNotifications(ctx, arg)
	if err != nil {
		return nil, fmt.Errorf("list admin notifications: %w", err)
	}
	return list, nil
}

// Handle accepts or declines the order behind a notification. Accepting
// verifies payment (payment_pending to preparing); an order already
// preparing is left as is. Declining cancels the order and restocks it.
// The notification is claimed before the order is touched, so of two
// admins racing on it only one drives the order. A failed order action
// releases the claim.
func (s *AdminNotificationService) Handle(ctx context.Context, notifID, adminID uuid.UUID, accept bool) (database.AdminNotification, error) {
	n, err := s.store.GetAdminNotification(ctx, notifID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.AdminNotification{}, ErrNotificationNotFound
		}
		return database.AdminNotification{}, fmt.Errorf("get admin notification: %w", err)
	}
	if n.Handled {
		return database.AdminNotification{}, ErrNotificationHandled
	}

	result := enum.AdminNotificationDeclined
	if accept {
		result = enum.AdminNotificationAccepted
	}
	handled, err := s.store.MarkAdminNotificationHandled(ctx, database.MarkAdminNotificationHandledParams{
		ID:        notifID,
		Result:    result,
		HandledBy: adminID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.AdminNotification{}, ErrNotificationHandled
		}
		return database.AdminNotification{}, fmt.Errorf("mark admin notification handled: %w", err)
	}

	if accept {
		err = s.accept(ctx, n.OrderID)
	} else {
		_, err = s.orders.CancelOrder(ctx, n.OrderID)
	}
	if err != nil {
		s.release(ctx, notifID, adminID)
		return database.AdminNotification{}, err
	}

	logging.Ctx(ctx).Info().
		Str("notification_id", notifID.String()).
		Str("order_id", n.OrderID.String()).
		Str("result", result).
		Msg("admin notification handled")
	Publish(s.pub, ws.TopicAdminNotifications, ws.EventAdminNotificationHandled, handled)
	return handled, nil
}

// release reopens a claimed notification. It runs even when ctx is already
// cancelled.
func (s *AdminNotificationService) release(ctx context.Context, notifID, adminID uuid.UUID) {
	err := s.store.ReleaseAdminNotification(context.WithoutCancel(ctx), database.ReleaseAdminNotificationParams{
		ID:        notifID,
		HandledBy: adminID,
	})
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).
			Str("notification_id", notifID.String()).
			Msg("release admin notification claim")
	}
}

func (s *AdminNotificationService) accept(ctx context.Context, orderID uuid.UUID) error {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Status == enum.OrderStatusPreparing {
		return nil
	}
	_, err = s.orders.UpdateStatus(ctx, orderID, enum.OrderStatusPreparing)
	return err
}
