package ws

import (
	"strings"

	"github.com/google/uuid"
	"github.com/hostelbites/api/internal/auth"
	"github.com/hostelbites/api/internal/enum"
)

const (
	TopicMenu               = "menu"
	TopicCategories         = "categories"
	TopicSettings           = "settings"
	TopicAdminOrders        = "admin.orders"
	TopicAdminNotifications = "admin.notifications"
)

// Event types.
const (
	EventOrderCreated             = "order.created"
	EventOrderUpdated             = "order.updated"
	EventOrderDeleted             = "order.deleted"
	EventCartUpdated              = "cart.updated"
	EventMenuUpdated              = "menu.updated"
	EventMenuDeleted              = "menu.deleted"
	EventCategoriesUpdated        = "categories.updated"
	EventSettingsUpdated          = "settings.updated"
	EventNotificationCreated      = "notification.created"
	EventAdminNotificationCreated = "admin_notification.created"
	EventAdminNotificationHandled = "admin_notification.handled"
)

func UserOrdersTopic(userID uuid.UUID) string {
	return "orders." + userID.String()
}

func CartTopic(userID uuid.UUID) string {
	return "cart." + userID.String()
}

func NotificationsTopic(userID uuid.UUID) string {
	return "notifications." + userID.String()
}

// CanSubscribe reports whether the holder of claims may listen on topic.
// Admins may listen on anything; users on public topics and their own.
func CanSubscribe(claims *auth.Claims, topic string) bool {
	if claims == nil {
		return false
	}
	switch topic {
	case TopicMenu, TopicCategories, TopicSettings:
		return true
	case TopicAdminOrders, TopicAdminNotifications:
		return claims.Role == enum.UserRoleAdmin
	}

	prefix, id, ok := strings.Cut(topic, ".")
	if !ok {
		return false
	}
	switch prefix {
	case "orders", "cart", "notifications":
	default:
		return false
	}
	uid, err := uuid.Parse(id)
	if err != nil {
		return false
	}
	return claims.Role == enum.UserRoleAdmin || uid == claims.UserID
}
