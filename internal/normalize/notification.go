package normalize

import "github.com/aawaaz/grievance-portal/internal/models"

// notificationTypes maps server event names onto notification types.
// Anything not listed, including an absent type, is general.
var notificationTypes = map[string]models.NotificationType{
	"status_updated": models.NotificationStatusChange,
	"remark_added":   models.NotificationNewRemark,
}

// NotificationType maps a raw server type string
func NotificationType(raw string) models.NotificationType {
	if t, ok := notificationTypes[raw]; ok {
		return t
	}
	return models.NotificationGeneral
}

// Notification normalizes a notification payload
func (n *Normalizer) Notification(v any) models.Notification {
	r := asRaw(v)
	return models.Notification{
		ID:        idOf(r),
		UserID:    r.str(at("recipient", "_id"), at("recipient", "id"), at("recipient"), at("userId")),
		Message:   r.str(at("message")),
		IsRead:    r.truthy(at("isRead")),
		Type:      NotificationType(r.str(at("type"))),
		CreatedAt: r.timestamp(n.now(), at("createdAt")),
	}
}

// Notifications normalizes a list of notification payloads
func (n *Normalizer) Notifications(v any) []models.Notification {
	items, _ := v.([]any)
	out := make([]models.Notification, 0, len(items))
	for _, item := range items {
		out = append(out, n.Notification(item))
	}
	return out
}
