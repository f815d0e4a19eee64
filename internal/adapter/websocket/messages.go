package websocket

import "github.com/kennedy-ak/mooibanana-project/internal/domain"

const (
	typeMarkRead            = "mark_read"
	typeGetNotifications    = "get_notifications"
	typeNotificationCount   = "notification_count"
	typeNotificationsList   = "notifications_list"
	typeNotificationMessage = "notification_message"
	typeError               = "error"
)

type clientMessage struct {
	Type           string `json:"type"`
	NotificationID string `json:"notification_id,omitempty"`
}

type countMessage struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

type listMessage struct {
	Type          string                `json:"type"`
	Notifications []domain.Notification `json:"notifications"`
}

type pushMessage struct {
	Type         string               `json:"type"`
	Notification *domain.Notification `json:"notification"`
	Count        int                  `json:"count"`
}

type errorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}
