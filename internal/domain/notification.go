package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotifyMatchRequest   NotificationType = "match_request"
	NotifyMatchAccepted  NotificationType = "match_accepted"
	NotifyMatchDeclined  NotificationType = "match_declined"
	NotifyNewMessage     NotificationType = "new_message"
	NotifyGiftReceived   NotificationType = "gift_received"
	NotifyLikeReceived   NotificationType = "like_received"
	NotifyUnlikeReceived NotificationType = "unlike_received"
	NotifyNewMatch       NotificationType = "new_match"
)

type NotificationStatus string

const (
	NotificationPending  NotificationStatus = "pending"
	NotificationAccepted NotificationStatus = "accepted"
	NotificationDeclined NotificationStatus = "declined"
	NotificationRead     NotificationStatus = "read"
)

type Notification struct {
	ID             uuid.UUID          `json:"id"`
	SenderID       uuid.UUID          `json:"sender_id"`
	SenderUsername string             `json:"sender_username"`
	ReceiverID     uuid.UUID          `json:"receiver_id"`
	Type           NotificationType   `json:"type"`
	Status         NotificationStatus `json:"status"`
	Message        string             `json:"message"`
	IsRead         bool               `json:"is_read"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

type NewNotification struct {
	SenderID   uuid.UUID
	ReceiverID uuid.UUID
	Type       NotificationType
	Status     NotificationStatus
	Message    string
}

type NotificationRepository interface {
	Create(ctx context.Context, n NewNotification) (*Notification, error)
	Get(ctx context.Context, receiver, id uuid.UUID) (*Notification, error)
	List(ctx context.Context, receiver uuid.UUID, limit, offset int) ([]Notification, error)
	Unread(ctx context.Context, receiver uuid.UUID, limit int) ([]Notification, error)
	UnreadCount(ctx context.Context, receiver uuid.UUID) (int, error)
	MarkRead(ctx context.Context, receiver, id uuid.UUID) error
	MarkAllRead(ctx context.Context, receiver uuid.UUID) (int, error)
	PendingMatchRequestExists(ctx context.Context, from, to uuid.UUID) (bool, error)
	// RespondMatchRequest conditionally moves a pending match request owned by
	// receiver to status.
	RespondMatchRequest(ctx context.Context, receiver, id uuid.UUID, status NotificationStatus) (*Notification, error)
}

// NotificationEvent is fanned out to every instance so connected clients see
// new notifications immediately.
type NotificationEvent struct {
	UserID       uuid.UUID     `json:"user_id"`
	Notification *Notification `json:"notification"`
	Count        int           `json:"count"`
}

type NotificationPublisher interface {
	Publish(ctx context.Context, event NotificationEvent) error
}

// Debouncer suppresses repeats of key within ttl. Returns true when the caller
// should stay quiet.
type Debouncer interface {
	IsDebounced(ctx context.Context, key string, ttl time.Duration) (bool, error)
}
