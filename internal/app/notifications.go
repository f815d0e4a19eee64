package app

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/kennedy-ak/mooibanana-project/internal/domain"
)

const (
	NotificationPageSize = 20
	unreadListSize       = 10
)

// NotificationService stores notifications and announces each new one on the
// pub/sub bus so every instance can push it to the receiver's sockets.
type NotificationService struct {
	repo      domain.NotificationRepository
	publisher domain.NotificationPublisher
}

func NewNotificationService(repo domain.NotificationRepository, publisher domain.NotificationPublisher) *NotificationService {
	return &NotificationService{repo: repo, publisher: publisher}
}

// Notify creates n and publishes it with the receiver's fresh unread count.
// Publishing is best effort; the row is the source of truth.
func (s *NotificationService) Notify(ctx context.Context, n domain.NewNotification) (*domain.Notification, error) {
	if n.Status == "" {
		n.Status = domain.NotificationPending
	}
	created, err := s.repo.Create(ctx, n)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, created)
	return created, nil
}

func (s *NotificationService) publish(ctx context.Context, n *domain.Notification) {
	if s.publisher == nil {
		return
	}
	count, err := s.repo.UnreadCount(ctx, n.ReceiverID)
	if err != nil {
		slog.WarnContext(ctx, "Failed to count unread notifications", "user_id", n.ReceiverID, "error", err)
		return
	}
	event := domain.NotificationEvent{UserID: n.ReceiverID, Notification: n, Count: count}
	if err := s.publisher.Publish(ctx, event); err != nil {
		slog.WarnContext(ctx, "Failed to publish notification", "user_id", n.ReceiverID, "error", err)
	}
}

func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, page int) ([]domain.Notification, error) {
	_, offset := pageOffset(page, NotificationPageSize)
	return s.repo.List(ctx, userID, NotificationPageSize, offset)
}

func (s *NotificationService) Unread(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Notification, error) {
	if limit <= 0 || limit > unreadListSize {
		limit = unreadListSize
	}
	return s.repo.Unread(ctx, userID, limit)
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.UnreadCount(ctx, userID)
}

// MarkRead only touches notifications addressed to userID.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.MarkRead(ctx, userID, id)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.MarkAllRead(ctx, userID)
}
