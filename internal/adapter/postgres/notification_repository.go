package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kennedy-ak/mooibanana-project/internal/domain"
)

const notificationColumns = `n.id, n.sender_id, u.username, n.receiver_id, n.type, n.status, n.message, n.is_read, n.created_at, n.updated_at`

type NotificationRepo struct {
	pool *pgxpool.Pool
}

func NewNotificationRepo(pool *pgxpool.Pool) *NotificationRepo {
	return &NotificationRepo{pool: pool}
}

func scanNotification(row pgx.Row) (*domain.Notification, error) {
	var n domain.Notification
	err := row.Scan(&n.ID, &n.SenderID, &n.SenderUsername, &n.ReceiverID, &n.Type, &n.Status, &n.Message, &n.IsRead, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *NotificationRepo) list(ctx context.Context, sql string, args ...any) ([]domain.Notification, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var out []domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

func (r *NotificationRepo) Create(ctx context.Context, nn domain.NewNotification) (*domain.Notification, error) {
	status := nn.Status
	if status == "" {
		status = domain.NotificationPending
	}

	n, err := scanNotification(r.pool.QueryRow(ctx, `
		WITH n AS (
			INSERT INTO notifications (sender_id, receiver_id, type, status, message)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING *
		)
		SELECT `+notificationColumns+` FROM n JOIN users u ON u.id = n.sender_id`,
		nn.SenderID, nn.ReceiverID, nn.Type, status, nn.Message))
	switch {
	case isUniqueViolation(err, "notifications_pending_request_key"):
		return nil, domain.ErrMatchRequestExists
	case isForeignKeyViolation(err):
		return nil, domain.ErrUserNotFound
	case err != nil:
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	return n, nil
}

func (r *NotificationRepo) Get(ctx context.Context, receiver, id uuid.UUID) (*domain.Notification, error) {
	n, err := scanNotification(r.pool.QueryRow(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications n JOIN users u ON u.id = n.sender_id
		WHERE n.id = $1 AND n.receiver_id = $2`, id, receiver))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotificationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return n, nil
}

func (r *NotificationRepo) List(ctx context.Context, receiver uuid.UUID, limit, offset int) ([]domain.Notification, error) {
	return r.list(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications n JOIN users u ON u.id = n.sender_id
		WHERE n.receiver_id = $1
		ORDER BY n.created_at DESC, n.id
		LIMIT $2 OFFSET $3`, receiver, limit, offset)
}

func (r *NotificationRepo) Unread(ctx context.Context, receiver uuid.UUID, limit int) ([]domain.Notification, error) {
	return r.list(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications n JOIN users u ON u.id = n.sender_id
		WHERE n.receiver_id = $1 AND NOT n.is_read
		ORDER BY n.created_at DESC, n.id
		LIMIT $2`, receiver, limit)
}

func (r *NotificationRepo) UnreadCount(ctx context.Context, receiver uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM notifications WHERE receiver_id = $1 AND NOT is_read`, receiver).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

func (r *NotificationRepo) MarkRead(ctx context.Context, receiver, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE notifications SET is_read = true, updated_at = now()
		WHERE id = $1 AND receiver_id = $2`, id, receiver)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotificationNotFound
	}
	return nil
}

func (r *NotificationRepo) MarkAllRead(ctx context.Context, receiver uuid.UUID) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE notifications SET is_read = true, updated_at = now()
		WHERE receiver_id = $1 AND NOT is_read`, receiver)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *NotificationRepo) PendingMatchRequestExists(ctx context.Context, from, to uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM notifications
			WHERE sender_id = $1 AND receiver_id = $2 AND type = 'match_request' AND status = 'pending'
		)`, from, to).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check match request: %w", err)
	}
	return exists, nil
}

func (r *NotificationRepo) RespondMatchRequest(ctx context.Context, receiver, id uuid.UUID, status domain.NotificationStatus) (*domain.Notification, error) {
	n, err := scanNotification(r.pool.QueryRow(ctx, `
		WITH n AS (
			UPDATE notifications SET status = $3, is_read = true, updated_at = now()
			WHERE id = $1 AND receiver_id = $2 AND type = 'match_request' AND status = 'pending'
			RETURNING *
		)
		SELECT `+notificationColumns+` FROM n JOIN users u ON u.id = n.sender_id`, id, receiver, status))
	if err == nil {
		return n, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to respond to match request: %w", err)
	}

	existing, err := r.Get(ctx, receiver, id)
	if err != nil {
		return nil, err
	}
	if existing.Type != domain.NotifyMatchRequest {
		return nil, domain.ErrNotificationNotFound
	}
	return nil, domain.ErrAlreadyResponded
}
