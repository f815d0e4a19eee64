package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kennedy-ak/mooibanana-project/internal/domain"
)

const updateColumns = `s.id, s.user_id, u.username, s.content, s.background_color, s.text_color, s.active, s.created_at`

type UpdateRepo struct {
	pool *pgxpool.Pool
}

func NewUpdateRepo(pool *pgxpool.Pool) *UpdateRepo {
	return &UpdateRepo{pool: pool}
}

func scanUpdate(row pgx.Row) (*domain.StatusUpdate, error) {
	var s domain.StatusUpdate
	if err := row.Scan(&s.ID, &s.UserID, &s.Username, &s.Content, &s.BackgroundColor, &s.TextColor, &s.Active, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *UpdateRepo) Create(ctx context.Context, s *domain.StatusUpdate) error {
	saved, err := scanUpdate(r.pool.QueryRow(ctx, `
		WITH s AS (
			INSERT INTO status_updates (user_id, content, background_color, text_color)
			VALUES ($1, $2, $3, $4)
			RETURNING *
		)
		SELECT `+updateColumns+` FROM s JOIN users u ON u.id = s.user_id`,
		s.UserID, s.Content, s.BackgroundColor, s.TextColor))
	if err != nil {
		return fmt.Errorf("failed to create status update: %w", err)
	}
	*s = *saved
	return nil
}

func (r *UpdateRepo) list(ctx context.Context, sql string, args ...any) ([]domain.StatusUpdate, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list status updates: %w", err)
	}
	defer rows.Close()

	var out []domain.StatusUpdate
	for rows.Next() {
		s, err := scanUpdate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan status update: %w", err)
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (r *UpdateRepo) Feed(ctx context.Context, limit int) ([]domain.StatusUpdate, error) {
	return r.list(ctx, `
		SELECT `+updateColumns+` FROM status_updates s JOIN users u ON u.id = s.user_id
		WHERE s.active
		ORDER BY s.created_at DESC
		LIMIT $1`, limit)
}

func (r *UpdateRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.StatusUpdate, error) {
	return r.list(ctx, `
		SELECT `+updateColumns+` FROM status_updates s JOIN users u ON u.id = s.user_id
		WHERE s.user_id = $1
		ORDER BY s.created_at DESC`, userID)
}

func (r *UpdateRepo) Delete(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM status_updates WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete status update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUpdateNotFound
	}
	return nil
}

func (r *UpdateRepo) DeactivateBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE status_updates SET active = false WHERE active AND created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to expire status updates: %w", err)
	}
	return tag.RowsAffected(), nil
}
