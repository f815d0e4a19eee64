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

type ReferralRepo struct {
	pool *pgxpool.Pool
}

func NewReferralRepo(pool *pgxpool.Pool) *ReferralRepo {
	return &ReferralRepo{pool: pool}
}

func (r *ReferralRepo) Complete(ctx context.Context, referredID uuid.UUID, points int) (*domain.Referral, bool, error) {
	var ref domain.Referral
	completed := false
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			UPDATE referrals SET status = 'completed', points_awarded = $2, completed_at = now()
			WHERE referred_id = $1 AND status = 'pending'
			RETURNING id, referrer_id, referred_id, status, points_awarded, created_at, completed_at`,
			referredID, points,
		).Scan(&ref.ID, &ref.ReferrerID, &ref.ReferredID, &ref.Status, &ref.PointsAwarded, &ref.CreatedAt, &ref.CompletedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to complete referral: %w", err)
		}

		if _, err := tx.Exec(ctx, `
			UPDATE users SET
				points_balance = points_balance + $2,
				referral_points_earned = referral_points_earned + $2,
				updated_at = now()
			WHERE id = $1`, ref.ReferrerID, points); err != nil {
			return fmt.Errorf("failed to pay referrer: %w", err)
		}
		completed = true
		return nil
	})
	if err != nil || !completed {
		return nil, false, err
	}
	return &ref, true, nil
}

func (r *ReferralRepo) ListByReferrer(ctx context.Context, referrerID uuid.UUID) ([]domain.Referral, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT f.id, f.referrer_id, f.referred_id, u.username, f.status, f.points_awarded, f.created_at, f.completed_at
		FROM referrals f
		JOIN users u ON u.id = f.referred_id
		WHERE f.referrer_id = $1
		ORDER BY f.created_at DESC`, referrerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list referrals: %w", err)
	}
	defer rows.Close()

	var out []domain.Referral
	for rows.Next() {
		var ref domain.Referral
		if err := rows.Scan(&ref.ID, &ref.ReferrerID, &ref.ReferredID, &ref.ReferredUsername, &ref.Status,
			&ref.PointsAwarded, &ref.CreatedAt, &ref.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan referral: %w", err)
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}
