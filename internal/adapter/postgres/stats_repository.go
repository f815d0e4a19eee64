package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kennedy-ak/mooibanana-project/internal/domain"
)

var statQueries = map[domain.StatKey]string{
	domain.StatUsers:               `SELECT count(*) FROM users`,
	domain.StatStudents:            `SELECT count(*) FROM users WHERE is_student`,
	domain.StatVerified:            `SELECT count(*) FROM users WHERE is_verified`,
	domain.StatJoined7d:            `SELECT count(*) FROM users WHERE created_at >= now() - interval '7 days'`,
	domain.StatJoined30d:           `SELECT count(*) FROM users WHERE created_at >= now() - interval '30 days'`,
	domain.StatCompleteProfiles:    `SELECT count(*) FROM profiles WHERE is_complete`,
	domain.StatMatches:             `SELECT count(*) FROM matches`,
	domain.StatLikes:               `SELECT count(*) FROM likes`,
	domain.StatMutualLikes:         `SELECT count(*) FROM likes WHERE is_mutual`,
	domain.StatNotifications:       `SELECT count(*) FROM notifications`,
	domain.StatPendingMatchRequest: `SELECT count(*) FROM notifications WHERE type = 'match_request' AND status = 'pending'`,
	domain.StatCompletedPurchases:  `SELECT count(*) FROM purchases WHERE status = 'completed'`,
	domain.StatRevenueMinor:        `SELECT COALESCE(sum(amount_minor), 0)::bigint FROM purchases WHERE status = 'completed'`,
}

type StatsRepo struct {
	pool *pgxpool.Pool
}

func NewStatsRepo(pool *pgxpool.Pool) *StatsRepo {
	return &StatsRepo{pool: pool}
}

func (r *StatsRepo) Count(ctx context.Context, key domain.StatKey) (int64, error) {
	sql, ok := statQueries[key]
	if !ok {
		return 0, fmt.Errorf("unknown stat %q", key)
	}
	var n int64
	if err := r.pool.QueryRow(ctx, sql).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", key, err)
	}
	return n, nil
}
