package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kennedy-ak/mooibanana-project/internal/domain"
)

type AdvertisementRepo struct {
	pool *pgxpool.Pool
}

func NewAdvertisementRepo(pool *pgxpool.Pool) *AdvertisementRepo {
	return &AdvertisementRepo{pool: pool}
}

func (r *AdvertisementRepo) ListActive(ctx context.Context) ([]domain.Advertisement, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, brand_name, flyer_url, brand_url, priority, active, created_at
		FROM advertisements
		WHERE active
		ORDER BY priority DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list advertisements: %w", err)
	}
	defer rows.Close()

	var out []domain.Advertisement
	for rows.Next() {
		var a domain.Advertisement
		if err := rows.Scan(&a.ID, &a.BrandName, &a.FlyerURL, &a.BrandURL, &a.Priority, &a.Active, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan advertisement: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
