package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/kennedy-ak/mooibanana-project/internal/domain"
	"golang.org/x/sync/errgroup"
)

type AdvertisementService struct {
	repo domain.AdvertisementRepository
}

func NewAdvertisementService(repo domain.AdvertisementRepository) *AdvertisementService {
	return &AdvertisementService{repo: repo}
}

func (s *AdvertisementService) ActiveAdvertisements(ctx context.Context) ([]domain.Advertisement, error) {
	return s.repo.ListActive(ctx)
}

type AdminService struct {
	stats domain.StatsRepository
}

func NewAdminService(stats domain.StatsRepository) *AdminService {
	return &AdminService{stats: stats}
}

// DashboardStats runs every dashboard count concurrently. Any failure fails
// the whole dashboard.
func (s *AdminService) DashboardStats(ctx context.Context) (map[domain.StatKey]int64, error) {
	var mu sync.Mutex
	out := make(map[domain.StatKey]int64, len(domain.DashboardStatKeys))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, key := range domain.DashboardStatKeys {
		g.Go(func() error {
			n, err := s.stats.Count(ctx, key)
			if err != nil {
				return fmt.Errorf("failed to count %s: %w", key, err)
			}
			mu.Lock()
			out[key] = n
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
