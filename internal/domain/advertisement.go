package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Advertisement struct {
	ID        uuid.UUID
	BrandName string
	FlyerURL  string
	BrandURL  string
	Priority  int
	Active    bool
	CreatedAt time.Time
}

type AdvertisementRepository interface {
	ListActive(ctx context.Context) ([]Advertisement, error)
}
