package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kennedy-ak/mooibanana-project/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

// ResetTokenStore remembers issued password reset tokens so each can be used once.
type ResetTokenStore struct {
	rdb goredis.Cmdable
}

func NewResetTokenStore(rdb goredis.Cmdable) *ResetTokenStore {
	return &ResetTokenStore{rdb: rdb}
}

func resetTokenKey(tokenID string) string { return "reset_token:" + tokenID }

func (s *ResetTokenStore) Save(ctx context.Context, tokenID string, userID uuid.UUID, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, resetTokenKey(tokenID), userID.String(), ttl).Err(); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}
	return nil
}

func (s *ResetTokenStore) Consume(ctx context.Context, tokenID string) (uuid.UUID, error) {
	raw, err := s.rdb.GetDel(ctx, resetTokenKey(tokenID)).Result()
	if errors.Is(err, goredis.Nil) {
		return uuid.Nil, domain.ErrInvalidResetToken
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to consume reset token: %w", err)
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.ErrInvalidResetToken
	}
	return id, nil
}
