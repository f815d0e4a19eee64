package app

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/kennedy-ak/mooibanana-project/internal/domain"
)

type RewardService struct {
	rewards domain.RewardRepository
	users   domain.UserRepository
	clock   clockwork.Clock
}

func NewRewardService(rewards domain.RewardRepository, users domain.UserRepository, clock clockwork.Clock) *RewardService {
	return &RewardService{rewards: rewards, users: users, clock: clock}
}

func (s *RewardService) ListRewards(ctx context.Context) ([]domain.Reward, error) {
	return s.rewards.ListAvailable(ctx)
}

// ClaimReward spends userID's points on a reward. Stock and balance are
// checked again inside the repository transaction.
func (s *RewardService) ClaimReward(ctx context.Context, userID, rewardID uuid.UUID, address string) (*domain.RewardClaim, error) {
	reward, err := s.rewards.Get(ctx, rewardID)
	if err != nil {
		return nil, err
	}
	if !reward.Active {
		return nil, domain.ErrRewardNotFound
	}

	address = strings.TrimSpace(address)
	if reward.Type == domain.RewardPhysical && address == "" {
		return nil, domain.Invalid("delivery_address", "required for physical rewards")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.ReceivedLikesCount < reward.LikesRequired {
		return nil, domain.ErrNotEnoughLikes
	}

	claim, err := s.rewards.Claim(ctx, userID, *reward, address)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Reward claimed",
		"user_id", userID,
		"reward_id", reward.ID,
		"points", claim.PointsSpent)
	return claim, nil
}

func (s *RewardService) MyClaims(ctx context.Context, userID uuid.UUID) ([]domain.RewardClaim, error) {
	return s.rewards.ListClaims(ctx, userID)
}

func (s *RewardService) UpdateClaimStatus(ctx context.Context, claimID uuid.UUID, to domain.ClaimStatus) (*domain.RewardClaim, error) {
	claim, err := s.rewards.GetClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if !claim.Status.CanTransitionTo(to) {
		return nil, domain.ErrInvalidTransition
	}
	return s.rewards.TransitionClaim(ctx, claimID, claim.Status, to)
}

func (s *RewardService) ActivePrizes(ctx context.Context) ([]domain.PrizeAnnouncement, error) {
	prizes, err := s.rewards.ListPrizes(ctx)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	visible := prizes[:0]
	for _, p := range prizes {
		if p.VisibleAt(now) {
			visible = append(visible, p)
		}
	}
	return visible, nil
}
