package app

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/kennedy-ak/mooibanana-project/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRewardFixture(reward domain.Reward, receivedLikes int) (*RewardService, *mockRewardRepo) {
	repo := &mockRewardRepo{
		getFn: func(context.Context, uuid.UUID) (*domain.Reward, error) { return &reward, nil },
		claimFn: func(_ context.Context, userID uuid.UUID, r domain.Reward, address string) (*domain.RewardClaim, error) {
			return &domain.RewardClaim{
				ID: uuid.New(), UserID: userID, RewardID: r.ID, PointsSpent: r.PointsCost,
				Status: domain.ClaimPending, DeliveryAddress: address,
			}, nil
		},
	}
	users := &mockUserRepo{
		getByIDFn: func(_ context.Context, id uuid.UUID) (*domain.User, error) {
			return &domain.User{ID: id, ReceivedLikesCount: receivedLikes}, nil
		},
	}
	return NewRewardService(repo, users, clockwork.NewFakeClockAt(testNow)), repo
}

func TestClaimReward(t *testing.T) {
	reward := domain.Reward{ID: uuid.New(), Type: domain.RewardPhysical, PointsCost: 200, Active: true, LikesRequired: 5, Stock: 3}
	svc, _ := newRewardFixture(reward, 5)

	claim, err := svc.ClaimReward(context.Background(), uuid.New(), reward.ID, "  12 Ring Road, Accra ")
	require.NoError(t, err)
	assert.Equal(t, 200, claim.PointsSpent)
	assert.Equal(t, "12 Ring Road, Accra", claim.DeliveryAddress)
}

func TestClaimReward_Rejections(t *testing.T) {
	physical := domain.Reward{ID: uuid.New(), Type: domain.RewardPhysical, Active: true}
	digital := domain.Reward{ID: uuid.New(), Type: domain.RewardDigital, Active: true, LikesRequired: 10}
	inactive := domain.Reward{ID: uuid.New(), Type: domain.RewardDigital}

	t.Run("physical needs address", func(t *testing.T) {
		svc, _ := newRewardFixture(physical, 0)
		_, err := svc.ClaimReward(context.Background(), uuid.New(), physical.ID, " ")
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "delivery_address", verr.Field)
	})

	t.Run("not enough received likes", func(t *testing.T) {
		svc, _ := newRewardFixture(digital, 9)
		_, err := svc.ClaimReward(context.Background(), uuid.New(), digital.ID, "")
		assert.ErrorIs(t, err, domain.ErrNotEnoughLikes)
	})

	t.Run("inactive", func(t *testing.T) {
		svc, _ := newRewardFixture(inactive, 0)
		_, err := svc.ClaimReward(context.Background(), uuid.New(), inactive.ID, "")
		assert.ErrorIs(t, err, domain.ErrRewardNotFound)
	})

	t.Run("out of stock", func(t *testing.T) {
		svc, repo := newRewardFixture(digital, 10)
		repo.claimFn = func(context.Context, uuid.UUID, domain.Reward, string) (*domain.RewardClaim, error) {
			return nil, domain.ErrOutOfStock
		}
		_, err := svc.ClaimReward(context.Background(), uuid.New(), digital.ID, "")
		assert.ErrorIs(t, err, domain.ErrOutOfStock)
	})
}

func TestUpdateClaimStatus(t *testing.T) {
	tests := []struct {
		from, to domain.ClaimStatus
		ok       bool
	}{
		{domain.ClaimPending, domain.ClaimApproved, true},
		{domain.ClaimPending, domain.ClaimCancelled, true},
		{domain.ClaimApproved, domain.ClaimShipped, true},
		{domain.ClaimShipped, domain.ClaimDelivered, true},
		{domain.ClaimPending, domain.ClaimShipped, false},
		{domain.ClaimShipped, domain.ClaimCancelled, false},
		{domain.ClaimDelivered, domain.ClaimPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			transitioned := false
			repo := &mockRewardRepo{
				getClaimFn: func(_ context.Context, id uuid.UUID) (*domain.RewardClaim, error) {
					return &domain.RewardClaim{ID: id, Status: tt.from}, nil
				},
				transitionFn: func(_ context.Context, id uuid.UUID, from, to domain.ClaimStatus) (*domain.RewardClaim, error) {
					transitioned = true
					assert.Equal(t, tt.from, from)
					return &domain.RewardClaim{ID: id, Status: to}, nil
				},
			}
			svc := NewRewardService(repo, &mockUserRepo{}, clockwork.NewFakeClock())

			claim, err := svc.UpdateClaimStatus(context.Background(), uuid.New(), tt.to)
			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, tt.to, claim.Status)
			} else {
				assert.ErrorIs(t, err, domain.ErrInvalidTransition)
			}
			assert.Equal(t, tt.ok, transitioned)
		})
	}
}

func TestActivePrizes_WindowFilter(t *testing.T) {
	past := testNow.Add(-time.Hour)
	future := testNow.Add(time.Hour)
	repo := &mockRewardRepo{
		prizesFn: func(context.Context) ([]domain.PrizeAnnouncement, error) {
			return []domain.PrizeAnnouncement{
				{Title: "open", Active: true},
				{Title: "running", Active: true, StartsAt: &past, EndsAt: &future},
				{Title: "not started", Active: true, StartsAt: &future},
				{Title: "ended", Active: true, EndsAt: &past},
				{Title: "inactive"},
			}, nil
		},
	}
	svc := NewRewardService(repo, &mockUserRepo{}, clockwork.NewFakeClockAt(testNow))

	prizes, err := svc.ActivePrizes(context.Background())
	require.NoError(t, err)

	var titles []string
	for _, p := range prizes {
		titles = append(titles, p.Title)
	}
	assert.Equal(t, []string{"open", "running"}, titles)
}
