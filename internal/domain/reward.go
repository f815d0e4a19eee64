package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type RewardType string

const (
	RewardPhysical   RewardType = "physical"
	RewardDigital    RewardType = "digital"
	RewardDiscount   RewardType = "discount"
	RewardExperience RewardType = "experience"
	RewardMoney      RewardType = "money"
)

type ClaimStatus string

const (
	ClaimPending   ClaimStatus = "pending"
	ClaimApproved  ClaimStatus = "approved"
	ClaimShipped   ClaimStatus = "shipped"
	ClaimDelivered ClaimStatus = "delivered"
	ClaimCancelled ClaimStatus = "cancelled"
)

var claimTransitions = map[ClaimStatus][]ClaimStatus{
	ClaimPending:  {ClaimApproved, ClaimCancelled},
	ClaimApproved: {ClaimShipped, ClaimCancelled},
	ClaimShipped:  {ClaimDelivered},
}

func (s ClaimStatus) CanTransitionTo(next ClaimStatus) bool {
	for _, allowed := range claimTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Reward struct {
	ID            uuid.UUID
	Name          string
	Description   string
	PointsCost    int
	Type          RewardType
	ImageURL      string
	Stock         int
	Active        bool
	LikesRequired int
	CreatedAt     time.Time
}

type RewardClaim struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	RewardID        uuid.UUID
	RewardName      string
	PointsSpent     int
	Status          ClaimStatus
	DeliveryAddress string
	ClaimedAt       time.Time
	UpdatedAt       time.Time
}

type PrizeAnnouncement struct {
	ID              uuid.UUID
	Title           string
	Description     string
	PrizeValue      string
	Position        int
	Icon            string
	BackgroundColor string
	Active          bool
	DisplayOrder    int
	StartsAt        *time.Time
	EndsAt          *time.Time
}

// VisibleAt reports whether the announcement's window contains now. Missing
// bounds are open.
func (p PrizeAnnouncement) VisibleAt(now time.Time) bool {
	if !p.Active {
		return false
	}
	if p.StartsAt != nil && now.Before(*p.StartsAt) {
		return false
	}
	if p.EndsAt != nil && now.After(*p.EndsAt) {
		return false
	}
	return true
}

type RewardRepository interface {
	ListAvailable(ctx context.Context) ([]Reward, error)
	Get(ctx context.Context, id uuid.UUID) (*Reward, error)
	// Claim decrements stock and debits points atomically.
	Claim(ctx context.Context, userID uuid.UUID, reward Reward, deliveryAddress string) (*RewardClaim, error)
	ListClaims(ctx context.Context, userID uuid.UUID) ([]RewardClaim, error)
	GetClaim(ctx context.Context, id uuid.UUID) (*RewardClaim, error)
	// TransitionClaim moves a claim from one status to another. Cancelling
	// refunds points and restocks in the same transaction.
	TransitionClaim(ctx context.Context, id uuid.UUID, from, to ClaimStatus) (*RewardClaim, error)
	ListPrizes(ctx context.Context) ([]PrizeAnnouncement, error)
}
