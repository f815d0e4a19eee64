package app

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/kennedy-ak/mooibanana-project/internal/domain"
)

type ReferralDashboard struct {
	Code         string
	ShareURL     string
	Referrals    []domain.Referral
	PointsEarned int
	Completed    int
	PendingCount int
}

type ReferralService struct {
	referrals domain.ReferralRepository
	users     domain.UserRepository
	points    int
	appURL    string
}

func NewReferralService(referrals domain.ReferralRepository, users domain.UserRepository, points int, appURL string) *ReferralService {
	return &ReferralService{
		referrals: referrals,
		users:     users,
		points:    points,
		appURL:    strings.TrimRight(appURL, "/"),
	}
}

// CompleteReferral pays the referrer of referredID once. Users without a
// pending referral are a no-op.
func (s *ReferralService) CompleteReferral(ctx context.Context, referredID uuid.UUID) error {
	r, ok, err := s.referrals.Complete(ctx, referredID, s.points)
	if err != nil {
		return err
	}
	if ok {
		slog.InfoContext(ctx, "Referral completed",
			"referrer_id", r.ReferrerID,
			"referred_id", referredID,
			"points", r.PointsAwarded)
	}
	return nil
}

func (s *ReferralService) Dashboard(ctx context.Context, userID uuid.UUID) (*ReferralDashboard, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	referrals, err := s.referrals.ListByReferrer(ctx, userID)
	if err != nil {
		return nil, err
	}

	d := &ReferralDashboard{
		Code:         user.ReferralCode,
		ShareURL:     s.appURL + "/register?ref=" + user.ReferralCode,
		Referrals:    referrals,
		PointsEarned: user.ReferralPointsEarned,
	}
	for _, r := range referrals {
		switch r.Status {
		case domain.ReferralCompleted:
			d.Completed++
		case domain.ReferralPending:
			d.PendingCount++
		}
	}
	return d, nil
}
