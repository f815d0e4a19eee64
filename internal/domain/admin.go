package domain

import "context"

// StatKey names one counter on the admin dashboard.
type StatKey string

const (
	StatUsers               StatKey = "total_users"
	StatStudents            StatKey = "students"
	StatVerified            StatKey = "verified_users"
	StatJoined7d            StatKey = "joined_last_7_days"
	StatJoined30d           StatKey = "joined_last_30_days"
	StatCompleteProfiles    StatKey = "complete_profiles"
	StatMatches             StatKey = "matches"
	StatLikes               StatKey = "likes"
	StatMutualLikes         StatKey = "mutual_likes"
	StatNotifications       StatKey = "notifications"
	StatPendingMatchRequest StatKey = "pending_match_requests"
	StatCompletedPurchases  StatKey = "completed_purchases"
	StatRevenueMinor        StatKey = "revenue_minor"
)

var DashboardStatKeys = []StatKey{
	StatUsers, StatStudents, StatVerified, StatJoined7d, StatJoined30d,
	StatCompleteProfiles, StatMatches, StatLikes, StatMutualLikes,
	StatNotifications, StatPendingMatchRequest, StatCompletedPurchases,
	StatRevenueMinor,
}

type StatsRepository interface {
	Count(ctx context.Context, key StatKey) (int64, error)
}
