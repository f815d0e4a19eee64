package domain

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/google/uuid"
)

type ReferralStatus string

const (
	ReferralPending   ReferralStatus = "pending"
	ReferralCompleted ReferralStatus = "completed"
	ReferralCancelled ReferralStatus = "cancelled"
)

const (
	ReferralCodeLength   = 8
	referralCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

type Referral struct {
	ID               uuid.UUID
	ReferrerID       uuid.UUID
	ReferredID       uuid.UUID
	ReferredUsername string
	Status           ReferralStatus
	PointsAwarded    int
	CreatedAt        time.Time
	CompletedAt      *time.Time
}

// NewReferralCode returns a random code of uppercase letters and digits.
func NewReferralCode() (string, error) {
	buf := make([]byte, ReferralCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = referralCodeAlphabet[int(b)%len(referralCodeAlphabet)]
	}
	return string(buf), nil
}

func ValidReferralCode(code string) bool {
	if len(code) != ReferralCodeLength {
		return false
	}
	for _, r := range code {
		if !(r >= 'A' && r <= 'Z') && !(r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

type ReferralRepository interface {
	// Complete moves the referred user's pending referral to completed and
	// pays the referrer. ok is false when nothing was pending.
	Complete(ctx context.Context, referredID uuid.UUID, points int) (r *Referral, ok bool, err error)
	ListByReferrer(ctx context.Context, referrerID uuid.UUID) ([]Referral, error)
}
