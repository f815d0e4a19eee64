package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Emails containing any of these markers are treated as student addresses.
var studentEmailMarkers = []string{".edu", ".ac.", "student.", ".uni-"}

type User struct {
	ID           uuid.UUID
	Email        string
	Username     string
	FirstName    string
	PasswordHash string

	IsStudent  bool
	IsVerified bool
	IsAdmin    bool

	LikesBalance       int
	SuperLikesBalance  int
	BoostersBalance    int
	UnlikesBalance     int
	PointsBalance      int
	ReceivedLikesCount int

	ReferralCode         string
	ReferredBy           *uuid.UUID
	ReferralPointsEarned int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserSummary is the public slice of a user embedded in other views.
type UserSummary struct {
	ID         uuid.UUID `json:"id"`
	Username   string    `json:"username"`
	FirstName  string    `json:"first_name,omitempty"`
	PictureURL string    `json:"picture_url,omitempty"`
}

type NewUser struct {
	Email        string
	Username     string
	FirstName    string
	PasswordHash string
	IsStudent    bool
	IsAdmin      bool
	ReferralCode string
	ReferredBy   *uuid.UUID
}

func IsStudentEmail(email string) bool {
	email = strings.ToLower(email)
	for _, marker := range studentEmailMarkers {
		if strings.Contains(email, marker) {
			return true
		}
	}
	return false
}

type UserRepository interface {
	// Create inserts the user with an empty profile and, when ReferredBy is
	// set, a pending referral, all in one transaction.
	Create(ctx context.Context, u NewUser) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByReferralCode(ctx context.Context, code string) (*User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

// ResetTokenStore tracks unused password reset token IDs.
type ResetTokenStore interface {
	Save(ctx context.Context, tokenID string, userID uuid.UUID, ttl time.Duration) error
	// Consume atomically removes the token and returns its user. A second call
	// returns ErrInvalidResetToken.
	Consume(ctx context.Context, tokenID string) (uuid.UUID, error)
}

type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}
