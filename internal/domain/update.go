package domain

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

const (
	MaxUpdateLength   = 280
	UpdatesFeedSize   = 20
	UpdateLifetime    = 7 * 24 * time.Hour
	DefaultUpdateBG   = "#007bff"
	DefaultUpdateText = "#ffffff"
)

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

func ValidHexColor(s string) bool { return hexColor.MatchString(s) }

type StatusUpdate struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	Username        string
	Content         string
	BackgroundColor string
	TextColor       string
	Active          bool
	CreatedAt       time.Time
}

// TimeAgo renders a coarse relative age.
func TimeAgo(now, t time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "Just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

type UpdateRepository interface {
	Create(ctx context.Context, u *StatusUpdate) error
	Feed(ctx context.Context, limit int) ([]StatusUpdate, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]StatusUpdate, error)
	// Delete removes the update when owned by userID, ErrUpdateNotFound otherwise.
	Delete(ctx context.Context, id, userID uuid.UUID) error
	DeactivateBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
