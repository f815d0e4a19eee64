package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/kennedy-ak/mooibanana-project/internal/domain"
)

type UpdateInput struct {
	Content         string
	BackgroundColor string
	TextColor       string
}

type UpdateView struct {
	domain.StatusUpdate
	TimeAgo string
}

type UpdateService struct {
	repo  domain.UpdateRepository
	clock clockwork.Clock
}

func NewUpdateService(repo domain.UpdateRepository, clock clockwork.Clock) *UpdateService {
	return &UpdateService{repo: repo, clock: clock}
}

func colorOrDefault(field, value, def string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return def, nil
	}
	if !domain.ValidHexColor(value) {
		return "", domain.Invalid(field, "must be a #RRGGBB color")
	}
	return value, nil
}

func (s *UpdateService) PostUpdate(ctx context.Context, userID uuid.UUID, in UpdateInput) (*UpdateView, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" || utf8.RuneCountInString(content) > domain.MaxUpdateLength {
		return nil, domain.Invalid("content", "must be between 1 and %d characters", domain.MaxUpdateLength)
	}
	bg, err := colorOrDefault("background_color", in.BackgroundColor, domain.DefaultUpdateBG)
	if err != nil {
		return nil, err
	}
	fg, err := colorOrDefault("text_color", in.TextColor, domain.DefaultUpdateText)
	if err != nil {
		return nil, err
	}

	u := &domain.StatusUpdate{
		UserID:          userID,
		Content:         content,
		BackgroundColor: bg,
		TextColor:       fg,
		Active:          true,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return &UpdateView{StatusUpdate: *u, TimeAgo: domain.TimeAgo(s.clock.Now(), u.CreatedAt)}, nil
}

func (s *UpdateService) views(updates []domain.StatusUpdate) []UpdateView {
	now := s.clock.Now()
	out := make([]UpdateView, 0, len(updates))
	for _, u := range updates {
		out = append(out, UpdateView{StatusUpdate: u, TimeAgo: domain.TimeAgo(now, u.CreatedAt)})
	}
	return out
}

func (s *UpdateService) Feed(ctx context.Context) ([]UpdateView, error) {
	updates, err := s.repo.Feed(ctx, domain.UpdatesFeedSize)
	if err != nil {
		return nil, err
	}
	return s.views(updates), nil
}

func (s *UpdateService) MyUpdates(ctx context.Context, userID uuid.UUID) ([]UpdateView, error) {
	updates, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.views(updates), nil
}

func (s *UpdateService) DeleteUpdate(ctx context.Context, userID, updateID uuid.UUID) error {
	return s.repo.Delete(ctx, updateID, userID)
}

// ExpireOld deactivates updates past their lifetime. It runs as a ticker task.
func (s *UpdateService) ExpireOld(ctx context.Context) error {
	n, err := s.repo.DeactivateBefore(ctx, s.clock.Now().Add(-domain.UpdateLifetime))
	if err != nil {
		return fmt.Errorf("failed to expire status updates: %w", err)
	}
	if n > 0 {
		slog.InfoContext(ctx, "Expired status updates", "count", n)
	}
	return nil
}
