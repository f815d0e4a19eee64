package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/kennedy-ak/mooibanana-project/internal/adapter/metrics"
	"github.com/kennedy-ak/mooibanana-project/internal/domain"
)

const likeNotificationDebounce = 60 * time.Second

type UnlikeResult struct {
	Unlike  *domain.Unlike
	Balance int
}

type MatchResponse struct {
	Notification *domain.Notification
	Match        *domain.Match
}

// LedgerService spends likes and unlikes and turns reciprocal likes into matches.
type LedgerService struct {
	ledger        domain.LedgerRepository
	notifications domain.NotificationRepository
	notifier      Notifier
	debouncer     domain.Debouncer
	guard         *ActionGuard
	metrics       *metrics.LedgerMetrics
}

func NewLedgerService(
	ledger domain.LedgerRepository,
	notifications domain.NotificationRepository,
	notifier Notifier,
	debouncer domain.Debouncer,
	guard *ActionGuard,
	m *metrics.LedgerMetrics,
) *LedgerService {
	return &LedgerService{
		ledger:        ledger,
		notifications: notifications,
		notifier:      notifier,
		debouncer:     debouncer,
		guard:         guard,
		metrics:       m,
	}
}

// GiveLike debits one like of type t and records it. When to has already liked
// from, both become mutual and the match is created.
func (s *LedgerService) GiveLike(ctx context.Context, from, to uuid.UUID, t domain.LikeType) (*domain.LikeOutcome, error) {
	if t == "" {
		t = domain.LikeRegular
	}
	if !t.Valid() {
		return nil, domain.Invalid("type", "must be regular or super")
	}
	if from == to {
		return nil, domain.ErrSelfAction
	}
	if err := s.guard.Check(ctx, from, ActionLike); err != nil {
		return nil, err
	}

	out, err := s.ledger.GiveLike(ctx, from, to, t)
	if err != nil {
		s.guard.countInsufficient(ActionLike, err)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.Likes.WithLabelValues(string(t)).Inc()
		if out.Match != nil {
			s.metrics.Matches.Inc()
		}
	}

	s.notifyLike(ctx, from, to, t)
	if out.Match != nil {
		s.notifyMatch(ctx, from, to)
	}
	return out, nil
}

func (s *LedgerService) notifyLike(ctx context.Context, from, to uuid.UUID, t domain.LikeType) {
	if s.debouncer != nil {
		quiet, err := s.debouncer.IsDebounced(ctx, "like:"+from.String()+":"+to.String(), likeNotificationDebounce)
		if err != nil {
			slog.WarnContext(ctx, "Like debounce check failed", "error", err)
		}
		if quiet {
			return
		}
	}

	message := "Someone liked your profile"
	if t == domain.LikeSuper {
		message = "Someone sent you a super like"
	}
	notifyQuietly(ctx, s.notifier, domain.NewNotification{
		SenderID:   from,
		ReceiverID: to,
		Type:       domain.NotifyLikeReceived,
		Status:     domain.NotificationPending,
		Message:    message,
	})
}

func (s *LedgerService) notifyMatch(ctx context.Context, a, b uuid.UUID) {
	for _, pair := range [][2]uuid.UUID{{a, b}, {b, a}} {
		notifyQuietly(ctx, s.notifier, domain.NewNotification{
			SenderID:   pair[0],
			ReceiverID: pair[1],
			Type:       domain.NotifyNewMatch,
			Status:     domain.NotificationPending,
			Message:    "It's a match! Say hello in your new chat",
		})
	}
}

// GiveUnlike spends one unlike on to. Each pair can only be unliked once.
func (s *LedgerService) GiveUnlike(ctx context.Context, from, to uuid.UUID) (*UnlikeResult, error) {
	if from == to {
		return nil, domain.ErrSelfAction
	}
	if err := s.guard.Check(ctx, from, ActionUnlike); err != nil {
		return nil, err
	}

	unlike, balance, err := s.ledger.GiveUnlike(ctx, from, to)
	if err != nil {
		s.guard.countInsufficient(ActionUnlike, err)
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.Unlikes.Inc()
	}

	notifyQuietly(ctx, s.notifier, domain.NewNotification{
		SenderID:   from,
		ReceiverID: to,
		Type:       domain.NotifyUnlikeReceived,
		Status:     domain.NotificationPending,
		Message:    "Someone sent you an unlike",
	})
	return &UnlikeResult{Unlike: unlike, Balance: balance}, nil
}

func (s *LedgerService) MyLikes(ctx context.Context, userID uuid.UUID) ([]domain.GivenLike, error) {
	return s.ledger.ListGiven(ctx, userID)
}

func (s *LedgerService) Matches(ctx context.Context, userID uuid.UUID) ([]domain.MatchView, error) {
	return s.ledger.ListMatches(ctx, userID)
}

// SendMatchRequest asks to for a free match. Only one request per pair may be
// pending at a time.
func (s *LedgerService) SendMatchRequest(ctx context.Context, from, to uuid.UUID) (*domain.Notification, error) {
	if from == to {
		return nil, domain.ErrSelfAction
	}
	exists, err := s.notifications.PendingMatchRequestExists(ctx, from, to)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrMatchRequestExists
	}

	return s.notifier.Notify(ctx, domain.NewNotification{
		SenderID:   from,
		ReceiverID: to,
		Type:       domain.NotifyMatchRequest,
		Status:     domain.NotificationPending,
		Message:    "Someone wants to match with you",
	})
}

// RespondMatchRequest accepts or declines a pending request addressed to
// receiver. Accepting creates the match without spending any balance.
func (s *LedgerService) RespondMatchRequest(ctx context.Context, receiver, notificationID uuid.UUID, accept bool) (*MatchResponse, error) {
	n, err := s.notifications.Get(ctx, receiver, notificationID)
	if err != nil {
		return nil, err
	}
	if n.Type != domain.NotifyMatchRequest {
		return nil, domain.ErrNotificationNotFound
	}
	if n.Status != domain.NotificationPending {
		return nil, domain.ErrAlreadyResponded
	}

	resp := &MatchResponse{}
	status := domain.NotificationDeclined
	if accept {
		status = domain.NotificationAccepted
		// CreateMatch is idempotent, so a lost race on the status update
		// below leaves no partial state behind.
		resp.Match, err = s.ledger.CreateMatch(ctx, n.SenderID, receiver)
		if err != nil {
			return nil, err
		}
	}

	resp.Notification, err = s.notifications.RespondMatchRequest(ctx, receiver, notificationID, status)
	if err != nil {
		return nil, err
	}

	reply := domain.NewNotification{
		SenderID:   receiver,
		ReceiverID: n.SenderID,
		Type:       domain.NotifyMatchDeclined,
		Status:     domain.NotificationPending,
		Message:    "Your match request was declined",
	}
	if accept {
		reply.Type = domain.NotifyMatchAccepted
		reply.Message = "Your match request was accepted"
		if s.metrics != nil {
			s.metrics.Matches.Inc()
		}
	}
	notifyQuietly(ctx, s.notifier, reply)
	return resp, nil
}
