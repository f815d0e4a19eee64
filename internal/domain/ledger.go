package domain

import (
	"bytes"
	"context"
	"time"

	"github.com/google/uuid"
)

type LikeType string

const (
	LikeRegular LikeType = "regular"
	LikeSuper   LikeType = "super"
)

func (t LikeType) Valid() bool { return t == LikeRegular || t == LikeSuper }

// Points awarded per like. Every mutual like adds MutualLikeBonus to both users.
const (
	RegularLikeSenderPoints   = 5
	RegularLikeReceiverPoints = 10
	SuperLikeSenderPoints     = 10
	SuperLikeReceiverPoints   = 20
	MutualLikeBonus           = 25
)

func LikePoints(t LikeType) (sender, receiver int) {
	if t == LikeSuper {
		return SuperLikeSenderPoints, SuperLikeReceiverPoints
	}
	return RegularLikeSenderPoints, RegularLikeReceiverPoints
}

type Like struct {
	ID        uuid.UUID
	FromUser  uuid.UUID
	ToUser    uuid.UUID
	Type      LikeType
	IsMutual  bool
	CreatedAt time.Time
}

type Unlike struct {
	ID        uuid.UUID
	FromUser  uuid.UUID
	ToUser    uuid.UUID
	CreatedAt time.Time
}

type Match struct {
	ID        uuid.UUID
	User1     uuid.UUID
	User2     uuid.UUID
	RoomID    uuid.UUID
	CreatedAt time.Time
}

// OrderedPair puts the lexically smaller id first so a pair has a single row.
func OrderedPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if bytes.Compare(a[:], b[:]) <= 0 {
		return a, b
	}
	return b, a
}

// LikeOutcome is what a committed like produced.
type LikeOutcome struct {
	Like          Like
	Mutual        bool
	Match         *Match // set only when this like created the match
	SenderBalance int
	SenderPoints  int
}

type GivenLike struct {
	Like
	Target UserSummary
}

type MatchView struct {
	Match
	Other UserSummary
}

type LedgerRepository interface {
	// GiveLike debits the sender, records the like, awards points and creates
	// the match when the reverse like exists. ErrInsufficientBalance when the
	// balance for t is zero.
	GiveLike(ctx context.Context, from, to uuid.UUID, t LikeType) (*LikeOutcome, error)
	// GiveUnlike debits one unlike. ErrAlreadyUnliked on a repeat.
	GiveUnlike(ctx context.Context, from, to uuid.UUID) (*Unlike, int, error)
	// CreateMatch records free mutual likes plus the match and its room. The
	// match is returned even when it already existed.
	CreateMatch(ctx context.Context, a, b uuid.UUID) (*Match, error)
	ListGiven(ctx context.Context, from uuid.UUID) ([]GivenLike, error)
	ListMatches(ctx context.Context, user uuid.UUID) ([]MatchView, error)
}

// ActionRateLimiter throttles repeated user actions such as likes and messages.
type ActionRateLimiter interface {
	Allow(ctx context.Context, userID uuid.UUID, action string) (bool, error)
}
