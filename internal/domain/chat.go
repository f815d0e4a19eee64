package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const MaxMessageLength = 2000

type ChatRoom struct {
	ID        uuid.UUID
	MatchID   uuid.UUID
	User1     uuid.UUID
	User2     uuid.UUID
	CreatedAt time.Time
}

func (r *ChatRoom) Other(user uuid.UUID) uuid.UUID {
	if r.User1 == user {
		return r.User2
	}
	return r.User1
}

type Message struct {
	ID        uuid.UUID
	RoomID    uuid.UUID
	SenderID  uuid.UUID
	Content   string
	IsRead    bool
	CreatedAt time.Time
}

type RoomSummary struct {
	Room        ChatRoom
	Other       UserSummary
	LastMessage *Message
	Unread      int
}

type ChatRepository interface {
	ListRooms(ctx context.Context, user uuid.UUID) ([]RoomSummary, error)
	// GetRoom returns ErrRoomNotFound unless user participates in the room.
	GetRoom(ctx context.Context, roomID, user uuid.UUID) (*ChatRoom, error)
	ListMessages(ctx context.Context, roomID uuid.UUID) ([]Message, error)
	// MarkRead flags messages in the room not sent by reader as read.
	MarkRead(ctx context.Context, roomID, reader uuid.UUID) (int64, error)
	CreateMessage(ctx context.Context, roomID, sender uuid.UUID, content string) (*Message, error)
}
