package app

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/kennedy-ak/mooibanana-project/internal/domain"
)

type RoomView struct {
	Room     *domain.ChatRoom
	Messages []domain.Message
}

type ChatService struct {
	repo     domain.ChatRepository
	notifier Notifier
	guard    *ActionGuard
}

func NewChatService(repo domain.ChatRepository, notifier Notifier, guard *ActionGuard) *ChatService {
	return &ChatService{repo: repo, notifier: notifier, guard: guard}
}

func (s *ChatService) ListRooms(ctx context.Context, userID uuid.UUID) ([]domain.RoomSummary, error) {
	return s.repo.ListRooms(ctx, userID)
}

// GetRoom opens a room for userID and marks the other side's messages read.
// Non-participants get ErrRoomNotFound.
func (s *ChatService) GetRoom(ctx context.Context, userID, roomID uuid.UUID) (*RoomView, error) {
	room, err := s.repo.GetRoom(ctx, roomID, userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.MarkRead(ctx, roomID, userID); err != nil {
		slog.WarnContext(ctx, "Failed to mark messages read", "room_id", roomID, "error", err)
	}
	messages, err := s.repo.ListMessages(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return &RoomView{Room: room, Messages: messages}, nil
}

func (s *ChatService) SendMessage(ctx context.Context, sender, roomID uuid.UUID, content string) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" || utf8.RuneCountInString(content) > domain.MaxMessageLength {
		return nil, domain.Invalid("content", "must be between 1 and %d characters", domain.MaxMessageLength)
	}

	room, err := s.repo.GetRoom(ctx, roomID, sender)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Check(ctx, sender, ActionMessage); err != nil {
		return nil, err
	}

	msg, err := s.repo.CreateMessage(ctx, roomID, sender, content)
	if err != nil {
		return nil, err
	}
	notifyQuietly(ctx, s.notifier, domain.NewNotification{
		SenderID:   sender,
		ReceiverID: room.Other(sender),
		Type:       domain.NotifyNewMessage,
		Message:    "You have a new message",
	})
	return msg, nil
}
