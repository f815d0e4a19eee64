package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kennedy-ak/mooibanana-project/internal/domain"
)

type ChatRepo struct {
	pool *pgxpool.Pool
}

func NewChatRepo(pool *pgxpool.Pool) *ChatRepo {
	return &ChatRepo{pool: pool}
}

func (r *ChatRepo) ListRooms(ctx context.Context, user uuid.UUID) ([]domain.RoomSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT r.id, r.match_id, m.user1, m.user2, r.created_at,
			u.id, u.username, u.first_name, COALESCE(p.picture_url, ''),
			lm.id, lm.sender_id, lm.content, lm.is_read, lm.created_at,
			(SELECT count(*) FROM messages x WHERE x.room_id = r.id AND x.sender_id <> $1 AND NOT x.is_read)
		FROM chat_rooms r
		JOIN matches m ON m.id = r.match_id
		JOIN users u ON u.id = CASE WHEN m.user1 = $1 THEN m.user2 ELSE m.user1 END
		LEFT JOIN profiles p ON p.user_id = u.id
		LEFT JOIN LATERAL (
			SELECT id, sender_id, content, is_read, created_at
			FROM messages WHERE room_id = r.id
			ORDER BY created_at DESC LIMIT 1
		) lm ON true
		WHERE m.user1 = $1 OR m.user2 = $1
		ORDER BY COALESCE(lm.created_at, r.created_at) DESC`, user)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat rooms: %w", err)
	}
	defer rows.Close()

	var out []domain.RoomSummary
	for rows.Next() {
		var (
			s          domain.RoomSummary
			msgID      *uuid.UUID
			msgSender  *uuid.UUID
			msgContent *string
			msgRead    *bool
			msgAt      *time.Time
		)
		if err := rows.Scan(
			&s.Room.ID, &s.Room.MatchID, &s.Room.User1, &s.Room.User2, &s.Room.CreatedAt,
			&s.Other.ID, &s.Other.Username, &s.Other.FirstName, &s.Other.PictureURL,
			&msgID, &msgSender, &msgContent, &msgRead, &msgAt,
			&s.Unread,
		); err != nil {
			return nil, fmt.Errorf("failed to scan chat room: %w", err)
		}
		if msgID != nil {
			s.LastMessage = &domain.Message{
				ID:        *msgID,
				RoomID:    s.Room.ID,
				SenderID:  *msgSender,
				Content:   *msgContent,
				IsRead:    *msgRead,
				CreatedAt: *msgAt,
			}
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *ChatRepo) GetRoom(ctx context.Context, roomID, user uuid.UUID) (*domain.ChatRoom, error) {
	var room domain.ChatRoom
	err := r.pool.QueryRow(ctx, `
		SELECT r.id, r.match_id, m.user1, m.user2, r.created_at
		FROM chat_rooms r JOIN matches m ON m.id = r.match_id
		WHERE r.id = $1 AND (m.user1 = $2 OR m.user2 = $2)`, roomID, user,
	).Scan(&room.ID, &room.MatchID, &room.User1, &room.User2, &room.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chat room: %w", err)
	}
	return &room, nil
}

func (r *ChatRepo) ListMessages(ctx context.Context, roomID uuid.UUID) ([]domain.Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, room_id, sender_id, content, is_read, created_at
		FROM messages WHERE room_id = $1
		ORDER BY created_at, id`, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var out []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.RoomID, &m.SenderID, &m.Content, &m.IsRead, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *ChatRepo) MarkRead(ctx context.Context, roomID, reader uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE messages SET is_read = true
		WHERE room_id = $1 AND sender_id <> $2 AND NOT is_read`, roomID, reader)
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages read: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *ChatRepo) CreateMessage(ctx context.Context, roomID, sender uuid.UUID, content string) (*domain.Message, error) {
	m := &domain.Message{RoomID: roomID, SenderID: sender, Content: content}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO messages (room_id, sender_id, content) VALUES ($1, $2, $3)
		RETURNING id, is_read, created_at`, roomID, sender, content).Scan(&m.ID, &m.IsRead, &m.CreatedAt)
	if isForeignKeyViolation(err) {
		return nil, domain.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}
	return m, nil
}
