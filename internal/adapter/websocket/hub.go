package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/kennedy-ak/mooibanana-project/internal/adapter/metrics"
	"github.com/kennedy-ak/mooibanana-project/internal/domain"
)

const (
	maxConnsPerUser = 10
	unreadListSize  = 10
	requestTimeout  = 5 * time.Second
)

var (
	ErrTooManyConnections = errors.New("too many connections for user")
	ErrHubStopped         = errors.New("hub stopped")
)

// NotificationReader is the slice of the notification service clients can drive.
type NotificationReader interface {
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
	Unread(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
}

type hubCmd interface{ hubCmd() }

type cmdRegister struct {
	client *client
	errCh  chan error
}

type cmdUnregister struct{ client *client }

type cmdDeliver struct {
	userID uuid.UUID
	data   []byte
}

type cmdCount struct {
	userID  uuid.UUID
	replyCh chan int
}

type cmdStop struct{}

func (cmdRegister) hubCmd()   {}
func (cmdUnregister) hubCmd() {}
func (cmdDeliver) hubCmd()    {}
func (cmdCount) hubCmd()      {}
func (cmdStop) hubCmd()       {}

// Hub tracks the connected clients of this instance. A single goroutine owns
// the client sets; everything else talks to it through cmdCh.
type Hub struct {
	cmdCh   chan hubCmd
	stopped chan struct{}
	clients map[uuid.UUID]map[*client]struct{}

	notifications NotificationReader
	metrics       *metrics.WebSocketMetrics
}

func NewHub(notifications NotificationReader, m *metrics.WebSocketMetrics) *Hub {
	h := &Hub{
		cmdCh:         make(chan hubCmd, 256),
		stopped:       make(chan struct{}),
		clients:       make(map[uuid.UUID]map[*client]struct{}),
		notifications: notifications,
		metrics:       m,
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for cmd := range h.cmdCh {
		switch c := cmd.(type) {
		case cmdRegister:
			c.errCh <- h.handleRegister(c.client)
		case cmdUnregister:
			h.handleUnregister(c.client)
		case cmdDeliver:
			h.handleDeliver(c)
		case cmdCount:
			c.replyCh <- len(h.clients[c.userID])
		case cmdStop:
			h.handleStop()
			return
		}
	}
}

func (h *Hub) handleRegister(c *client) error {
	set, exists := h.clients[c.userID]
	if len(set) >= maxConnsPerUser {
		if h.metrics != nil {
			h.metrics.ConnectionsRejected.WithLabelValues("per_user_limit").Inc()
		}
		return ErrTooManyConnections
	}
	if !exists {
		set = make(map[*client]struct{})
		h.clients[c.userID] = set
		if h.metrics != nil {
			h.metrics.ConnectedUsers.Inc()
		}
	}
	set[c] = struct{}{}
	if h.metrics != nil {
		h.metrics.ActiveConnections.Inc()
	}
	slog.Debug("WebSocket client registered", "user_id", c.userID, "connections", len(set))
	return nil
}

func (h *Hub) handleUnregister(c *client) {
	set, exists := h.clients[c.userID]
	if !exists {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}

	c.close()
	delete(set, c)
	if h.metrics != nil {
		h.metrics.ActiveConnections.Dec()
	}
	if len(set) == 0 {
		delete(h.clients, c.userID)
		if h.metrics != nil {
			h.metrics.ConnectedUsers.Dec()
		}
		slog.Debug("Last WebSocket client disconnected", "user_id", c.userID)
	}
}

func (h *Hub) handleDeliver(cmd cmdDeliver) {
	var slow []*client
	for c := range h.clients[cmd.userID] {
		if c.enqueue(cmd.data) {
			if h.metrics != nil {
				h.metrics.MessagesPublished.Inc()
			}
			continue
		}
		slow = append(slow, c)
	}

	for _, c := range slow {
		slog.Info("Evicting slow WebSocket client", "user_id", c.userID)
		if h.metrics != nil {
			h.metrics.SlowClientsEvicted.Inc()
		}
		h.handleUnregister(c)
	}
}

func (h *Hub) handleStop() {
	for userID, set := range h.clients {
		for c := range set {
			c.reject(websocket.CloseGoingAway, "server shutting down")
			if h.metrics != nil {
				h.metrics.ActiveConnections.Dec()
			}
		}
		delete(h.clients, userID)
		if h.metrics != nil {
			h.metrics.ConnectedUsers.Dec()
		}
	}
	close(h.stopped)
}

func (h *Hub) submit(cmd hubCmd) bool {
	select {
	case h.cmdCh <- cmd:
		return true
	case <-h.stopped:
		return false
	}
}

// Deliver pushes a notification event to the user's local connections.
func (h *Hub) Deliver(event domain.NotificationEvent) {
	data, err := json.Marshal(pushMessage{
		Type:         typeNotificationMessage,
		Notification: event.Notification,
		Count:        event.Count,
	})
	if err != nil {
		slog.Error("Failed to encode notification push", "error", err)
		return
	}
	h.submit(cmdDeliver{userID: event.UserID, data: data})
}

func (h *Hub) ClientCount(userID uuid.UUID) int {
	replyCh := make(chan int, 1)
	if !h.submit(cmdCount{userID: userID, replyCh: replyCh}) {
		return 0
	}
	select {
	case n := <-replyCh:
		return n
	case <-h.stopped:
		return 0
	}
}

func (h *Hub) Stop() {
	h.submit(cmdStop{})
}

// Serve runs an upgraded connection until the peer goes away. It sends the
// unread count first, then answers client requests.
func (h *Hub) Serve(ctx context.Context, conn *websocket.Conn, userID uuid.UUID) error {
	c := newClient(userID, conn)

	errCh := make(chan error, 1)
	if !h.submit(cmdRegister{client: c, errCh: errCh}) {
		c.reject(websocket.CloseGoingAway, "server shutting down")
		return ErrHubStopped
	}
	var err error
	select {
	case err = <-errCh:
	case <-h.stopped:
		err = ErrHubStopped
	}
	if err != nil {
		c.reject(websocket.ClosePolicyViolation, err.Error())
		return err
	}
	defer h.submit(cmdUnregister{client: c})

	go c.writeLoop()
	h.sendCount(ctx, c)
	h.readLoop(ctx, c)
	return nil
}

func (h *Hub) readLoop(ctx context.Context, c *client) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("WebSocket closed unexpectedly", "user_id", c.userID, "error", err)
			}
			return
		}
		h.handleMessage(ctx, c, data)
	}
}

func (h *Hub) handleMessage(ctx context.Context, c *client, data []byte) {
	var msg clientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		h.reply(c, errorMessage{Type: typeError, Error: "malformed message"})
		return
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	switch msg.Type {
	case typeMarkRead:
		id, err := uuid.Parse(msg.NotificationID)
		if err != nil {
			h.reply(c, errorMessage{Type: typeError, Error: "invalid notification_id"})
			return
		}
		if err := h.notifications.MarkRead(ctx, c.userID, id); err != nil {
			if !errors.Is(err, domain.ErrNotificationNotFound) {
				slog.Warn("WebSocket mark_read failed", "user_id", c.userID, "error", err)
			}
		}
		h.sendCount(ctx, c)

	case typeGetNotifications:
		list, err := h.notifications.Unread(ctx, c.userID, unreadListSize)
		if err != nil {
			slog.Warn("WebSocket get_notifications failed", "user_id", c.userID, "error", err)
			h.reply(c, errorMessage{Type: typeError, Error: "could not load notifications"})
			return
		}
		if list == nil {
			list = []domain.Notification{}
		}
		h.reply(c, listMessage{Type: typeNotificationsList, Notifications: list})

	default:
		h.reply(c, errorMessage{Type: typeError, Error: "unknown message type"})
	}
}

func (h *Hub) sendCount(ctx context.Context, c *client) {
	count, err := h.notifications.UnreadCount(ctx, c.userID)
	if err != nil {
		slog.Warn("Failed to load unread count", "user_id", c.userID, "error", err)
		return
	}
	h.reply(c, countMessage{Type: typeNotificationCount, Count: count})
}

func (h *Hub) reply(c *client, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("Failed to encode WebSocket reply", "error", err)
		return
	}
	if !c.enqueue(data) {
		slog.Debug("Dropping WebSocket reply for busy client", "user_id", c.userID)
	}
}
