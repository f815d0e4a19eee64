package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	gorillaws "github.com/gorilla/websocket"
	"github.com/kennedy-ak/mooibanana-project/internal/adapter/metrics"
	"github.com/kennedy-ak/mooibanana-project/internal/adapter/websocket"
	"github.com/kennedy-ak/mooibanana-project/internal/domain"
	apperrors "github.com/kennedy-ak/mooibanana-project/internal/platform/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// greetingHub answers every connection with one message and hangs up.
type greetingHub struct {
	served chan uuid.UUID
}

func (h *greetingHub) Serve(_ context.Context, conn *gorillaws.Conn, userID uuid.UUID) error {
	defer conn.Close()
	h.served <- userID
	return conn.WriteJSON(map[string]string{"type": "hello", "user_id": userID.String()})
}

func TestUnreadCount(t *testing.T) {
	me := &domain.User{ID: uuid.New()}
	notifications := &mockNotificationService{
		unreadCountFn: func(_ context.Context, userID uuid.UUID) (int, error) {
			require.Equal(t, me.ID, userID)
			return 3, nil
		},
	}
	srv := newTestServer(t, Services{Accounts: accountsFor(me), Notifications: notifications})

	rec := serve(srv, withSession(t, srv, jsonRequest(t, http.MethodGet, "/api/notifications/count", nil), me.ID))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, decodeJSON[map[string]int](t, rec)["count"])
}

func TestUnreadNotifications_InvalidLimit(t *testing.T) {
	me := &domain.User{ID: uuid.New()}
	srv := newTestServer(t, Services{Accounts: accountsFor(me), Notifications: &mockNotificationService{}})

	for _, limit := range []string{"0", "-2", "ten"} {
		rec := serve(srv, withSession(t, srv, jsonRequest(t, http.MethodGet, "/api/notifications/unread?limit="+limit, nil), me.ID))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "limit=%s", limit)
	}
}

func TestMarkRead_NotFound(t *testing.T) {
	me := &domain.User{ID: uuid.New()}
	notifications := &mockNotificationService{
		markReadFn: func(context.Context, uuid.UUID, uuid.UUID) error {
			return domain.ErrNotificationNotFound
		},
	}
	srv := newTestServer(t, Services{Accounts: accountsFor(me), Notifications: notifications})

	rec := serve(srv, authedRequest(t, srv, me.ID, http.MethodPost, "/api/notifications/"+uuid.NewString()+"/read", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNotificationSocket_InstanceFull(t *testing.T) {
	me := &domain.User{ID: uuid.New()}
	m := metrics.NewWebSocketMetrics(prometheus.NewRegistry())
	limiter := websocket.NewConnectionLimiter(1)
	require.True(t, limiter.Acquire())

	hub := &greetingHub{served: make(chan uuid.UUID, 1)}
	srv := newTestServer(t, Services{Accounts: accountsFor(me)}, WithNotificationSocket(hub, limiter, m))

	rec := serve(srv, withSession(t, srv, httptest.NewRequest(http.MethodGet, "/ws/notifications", nil), me.ID))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, apperrors.TypeRateLimited, decodeJSON[apperrors.ErrorResponse](t, rec).Type)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConnectionsRejected.WithLabelValues("global_limit")))
	assert.Equal(t, int64(1), limiter.Current(), "rejected request must not release a slot it never took")
	assert.Empty(t, hub.served)
}

func TestNotificationSocket_RequiresSession(t *testing.T) {
	hub := &greetingHub{served: make(chan uuid.UUID, 1)}
	srv := newTestServer(t, Services{Accounts: &mockAccountService{}},
		WithNotificationSocket(hub, websocket.NewConnectionLimiter(10), nil))

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/ws/notifications", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestNotificationSocket_Upgrade(t *testing.T) {
	me := &domain.User{ID: uuid.New()}
	limiter := websocket.NewConnectionLimiter(5)
	hub := &greetingHub{served: make(chan uuid.UUID, 1)}
	srv := newTestServer(t, Services{Accounts: accountsFor(me)}, WithNotificationSocket(hub, limiter, nil))

	ts := httptest.NewServer(srv.echo)
	defer ts.Close()

	cookieReq := withSession(t, srv, httptest.NewRequest(http.MethodGet, "/", nil), me.ID)
	header := http.Header{}
	header.Set("Cookie", cookieReq.Header.Get("Cookie"))

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/notifications"
	conn, resp, err := gorillaws.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	defer conn.Close()
	defer resp.Body.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg map[string]string
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "hello", msg["type"])
	assert.Equal(t, me.ID.String(), msg["user_id"])

	select {
	case got := <-hub.served:
		assert.Equal(t, me.ID, got)
	case <-time.After(2 * time.Second):
		t.Fatal("hub never served the connection")
	}
	assert.Eventually(t, func() bool { return limiter.Current() == 0 }, 2*time.Second, 10*time.Millisecond)
}
