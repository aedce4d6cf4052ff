package api

import (
	"bookcourier/internal/domain"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrdersFeedFiltersByRole(t *testing.T) {
	e := newEnv(t)
	_, userTok := e.user("u@example.com", domain.RoleUser)
	_, otherTok := e.user("o@example.com", domain.RoleUser)
	_, libTok := e.user("lib@example.com", domain.RoleLibrarian)
	b := e.book("B", "A", "", "5", domain.BookPublished, "lib@example.com")

	srv := httptest.NewServer(e.router)
	t.Cleanup(srv.Close)
	dial := func(token string) *websocket.Conn {
		url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/orders?token=" + token
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		t.Cleanup(func() { conn.Close() })
		return conn
	}
	userConn := dial(userTok)
	libConn := dial(libTok)
	require.Eventually(t, func() bool { return e.hub.ClientCount() == 2 }, time.Second, 10*time.Millisecond)

	foreign := e.placeOrder(otherTok, b.ID)
	own := e.placeOrder(userTok, b.ID)

	read := func(conn *websocket.Conn) OrderEvent {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var ev OrderEvent
		require.NoError(t, conn.ReadJSON(&ev))
		return ev
	}

	ev := read(libConn)
	assert.Equal(t, EventOrderCreated, ev.Type)
	assert.Equal(t, foreign.ID, ev.Order.ID)
	assert.Equal(t, own.ID, read(libConn).Order.ID)

	// customers only hear about their own orders
	ev = read(userConn)
	assert.Equal(t, own.ID, ev.Order.ID)
	assert.Equal(t, "u@example.com", ev.Order.UserEmail)
}

func TestPublishOnNilHub(t *testing.T) {
	var h *Hub
	assert.NotPanics(t, func() { h.Publish(EventOrderStatus, domain.Order{ID: "x"}) })
}
