package events

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/boutique/internal/store"
)

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	go hub.Run(ctx)
	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var hello Message
	require.NoError(t, conn.ReadJSON(&hello))
	require.Equal(t, TypeConnected, hello.Type)
	require.NotEmpty(t, hello.ClientID)
	return conn
}

func TestStoreChangesReachEverySession(t *testing.T) {
	hub, url := startHub(t)
	first := dial(t, url)
	second := dial(t, url)
	require.Equal(t, 2, hub.Clients())

	st := store.New(store.Options{})
	stop := hub.Follow(st)
	defer stop()
	require.NoError(t, st.Dispatch(context.Background(), store.AddProduct{Product: store.Product{Name: "Robe Satin"}}))

	for _, conn := range []*websocket.Conn{first, second} {
		var msg Message
		require.NoError(t, conn.ReadJSON(&msg))
		require.Equal(t, TypeStateChanged, msg.Type)
		require.Equal(t, store.ActionAddProduct, msg.Action)
		require.Equal(t, int64(1), msg.Revision)
	}
}

func TestDisconnectedSessionIsRemoved(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, url)
	require.Equal(t, 1, hub.Clients())

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	_ = conn.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, 5*time.Second, 10*time.Millisecond)
}
