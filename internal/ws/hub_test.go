package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Manjussha/allocheck/internal/allocation"
	"github.com/Manjussha/allocheck/internal/estimator"
	"github.com/Manjussha/allocheck/internal/history"
)

func TestHub_PublishReachesClient(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Publish(ctx, &estimator.Estimate{
		ID:         "abc",
		Address:    "0x11111111111111111111111111111111111111ff",
		Allocation: allocation.Result{EstimatedTokens: 5894, Tier: allocation.TierMid, TierLabel: "Mid (Top 60%)"},
	})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Type    string             `json:"type"`
		Message string             `json:"message"`
		Data    estimator.Estimate `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, TypeCheckComplete, msg.Type)
	assert.Equal(t, "Mid (Top 60%)", msg.Message)
	assert.Equal(t, "abc", msg.Data.ID)
	assert.Equal(t, 5894, msg.Data.Allocation.EstimatedTokens)
}

func TestHub_BroadcastWithoutClients(t *testing.T) {
	hub := NewHub()
	hub.Broadcast(WSMessage{Type: TypeDigest})
	assert.Equal(t, 0, hub.ClientCount())
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_PublishDigest(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	go hub.Run(ctx)
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	conn := dial(t, srv)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.PublishDigest(&history.Stats{Total: 12, ByTier: map[int]int{5: 12}})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Type string        `json:"type"`
		Data history.Stats `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, TypeDigest, msg.Type)
	assert.Equal(t, 12, msg.Data.Total)
}

func TestHub_ConnectionsAfterShutdownAreClosed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	go hub.Run(ctx)
	cancel()
	<-hub.done

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	// More clients than the register buffer holds.
	for i := 0; i < 12; i++ {
		conn := dial(t, srv)
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, _, err := conn.ReadMessage()
		require.Error(t, err)
		assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "client %d: %v", i, err)
	}
	assert.Equal(t, 0, hub.ClientCount())
}
