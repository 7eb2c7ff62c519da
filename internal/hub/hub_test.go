package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"adventure-server/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func startServer(t *testing.T, h *Hub) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", h.ServeWS)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func readSnapshot(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(raw, &msg))
	return msg
}

func TestHub_BroadcastsSnapshots(t *testing.T) {
	h := New([]string{"*"}, zap.NewNop())
	url := startServer(t, h)

	require.NoError(t, h.Publish(context.Background(), models.GameState{GameID: "harbor", Inventory: []string{"rope"}}))

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	first := readSnapshot(t, conn)
	assert.Equal(t, MessageTypeSnapshot, first.Type)
	assert.Equal(t, []string{"rope"}, first.State.Inventory, "late joiners get the last snapshot")

	require.Eventually(t, func() bool { return h.Clients() == 1 }, time.Second, 10*time.Millisecond)
	require.NoError(t, h.Publish(context.Background(), models.GameState{GameID: "harbor", Inventory: []string{"rope", "key"}}))
	next := readSnapshot(t, conn)
	assert.Equal(t, []string{"rope", "key"}, next.State.Inventory)
}

func TestHub_UnregistersOnClose(t *testing.T) {
	h := New(nil, zap.NewNop())
	url := startServer(t, h)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return h.Clients() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return h.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_RejectsForeignOrigin(t *testing.T) {
	h := New([]string{"http://allowed.test"}, zap.NewNop())
	url := startServer(t, h)

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"http://evil.test"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
