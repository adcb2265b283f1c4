package heartbeat

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

	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/logging"
)

var upgrader = websocket.Upgrader{}

// newFakeFeed starts a websocket server that waits for the trigger string
// and answers with the given systems. reply=false simulates a hung server.
func newFakeFeed(t *testing.T, trigger string, systems []System, reply bool) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if string(msg) != trigger || !reply {
			// hold the connection open without answering
			time.Sleep(2 * time.Second)
			return
		}
		payload, _ := json.Marshal(systems)
		_ = conn.WriteMessage(websocket.TextMessage, payload)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestFetchRoundTrip(t *testing.T) {
	systems := []System{
		{Site: "S1", SiteName: "Test", Web: "RED"},
		{Site: "S2", SiteName: "Other", Web: "GREEN", DB: "GREEN"},
	}
	url := newFakeFeed(t, "status", systems, true)

	c := NewClient(url, "status", time.Second, logging.NewNop())
	got, err := c.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Test", got[0].SiteName)
	assert.Equal(t, "GREEN", got[1].DB)
}

func TestFetchTimeoutIsHardFailure(t *testing.T) {
	url := newFakeFeed(t, "status", nil, false)

	c := NewClient(url, "status", 200*time.Millisecond, logging.NewNop())
	_, err := c.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "heartbeat")
}

func TestFetchDialFailure(t *testing.T) {
	c := NewClient("ws://127.0.0.1:1/nope", "status", 200*time.Millisecond, logging.NewNop())
	_, err := c.Fetch(context.Background())
	require.Error(t, err)
}

func TestEnabled(t *testing.T) {
	assert.False(t, NewClient("", "status", time.Second, logging.NewNop()).Enabled())
	assert.True(t, NewClient("ws://x", "status", time.Second, logging.NewNop()).Enabled())
}
