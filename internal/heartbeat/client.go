package heartbeat

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/logging"
)

// Client fetches heartbeat snapshots over a websocket request/reply
// exchange: send the trigger string, read one JSON array of systems.
// Nothing is retained across fetches; every call dials fresh.
type Client struct {
	url     string
	trigger string
	timeout time.Duration
	logger  *logging.Logger
}

func NewClient(url, trigger string, timeout time.Duration, logger *logging.Logger) *Client {
	return &Client{url: url, trigger: trigger, timeout: timeout, logger: logger}
}

// Enabled reports whether a heartbeat endpoint is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.url != ""
}

// Fetch performs one request/reply exchange. No reply within the timeout is
// a hard failure, not a partial result.
func (c *Client) Fetch(ctx context.Context) ([]System, error) {
	dialCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("heartbeat dial failed: %w", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(c.timeout)
	if err := conn.SetWriteDeadline(deadline); err != nil {
		return nil, fmt.Errorf("heartbeat set write deadline failed: %w", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(c.trigger)); err != nil {
		return nil, fmt.Errorf("heartbeat trigger send failed: %w", err)
	}

	if err := conn.SetReadDeadline(deadline); err != nil {
		return nil, fmt.Errorf("heartbeat set read deadline failed: %w", err)
	}
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("heartbeat read failed: %w", err)
	}

	var systems []System
	if err := json.Unmarshal(msg, &systems); err != nil {
		return nil, fmt.Errorf("heartbeat decode failed: %w", err)
	}
	c.logger.Debugf("Heartbeat fetch returned %d systems", len(systems))
	return systems, nil
}
