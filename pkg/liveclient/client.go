package liveclient

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	gorillaws "github.com/gorilla/websocket"

	"bengkelink/pkg/logger"
)

// Event mirrors the server's push envelope.
type Event struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Seq       uint64          `json:"seq,omitempty"`
	Timestamp string          `json:"timestamp"`
}

// EventHandler receives every event delivered over the live channel.
type EventHandler func(event Event)

// Poller fetches a REST snapshot of some resource set, keyed the same way
// the handler keys cache writes. It backs the fallback path when the live
// channel is down.
type Poller func(ctx context.Context) (map[string]interface{}, error)

const (
	DefaultPollInterval = 30 * time.Second
	reconnectBackoff    = 3 * time.Second
	writeTimeout        = 10 * time.Second
)

// Client maintains one live connection to the event fabric with a polling
// fallback. Room membership is client-side state: the server forgets it on
// disconnect, so the client re-joins every room before trusting the channel
// again.
type Client struct {
	url    string
	token  string
	dialer *gorillaws.Dialer

	mu    sync.Mutex
	conn  *gorillaws.Conn
	rooms map[string]struct{} // orderIDs of joined chat rooms

	cache        *Cache
	handler      EventHandler
	pollers      []Poller
	pollInterval time.Duration
}

func New(url, token string, handler EventHandler) *Client {
	return &Client{
		url:          url,
		token:        token,
		dialer:       gorillaws.DefaultDialer,
		rooms:        make(map[string]struct{}),
		cache:        NewCache(),
		handler:      handler,
		pollInterval: DefaultPollInterval,
	}
}

func (c *Client) Cache() *Cache {
	return c.cache
}

// SetPollInterval overrides the fallback cadence, e.g. from the server's
// /health bootstrap payload.
func (c *Client) SetPollInterval(interval time.Duration) {
	if interval > 0 {
		c.pollInterval = interval
	}
}

// AddPoller registers a fallback fetcher. Pollers run whenever the live
// channel is down, and once right after every reconnect to fill the gap.
func (c *Client) AddPoller(poller Poller) {
	c.pollers = append(c.pollers, poller)
}

// JoinOrderChat records the room in the join set and, when connected, sends
// the join immediately. The join set is what reconnects replay.
func (c *Client) JoinOrderChat(orderID string) error {
	c.mu.Lock()
	c.rooms[orderID] = struct{}{}
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	return c.send(conn, "chat.join", map[string]string{"orderId": orderID})
}

func (c *Client) LeaveOrderChat(orderID string) error {
	c.mu.Lock()
	delete(c.rooms, orderID)
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	return c.send(conn, "chat.leave", map[string]string{"orderId": orderID})
}

// SendChatMessage publishes into an order chat over the live channel.
func (c *Client) SendChatMessage(orderID, message string) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return gorillaws.ErrCloseSent
	}
	return c.send(conn, "chat.message", map[string]string{
		"orderId": orderID,
		"message": message,
	})
}

// Run keeps the live channel up until ctx is cancelled: connect, replay the
// join set, read until failure, poll while down, reconnect with backoff.
func (c *Client) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		conn, err := c.connect(ctx)
		if err != nil {
			logger.Warn("live channel connect failed: %v", err)
			c.pollUntil(ctx, reconnectBackoff)
			continue
		}

		// Rejoin before trusting the channel: the server dropped all
		// membership with the old connection.
		if err := c.rejoin(conn); err != nil {
			logger.Warn("room rejoin failed: %v", err)
			conn.Close()
			continue
		}

		// One poll right away to cover whatever happened while offline.
		c.pollOnce(ctx)

		c.readLoop(ctx, conn)

		c.mu.Lock()
		if c.conn == conn {
			c.conn = nil
		}
		c.mu.Unlock()
		conn.Close()
	}
}

func (c *Client) connect(ctx context.Context) (*gorillaws.Conn, error) {
	url := c.url + "?token=" + c.token
	conn, _, err := c.dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	return conn, nil
}

func (c *Client) rejoin(conn *gorillaws.Conn) error {
	c.mu.Lock()
	orderIDs := make([]string, 0, len(c.rooms))
	for orderID := range c.rooms {
		orderIDs = append(orderIDs, orderID)
	}
	c.mu.Unlock()

	for _, orderID := range orderIDs {
		if err := c.send(conn, "chat.join", map[string]string{"orderId": orderID}); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) readLoop(ctx context.Context, conn *gorillaws.Conn) {
	for {
		if ctx.Err() != nil {
			return
		}

		_, payload, err := conn.ReadMessage()
		if err != nil {
			logger.Warn("live channel read failed: %v", err)
			return
		}

		var event Event
		if err := json.Unmarshal(payload, &event); err != nil {
			logger.Warn("malformed live event: %v", err)
			continue
		}
		c.apply(event)
	}
}

// Live event types that describe entity state, mapped to the payload field
// holding the entity's identity.
var entityEvents = map[string]struct{ prefix, field string }{
	"order.update":          {"order", "id"},
	"booking.update":        {"booking", "id"},
	"delivery.offer":        {"offer", "id"},
	"notification":          {"notification", "id"},
	"wallet_balance_update": {"wallet", "user_id"},
}

// cacheKey derives the entity key a live event shares with the pollers, so
// the sequence/timestamp ordering rules compare both write paths. Events
// that carry no entity state (chat frames, pongs) are not cached.
func cacheKey(event Event) (string, bool) {
	kind, ok := entityEvents[event.Type]
	if !ok {
		return "", false
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		return "", false
	}
	var id string
	if err := json.Unmarshal(payload[kind.field], &id); err != nil || id == "" {
		return "", false
	}
	return kind.prefix + ":" + id, true
}

func (c *Client) apply(event Event) {
	if key, ok := cacheKey(event); ok {
		timestamp, _ := time.Parse(time.RFC3339Nano, event.Timestamp)
		c.cache.ApplyLive(key, event.Data, event.Seq, timestamp)
	}
	if c.handler != nil {
		c.handler(event)
	}
}

// pollUntil runs the fallback pollers for the given duration, then returns
// so Run can retry the live channel.
func (c *Client) pollUntil(ctx context.Context, wait time.Duration) {
	deadline := time.NewTimer(wait)
	defer deadline.Stop()
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	c.pollOnce(ctx)
	for {
		select {
		case <-ticker.C:
			c.pollOnce(ctx)
		case <-deadline.C:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) pollOnce(ctx context.Context) {
	now := time.Now()
	for _, poller := range c.pollers {
		snapshot, err := poller(ctx)
		if err != nil {
			logger.Warn("fallback poll failed: %v", err)
			continue
		}
		for key, value := range snapshot {
			c.cache.ApplyPoll(key, value, now)
		}
	}
}

func (c *Client) send(conn *gorillaws.Conn, eventType string, data interface{}) error {
	payload, err := json.Marshal(map[string]interface{}{
		"type": eventType,
		"data": data,
	})
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(gorillaws.TextMessage, payload)
}
