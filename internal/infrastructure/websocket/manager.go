package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"bengkelink/pkg/logger"
)

// Client represents one live WebSocket connection.
type Client struct {
	Principal Principal
	Conn      *websocket.Conn
	Send      chan []byte
}

// Event is the wire envelope for everything pushed to clients. Seq is a
// manager-wide monotonic counter; clients use it to ignore out-of-order
// writes when merging the live path with the polling path.
type Event struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Seq       uint64      `json:"seq,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// Manager is the connection registry and room-broadcast fabric. It is an
// injected dependency with an explicit lifecycle (created in main, stopped
// on shutdown), never ambient global state. No room membership survives a
// disconnect; reconnecting clients re-join from scratch.
type Manager struct {
	mu      sync.RWMutex
	clients map[string]*Client            // userID -> connection
	rooms   map[string]map[string]*Client // room name -> userID -> connection

	Register   chan *Client
	Unregister chan *Client

	seq        atomic.Uint64
	authorizer RoomAuthorizer
	chat       ChatService
}

func NewManager(authorizer RoomAuthorizer) *Manager {
	return &Manager{
		clients:    make(map[string]*Client),
		rooms:      make(map[string]map[string]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		authorizer: authorizer,
	}
}

// BindChatService wires the chat flow after construction; the chat usecase
// needs the manager to broadcast, so the two are connected in main.
func (m *Manager) BindChatService(chat ChatService) {
	m.chat = chat
}

// Start runs the registration loop until ctx is cancelled.
func (m *Manager) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case client := <-m.Register:
				m.mu.Lock()
				if old, ok := m.clients[client.Principal.UserID]; ok {
					m.dropLocked(old)
				}
				m.clients[client.Principal.UserID] = client
				m.mu.Unlock()
				logger.Info("WebSocket client registered: %s", client.Principal.UserID)

			case client := <-m.Unregister:
				m.mu.Lock()
				if current, ok := m.clients[client.Principal.UserID]; ok && current == client {
					m.dropLocked(client)
				}
				m.mu.Unlock()
				logger.Info("WebSocket client unregistered: %s", client.Principal.UserID)

			case <-ctx.Done():
				m.mu.Lock()
				for _, client := range m.clients {
					m.dropLocked(client)
				}
				m.mu.Unlock()
				return
			}
		}
	}()
}

// dropLocked removes the client from the registry and every room. Caller
// holds m.mu.
func (m *Manager) dropLocked(client *Client) {
	if _, ok := m.clients[client.Principal.UserID]; ok {
		delete(m.clients, client.Principal.UserID)
		close(client.Send)
	}
	for name, members := range m.rooms {
		if members[client.Principal.UserID] == client {
			delete(members, client.Principal.UserID)
			if len(members) == 0 {
				delete(m.rooms, name)
			}
		}
	}
}

// JoinRoom admits the client after consulting the room-kind authorization
// predicate. Refusals are reported to the caller and audited; they never
// tear down the connection.
func (m *Manager) JoinRoom(ctx context.Context, client *Client, room Room) error {
	if err := m.authorizer.CanJoin(ctx, room, client.Principal); err != nil {
		logger.Audit("join refused: user=%s room=%s: %v", client.Principal.UserID, room.Name(), err)
		return err
	}

	m.mu.Lock()
	members, ok := m.rooms[room.Name()]
	if !ok {
		members = make(map[string]*Client)
		m.rooms[room.Name()] = members
	}
	members[client.Principal.UserID] = client
	m.mu.Unlock()

	logger.Debug("user %s joined room %s", client.Principal.UserID, room.Name())
	return nil
}

// LeaveRoom is idempotent.
func (m *Manager) LeaveRoom(client *Client, room Room) {
	m.mu.Lock()
	if members, ok := m.rooms[room.Name()]; ok {
		delete(members, client.Principal.UserID)
		if len(members) == 0 {
			delete(m.rooms, room.Name())
		}
	}
	m.mu.Unlock()
}

// InRoom reports current membership.
func (m *Manager) InRoom(userID string, room Room) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	members, ok := m.rooms[room.Name()]
	if !ok {
		return false
	}
	_, ok = members[userID]
	return ok
}

// Publish broadcasts an event to every current member of the room.
// Delivery is best-effort and at-most-once per live connection; there is
// no replay for members who join later.
func (m *Manager) Publish(room Room, eventType string, data interface{}) {
	payload, ok := m.marshal(eventType, data)
	if !ok {
		return
	}

	m.mu.RLock()
	members := m.rooms[room.Name()]
	targets := make([]*Client, 0, len(members))
	for _, client := range members {
		targets = append(targets, client)
	}
	m.mu.RUnlock()

	for _, client := range targets {
		m.deliver(client, payload)
	}
}

// PublishExcept broadcasts to the room minus one member (typing signals go
// to everyone but the typist).
func (m *Manager) PublishExcept(room Room, exceptUserID, eventType string, data interface{}) {
	payload, ok := m.marshal(eventType, data)
	if !ok {
		return
	}

	m.mu.RLock()
	members := m.rooms[room.Name()]
	targets := make([]*Client, 0, len(members))
	for userID, client := range members {
		if userID != exceptUserID {
			targets = append(targets, client)
		}
	}
	m.mu.RUnlock()

	for _, client := range targets {
		m.deliver(client, payload)
	}
}

// SendToUser pushes an event to one user's connection if it is live.
func (m *Manager) SendToUser(userID, eventType string, data interface{}) {
	payload, ok := m.marshal(eventType, data)
	if !ok {
		return
	}

	m.mu.RLock()
	client, online := m.clients[userID]
	m.mu.RUnlock()

	if online {
		m.deliver(client, payload)
	}
}

// SendToClient pushes an event to a specific connection, bypassing the
// registry. Used for direct replies (history, errors, pong).
func (m *Manager) SendToClient(client *Client, eventType string, data interface{}) {
	if payload, ok := m.marshal(eventType, data); ok {
		m.deliver(client, payload)
	}
}

func (m *Manager) marshal(eventType string, data interface{}) ([]byte, bool) {
	event := Event{
		Type:      eventType,
		Data:      data,
		Seq:       m.seq.Add(1),
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error("failed to marshal %s event: %v", eventType, err)
		return nil, false
	}
	return payload, true
}

func (m *Manager) deliver(client *Client, payload []byte) {
	select {
	case client.Send <- payload:
	default:
		// Slow consumer: drop the connection rather than block the fabric.
		logger.Warn("send buffer full, dropping client %s", client.Principal.UserID)
		m.mu.Lock()
		m.dropLocked(client)
		m.mu.Unlock()
	}
}

// ReadPump reads frames from the connection and feeds them to the protocol
// dispatcher until the peer goes away.
func (c *Client) ReadPump(m *Manager) {
	defer func() {
		m.Unregister <- c
		c.Conn.Close()
	}()

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket read error for %s: %v", c.Principal.UserID, err)
			}
			break
		}
		m.HandleClientMessage(c, message)
	}
}

// WritePump drains the send channel onto the connection.
func (c *Client) WritePump() {
	defer c.Conn.Close()

	for {
		message, ok := <-c.Send
		if !ok {
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}

		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			logger.Warn("websocket write error for %s: %v", c.Principal.UserID, err)
			return
		}
	}
}
