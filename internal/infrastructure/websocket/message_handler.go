package websocket

import (
	"context"
	"encoding/json"

	"bengkelink/internal/domain/entity"
	"bengkelink/pkg/logger"
)

// Event types on the wire. Server-to-client pushes reuse the same envelope
// with a sequence number.
const (
	EventPing       = "ping"
	EventPong       = "pong"
	EventError      = "chat.error"
	EventJoin       = "chat.join"
	EventLeave      = "chat.leave"
	EventHistory    = "chat.history"
	EventMessage    = "chat.message"
	EventNewMsg     = "chat.new_message"
	EventRead       = "chat.mark_read"
	EventTyping     = "chat.typing"
	EventUserTyping = "chat.user_typing"

	EventNotification  = "notification"
	EventWalletBalance = "wallet_balance_update"
	EventDeliveryOffer = "delivery.offer"
	EventOrderUpdate   = "order.update"
	EventBookingUpdate = "booking.update"
)

// ChatService is the slice of the chat flow the fabric needs: persistence
// always happens before any broadcast, so the fabric calls into it and only
// fans out what came back persisted.
type ChatService interface {
	History(ctx context.Context, principal Principal, orderID string) ([]*entity.ChatMessage, error)
	Send(ctx context.Context, principal Principal, orderID, message, imageURL string) (*entity.ChatMessage, error)
	MarkRead(ctx context.Context, principal Principal, orderID string) error
}

type inboundEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type joinPayload struct {
	OrderID string `json:"orderId"`
}

type messagePayload struct {
	OrderID  string `json:"orderId"`
	Message  string `json:"message"`
	ImageURL string `json:"imageUrl,omitempty"`
}

type typingPayload struct {
	OrderID  string `json:"orderId"`
	UserName string `json:"userName"`
}

type historyPayload struct {
	OrderID  string                `json:"orderId"`
	Messages []*entity.ChatMessage `json:"messages"`
}

type userTypingPayload struct {
	OrderID  string `json:"orderId"`
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// HandleClientMessage dispatches one inbound frame. Every failure is
// answered with a chat.error event on the same connection; nothing in here
// may tear the connection down.
func (m *Manager) HandleClientMessage(client *Client, raw []byte) {
	var event inboundEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		logger.Warn("malformed frame from %s: %v", client.Principal.UserID, err)
		m.sendError(client, "Invalid message format")
		return
	}

	ctx := context.Background()

	switch event.Type {
	case EventPing:
		m.SendToClient(client, EventPong, map[string]string{"status": "alive"})

	case EventJoin:
		m.handleJoin(ctx, client, event.Data)

	case EventLeave:
		m.handleLeave(client, event.Data)

	case EventMessage:
		m.handleMessage(ctx, client, event.Data)

	case EventRead:
		m.handleMarkRead(ctx, client, event.Data)

	case EventTyping:
		m.handleTyping(ctx, client, event.Data)

	default:
		logger.Debug("unknown event type %q from %s", event.Type, client.Principal.UserID)
		m.sendError(client, "Unknown event type")
	}
}

func (m *Manager) handleJoin(ctx context.Context, client *Client, data json.RawMessage) {
	var payload joinPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.OrderID == "" {
		m.sendError(client, "Missing orderId")
		return
	}

	room := OrderRoom(payload.OrderID)
	if err := m.JoinRoom(ctx, client, room); err != nil {
		m.sendError(client, "Not authorized for this conversation")
		return
	}

	messages, err := m.chat.History(ctx, client.Principal, payload.OrderID)
	if err != nil {
		m.sendError(client, "Failed to load conversation history")
		return
	}
	m.SendToClient(client, EventHistory, historyPayload{OrderID: payload.OrderID, Messages: messages})
}

func (m *Manager) handleLeave(client *Client, data json.RawMessage) {
	var payload joinPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.OrderID == "" {
		m.sendError(client, "Missing orderId")
		return
	}
	m.LeaveRoom(client, OrderRoom(payload.OrderID))
}

func (m *Manager) handleMessage(ctx context.Context, client *Client, data json.RawMessage) {
	var payload messagePayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.OrderID == "" || payload.Message == "" {
		m.sendError(client, "Missing orderId or message")
		return
	}

	room := OrderRoom(payload.OrderID)

	// Re-validated on every send: membership can outlive authorization.
	if err := m.authorizer.CanPublish(ctx, room, client.Principal); err != nil {
		logger.Audit("publish refused: user=%s room=%s: %v", client.Principal.UserID, room.Name(), err)
		m.sendError(client, "Not authorized for this conversation")
		return
	}

	message, err := m.chat.Send(ctx, client.Principal, payload.OrderID, payload.Message, payload.ImageURL)
	if err != nil {
		// Not persisted, so not broadcast.
		m.sendError(client, "Failed to send message")
		return
	}

	m.Publish(room, EventNewMsg, message)
}

func (m *Manager) handleMarkRead(ctx context.Context, client *Client, data json.RawMessage) {
	var payload joinPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.OrderID == "" {
		m.sendError(client, "Missing orderId")
		return
	}

	if err := m.authorizer.CanPublish(ctx, OrderRoom(payload.OrderID), client.Principal); err != nil {
		m.sendError(client, "Not authorized for this conversation")
		return
	}

	// Read-state updates are caller-scoped; nothing is broadcast.
	if err := m.chat.MarkRead(ctx, client.Principal, payload.OrderID); err != nil {
		m.sendError(client, "Failed to mark conversation as read")
	}
}

func (m *Manager) handleTyping(ctx context.Context, client *Client, data json.RawMessage) {
	var payload typingPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.OrderID == "" {
		m.sendError(client, "Missing orderId")
		return
	}

	room := OrderRoom(payload.OrderID)
	if err := m.authorizer.CanPublish(ctx, room, client.Principal); err != nil {
		m.sendError(client, "Not authorized for this conversation")
		return
	}

	// Fire-and-forget presence signal, never persisted.
	m.PublishExcept(room, client.Principal.UserID, EventUserTyping, userTypingPayload{
		OrderID:  payload.OrderID,
		UserID:   client.Principal.UserID,
		UserName: payload.UserName,
	})
}

func (m *Manager) sendError(client *Client, message string) {
	m.SendToClient(client, EventError, errorPayload{Message: message})
}
