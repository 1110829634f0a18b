package usecase

import (
	"context"

	"bengkelink/internal/domain/entity"
	"bengkelink/internal/domain/repository"
	ws "bengkelink/internal/infrastructure/websocket"
	"bengkelink/pkg/errors"
	"bengkelink/pkg/logger"
)

// ChatUseCase drives order-scoped conversations. It backs both the live
// websocket path (as the fabric's ChatService) and the REST read path used
// by the polling fallback.
type ChatUseCase struct {
	chatRepo     repository.ChatMessageRepository
	orderRepo    repository.OrderRepository
	userRepo     repository.UserRepository
	notification *NotificationUseCase
}

func NewChatUseCase(
	chatRepo repository.ChatMessageRepository,
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	notification *NotificationUseCase,
) *ChatUseCase {
	return &ChatUseCase{
		chatRepo:     chatRepo,
		orderRepo:    orderRepo,
		userRepo:     userRepo,
		notification: notification,
	}
}

// History returns the full conversation for the websocket join reply.
func (uc *ChatUseCase) History(ctx context.Context, principal ws.Principal, orderID string) ([]*entity.ChatMessage, error) {
	messages, _, err := uc.chatRepo.ListByOrder(ctx, orderID, 100, 0)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []*entity.ChatMessage{}
	}
	return messages, nil
}

// Send persists the message and notifies the other participants. It never
// broadcasts itself: the fabric broadcasts only what Send returns, so a
// message that failed to persist is never seen live.
func (uc *ChatUseCase) Send(ctx context.Context, principal ws.Principal, orderID, message, imageURL string) (*entity.ChatMessage, error) {
	if message == "" {
		return nil, errors.BadRequest("Message must not be empty", nil)
	}

	order, err := uc.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := orderParticipant(order, principal); err != nil {
		return nil, err
	}

	row := &entity.ChatMessage{
		OrderID:  orderID,
		SenderID: principal.UserID,
		Message:  message,
		ImageURL: imageURL,
		IsRead:   false,
	}
	if err := uc.chatRepo.Create(ctx, row); err != nil {
		return nil, err
	}

	// Durable pings for every participant except the sender, for whoever is
	// not in the room right now.
	for _, userID := range uc.recipients(ctx, order, principal.UserID) {
		uc.notification.NotifyChatMessage(ctx, userID, principal.Name)
	}

	logger.Debug("chat message %s persisted for order %s", row.ID, orderID)
	return row, nil
}

// recipients resolves the order's participants to user IDs, minus the
// sender. Staff lookup failures degrade to fewer pings, never to an error.
func (uc *ChatUseCase) recipients(ctx context.Context, order *entity.Order, senderID string) []string {
	seen := map[string]bool{senderID: true}
	var out []string
	add := func(userID string) {
		if userID != "" && !seen[userID] {
			seen[userID] = true
			out = append(out, userID)
		}
	}

	add(order.RunnerID)

	workshopStaff, err := uc.userRepo.ListWorkshopStaff(ctx, order.WorkshopID)
	if err != nil {
		logger.Warn("workshop staff lookup for order %s failed: %v", order.ID, err)
	}
	for _, staff := range workshopStaff {
		add(staff.ID)
	}

	supplierStaff, err := uc.userRepo.ListSupplierStaff(ctx, order.SupplierID)
	if err != nil {
		logger.Warn("supplier staff lookup for order %s failed: %v", order.ID, err)
	}
	for _, staff := range supplierStaff {
		add(staff.ID)
	}
	return out
}

// MarkRead flags the order's messages from other senders as read. The room
// is multi-party with a single read bit per message, so read means "seen by
// the other side". Nothing is broadcast.
func (uc *ChatUseCase) MarkRead(ctx context.Context, principal ws.Principal, orderID string) error {
	return uc.chatRepo.MarkRead(ctx, orderID, principal.UserID)
}

// Messages is the REST read surface behind the polling fallback. The same
// participant predicate as the live path gates it.
func (uc *ChatUseCase) Messages(ctx context.Context, principal ws.Principal, orderID string, limit, offset int) ([]*entity.ChatMessage, int64, error) {
	order, err := uc.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, 0, err
	}
	if err := orderParticipant(order, principal); err != nil {
		return nil, 0, err
	}
	return uc.chatRepo.ListByOrder(ctx, orderID, limit, offset)
}
