package usecase

import (
	"context"
	"fmt"

	"bengkelink/internal/domain/entity"
	"bengkelink/internal/domain/repository"
	ws "bengkelink/internal/infrastructure/websocket"
	"bengkelink/pkg/logger"
)

type NotificationUseCase struct {
	notificationRepo repository.NotificationRepository
	wsManager        *ws.Manager
}

func NewNotificationUseCase(
	notificationRepo repository.NotificationRepository,
	wsManager *ws.Manager,
) *NotificationUseCase {
	return &NotificationUseCase{
		notificationRepo: notificationRepo,
		wsManager:        wsManager,
	}
}

// CreateAndEmit persists the notification row first and only then pushes it
// into the recipient's private room. The ordering is an invariant: a
// notification is never broadcast without being durably recorded, so a
// client that is offline at broadcast time still finds it on the next poll.
func (uc *NotificationUseCase) CreateAndEmit(ctx context.Context, userID, title, message, ntype string) (*entity.Notification, error) {
	notification := &entity.Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
		Type:    ntype,
		IsRead:  false,
	}

	if err := uc.notificationRepo.Create(ctx, notification); err != nil {
		logger.Error("failed to persist notification for %s: %v", userID, err)
		return nil, err
	}

	uc.wsManager.Publish(ws.NotificationRoom(userID), ws.EventNotification, notification)
	return notification, nil
}

// Per-category wrappers. All of them route through CreateAndEmit.

func (uc *NotificationUseCase) NotifyOrderUpdate(ctx context.Context, userID, orderID string, status entity.OrderStatus) {
	uc.emit(ctx, userID, "Order update",
		fmt.Sprintf("Order %s is now %s", orderID, status), entity.NotificationTypeOrder)
}

func (uc *NotificationUseCase) NotifyWalletTransaction(ctx context.Context, userID string, amount float64) {
	uc.emit(ctx, userID, "Wallet transaction",
		fmt.Sprintf("Your wallet balance changed by %.2f", amount), entity.NotificationTypeWallet)
}

func (uc *NotificationUseCase) NotifyDeliveryUpdate(ctx context.Context, userID, message string) {
	uc.emit(ctx, userID, "Delivery update", message, entity.NotificationTypeDelivery)
}

func (uc *NotificationUseCase) NotifyBookingUpdate(ctx context.Context, userID, message string) {
	uc.emit(ctx, userID, "Booking update", message, entity.NotificationTypeBooking)
}

func (uc *NotificationUseCase) NotifyChatMessage(ctx context.Context, userID, senderName string) {
	uc.emit(ctx, userID, "New message",
		fmt.Sprintf("New message from %s", senderName), entity.NotificationTypeChat)
}

func (uc *NotificationUseCase) emit(ctx context.Context, userID, title, message, ntype string) {
	if _, err := uc.CreateAndEmit(ctx, userID, title, message, ntype); err != nil {
		// The triggering operation already succeeded; a failed side-channel
		// notification is logged, not propagated.
		logger.Warn("notification emit failed for %s: %v", userID, err)
	}
}

func (uc *NotificationUseCase) List(ctx context.Context, userID string, limit, offset int) ([]*entity.Notification, int64, error) {
	return uc.notificationRepo.ListByUser(ctx, userID, limit, offset)
}

// UnreadCount is always recomputed from the stored rows; there is no
// second counter that could drift.
func (uc *NotificationUseCase) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return uc.notificationRepo.CountUnread(ctx, userID)
}

func (uc *NotificationUseCase) MarkRead(ctx context.Context, id, userID string) error {
	return uc.notificationRepo.MarkRead(ctx, id, userID)
}

func (uc *NotificationUseCase) MarkAllRead(ctx context.Context, userID string) error {
	return uc.notificationRepo.MarkAllRead(ctx, userID)
}

func (uc *NotificationUseCase) Delete(ctx context.Context, id, userID string) error {
	return uc.notificationRepo.Delete(ctx, id, userID)
}
