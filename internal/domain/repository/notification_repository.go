package repository

import (
	"context"

	"bengkelink/internal/domain/entity"
)

type NotificationRepository interface {
	Create(ctx context.Context, notification *entity.Notification) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*entity.Notification, int64, error)
	// CountUnread recomputes the unread total from rows with isRead=false;
	// the counter is derived, never stored.
	CountUnread(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, id, userID string) error
	MarkAllRead(ctx context.Context, userID string) error
	Delete(ctx context.Context, id, userID string) error
}
