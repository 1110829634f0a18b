package repository

import (
	"context"

	"bengkelink/internal/domain/entity"
)

type ChatMessageRepository interface {
	Create(ctx context.Context, message *entity.ChatMessage) error
	ListByOrder(ctx context.Context, orderID string, limit, offset int) ([]*entity.ChatMessage, int64, error)
	// MarkRead flips isRead on every message in the order's conversation
	// addressed to readerID. Scoped per recipient; senders' copies are
	// untouched.
	MarkRead(ctx context.Context, orderID, readerID string) error
}
