package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"bengkelink/internal/domain/entity"
	"bengkelink/internal/domain/repository"
	"bengkelink/pkg/errors"
)

const chatMessageCollection = "chat_messages"

type firestoreChatMessageRepository struct {
	client *firestore.Client
}

func NewFirestoreChatMessageRepository(client *firestore.Client) repository.ChatMessageRepository {
	return &firestoreChatMessageRepository{
		client: client,
	}
}

func (r *firestoreChatMessageRepository) Create(ctx context.Context, message *entity.ChatMessage) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}

	_, err := r.client.Collection(chatMessageCollection).Doc(message.ID).Set(ctx, message)
	if err != nil {
		return errors.Internal("Failed to persist chat message", err)
	}
	return nil
}

func (r *firestoreChatMessageRepository) ListByOrder(ctx context.Context, orderID string, limit, offset int) ([]*entity.ChatMessage, int64, error) {
	query := r.client.Collection(chatMessageCollection).
		Where("orderId", "==", orderID).
		OrderBy("createdAt", firestore.Asc)

	// Total first, then the page.
	countIter := query.Documents(ctx)
	defer countIter.Stop()

	var total int64
	for {
		_, err := countIter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, 0, errors.Internal("Failed to count chat messages", err)
		}
		total++
	}

	iter := query.Offset(offset).Limit(limit).Documents(ctx)
	defer iter.Stop()

	var messages []*entity.ChatMessage
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, 0, errors.Internal("Failed to list chat messages", err)
		}

		var message entity.ChatMessage
		if err := doc.DataTo(&message); err != nil {
			return nil, 0, errors.Internal("Failed to parse chat message", err)
		}
		messages = append(messages, &message)
	}
	return messages, total, nil
}

// MarkRead flags every unread message in the order that the reader did not
// send. The room is multi-party, so read-state means "seen by the other
// side", not per-recipient bookkeeping.
func (r *firestoreChatMessageRepository) MarkRead(ctx context.Context, orderID, readerID string) error {
	iter := r.client.Collection(chatMessageCollection).
		Where("orderId", "==", orderID).
		Where("isRead", "==", false).
		Documents(ctx)
	defer iter.Stop()

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return errors.Internal("Failed to list unread messages", err)
		}

		var message entity.ChatMessage
		if err := doc.DataTo(&message); err != nil {
			return errors.Internal("Failed to parse chat message", err)
		}
		if message.SenderID == readerID {
			continue
		}

		if _, err := doc.Ref.Update(ctx, []firestore.Update{
			{Path: "isRead", Value: true},
		}); err != nil {
			return errors.Internal("Failed to mark message as read", err)
		}
	}
	return nil
}
