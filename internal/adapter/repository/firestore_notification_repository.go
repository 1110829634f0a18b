package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"bengkelink/internal/domain/entity"
	"bengkelink/internal/domain/repository"
	"bengkelink/pkg/errors"
)

const notificationCollection = "notifications"

type firestoreNotificationRepository struct {
	client *firestore.Client
}

func NewFirestoreNotificationRepository(client *firestore.Client) repository.NotificationRepository {
	return &firestoreNotificationRepository{
		client: client,
	}
}

func (r *firestoreNotificationRepository) Create(ctx context.Context, notification *entity.Notification) error {
	if notification.ID == "" {
		notification.ID = uuid.New().String()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now()
	}

	_, err := r.client.Collection(notificationCollection).Doc(notification.ID).Set(ctx, notification)
	if err != nil {
		return errors.Internal("Failed to persist notification", err)
	}
	return nil
}

func (r *firestoreNotificationRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*entity.Notification, int64, error) {
	query := r.client.Collection(notificationCollection).
		Where("userId", "==", userID).
		OrderBy("createdAt", firestore.Desc)

	countIter := query.Documents(ctx)
	defer countIter.Stop()

	var total int64
	for {
		_, err := countIter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, 0, errors.Internal("Failed to count notifications", err)
		}
		total++
	}

	iter := query.Offset(offset).Limit(limit).Documents(ctx)
	defer iter.Stop()

	var notifications []*entity.Notification
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, 0, errors.Internal("Failed to list notifications", err)
		}

		var notification entity.Notification
		if err := doc.DataTo(&notification); err != nil {
			return nil, 0, errors.Internal("Failed to parse notification", err)
		}
		notifications = append(notifications, &notification)
	}
	return notifications, total, nil
}

func (r *firestoreNotificationRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	iter := r.client.Collection(notificationCollection).
		Where("userId", "==", userID).
		Where("isRead", "==", false).
		Documents(ctx)
	defer iter.Stop()

	var count int64
	for {
		_, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return 0, errors.Internal("Failed to count unread notifications", err)
		}
		count++
	}
	return count, nil
}

func (r *firestoreNotificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	notification, err := r.get(ctx, id)
	if err != nil {
		return err
	}
	if notification.UserID != userID {
		return errors.Forbidden("Notification belongs to another user", nil)
	}

	_, err = r.client.Collection(notificationCollection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "isRead", Value: true},
	})
	if err != nil {
		return errors.Internal("Failed to mark notification as read", err)
	}
	return nil
}

func (r *firestoreNotificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	iter := r.client.Collection(notificationCollection).
		Where("userId", "==", userID).
		Where("isRead", "==", false).
		Documents(ctx)
	defer iter.Stop()

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return errors.Internal("Failed to list unread notifications", err)
		}

		if _, err := doc.Ref.Update(ctx, []firestore.Update{
			{Path: "isRead", Value: true},
		}); err != nil {
			return errors.Internal("Failed to mark notification as read", err)
		}
	}
	return nil
}

func (r *firestoreNotificationRepository) Delete(ctx context.Context, id, userID string) error {
	notification, err := r.get(ctx, id)
	if err != nil {
		return err
	}
	if notification.UserID != userID {
		return errors.Forbidden("Notification belongs to another user", nil)
	}

	if _, err := r.client.Collection(notificationCollection).Doc(id).Delete(ctx); err != nil {
		return errors.Internal("Failed to delete notification", err)
	}
	return nil
}

func (r *firestoreNotificationRepository) get(ctx context.Context, id string) (*entity.Notification, error) {
	doc, err := r.client.Collection(notificationCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Notification", err)
		}
		return nil, errors.Internal("Failed to get notification", err)
	}

	var notification entity.Notification
	if err := doc.DataTo(&notification); err != nil {
		return nil, errors.Internal("Failed to parse notification", err)
	}
	return &notification, nil
}
