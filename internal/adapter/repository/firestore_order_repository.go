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

const orderCollection = "orders"

type firestoreOrderRepository struct {
	client *firestore.Client
}

func NewFirestoreOrderRepository(client *firestore.Client) repository.OrderRepository {
	return &firestoreOrderRepository{
		client: client,
	}
}

func (r *firestoreOrderRepository) Create(ctx context.Context, order *entity.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}

	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now
	if order.Status == "" {
		order.Status = entity.OrderStatusCreated
	}

	_, err := r.client.Collection(orderCollection).Doc(order.ID).Set(ctx, order)
	if err != nil {
		return errors.Internal("Failed to create order", err)
	}
	return nil
}

func (r *firestoreOrderRepository) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	doc, err := r.client.Collection(orderCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Order", err)
		}
		return nil, errors.Internal("Failed to get order", err)
	}

	var order entity.Order
	if err := doc.DataTo(&order); err != nil {
		return nil, errors.Internal("Failed to parse order data", err)
	}
	return &order, nil
}

func (r *firestoreOrderRepository) ListByWorkshop(ctx context.Context, workshopID string) ([]*entity.Order, error) {
	return r.list(ctx, "workshopId", workshopID)
}

func (r *firestoreOrderRepository) ListBySupplier(ctx context.Context, supplierID string) ([]*entity.Order, error) {
	return r.list(ctx, "supplierId", supplierID)
}

func (r *firestoreOrderRepository) ListByRunner(ctx context.Context, runnerID string) ([]*entity.Order, error) {
	return r.list(ctx, "runnerId", runnerID)
}

func (r *firestoreOrderRepository) list(ctx context.Context, field, value string) ([]*entity.Order, error) {
	iter := r.client.Collection(orderCollection).
		Where(field, "==", value).
		OrderBy("createdAt", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	var orders []*entity.Order
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to list orders", err)
		}

		var order entity.Order
		if err := doc.DataTo(&order); err != nil {
			return nil, errors.Internal("Failed to parse order data", err)
		}
		orders = append(orders, &order)
	}
	return orders, nil
}

func (r *firestoreOrderRepository) UpdateStatusGuarded(ctx context.Context, id string, expect, next entity.OrderStatus) (*entity.Order, error) {
	docRef := r.client.Collection(orderCollection).Doc(id)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Order", err)
			}
			return errors.Internal("Failed to get order", err)
		}

		var order entity.Order
		if err := doc.DataTo(&order); err != nil {
			return errors.Internal("Failed to parse order data", err)
		}

		if order.Status != expect {
			return errors.Conflict("Order status changed concurrently", nil)
		}

		return tx.Update(docRef, []firestore.Update{
			{Path: "status", Value: next},
			{Path: "updatedAt", Value: time.Now()},
		})
	})
	if err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}
