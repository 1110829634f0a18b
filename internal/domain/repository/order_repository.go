package repository

import (
	"context"

	"bengkelink/internal/domain/entity"
)

type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	GetByID(ctx context.Context, id string) (*entity.Order, error)
	ListByWorkshop(ctx context.Context, workshopID string) ([]*entity.Order, error)
	ListBySupplier(ctx context.Context, supplierID string) ([]*entity.Order, error)
	ListByRunner(ctx context.Context, runnerID string) ([]*entity.Order, error)
	// UpdateStatusGuarded moves the order to next only if its status still
	// equals expect at write time; otherwise Conflict, no write.
	UpdateStatusGuarded(ctx context.Context, id string, expect, next entity.OrderStatus) (*entity.Order, error)
}
