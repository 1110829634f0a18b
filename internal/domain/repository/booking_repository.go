package repository

import (
	"context"

	"bengkelink/internal/domain/entity"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *entity.Booking) error
	GetByID(ctx context.Context, id string) (*entity.Booking, error)
	ListByCustomer(ctx context.Context, customerID string) ([]*entity.Booking, error)
	ListByWorkshop(ctx context.Context, workshopID string) ([]*entity.Booking, error)
	// UpdateGuarded applies updates to the booking only if its status still
	// equals expect at write time, inside one transaction. A stale expect
	// yields a Conflict and no write.
	UpdateGuarded(ctx context.Context, id string, expect entity.BookingStatus, updates map[string]interface{}) (*entity.Booking, error)
}
