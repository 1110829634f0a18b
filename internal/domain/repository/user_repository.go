package repository

import (
	"context"

	"bengkelink/internal/domain/entity"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
	// ListAvailableRunners returns runners marked available, i.e. not
	// currently assigned to an active delivery.
	ListAvailableRunners(ctx context.Context) ([]*entity.User, error)
	// Staff lookups resolve a business ID on an order to the user accounts
	// that should be pinged about it.
	ListWorkshopStaff(ctx context.Context, workshopID string) ([]*entity.User, error)
	ListSupplierStaff(ctx context.Context, supplierID string) ([]*entity.User, error)
	SetRunnerAvailability(ctx context.Context, runnerID string, available bool) error
}
