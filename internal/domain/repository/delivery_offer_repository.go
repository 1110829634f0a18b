package repository

import (
	"context"
	"time"

	"bengkelink/internal/domain/entity"
)

type DeliveryOfferRepository interface {
	Create(ctx context.Context, offer *entity.DeliveryOffer) error
	GetByID(ctx context.Context, id string) (*entity.DeliveryOffer, error)
	ListByOrder(ctx context.Context, orderID string) ([]*entity.DeliveryOffer, error)
	// ListPendingByRunner is the runner's poll surface; offers already past
	// expiresAt are filtered out even if the sweep has not flagged them yet.
	ListPendingByRunner(ctx context.Context, runnerID string, now time.Time) ([]*entity.DeliveryOffer, error)

	// AcceptPending is the single mutual-exclusion point of the system: one
	// atomic read-modify-write that succeeds only if the offer is pending,
	// unexpired at now, owned by runnerID, and no sibling offer for the same
	// order is accepted. On success the offer becomes accepted, the order
	// gets runnerID and status assigned_runner, and every pending sibling
	// becomes rejected; the rejected siblings are returned so their runners
	// can be told live. A repeat call by the winner returns the accepted
	// offer again instead of a Conflict.
	AcceptPending(ctx context.Context, offerID, runnerID string, now time.Time) (*entity.DeliveryOffer, []*entity.DeliveryOffer, error)

	// RejectPending transitions a runner-declined pending offer to rejected.
	// Sibling offers are untouched.
	RejectPending(ctx context.Context, offerID, runnerID string, now time.Time) (*entity.DeliveryOffer, error)

	// ExpirePending flags every pending offer past its deadline as expired
	// and returns them so their runners can be freed.
	ExpirePending(ctx context.Context, now time.Time) ([]*entity.DeliveryOffer, error)
}
