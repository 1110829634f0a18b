package usecase

import (
	"context"

	"bengkelink/internal/domain/entity"
	"bengkelink/internal/domain/repository"
	ws "bengkelink/internal/infrastructure/websocket"
	"bengkelink/pkg/errors"
)

// RepoRoomAuthorizer implements the event fabric's authorization gate
// against the persistence layer: one predicate per room kind, consulted on
// every join and every publish.
type RepoRoomAuthorizer struct {
	orderRepo repository.OrderRepository
}

func NewRepoRoomAuthorizer(orderRepo repository.OrderRepository) *RepoRoomAuthorizer {
	return &RepoRoomAuthorizer{
		orderRepo: orderRepo,
	}
}

func (a *RepoRoomAuthorizer) CanJoin(ctx context.Context, room ws.Room, principal ws.Principal) error {
	switch room.Kind {
	case ws.RoomKindNotification, ws.RoomKindWallet:
		if principal.UserID != room.ID {
			return errors.Forbidden("Room belongs to another user", nil)
		}
		return nil

	case ws.RoomKindWorkshop:
		if principal.Role != entity.RoleWorkshop || principal.WorkshopID != room.ID {
			return errors.Forbidden("Not a member of this workshop", nil)
		}
		return nil

	case ws.RoomKindSupplier:
		if principal.Role != entity.RoleSupplier || principal.SupplierID != room.ID {
			return errors.Forbidden("Not a member of this supplier", nil)
		}
		return nil

	case ws.RoomKindOrder:
		order, err := a.orderRepo.GetByID(ctx, room.ID)
		if err != nil {
			return err
		}
		return orderParticipant(order, principal)
	}

	return errors.Forbidden("Unknown room kind", nil)
}

func (a *RepoRoomAuthorizer) CanPublish(ctx context.Context, room ws.Room, principal ws.Principal) error {
	// Clients only ever publish into order chat rooms; notification, wallet
	// and business rooms are server-push only.
	if room.Kind != ws.RoomKindOrder {
		return errors.Forbidden("Room is read-only", nil)
	}
	return a.CanJoin(ctx, room, principal)
}

// orderParticipant admits the order's supplier staff, workshop staff and
// assigned runner. Everyone else is refused.
func orderParticipant(order *entity.Order, principal ws.Principal) error {
	switch principal.Role {
	case entity.RoleWorkshop:
		if principal.WorkshopID == order.WorkshopID {
			return nil
		}
	case entity.RoleSupplier:
		if principal.SupplierID == order.SupplierID {
			return nil
		}
	case entity.RoleRunner:
		if order.RunnerID != "" && principal.UserID == order.RunnerID {
			return nil
		}
	}
	return errors.Forbidden("Not a participant of this order", nil)
}
