package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bengkelink/internal/domain/entity"
	ws "bengkelink/internal/infrastructure/websocket"
	"bengkelink/pkg/errors"
)

func newAuthorizerFixture() (*RepoRoomAuthorizer, *fakeOrderRepo) {
	orders := newFakeOrderRepo(&entity.Order{
		ID:         "order-1",
		SupplierID: "supplier-1",
		WorkshopID: "workshop-1",
		RunnerID:   "runner-1",
		Status:     entity.OrderStatusAssignedRunner,
	})
	return NewRepoRoomAuthorizer(orders), orders
}

func TestCanJoinPrivateRooms(t *testing.T) {
	authorizer, _ := newAuthorizerFixture()
	ctx := context.Background()
	owner := ws.Principal{UserID: "user-1", Role: entity.RoleCustomer}

	assert.NoError(t, authorizer.CanJoin(ctx, ws.NotificationRoom("user-1"), owner))
	assert.NoError(t, authorizer.CanJoin(ctx, ws.WalletRoom("user-1"), owner))

	err := authorizer.CanJoin(ctx, ws.NotificationRoom("user-2"), owner)
	assert.True(t, errors.Is(err, errors.CodeForbidden))
	err = authorizer.CanJoin(ctx, ws.WalletRoom("user-2"), owner)
	assert.True(t, errors.Is(err, errors.CodeForbidden))
}

func TestCanJoinBusinessRooms(t *testing.T) {
	authorizer, _ := newAuthorizerFixture()
	ctx := context.Background()

	staff := ws.Principal{UserID: "staff-1", Role: entity.RoleWorkshop, WorkshopID: "workshop-1"}
	assert.NoError(t, authorizer.CanJoin(ctx, ws.WorkshopRoom("workshop-1"), staff))

	err := authorizer.CanJoin(ctx, ws.WorkshopRoom("workshop-2"), staff)
	assert.True(t, errors.Is(err, errors.CodeForbidden))

	// Role alone is not enough; membership has to match.
	supplier := ws.Principal{UserID: "staff-2", Role: entity.RoleSupplier, SupplierID: "supplier-1"}
	assert.NoError(t, authorizer.CanJoin(ctx, ws.SupplierRoom("supplier-1"), supplier))
	err = authorizer.CanJoin(ctx, ws.WorkshopRoom("workshop-1"), supplier)
	assert.True(t, errors.Is(err, errors.CodeForbidden))
}

func TestCanJoinOrderRoom(t *testing.T) {
	authorizer, _ := newAuthorizerFixture()
	ctx := context.Background()
	room := ws.OrderRoom("order-1")

	participants := []ws.Principal{
		{UserID: "staff-1", Role: entity.RoleWorkshop, WorkshopID: "workshop-1"},
		{UserID: "staff-2", Role: entity.RoleSupplier, SupplierID: "supplier-1"},
		{UserID: "runner-1", Role: entity.RoleRunner},
	}
	for _, p := range participants {
		assert.NoError(t, authorizer.CanJoin(ctx, room, p), "participant %s", p.UserID)
	}

	outsiders := []ws.Principal{
		{UserID: "staff-9", Role: entity.RoleWorkshop, WorkshopID: "workshop-9"},
		{UserID: "runner-9", Role: entity.RoleRunner},
		{UserID: "customer-1", Role: entity.RoleCustomer},
	}
	for _, p := range outsiders {
		err := authorizer.CanJoin(ctx, room, p)
		assert.True(t, errors.Is(err, errors.CodeForbidden), "outsider %s", p.UserID)
	}
}

func TestUnassignedRunnerCannotJoinOrderRoom(t *testing.T) {
	authorizer, orders := newAuthorizerFixture()
	ctx := context.Background()

	require.NoError(t, orders.Create(ctx, &entity.Order{
		ID:         "order-2",
		SupplierID: "supplier-1",
		WorkshopID: "workshop-1",
		Status:     entity.OrderStatusCreated,
	}))

	// No runner assigned yet, so no runner may join.
	runner := ws.Principal{UserID: "runner-1", Role: entity.RoleRunner}
	err := authorizer.CanJoin(ctx, ws.OrderRoom("order-2"), runner)
	assert.True(t, errors.Is(err, errors.CodeForbidden))
}

func TestCanPublishOnlyOrderRooms(t *testing.T) {
	authorizer, _ := newAuthorizerFixture()
	ctx := context.Background()
	owner := ws.Principal{UserID: "user-1", Role: entity.RoleCustomer}

	// Server-push rooms are read-only even for their owner.
	readOnly := []ws.Room{
		ws.NotificationRoom("user-1"),
		ws.WalletRoom("user-1"),
		ws.WorkshopRoom("workshop-1"),
		ws.SupplierRoom("supplier-1"),
	}
	for _, room := range readOnly {
		err := authorizer.CanPublish(ctx, room, owner)
		assert.True(t, errors.Is(err, errors.CodeForbidden), "room %s", room.Name())
	}

	runner := ws.Principal{UserID: "runner-1", Role: entity.RoleRunner}
	assert.NoError(t, authorizer.CanPublish(ctx, ws.OrderRoom("order-1"), runner))
}
