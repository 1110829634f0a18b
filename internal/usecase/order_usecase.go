package usecase

import (
	"context"
	"fmt"

	"bengkelink/internal/domain/entity"
	"bengkelink/internal/domain/repository"
	ws "bengkelink/internal/infrastructure/websocket"
	"bengkelink/pkg/errors"
	"bengkelink/pkg/geo"
	"bengkelink/pkg/logger"
)

type CreateOrderInput struct {
	SupplierID      string  `json:"supplier_id" validate:"required"`
	ItemCount       int     `json:"item_count" validate:"required,min=1"`
	TotalAmount     float64 `json:"total_amount" validate:"required,min=0"`
	DeliveryAddress string  `json:"delivery_address" validate:"required"`
	PickupLat       float64 `json:"pickup_lat" validate:"latitude"`
	PickupLng       float64 `json:"pickup_lng" validate:"longitude"`
	DropLat         float64 `json:"drop_lat" validate:"latitude"`
	DropLng         float64 `json:"drop_lng" validate:"longitude"`
}

type UpdateOrderStatusInput struct {
	Status string `json:"status" validate:"required,oneof=created assigned_runner picked_up delivering delivered cancelled"`
}

// OrderUseCase owns the parts-order lifecycle from creation through
// delivery, including the hand-offs to dispatch (on create) and to the
// wallet (on delivery).
type OrderUseCase struct {
	orderRepo    repository.OrderRepository
	userRepo     repository.UserRepository
	dispatch     *DispatchUseCase
	wallet       *WalletUseCase
	notification *NotificationUseCase
	wsManager    *ws.Manager

	baseRate  float64
	perKmRate float64
}

func NewOrderUseCase(
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	dispatch *DispatchUseCase,
	wallet *WalletUseCase,
	notification *NotificationUseCase,
	wsManager *ws.Manager,
	baseRate, perKmRate float64,
) *OrderUseCase {
	return &OrderUseCase{
		orderRepo:    orderRepo,
		userRepo:     userRepo,
		dispatch:     dispatch,
		wallet:       wallet,
		notification: notification,
		wsManager:    wsManager,
		baseRate:     baseRate,
		perKmRate:    perKmRate,
	}
}

// Create stores the order with its computed delivery fee and immediately
// asks dispatch to fan offers out. A dispatch failure does not fail the
// create: the expiry sweep and manual re-dispatch can recover later.
func (uc *OrderUseCase) Create(ctx context.Context, principal ws.Principal, input CreateOrderInput) (*entity.Order, error) {
	if principal.Role != entity.RoleWorkshop {
		return nil, errors.Forbidden("Only workshop staff can order parts", nil)
	}

	pickup := geo.Point{Lat: input.PickupLat, Lng: input.PickupLng}
	drop := geo.Point{Lat: input.DropLat, Lng: input.DropLng}
	fee := geo.DeliveryFee(input.ItemCount, geo.Distance(pickup, drop), uc.baseRate, uc.perKmRate)

	order := &entity.Order{
		SupplierID:      input.SupplierID,
		WorkshopID:      principal.WorkshopID,
		Status:          entity.OrderStatusCreated,
		ItemCount:       input.ItemCount,
		TotalAmount:     input.TotalAmount,
		DeliveryFee:     fee,
		DeliveryAddress: input.DeliveryAddress,
		PickupLat:       input.PickupLat,
		PickupLng:       input.PickupLng,
		DropLat:         input.DropLat,
		DropLng:         input.DropLng,
	}
	if err := uc.orderRepo.Create(ctx, order); err != nil {
		return nil, err
	}

	uc.wsManager.Publish(ws.SupplierRoom(order.SupplierID), ws.EventOrderUpdate, order)

	if _, err := uc.dispatch.Dispatch(ctx, order.ID); err != nil {
		logger.Warn("initial dispatch for order %s failed: %v", order.ID, err)
	}
	return order, nil
}

// UpdateStatus advances the order one step (or cancels it). The entity
// guard rejects skips and regressions up front; the guarded repository
// write closes the race window between two concurrent updaters.
func (uc *OrderUseCase) UpdateStatus(ctx context.Context, principal ws.Principal, id string, next entity.OrderStatus) (*entity.Order, error) {
	order, err := uc.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := orderParticipant(order, principal); err != nil {
		return nil, err
	}
	if err := uc.allowedStep(order, principal, next); err != nil {
		return nil, err
	}
	if err := order.CanTransition(next); err != nil {
		return nil, errors.Conflict(err.Error(), err)
	}

	updated, err := uc.orderRepo.UpdateStatusGuarded(ctx, id, order.Status, next)
	if err != nil {
		return nil, err
	}

	uc.fanOut(ctx, updated)

	if updated.Status == entity.OrderStatusDelivered && updated.RunnerID != "" {
		uc.settleDelivery(ctx, updated)
	}
	return updated, nil
}

func (uc *OrderUseCase) Get(ctx context.Context, principal ws.Principal, id string) (*entity.Order, error) {
	order, err := uc.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := orderParticipant(order, principal); err != nil {
		return nil, err
	}
	return order, nil
}

// ListMine is the role-scoped poll surface.
func (uc *OrderUseCase) ListMine(ctx context.Context, principal ws.Principal) ([]*entity.Order, error) {
	switch principal.Role {
	case entity.RoleWorkshop:
		return uc.orderRepo.ListByWorkshop(ctx, principal.WorkshopID)
	case entity.RoleSupplier:
		return uc.orderRepo.ListBySupplier(ctx, principal.SupplierID)
	case entity.RoleRunner:
		return uc.orderRepo.ListByRunner(ctx, principal.UserID)
	}
	return nil, errors.Forbidden("Role has no orders", nil)
}

// allowedStep maps lifecycle steps to the role that performs them:
// suppliers hand the parcel over, runners move it, either side may cancel
// while the order is still live.
func (uc *OrderUseCase) allowedStep(order *entity.Order, principal ws.Principal, next entity.OrderStatus) error {
	switch next {
	case entity.OrderStatusPickedUp:
		if principal.Role != entity.RoleSupplier && principal.Role != entity.RoleRunner {
			return errors.Forbidden("Only the supplier or the runner can confirm pickup", nil)
		}
	case entity.OrderStatusDelivering, entity.OrderStatusDelivered:
		if principal.Role != entity.RoleRunner || principal.UserID != order.RunnerID {
			return errors.Forbidden("Only the assigned runner can update delivery progress", nil)
		}
	case entity.OrderStatusCancelled:
		if principal.Role == entity.RoleRunner {
			return errors.Forbidden("Runners cannot cancel orders", nil)
		}
	case entity.OrderStatusAssignedRunner:
		return errors.Forbidden("Runner assignment happens through offer acceptance", nil)
	}
	return nil
}

// fanOut pushes the new state to every interested room and records durable
// notifications for the parties not currently connected.
func (uc *OrderUseCase) fanOut(ctx context.Context, order *entity.Order) {
	uc.wsManager.Publish(ws.OrderRoom(order.ID), ws.EventOrderUpdate, order)
	uc.wsManager.Publish(ws.WorkshopRoom(order.WorkshopID), ws.EventOrderUpdate, order)
	uc.wsManager.Publish(ws.SupplierRoom(order.SupplierID), ws.EventOrderUpdate, order)
	if order.RunnerID != "" {
		uc.notification.NotifyOrderUpdate(ctx, order.RunnerID, order.ID, order.Status)
	}
}

// settleDelivery frees the runner and credits the delivery fee to their
// wallet. Settlement failures are logged and retried out of band; the
// delivered status itself is already durable.
func (uc *OrderUseCase) settleDelivery(ctx context.Context, order *entity.Order) {
	if err := uc.userRepo.SetRunnerAvailability(ctx, order.RunnerID, true); err != nil {
		logger.Warn("failed to free runner %s after delivery: %v", order.RunnerID, err)
	}
	if _, err := uc.wallet.ApplyTransaction(ctx, order.RunnerID, order.DeliveryFee); err != nil {
		logger.Error("failed to credit delivery fee for order %s to runner %s: %v",
			order.ID, order.RunnerID, err)
	}
	uc.notification.NotifyDeliveryUpdate(ctx, order.RunnerID,
		fmt.Sprintf("Delivery for order %s completed, fee %.2f credited", order.ID, order.DeliveryFee))
}
