package usecase

import (
	"context"
	"fmt"
	"time"

	"bengkelink/internal/domain/entity"
	"bengkelink/internal/domain/repository"
	ws "bengkelink/internal/infrastructure/websocket"
	"bengkelink/pkg/errors"
	"bengkelink/pkg/logger"
)

type CreateBookingInput struct {
	WorkshopID    string    `json:"workshop_id" validate:"required"`
	VehiclePlate  string    `json:"vehicle_plate" validate:"required"`
	VehicleModel  string    `json:"vehicle_model" validate:"required"`
	ServiceType   string    `json:"service_type" validate:"required"`
	Description   string    `json:"description"`
	PreferredDate time.Time `json:"preferred_date" validate:"required"`
	EstimatedCost float64   `json:"estimated_cost" validate:"omitempty,min=0"`
}

type ProposeScheduleInput struct {
	ProposedDate time.Time `json:"proposed_date" validate:"required"`
	Reason       string    `json:"reason" validate:"required"`
}

// BookingUseCase runs the scheduling negotiation between a customer and a
// workshop. Every status change goes through the entity's transition table
// and a guarded repository update, so two staff members racing on the same
// booking resolve to exactly one winner.
type BookingUseCase struct {
	bookingRepo  repository.BookingRepository
	notification *NotificationUseCase
	wsManager    *ws.Manager

	proposalGrace time.Duration
	now           func() time.Time
}

func NewBookingUseCase(
	bookingRepo repository.BookingRepository,
	notification *NotificationUseCase,
	wsManager *ws.Manager,
	proposalGrace time.Duration,
) *BookingUseCase {
	return &BookingUseCase{
		bookingRepo:   bookingRepo,
		notification:  notification,
		wsManager:     wsManager,
		proposalGrace: proposalGrace,
		now:           time.Now,
	}
}

func (uc *BookingUseCase) Create(ctx context.Context, principal ws.Principal, input CreateBookingInput) (*entity.Booking, error) {
	if principal.Role != entity.RoleCustomer {
		return nil, errors.Forbidden("Only customers can create bookings", nil)
	}
	if !input.PreferredDate.After(uc.now()) {
		return nil, errors.BadRequest("Preferred date must be in the future", nil)
	}

	booking := &entity.Booking{
		CustomerID:    principal.UserID,
		WorkshopID:    input.WorkshopID,
		VehiclePlate:  input.VehiclePlate,
		VehicleModel:  input.VehicleModel,
		ServiceType:   input.ServiceType,
		Description:   input.Description,
		PreferredDate: input.PreferredDate,
		EstimatedCost: input.EstimatedCost,
		Status:        entity.BookingStatusPending,
	}
	if err := uc.bookingRepo.Create(ctx, booking); err != nil {
		return nil, err
	}

	uc.wsManager.Publish(ws.WorkshopRoom(booking.WorkshopID), ws.EventBookingUpdate, booking)
	logger.Info("booking %s created for workshop %s", booking.ID, booking.WorkshopID)
	return booking, nil
}

// Approve confirms the booking on its current preferred date.
func (uc *BookingUseCase) Approve(ctx context.Context, principal ws.Principal, id string) (*entity.Booking, error) {
	return uc.workshopTransition(ctx, principal, id, entity.BookingStatusApproved, nil,
		"Your booking was approved")
}

// Reject is terminal; the customer must create a new booking to retry.
func (uc *BookingUseCase) Reject(ctx context.Context, principal ws.Principal, id string) (*entity.Booking, error) {
	return uc.workshopTransition(ctx, principal, id, entity.BookingStatusRejected, nil,
		"Your booking was rejected")
}

// Propose counter-offers a different schedule. The proposed date must leave
// the customer a reasonable window to respond before it arrives.
func (uc *BookingUseCase) Propose(ctx context.Context, principal ws.Principal, id string, input ProposeScheduleInput) (*entity.Booking, error) {
	if !input.ProposedDate.After(uc.now().Add(uc.proposalGrace)) {
		return nil, errors.BadRequest(
			fmt.Sprintf("Proposed date must be at least %s from now", uc.proposalGrace), nil)
	}
	return uc.workshopTransition(ctx, principal, id, entity.BookingStatusWorkshopProposed,
		map[string]interface{}{
			"proposedDate":   input.ProposedDate,
			"proposalReason": input.Reason,
		},
		fmt.Sprintf("The workshop proposed a new schedule: %s", input.ProposedDate.Format(time.RFC3339)))
}

// Complete closes out an approved booking after service is done.
func (uc *BookingUseCase) Complete(ctx context.Context, principal ws.Principal, id string) (*entity.Booking, error) {
	return uc.workshopTransition(ctx, principal, id, entity.BookingStatusCompleted, nil,
		"Your booking was completed")
}

// AcceptProposal adopts the workshop's counter-offer: the proposed date
// becomes the booking date and the booking is approved.
func (uc *BookingUseCase) AcceptProposal(ctx context.Context, principal ws.Principal, id string) (*entity.Booking, error) {
	booking, err := uc.ownedBooking(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	if booking.Status != entity.BookingStatusWorkshopProposed || booking.ProposedDate == nil {
		return nil, errors.Conflict("Booking has no open schedule proposal", nil)
	}

	updated, err := uc.bookingRepo.UpdateGuarded(ctx, id, booking.Status, map[string]interface{}{
		"status":        entity.BookingStatusApproved,
		"preferredDate": *booking.ProposedDate,
	})
	if err != nil {
		return nil, err
	}
	uc.broadcast(ctx, updated, "")
	return updated, nil
}

// RejectProposal declines the counter-offer and ends the negotiation.
func (uc *BookingUseCase) RejectProposal(ctx context.Context, principal ws.Principal, id string) (*entity.Booking, error) {
	booking, err := uc.ownedBooking(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	if booking.Status != entity.BookingStatusWorkshopProposed {
		return nil, errors.Conflict("Booking has no open schedule proposal", nil)
	}

	updated, err := uc.bookingRepo.UpdateGuarded(ctx, id, booking.Status, map[string]interface{}{
		"status": entity.BookingStatusRejected,
	})
	if err != nil {
		return nil, err
	}
	uc.broadcast(ctx, updated, "")
	return updated, nil
}

// Cancel is available to the customer from any non-terminal state.
func (uc *BookingUseCase) Cancel(ctx context.Context, principal ws.Principal, id string) (*entity.Booking, error) {
	booking, err := uc.ownedBooking(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	if err := booking.CanTransition(entity.BookingStatusCancelled); err != nil {
		return nil, errors.Conflict(err.Error(), err)
	}

	updated, err := uc.bookingRepo.UpdateGuarded(ctx, id, booking.Status, map[string]interface{}{
		"status": entity.BookingStatusCancelled,
	})
	if err != nil {
		return nil, err
	}
	uc.broadcast(ctx, updated, "")
	return updated, nil
}

func (uc *BookingUseCase) Get(ctx context.Context, principal ws.Principal, id string) (*entity.Booking, error) {
	booking, err := uc.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := bookingParty(booking, principal); err != nil {
		return nil, err
	}
	return booking, nil
}

func (uc *BookingUseCase) ListMine(ctx context.Context, principal ws.Principal) ([]*entity.Booking, error) {
	switch principal.Role {
	case entity.RoleCustomer:
		return uc.bookingRepo.ListByCustomer(ctx, principal.UserID)
	case entity.RoleWorkshop:
		return uc.bookingRepo.ListByWorkshop(ctx, principal.WorkshopID)
	}
	return nil, errors.Forbidden("Role has no bookings", nil)
}

// workshopTransition is the shared path for workshop-side status changes:
// membership check, transition guard, guarded update, then fan-out to the
// customer and the workshop room.
func (uc *BookingUseCase) workshopTransition(
	ctx context.Context,
	principal ws.Principal,
	id string,
	next entity.BookingStatus,
	extra map[string]interface{},
	customerMessage string,
) (*entity.Booking, error) {
	booking, err := uc.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if principal.Role != entity.RoleWorkshop || principal.WorkshopID != booking.WorkshopID {
		return nil, errors.Forbidden("Not a member of this booking's workshop", nil)
	}
	if err := booking.CanTransition(next); err != nil {
		return nil, errors.Conflict(err.Error(), err)
	}

	updates := map[string]interface{}{"status": next}
	for k, v := range extra {
		updates[k] = v
	}
	updated, err := uc.bookingRepo.UpdateGuarded(ctx, id, booking.Status, updates)
	if err != nil {
		return nil, err
	}

	uc.broadcast(ctx, updated, customerMessage)
	return updated, nil
}

// broadcast pushes the new booking state to the workshop room and, when a
// message is given, records a durable notification for the customer.
func (uc *BookingUseCase) broadcast(ctx context.Context, booking *entity.Booking, customerMessage string) {
	uc.wsManager.Publish(ws.WorkshopRoom(booking.WorkshopID), ws.EventBookingUpdate, booking)
	uc.wsManager.Publish(ws.NotificationRoom(booking.CustomerID), ws.EventBookingUpdate, booking)
	if customerMessage != "" {
		uc.notification.NotifyBookingUpdate(ctx, booking.CustomerID, customerMessage)
	}
}

func (uc *BookingUseCase) ownedBooking(ctx context.Context, principal ws.Principal, id string) (*entity.Booking, error) {
	booking, err := uc.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if principal.Role != entity.RoleCustomer || principal.UserID != booking.CustomerID {
		return nil, errors.Forbidden("Booking belongs to another customer", nil)
	}
	return booking, nil
}

func bookingParty(booking *entity.Booking, principal ws.Principal) error {
	switch principal.Role {
	case entity.RoleCustomer:
		if principal.UserID == booking.CustomerID {
			return nil
		}
	case entity.RoleWorkshop:
		if principal.WorkshopID == booking.WorkshopID {
			return nil
		}
	}
	return errors.Forbidden("Not a party to this booking", nil)
}
