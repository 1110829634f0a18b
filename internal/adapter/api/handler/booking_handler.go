package handler

import (
	"time"

	"github.com/labstack/echo/v4"

	"bengkelink/internal/adapter/api/middleware"
	"bengkelink/internal/usecase"
	"bengkelink/pkg/errors"
	"bengkelink/pkg/response"
)

type BookingHandler struct {
	bookingUseCase *usecase.BookingUseCase
}

func NewBookingHandler(bookingUseCase *usecase.BookingUseCase) *BookingHandler {
	return &BookingHandler{
		bookingUseCase: bookingUseCase,
	}
}

type createBookingRequest struct {
	WorkshopID    string  `json:"workshop_id" validate:"required"`
	VehiclePlate  string  `json:"vehicle_plate" validate:"required"`
	VehicleModel  string  `json:"vehicle_model" validate:"required"`
	ServiceType   string  `json:"service_type" validate:"required"`
	Description   string  `json:"description"`
	PreferredDate string  `json:"preferred_date" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	EstimatedCost float64 `json:"estimated_cost" validate:"omitempty,min=0"`
}

type proposeScheduleRequest struct {
	ProposedDate string `json:"proposed_date" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	Reason       string `json:"reason" validate:"required"`
}

type updateBookingStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=approved rejected completed cancelled"`
}

func (h *BookingHandler) CreateBooking(c echo.Context) error {
	var req createBookingRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	principal, err := middleware.Principal(c)
	if err != nil {
		return err
	}

	preferredDate, _ := time.Parse(time.RFC3339, req.PreferredDate)
	booking, err := h.bookingUseCase.Create(c.Request().Context(), principal, usecase.CreateBookingInput{
		WorkshopID:    req.WorkshopID,
		VehiclePlate:  req.VehiclePlate,
		VehicleModel:  req.VehicleModel,
		ServiceType:   req.ServiceType,
		Description:   req.Description,
		PreferredDate: preferredDate,
		EstimatedCost: req.EstimatedCost,
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, booking)
}

func (h *BookingHandler) ListBookings(c echo.Context) error {
	principal, err := middleware.Principal(c)
	if err != nil {
		return err
	}

	bookings, err := h.bookingUseCase.ListMine(c.Request().Context(), principal)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, bookings)
}

func (h *BookingHandler) GetBooking(c echo.Context) error {
	principal, err := middleware.Principal(c)
	if err != nil {
		return err
	}

	booking, err := h.bookingUseCase.Get(c.Request().Context(), principal, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, booking)
}

// UpdateBookingStatus is the single transition endpoint for the plain
// status moves; the proposal round-trip has its own endpoints because it
// carries extra payload and different actors.
func (h *BookingHandler) UpdateBookingStatus(c echo.Context) error {
	var req updateBookingStatusRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	principal, err := middleware.Principal(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	id := c.Param("id")

	var booking interface{}
	switch req.Status {
	case "approved":
		booking, err = h.bookingUseCase.Approve(ctx, principal, id)
	case "rejected":
		booking, err = h.bookingUseCase.Reject(ctx, principal, id)
	case "completed":
		booking, err = h.bookingUseCase.Complete(ctx, principal, id)
	case "cancelled":
		booking, err = h.bookingUseCase.Cancel(ctx, principal, id)
	}
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, booking)
}

func (h *BookingHandler) ProposeSchedule(c echo.Context) error {
	var req proposeScheduleRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	principal, err := middleware.Principal(c)
	if err != nil {
		return err
	}

	proposedDate, _ := time.Parse(time.RFC3339, req.ProposedDate)
	booking, err := h.bookingUseCase.Propose(c.Request().Context(), principal, c.Param("id"), usecase.ProposeScheduleInput{
		ProposedDate: proposedDate,
		Reason:       req.Reason,
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, booking)
}

func (h *BookingHandler) AcceptProposal(c echo.Context) error {
	principal, err := middleware.Principal(c)
	if err != nil {
		return err
	}

	booking, err := h.bookingUseCase.AcceptProposal(c.Request().Context(), principal, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, booking)
}

func (h *BookingHandler) RejectProposal(c echo.Context) error {
	principal, err := middleware.Principal(c)
	if err != nil {
		return err
	}

	booking, err := h.bookingUseCase.RejectProposal(c.Request().Context(), principal, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, booking)
}
