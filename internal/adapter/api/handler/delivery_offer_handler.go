package handler

import (
	"github.com/labstack/echo/v4"

	"bengkelink/internal/adapter/api/middleware"
	"bengkelink/internal/domain/entity"
	"bengkelink/internal/usecase"
	"bengkelink/pkg/errors"
	"bengkelink/pkg/response"
)

type DeliveryOfferHandler struct {
	dispatchUseCase *usecase.DispatchUseCase
}

func NewDeliveryOfferHandler(dispatchUseCase *usecase.DispatchUseCase) *DeliveryOfferHandler {
	return &DeliveryOfferHandler{
		dispatchUseCase: dispatchUseCase,
	}
}

// ListPendingOffers is the runner's poll surface for open offers.
func (h *DeliveryOfferHandler) ListPendingOffers(c echo.Context) error {
	principal, err := middleware.Principal(c)
	if err != nil {
		return err
	}
	if principal.Role != entity.RoleRunner {
		return response.Error(c, errors.Forbidden("Only runners receive delivery offers", nil))
	}

	offers, err := h.dispatchUseCase.PendingOffers(c.Request().Context(), principal.UserID)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, offers)
}

// AcceptOffer races against every other runner holding an offer for the same
// order. Losers get a 409 their app renders as "offer no longer available".
func (h *DeliveryOfferHandler) AcceptOffer(c echo.Context) error {
	principal, err := middleware.Principal(c)
	if err != nil {
		return err
	}

	offer, err := h.dispatchUseCase.AcceptOffer(c.Request().Context(), c.Param("id"), principal.UserID)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, offer)
}

func (h *DeliveryOfferHandler) RejectOffer(c echo.Context) error {
	principal, err := middleware.Principal(c)
	if err != nil {
		return err
	}

	offer, err := h.dispatchUseCase.RejectOffer(c.Request().Context(), c.Param("id"), principal.UserID)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, offer)
}
