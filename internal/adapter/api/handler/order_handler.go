package handler

import (
	"github.com/labstack/echo/v4"

	"bengkelink/internal/adapter/api/middleware"
	"bengkelink/internal/domain/entity"
	"bengkelink/internal/usecase"
	"bengkelink/pkg/errors"
	"bengkelink/pkg/response"
	"bengkelink/pkg/utils"
)

type OrderHandler struct {
	orderUseCase *usecase.OrderUseCase
	chatUseCase  *usecase.ChatUseCase
}

func NewOrderHandler(orderUseCase *usecase.OrderUseCase, chatUseCase *usecase.ChatUseCase) *OrderHandler {
	return &OrderHandler{
		orderUseCase: orderUseCase,
		chatUseCase:  chatUseCase,
	}
}

type createOrderRequest struct {
	SupplierID      string  `json:"supplier_id" validate:"required"`
	ItemCount       int     `json:"item_count" validate:"required,min=1"`
	TotalAmount     float64 `json:"total_amount" validate:"required,min=0"`
	DeliveryAddress string  `json:"delivery_address" validate:"required"`
	PickupLat       float64 `json:"pickup_lat" validate:"latitude"`
	PickupLng       float64 `json:"pickup_lng" validate:"longitude"`
	DropLat         float64 `json:"drop_lat" validate:"latitude"`
	DropLng         float64 `json:"drop_lng" validate:"longitude"`
}

type updateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *OrderHandler) CreateOrder(c echo.Context) error {
	var req createOrderRequest
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

	order, err := h.orderUseCase.Create(c.Request().Context(), principal, usecase.CreateOrderInput{
		SupplierID:      req.SupplierID,
		ItemCount:       req.ItemCount,
		TotalAmount:     req.TotalAmount,
		DeliveryAddress: req.DeliveryAddress,
		PickupLat:       req.PickupLat,
		PickupLng:       req.PickupLng,
		DropLat:         req.DropLat,
		DropLng:         req.DropLng,
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, order)
}

func (h *OrderHandler) ListOrders(c echo.Context) error {
	principal, err := middleware.Principal(c)
	if err != nil {
		return err
	}

	orders, err := h.orderUseCase.ListMine(c.Request().Context(), principal)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, orders)
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	principal, err := middleware.Principal(c)
	if err != nil {
		return err
	}

	order, err := h.orderUseCase.Get(c.Request().Context(), principal, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, order)
}

func (h *OrderHandler) UpdateOrderStatus(c echo.Context) error {
	var req updateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}
	if !entity.IsValidOrderStatus(req.Status) {
		return response.Error(c, errors.BadRequest("Unknown order status", nil))
	}

	principal, err := middleware.Principal(c)
	if err != nil {
		return err
	}

	order, err := h.orderUseCase.UpdateStatus(c.Request().Context(), principal, c.Param("id"), entity.OrderStatus(req.Status))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, order)
}

// GetOrderMessages is the REST read path for order chat, used by clients on
// the polling fallback.
func (h *OrderHandler) GetOrderMessages(c echo.Context) error {
	principal, err := middleware.Principal(c)
	if err != nil {
		return err
	}

	pagination := utils.GetPaginationParams(c)
	messages, total, err := h.chatUseCase.Messages(c.Request().Context(), principal, c.Param("id"),
		pagination.PageSize, pagination.Offset)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Paginated(c, messages, total, pagination.Page, pagination.PageSize)
}

func (h *OrderHandler) MarkOrderMessagesRead(c echo.Context) error {
	principal, err := middleware.Principal(c)
	if err != nil {
		return err
	}

	if err := h.chatUseCase.MarkRead(c.Request().Context(), principal, c.Param("id")); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, nil)
}
