package handler

import (
	"github.com/labstack/echo/v4"

	"bengkelink/internal/adapter/api/middleware"
	"bengkelink/internal/usecase"
	"bengkelink/pkg/response"
	"bengkelink/pkg/utils"
)

type NotificationHandler struct {
	notificationUseCase *usecase.NotificationUseCase
}

func NewNotificationHandler(notificationUseCase *usecase.NotificationUseCase) *NotificationHandler {
	return &NotificationHandler{
		notificationUseCase: notificationUseCase,
	}
}

func (h *NotificationHandler) ListNotifications(c echo.Context) error {
	principal, err := middleware.Principal(c)
	if err != nil {
		return err
	}

	pagination := utils.GetPaginationParams(c)
	notifications, total, err := h.notificationUseCase.List(c.Request().Context(), principal.UserID,
		pagination.PageSize, pagination.Offset)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Paginated(c, notifications, total, pagination.Page, pagination.PageSize)
}

func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	principal, err := middleware.Principal(c)
	if err != nil {
		return err
	}

	count, err := h.notificationUseCase.UnreadCount(c.Request().Context(), principal.UserID)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]int64{"unread": count})
}

func (h *NotificationHandler) MarkNotificationRead(c echo.Context) error {
	principal, err := middleware.Principal(c)
	if err != nil {
		return err
	}

	if err := h.notificationUseCase.MarkRead(c.Request().Context(), c.Param("id"), principal.UserID); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, nil)
}

func (h *NotificationHandler) MarkAllNotificationsRead(c echo.Context) error {
	principal, err := middleware.Principal(c)
	if err != nil {
		return err
	}

	if err := h.notificationUseCase.MarkAllRead(c.Request().Context(), principal.UserID); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, nil)
}

func (h *NotificationHandler) DeleteNotification(c echo.Context) error {
	principal, err := middleware.Principal(c)
	if err != nil {
		return err
	}

	if err := h.notificationUseCase.Delete(c.Request().Context(), c.Param("id"), principal.UserID); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, nil)
}
