package router

import (
	"github.com/labstack/echo/v4"

	"bengkelink/internal/adapter/api/handler"
	"bengkelink/internal/adapter/api/middleware"
)

func SetupNotificationRouter(e *echo.Echo, notificationHandler *handler.NotificationHandler, authMiddleware *middleware.AuthMiddleware) {
	notifications := e.Group("/v1/notifications")
	notifications.Use(authMiddleware.Authenticate)

	notifications.GET("", notificationHandler.ListNotifications)
	notifications.GET("/unread-count", notificationHandler.GetUnreadCount)
	notifications.PUT("/:id/read", notificationHandler.MarkNotificationRead)
	notifications.PUT("/read-all", notificationHandler.MarkAllNotificationsRead)
	notifications.DELETE("/:id", notificationHandler.DeleteNotification)
}
