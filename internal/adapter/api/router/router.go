package router

import (
	"github.com/labstack/echo/v4"

	"bengkelink/internal/adapter/api/handler"
	"bengkelink/internal/adapter/api/middleware"
)

type Handlers struct {
	Booking       *handler.BookingHandler
	Order         *handler.OrderHandler
	DeliveryOffer *handler.DeliveryOfferHandler
	Notification  *handler.NotificationHandler
	Wallet        *handler.WalletHandler
	WebSocket     *handler.WebSocketHandler
	Health        *handler.HealthHandler
}

func Setup(e *echo.Echo, h Handlers, authMiddleware *middleware.AuthMiddleware) {
	SetupHealthRouter(e, h.Health)
	SetupBookingRouter(e, h.Booking, authMiddleware)
	SetupOrderRouter(e, h.Order, h.DeliveryOffer, authMiddleware)
	SetupNotificationRouter(e, h.Notification, authMiddleware)
	SetupWalletRouter(e, h.Wallet, authMiddleware)
	SetupWebSocketRouter(e, h.WebSocket, authMiddleware)
}
