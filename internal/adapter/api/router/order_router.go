package router

import (
	"github.com/labstack/echo/v4"

	"bengkelink/internal/adapter/api/handler"
	"bengkelink/internal/adapter/api/middleware"
)

func SetupOrderRouter(e *echo.Echo, orderHandler *handler.OrderHandler, offerHandler *handler.DeliveryOfferHandler, authMiddleware *middleware.AuthMiddleware) {
	orders := e.Group("/v1/orders")
	orders.Use(authMiddleware.Authenticate)

	orders.POST("", orderHandler.CreateOrder)
	orders.GET("", orderHandler.ListOrders)
	orders.GET("/:id", orderHandler.GetOrder)
	orders.PATCH("/:id/status", orderHandler.UpdateOrderStatus)

	// Chat reads for the polling fallback; the live path is the socket.
	orders.GET("/:id/messages", orderHandler.GetOrderMessages)
	orders.PUT("/:id/messages/read", orderHandler.MarkOrderMessagesRead)

	offers := e.Group("/v1/delivery-offers")
	offers.Use(authMiddleware.Authenticate)

	offers.GET("", offerHandler.ListPendingOffers)
	offers.POST("/:id/accept", offerHandler.AcceptOffer)
	offers.POST("/:id/reject", offerHandler.RejectOffer)
}
