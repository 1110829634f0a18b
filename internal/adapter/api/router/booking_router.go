package router

import (
	"github.com/labstack/echo/v4"

	"bengkelink/internal/adapter/api/handler"
	"bengkelink/internal/adapter/api/middleware"
)

func SetupBookingRouter(e *echo.Echo, bookingHandler *handler.BookingHandler, authMiddleware *middleware.AuthMiddleware) {
	bookings := e.Group("/v1/bookings")
	bookings.Use(authMiddleware.Authenticate)

	bookings.POST("", bookingHandler.CreateBooking)
	bookings.GET("", bookingHandler.ListBookings)
	bookings.GET("/:id", bookingHandler.GetBooking)

	bookings.PATCH("/:id/status", bookingHandler.UpdateBookingStatus)

	// Schedule negotiation: workshop proposes, customer answers.
	bookings.PATCH("/:id/propose-date", bookingHandler.ProposeSchedule)
	bookings.PATCH("/:id/accept-proposal", bookingHandler.AcceptProposal)
	bookings.PATCH("/:id/reject-proposal", bookingHandler.RejectProposal)
}
