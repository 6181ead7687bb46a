package booking

import (
	"taskhub/internal/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterPublicRoutes registers the calendar endpoints.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/bookings/occupied", h.GetOccupied)
	rg.GET("/businesses/:id/availability", h.GetAvailability)
}

// RegisterProtectedRoutes expects rg to already run JWTAuth.
func (h *Handler) RegisterProtectedRoutes(rg *gin.RouterGroup) {
	bookings := rg.Group("/bookings")
	{
		bookings.POST("", h.CreateBooking)
		bookings.GET("/me", h.GetMyBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.PATCH("/:id/complete", h.CompleteBooking)
		bookings.PATCH("/:id/rating", h.RateBooking)
	}

	rg.GET("/businesses/:id/bookings", h.GetBusinessBookings)
	rg.GET("/orders/me", middleware.TaskerOnly(), h.GetMyOrders)
}
