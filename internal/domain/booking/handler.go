package booking

import (
	"net/http"
	"strconv"

	"taskhub/internal/middleware"
	"taskhub/internal/pkg/apperr"
	"taskhub/internal/pkg/logger"
	"taskhub/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service  *Service
	calendar *Calendar
	log      *logger.Logger
}

func NewHandler(service *Service, calendar *Calendar, log *logger.Logger) *Handler {
	return &Handler{service: service, calendar: calendar, log: log}
}

// CreateBooking handles POST /api/v1/bookings
func (h *Handler) CreateBooking(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}

	b, err := h.service.Create(c.Request.Context(), middleware.ActorFrom(c), req)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, b)
}

// GetOccupied handles GET /api/v1/bookings/occupied?business_id=&date=
func (h *Handler) GetOccupied(c *gin.Context) {
	rawID, date := c.Query("business_id"), c.Query("date")
	if rawID == "" || date == "" {
		response.FromError(c, h.log, apperr.Validation("business_id and date are required"))
		return
	}
	businessID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		response.FromError(c, h.log, apperr.Validation("invalid business id"))
		return
	}

	occ, err := h.calendar.Occupied(c.Request.Context(), businessID, date)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, occ)
}

// GetAvailability handles GET /api/v1/businesses/:id/availability?date=
func (h *Handler) GetAvailability(c *gin.Context) {
	businessID, ok := h.idParam(c)
	if !ok {
		return
	}
	date := c.Query("date")
	if date == "" {
		response.FromError(c, h.log, apperr.Validation("date is required"))
		return
	}

	av, err := h.calendar.Availability(c.Request.Context(), businessID, date)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, av)
}

// GetBooking handles GET /api/v1/bookings/:id
func (h *Handler) GetBooking(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}

	b, err := h.service.Get(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, b)
}

// CompleteBooking handles PATCH /api/v1/bookings/:id/complete
func (h *Handler) CompleteBooking(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}

	b, err := h.service.Complete(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, b)
}

// RateBooking handles PATCH /api/v1/bookings/:id/rating
func (h *Handler) RateBooking(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}
	var req RateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}

	b, err := h.service.Rate(c.Request.Context(), middleware.ActorFrom(c), id, req)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, b)
}

// GetMyBookings handles GET /api/v1/bookings/me?tab=
func (h *Handler) GetMyBookings(c *gin.Context) {
	tab, ok := h.tab(c)
	if !ok {
		return
	}

	list, err := h.service.ListMine(c.Request.Context(), middleware.ActorFrom(c), tab)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bookings": list, "total": len(list)})
}

// GetBusinessBookings handles GET /api/v1/businesses/:id/bookings?tab=
func (h *Handler) GetBusinessBookings(c *gin.Context) {
	businessID, ok := h.idParam(c)
	if !ok {
		return
	}
	tab, ok := h.tab(c)
	if !ok {
		return
	}

	list, err := h.service.ListForBusiness(c.Request.Context(), middleware.ActorFrom(c), businessID, tab)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bookings": list, "total": len(list)})
}

// GetMyOrders handles GET /api/v1/orders/me
func (h *Handler) GetMyOrders(c *gin.Context) {
	tab, ok := h.tab(c)
	if !ok {
		return
	}

	list, err := h.service.ListOrders(c.Request.Context(), middleware.ActorFrom(c), tab)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"orders": list, "total": len(list)})
}

func (h *Handler) idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid ID")
		return 0, false
	}
	return id, true
}

func (h *Handler) tab(c *gin.Context) (Tab, bool) {
	tab, ok := ParseTab(c.Query("tab"))
	if !ok {
		response.FromError(c, h.log, apperr.Validation("tab must be history, completed or cancelled"))
		return "", false
	}
	return tab, true
}
