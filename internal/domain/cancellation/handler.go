package cancellation

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
	engine *Engine
	log    *logger.Logger
}

func NewHandler(engine *Engine, log *logger.Logger) *Handler {
	return &Handler{engine: engine, log: log}
}

type CancelRequest struct {
	CaptureID string `json:"capture_id"`
}

// CancelBooking handles POST /api/v1/bookings/:id/cancel
func (h *Handler) CancelBooking(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid booking ID")
		return
	}

	var req CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}

	actor := middleware.ActorFrom(c)
	res, err := h.engine.Cancel(c.Request.Context(), Request{
		BookingID:  id,
		CaptureID:  req.CaptureID,
		ActorID:    actor.UserID,
		ActorEmail: actor.Email,
		ActorRole:  actor.Role,
	})
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// RegisterRoutes expects rg to already run JWTAuth.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/bookings/:id/cancel", h.CancelBooking)
}

type ReconcileHandler struct {
	reconciler *Reconciler
	log        *logger.Logger
}

func NewReconcileHandler(reconciler *Reconciler, log *logger.Logger) *ReconcileHandler {
	return &ReconcileHandler{reconciler: reconciler, log: log}
}

// Reconcile handles POST /internal/refunds/reconcile
func (h *ReconcileHandler) Reconcile(c *gin.Context) {
	rep, err := h.reconciler.Run(c.Request.Context())
	if err != nil {
		response.FromError(c, h.log, apperr.Store(err))
		return
	}
	response.Success(c, http.StatusOK, rep)
}

// RegisterRoutes expects rg to already run InternalTokenAuth.
func (h *ReconcileHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/refunds/reconcile", h.Reconcile)
}
