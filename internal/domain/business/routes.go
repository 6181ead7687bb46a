package business

import (
	"taskhub/internal/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterPublicRoutes registers the listing endpoints. optional runs
// before the details handler so owners can see their unlisted businesses.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup, optional ...gin.HandlerFunc) {
	rg.GET("/businesses", h.GetByCategory)
	rg.GET("/businesses/top", h.GetTop)
	rg.GET("/businesses/:id", append(optional, h.GetBusiness)...)
}

// RegisterProtectedRoutes expects rg to already run JWTAuth.
func (h *Handler) RegisterProtectedRoutes(rg *gin.RouterGroup) {
	businesses := rg.Group("/businesses")
	{
		businesses.POST("", middleware.TaskerOnly(), h.CreateBusiness)
		businesses.GET("/mine", middleware.TaskerOnly(), h.GetMine)
		businesses.PATCH("/:id", middleware.TaskerOnly(), h.UpdateBusiness)
		businesses.PATCH("/:id/status", h.SetStatus)
	}
}
