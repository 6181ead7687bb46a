package favorite

import "github.com/gin-gonic/gin"

// RegisterRoutes expects rg to already run JWTAuth.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	favorites := rg.Group("/favorites")
	{
		favorites.GET("", h.GetFavorites)
		favorites.POST("/:id", h.AddFavorite)
		favorites.DELETE("/:id", h.RemoveFavorite)
		favorites.GET("/:id/check", h.CheckFavorite)
	}
}
