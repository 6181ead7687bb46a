package response

import (
	"net/http"

	"taskhub/internal/pkg/apperr"
	"taskhub/internal/pkg/logger"

	"github.com/gin-gonic/gin"
)

func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"data":    data,
	})
}

func Error(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func ErrorWithDetails(c *gin.Context, statusCode int, code string, message string, details any) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// FromError writes the envelope for err. Server-side failures are logged
// with their cause and answered with the generic message only.
func FromError(c *gin.Context, log *logger.Logger, err error) {
	appErr := apperr.From(err)
	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}

	if status >= http.StatusInternalServerError && log != nil {
		log.Error("request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"code", appErr.Code,
			"user_id", c.GetInt64("user_id"),
			"error", err,
		)
	}
	_ = c.Error(err)

	if len(appErr.Details) > 0 {
		ErrorWithDetails(c, status, appErr.Code, appErr.Message, appErr.Details)
		return
	}
	Error(c, status, appErr.Code, appErr.Message)
}
