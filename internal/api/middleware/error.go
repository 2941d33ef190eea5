package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"supply-rounds/internal/api/models"
	"supply-rounds/internal/logging"
)

// ErrorHandler middleware recovers panics into the standard error body.
func ErrorHandler(log logging.Logger) gin.HandlerFunc {
	if log == nil {
		log = logging.Noop()
	}
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		message := "An unexpected error occurred"
		switch v := recovered.(type) {
		case string:
			message = v
		case error:
			message = v.Error()
		}
		log.Error(c.Request.Context(), "panic recovered",
			logging.String("path", c.Request.URL.Path),
			logging.String("panic", fmt.Sprint(recovered)))
		c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INTERNAL_ERROR",
				Message: message,
			},
		})
	})
}
