package handlers

import (
	"github.com/gin-gonic/gin"

	"prosumer-sim/internal/api/models"
)

func respondError(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: msg,
		},
	})
}
