package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/stafflink/finance-api/internal/middleware"
	"github.com/stafflink/finance-api/internal/models"
)

// claimsFromContext extracts the authenticated actor, if any.
func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}
