package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/campushub/campus-api/internal/authz"
	"github.com/campushub/campus-api/internal/middleware"
	"github.com/campushub/campus-api/internal/models"
)

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

// callerFromContext builds the ownership-policy caller from the JWT claims
// placed on the context by the auth middleware.
func callerFromContext(c *gin.Context) (authz.Caller, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		return authz.Caller{}, false
	}
	return authz.Caller{ID: claims.UserID, Role: claims.Role, ClassID: claims.ClassID}, true
}
