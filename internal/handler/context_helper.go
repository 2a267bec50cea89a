package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/healthconnect-api/internal/middleware"
	"github.com/noah-isme/healthconnect-api/internal/models"
	appErrors "github.com/noah-isme/healthconnect-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, ok := middleware.Claims(c)
	if !ok {
		return nil
	}
	return claims
}

func currentUserID(c *gin.Context) (string, error) {
	claims := claimsFromContext(c)
	if claims == nil || claims.UserID == "" {
		return "", appErrors.ErrUnauthenticated
	}
	return claims.UserID, nil
}

func appointmentID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrInvalidArgument, "invalid appointment id")
	}
	return id, nil
}

// bindJSON decodes the body; malformed JSON becomes a validation error.
func bindJSON(c *gin.Context, dest interface{}, message string) error {
	if err := c.ShouldBindJSON(dest); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
	}
	return nil
}
