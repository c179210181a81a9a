package utils

import (
	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/taskboard/internal/apperr"
	"github.com/monocle-dev/taskboard/internal/auth"
	"github.com/monocle-dev/taskboard/internal/middleware"
	"github.com/monocle-dev/taskboard/internal/types"
)

func GetCurrentUser(ctx *gin.Context) (middleware.AuthenticatedUser, error) {
	user, exists := ctx.Get(types.ContextUserKey)

	if !exists {
		return middleware.AuthenticatedUser{}, apperr.Authentication("User not authenticated")
	}

	authenticatedUser, ok := user.(middleware.AuthenticatedUser)

	if !ok {
		return middleware.AuthenticatedUser{}, apperr.Authentication("Invalid user type in context")
	}

	return authenticatedUser, nil
}

func GetCurrentUserID(ctx *gin.Context) (uint, error) {
	user, err := GetCurrentUser(ctx)

	if err != nil {
		return 0, err
	}

	return user.ID, nil
}

// GetClaims returns the verified token claims, needed to revoke the token on
// logout.
func GetClaims(ctx *gin.Context) (*auth.Claims, error) {
	value, exists := ctx.Get(types.ContextClaimsKey)

	if !exists {
		return nil, apperr.Authentication("User not authenticated")
	}

	claims, ok := value.(*auth.Claims)

	if !ok {
		return nil, apperr.Authentication("Invalid claims type in context")
	}

	return claims, nil
}
