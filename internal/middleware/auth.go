package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/taskboard/internal/apperr"
	"github.com/monocle-dev/taskboard/internal/auth"
	"github.com/monocle-dev/taskboard/internal/types"
)

type AuthenticatedUser struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Authenticator interface {
	Authenticate(ctx context.Context, claims *auth.Claims) (types.UserResponse, error)
}

const tokenCookie = "token"

func AuthMiddleware(jwtManager *auth.JWTManager, users Authenticator) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString, err := bearerToken(ctx)
		if err != nil {
			abortWithError(ctx, err)
			return
		}

		claims, err := jwtManager.VerifyJWT(tokenString)
		if err != nil {
			abortWithError(ctx, apperr.Authentication("Invalid or expired token"))
			return
		}

		user, err := users.Authenticate(ctx.Request.Context(), claims)
		if err != nil {
			abortWithError(ctx, err)
			return
		}

		ctx.Set(types.ContextClaimsKey, claims)
		ctx.Set(types.ContextUserKey, AuthenticatedUser{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
		})
		ctx.Next()
	}
}

// bearerToken reads the Authorization header, falling back to the cookie set
// at login.
func bearerToken(ctx *gin.Context) (string, error) {
	authHeader := ctx.GetHeader("Authorization")

	if authHeader == "" {
		if cookie, err := ctx.Cookie(tokenCookie); err == nil && cookie != "" {
			return cookie, nil
		}
		return "", apperr.Authentication("Authorization token is required")
	}

	parts := strings.SplitN(authHeader, " ", 2)

	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", apperr.Authentication("Authorization header format must be Bearer {token}")
	}

	return parts[1], nil
}

func abortWithError(ctx *gin.Context, err error) {
	_ = ctx.Error(err)
	ctx.Abort()
}
