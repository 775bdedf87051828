package middleware

import (
	"strings"

	"auth_backend/internal/apperr"
	"auth_backend/internal/model"
	"auth_backend/internal/repository"
	"auth_backend/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PrincipalKey is the gin context key the authenticated principal is stored
// under.
const PrincipalKey = "authPrincipal"

// PrincipalFromContext returns the principal attached by JWTAuthMiddleware,
// or nil when the request carried no valid token.
func PrincipalFromContext(c *gin.Context) *model.Principal {
	val, exists := c.Get(PrincipalKey)
	if !exists {
		return nil
	}
	p, ok := val.(*model.Principal)
	if !ok {
		return nil
	}
	return p
}

// JWTAuthMiddleware verifies the bearer token and attaches the principal.
// The user row is reloaded from the store so the approval status reflects the
// store, not the claims signed at login time.
func JWTAuthMiddleware(issuer *utils.TokenIssuer, userRepo repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Error(apperr.New(apperr.KindUnauthenticated, "Authorization header required"))
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.Error(apperr.New(apperr.KindUnauthenticated, "Invalid authorization header format"))
			c.Abort()
			return
		}

		claims, err := issuer.Verify(parts[1])
		if err != nil {
			c.Error(apperr.Wrap(apperr.KindUnauthenticated, "Invalid or expired token", err))
			c.Abort()
			return
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			c.Error(apperr.Wrap(apperr.KindUnauthenticated, "Invalid or expired token", err))
			c.Abort()
			return
		}

		user, err := userRepo.FindByID(c.Request.Context(), userID)
		if err != nil {
			c.Error(err)
			c.Abort()
			return
		}
		if user == nil {
			c.Error(apperr.New(apperr.KindUnauthenticated, "Invalid or expired token"))
			c.Abort()
			return
		}

		c.Set(PrincipalKey, &model.Principal{
			ID:     user.ID,
			Phone:  user.Phone,
			Role:   user.Role,
			Status: user.Status,
		})

		c.Next()
	}
}
