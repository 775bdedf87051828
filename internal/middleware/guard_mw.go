package middleware

import (
	"auth_backend/internal/apperr"
	"auth_backend/internal/model"

	"github.com/gin-gonic/gin"
)

// CheckApproved is the access-guard predicate: a request passes only if a
// principal is present and its status is approved. It has no side effects.
func CheckApproved(p *model.Principal) error {
	if p == nil {
		return apperr.New(apperr.KindUnauthenticated, "Unauthorized")
	}
	if p.Status != model.StatusApproved {
		return apperr.New(apperr.KindForbidden, "User is not approved")
	}
	return nil
}

// ApprovedUserMiddleware composes CheckApproved into the request pipeline.
// It expects JWTAuthMiddleware to have attached the principal upstream.
func ApprovedUserMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := CheckApproved(PrincipalFromContext(c)); err != nil {
			c.Error(err)
			c.Abort()
			return
		}
		c.Next()
	}
}
