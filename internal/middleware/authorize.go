package middleware

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskhub-dev/taskhub/internal/authz"
	"github.com/taskhub-dev/taskhub/internal/models"
	"github.com/taskhub-dev/taskhub/internal/roles"
	"github.com/taskhub-dev/taskhub/internal/types"
)

// RequireRole admits only principals holding exactly the given role. Used
// for administrative endpoints outside the entity policy table, such as role
// re-assignment.
func RequireRole(store *roles.Store, required models.Role) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		value, exists := ctx.Get(types.ContextUserKey)

		if !exists {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": authz.ErrUnauthenticated.Error()})
			return
		}

		user, ok := value.(AuthenticatedUser)

		if !ok {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": authz.ErrUnauthenticated.Error()})
			return
		}

		role, err := store.RoleOf(user.ID)

		if err != nil {
			if errors.Is(err, roles.ErrNoAssignment) {
				ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "No role assigned"})
				return
			}
			log.Printf("Failed to look up role for user %d: %v", user.ID, err)
			ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		if role != required {
			ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": authz.ErrForbidden.Error()})
			return
		}

		ctx.Next()
	}
}

// RequireOperation enforces the policy table for one operation. It runs
// after AuthMiddleware: the principal is known, so any rejection here is a
// 403, distinct from the 401 issued for missing authentication.
func RequireOperation(store *roles.Store, op authz.Operation) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		value, exists := ctx.Get(types.ContextUserKey)

		if !exists {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": authz.ErrUnauthenticated.Error()})
			return
		}

		user, ok := value.(AuthenticatedUser)

		if !ok {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": authz.ErrUnauthenticated.Error()})
			return
		}

		role, err := store.RoleOf(user.ID)

		if err != nil {
			if errors.Is(err, roles.ErrNoAssignment) {
				ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "No role assigned"})
				return
			}
			log.Printf("Failed to look up role for user %d: %v", user.ID, err)
			ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		if !authz.IsAuthorized(role, op) {
			ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": authz.ErrForbidden.Error()})
			return
		}

		ctx.Next()
	}
}
