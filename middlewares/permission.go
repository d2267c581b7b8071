package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/cabinet_inventory/models"
	"github.com/mmdatafocus/cabinet_inventory/utils"
)

// RequirePermission gates a route on the actor's role. It must run after AuthMiddleware.
func RequirePermission(op models.Operation) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		userId, _ := utils.GetUserIdFromContext(ctx)
		if userId == "" {
			abortWithKind(c, http.StatusUnauthorized, models.KindUnauthenticated, "unauthorized")
			return
		}
		role, _ := utils.GetUserRoleFromContext(ctx)
		if !models.CanPerform(models.UserRole(role), op) {
			abortWithKind(c, http.StatusForbidden, models.KindForbidden, "forbidden: "+string(op)+" requires a higher role")
			return
		}
		c.Next()
	}
}
