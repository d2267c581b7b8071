package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/cabinet_inventory/config"
	"github.com/mmdatafocus/cabinet_inventory/models"
	"github.com/mmdatafocus/cabinet_inventory/utils"
	"github.com/sirupsen/logrus"
)

const bearerPrefix = "Bearer "

func abortWithKind(c *gin.Context, status int, kind models.ErrorKind, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message, "code": kind})
}

// browsers cannot set headers on websocket upgrades, so access_token is accepted as a query param
func tokenFromRequest(c *gin.Context) string {
	auth := c.Request.Header.Get("Authorization")
	if strings.HasPrefix(auth, bearerPrefix) {
		return strings.TrimSpace(auth[len(bearerPrefix):])
	}
	return strings.TrimSpace(c.Query("access_token"))
}

// AuthMiddleware resolves the bearer token into the request's actor.
// Requests without a valid token are rejected.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c)
		if token == "" {
			abortWithKind(c, http.StatusUnauthorized, models.KindUnauthenticated, "unauthorized")
			return
		}

		claim, err := utils.JwtValidate(token)
		if err != nil {
			abortWithKind(c, http.StatusUnauthorized, models.KindUnauthenticated, "unauthorized")
			return
		}

		role := models.UserRole(claim.Role)
		if !role.IsValid() {
			role = models.UserRoleViewer
		}
		name := claim.Name
		if name == "" {
			name = claim.Email
		}

		ctx := utils.SetActorInContext(c.Request.Context(), claim.ID, name, string(role))
		if err := models.EnsureUser(ctx, claim.ID, claim.Name, claim.Email, role); err != nil {
			config.GetLogger().WithFields(logrus.Fields{
				"field":   "AuthMiddleware",
				"user_id": claim.ID,
			}).WithError(err).Warn("ensure user failed")
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
