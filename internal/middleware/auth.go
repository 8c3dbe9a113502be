package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"product-sheets-service/internal/clients"
	"product-sheets-service/internal/models"
)

// User reads the caller identity forwarded by the gateway and attaches it,
// together with the tenant, to the request context so backend calls carry
// it. Run it after Tenant.
func User() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		if userID == "" {
			userID = c.GetHeader("X-User-ID")
		}
		email := c.GetString("user_email")
		if email == "" {
			email = c.GetHeader("X-User-Email")
		}

		c.Set("user_id", userID)
		c.Set("user_email", email)

		ctx := clients.WithUser(c.Request.Context(), clients.UserContext{
			TenantID:  GetTenantID(c),
			UserID:    userID,
			UserEmail: email,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireBearer rejects requests without a bearer Authorization header. The
// token itself is verified by the gateway.
func RequireBearer() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") || strings.TrimSpace(header[len("Bearer "):]) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "UNAUTHORIZED",
					Message: "Bearer authorization header required",
				},
			})
			return
		}
		c.Next()
	}
}
