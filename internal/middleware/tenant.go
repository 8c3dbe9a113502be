package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"product-sheets-service/internal/models"
)

// Tenant requires a tenant id, taken from the gateway context when present
// and otherwise from the X-Tenant-ID or X-Vendor-ID header. Requests without
// one are rejected.
func Tenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.GetString("tenant_id")
		if tenantID == "" {
			tenantID = c.GetHeader("X-Tenant-ID")
		}
		if tenantID == "" {
			tenantID = c.GetHeader("X-Vendor-ID")
		}

		if tenantID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "TENANT_REQUIRED",
					Message: "Tenant ID is required. Include the X-Tenant-ID header.",
				},
			})
			return
		}

		c.Set("tenant_id", tenantID)
		c.Next()
	}
}

// GetTenantID returns the tenant set by Tenant.
func GetTenantID(c *gin.Context) string {
	return c.GetString("tenant_id")
}
