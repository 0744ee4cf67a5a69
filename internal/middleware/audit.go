// audit.go records authenticated admin mutations to the audit log.
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pfeak/codegate/internal/clock"
	"github.com/pfeak/codegate/internal/db/models"
	"github.com/pfeak/codegate/internal/db/repositories"
)

// AuditMiddleware appends one audit row per authenticated admin write
// operation. Reads and OPTIONS are skipped; failed writes are recorded with
// result "failed" so denied attempts stay visible.
func AuditMiddleware(audits *repositories.AuditRepository, clk clock.Clock) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		method := c.Request.Method
		if method == "GET" || method == "HEAD" || method == "OPTIONS" {
			return
		}

		adminID := c.GetString(AdminIDKey)
		if adminID == "" {
			return
		}

		result := "success"
		if c.Writer.Status() >= 400 {
			result = "failed"
		}

		action := fmt.Sprintf("%s %s", method, c.FullPath())
		ip := c.ClientIP()
		entry := &models.AuditLog{
			AdminID:   &adminID,
			Action:    action,
			Result:    result,
			IPAddress: &ip,
		}
		if resourceType, resourceID := auditResource(c); resourceType != "" {
			entry.ResourceType = &resourceType
			if resourceID != "" {
				entry.ResourceID = &resourceID
			}
		}

		// Detached context: the audit write should survive client disconnects.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := audits.Create(ctx, entry, clk.Now()); err != nil {
			slog.Error("writing audit log entry", "action", action, "error", err)
		}
	}
}

// auditResource derives the resource type and ID from the matched route
// parameters.
func auditResource(c *gin.Context) (resourceType, resourceID string) {
	if id := c.Param("code_id"); id != "" {
		return "code", id
	}
	if id := c.Param("key_id"); id != "" {
		return "api_key", id
	}
	if id := c.Param("project_id"); id != "" {
		return "project", id
	}
	return "", ""
}
