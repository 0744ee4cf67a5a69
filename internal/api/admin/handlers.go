// Package admin implements the authenticated administration API under /api.
// Handlers translate HTTP requests into service calls; business failures map
// to HTTP statuses through the service error codes, and anything without a
// code is a 500.
package admin

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pfeak/codegate/internal/services"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// pagination carries the parsed page window of a list request.
type pagination struct {
	Page     int
	PageSize int
}

func (p pagination) Limit() int  { return p.PageSize }
func (p pagination) Offset() int { return (p.Page - 1) * p.PageSize }

// parsePagination reads page and page_size query parameters, clamping
// page_size to [1, 100].
func parsePagination(c *gin.Context) pagination {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	size, err := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultPageSize)))
	if err != nil || size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return pagination{Page: page, PageSize: size}
}

// parseTimestamp converts an optional unix-seconds value into a UTC time.
func parseTimestamp(ts *int64) *time.Time {
	if ts == nil {
		return nil
	}
	t := time.Unix(*ts, 0).UTC()
	return &t
}

// respondError writes the HTTP translation of a service error. Errors
// without a service code are internal and deliberately unspecific.
func respondError(c *gin.Context, err error) {
	code := services.ErrorCode(err)
	status := http.StatusInternalServerError
	switch code {
	case services.CodeProjectNotFound, services.CodeCodeNotFound, services.CodeAPIKeyNotFound, services.CodeAdminNotFound:
		status = http.StatusNotFound
	case services.CodeProjectAlreadyExists:
		status = http.StatusConflict
	case services.CodeValidationFailed:
		status = http.StatusBadRequest
	case services.CodeInvalidCredentials:
		status = http.StatusUnauthorized
	case services.CodeCodeAlreadyUsed, services.CodeCodeAlreadyUnused, services.CodeCodeDisabled,
		services.CodeCodeExpired, services.CodeProjectDisabled, services.CodeProjectExpired:
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		slog.Error("admin API internal error", "path", c.FullPath(), "error", err)
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}

// listResponse is the common list envelope.
type listResponse struct {
	Total    int         `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	Items    interface{} `json:"items"`
}
