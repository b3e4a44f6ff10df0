package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"mangareader/pkg/logger"
	"mangareader/pkg/models"
	"mangareader/pkg/utils"
)

// statusClientClosedRequest is recorded when the caller went away first
const statusClientClosedRequest = 499

// respondError maps err to its status and envelope. Server-side failures
// are logged with the cause; clients only see the generic message.
func respondError(c *gin.Context, err error) {
	if utils.IsContextError(err) {
		respondContextError(c, err)
		return
	}
	appErr := models.ClassifyError(err)
	if appErr.StatusCode >= http.StatusInternalServerError {
		logger.WithFields(map[string]interface{}{
			"method": c.Request.Method,
			"path":   c.FullPath(),
			"error":  err.Error(),
		}).Error("Request failed")
	}
	c.JSON(appErr.StatusCode, appErr.ToHTTPError())
}

// respondContextError handles requests cut short by cancellation or a
// deadline. These are not server faults and are not logged as errors.
func respondContextError(c *gin.Context, err error) {
	logger.WithFields(map[string]interface{}{
		"method": c.Request.Method,
		"path":   c.FullPath(),
		"error":  err.Error(),
	}).Debug("Request interrupted")

	if errors.Is(err, context.Canceled) {
		c.AbortWithStatus(statusClientClosedRequest)
		return
	}
	appErr := models.NewHTTPError(models.ErrCodeServiceUnavailable, "request timed out, please try again", http.StatusGatewayTimeout)
	c.JSON(appErr.StatusCode, appErr.ToHTTPError())
}

func abortWithError(c *gin.Context, err error) {
	respondError(c, err)
	c.Abort()
}

func respond(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, models.APIResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	})
}

func badRequest(c *gin.Context, message string) {
	respondError(c, models.Invalidf("%s", message))
}

// bindJSON decodes the body or answers 400
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		badRequest(c, "invalid request body")
		return false
	}
	return true
}

// queryInt reads a non-negative integer query parameter
func queryInt(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		badRequest(c, name+" must be a non-negative integer")
		return 0, false
	}
	return n, true
}

func pageParams(c *gin.Context) (limit, offset int, ok bool) {
	if limit, ok = queryInt(c, "limit", 20); !ok {
		return 0, 0, false
	}
	if offset, ok = queryInt(c, "offset", 0); !ok {
		return 0, 0, false
	}
	return limit, offset, true
}
