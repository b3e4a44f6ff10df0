package websocket

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"mangareader/internal/core"
	"mangareader/pkg/logger"
	"mangareader/pkg/models"
)

// Handler streams account events to the signed-in viewer
type Handler struct {
	authSvc        core.AuthService
	events         core.EventHub
	allowedOrigins []string
	allowLocal     bool
	upgrader       websocket.Upgrader
}

// NewHandler creates a new WebSocket handler. An empty or "*" origin list
// accepts every origin. Localhost origins are accepted regardless of the
// list only when allowLocal is set.
func NewHandler(authSvc core.AuthService, events core.EventHub, allowedOrigins []string, allowLocal bool) *Handler {
	h := &Handler{
		authSvc:        authSvc,
		events:         events,
		allowedOrigins: allowedOrigins,
		allowLocal:     allowLocal,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// HandleViewerStream upgrades GET /ws/me and forwards the viewer's events
// until either side closes
func (h *Handler) HandleViewerStream(c *gin.Context) {
	token, err := extractToken(c)
	if err != nil {
		h.sendError(c, models.ErrNotAuthenticated)
		return
	}

	viewer, err := h.authSvc.ValidateToken(c.Request.Context(), token)
	if err != nil {
		h.sendError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader has already written the HTTP error
		logger.Warnf("WebSocket upgrade failed for user %s: %v", viewer.UserID, err)
		return
	}

	events, cancel := h.events.Subscribe(viewer.UserID)
	logger.WebSocket("connected", viewer.UserID)

	stream := newViewerStream(conn, viewer, events, cancel)
	stream.serve()
}

// extractToken looks at the query string, the Authorization header and
// the token cookie, in that order
func extractToken(c *gin.Context) (string, error) {
	if token := c.Query("token"); token != "" {
		return token, nil
	}

	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") && parts[1] != "" {
			return parts[1], nil
		}
	}

	if cookie, err := c.Request.Cookie("token"); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	return "", errors.New("no authentication token provided")
}

// checkOrigin validates the request origin against the allowed list
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	// Non-browser clients may omit Origin
	if origin == "" {
		return true
	}
	if len(h.allowedOrigins) == 0 {
		return true
	}

	if h.allowLocal && isLocalOrigin(origin) {
		return true
	}

	for _, allowed := range h.allowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

func isLocalOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == "localhost" || host == "127.0.0.1"
}

func (h *Handler) sendError(c *gin.Context, err error) {
	appErr := models.ClassifyError(err)
	logger.Warnf("WebSocket rejected: status=%d code=%s", appErr.StatusCode, appErr.Code)
	resp := appErr.ToHTTPError()
	resp.Timestamp = time.Now().UTC()
	c.JSON(appErr.StatusCode, resp)
}
