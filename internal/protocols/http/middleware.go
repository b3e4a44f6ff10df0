package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"mangareader/internal/core"
	"mangareader/pkg/logger"
	"mangareader/pkg/metrics"
	"mangareader/pkg/models"
	"mangareader/pkg/utils"
)

const (
	ctxUserID = "user_id"
	ctxViewer = "viewer"
)

// BearerToken extracts the token from "Authorization: Bearer <token>"
func BearerToken(c *gin.Context) (string, bool) {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// AuthMiddleware validates the JWT and sets the viewer; requests without a
// valid token are rejected
func AuthMiddleware(authSvc core.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := BearerToken(c)
		if !ok {
			abortWithError(c, models.ErrNotAuthenticated)
			return
		}

		viewer, err := authSvc.ValidateToken(c.Request.Context(), token)
		if err != nil {
			abortWithError(c, err)
			return
		}

		setViewer(c, viewer)
		c.Next()
	}
}

// OptionalAuthMiddleware sets the viewer when a valid token is present and
// lets anonymous requests through otherwise
func OptionalAuthMiddleware(authSvc core.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := BearerToken(c); ok {
			viewer, err := authSvc.ValidateToken(c.Request.Context(), token)
			switch {
			case err == nil:
				setViewer(c, viewer)
			case !errors.Is(err, models.ErrInvalidToken):
				logger.Warnf("Token check failed, continuing anonymously: %v", err)
			}
		}
		c.Next()
	}
}

// AdminMiddleware ensures the viewer has the admin role. It must run after
// AuthMiddleware.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		viewer, ok := GetViewer(c)
		if !ok {
			abortWithError(c, models.ErrNotAuthenticated)
			return
		}
		if !viewer.IsAdmin() {
			abortWithError(c, models.ErrForbidden)
			return
		}
		c.Next()
	}
}

func setViewer(c *gin.Context, viewer *models.Viewer) {
	c.Set(ctxUserID, viewer.UserID)
	c.Set(ctxViewer, viewer)
}

// GetViewer retrieves the signed-in viewer, if any
func GetViewer(c *gin.Context) (*models.Viewer, bool) {
	v, exists := c.Get(ctxViewer)
	if !exists {
		return nil, false
	}
	viewer, ok := v.(*models.Viewer)
	return viewer, ok && viewer != nil
}

// GetUserID extracts the viewer's user ID from gin context
func GetUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get(ctxUserID)
	if !exists {
		return "", false
	}
	id, ok := userID.(string)
	return id, ok
}

// RequestLogger logs each request and records HTTP metrics
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)

		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(elapsed.Seconds())
		logger.HTTP(c.Request.Method, c.Request.URL.Path, status, int(elapsed.Milliseconds()))
	}
}

// keyedLimiter keeps one token bucket per key
type keyedLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*limiterEntry
	lastGC   time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const limiterIdleTTL = 10 * time.Minute

func newKeyedLimiter(limit rate.Limit, burst int) *keyedLimiter {
	return &keyedLimiter{
		limit:    limit,
		burst:    burst,
		limiters: make(map[string]*limiterEntry),
		lastGC:   time.Now(),
	}
}

func (l *keyedLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.lastGC) > limiterIdleTTL {
		for k, e := range l.limiters {
			if now.Sub(e.lastSeen) > limiterIdleTTL {
				delete(l.limiters, k)
			}
		}
		l.lastGC = now
	}

	e, ok := l.limiters[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = e
	}
	e.lastSeen = now
	return e.limiter.Allow()
}

func clientIPKey(c *gin.Context) string { return "ip:" + c.ClientIP() }

func viewerKey(c *gin.Context) string {
	if id, ok := GetUserID(c); ok {
		return "user:" + id
	}
	return clientIPKey(c)
}

// RateLimit rejects requests over the limiter's budget for the key
func RateLimit(l *keyedLimiter, key func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(key(c)) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.NewHTTPError(
				models.ErrCodeRateLimited, "too many requests, slow down", http.StatusTooManyRequests,
			).ToHTTPError())
			return
		}
		c.Next()
	}
}

// ValidIDParams answers 404 for :id and :manga_id values that are not UUIDs,
// the same answer an unknown ID gets from the store
func ValidIDParams() gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, p := range c.Params {
			if (p.Key == "id" || p.Key == "manga_id") && !utils.IsID(p.Value) {
				abortWithError(c, notFoundFor(c.FullPath(), p.Key))
				return
			}
		}
		c.Next()
	}
}

func notFoundFor(route, param string) error {
	switch {
	case param == "manga_id", strings.Contains(route, "/manga/"):
		return models.ErrMangaNotFound
	case strings.Contains(route, "/chapters/"):
		return models.ErrChapterNotFound
	case strings.Contains(route, "/users/"):
		return models.ErrUserNotFound
	default:
		return models.ErrNotFound
	}
}
