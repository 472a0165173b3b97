package http

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/nftgate/core"
	"github.com/layer-3/nftgate/internal/metrics"
	"github.com/layer-3/nftgate/service"
)

const (
	sessionKey  = "nftgate.session"
	identityKey = "nftgate.identity"

	// WalletHeader identifies non-holder callers on OSINT routes
	WalletHeader = "X-Wallet-Address"
)

// identity is the rate-limit subject of a request
type identity struct {
	Wallet string
	Holder bool
}

func sessionFrom(c *gin.Context) (*core.Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil, false
	}
	s, ok := v.(*core.Session)
	return s, ok
}

func identityFrom(c *gin.Context) (identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return identity{}, false
	}
	id, ok := v.(identity)
	return id, ok
}

func bearerToken(c *gin.Context) (string, bool) {
	auth := c.GetHeader("Authorization")
	if len(auth) < 8 || auth[:7] != "Bearer " {
		return "", false
	}
	return strings.TrimSpace(auth[7:]), true
}

// SessionMiddleware creates middleware that requires a valid session token
func SessionMiddleware(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header"})
			return
		}

		session, err := authService.Session(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, core.ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token expired"})
			} else {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			}
			return
		}

		c.Set(sessionKey, session)
		c.Next()
	}
}

// IdentityMiddleware resolves who a request is charged to. A valid session
// token wins; otherwise the wallet header places the caller in the regular class.
func IdentityMiddleware(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			session, err := authService.Session(c.Request.Context(), token)
			if err == nil {
				c.Set(sessionKey, session)
				c.Set(identityKey, identity{Wallet: session.Address, Holder: session.Holder})
				c.Next()
				return
			}
		}

		if wallet := strings.TrimSpace(c.GetHeader(WalletHeader)); core.IsAddress(wallet) {
			c.Set(identityKey, identity{Wallet: wallet})
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Wallet authentication required"})
	}
}

// RateLimitMiddleware charges one request to the caller resolved by IdentityMiddleware
func RateLimitMiddleware(limiter *service.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identityFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Wallet authentication required"})
			return
		}

		decision := limiter.CheckLimit(c.Request.Context(), id.Wallet, id.Holder)

		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.Limit(id.Holder).Max))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(decision.ResetTime.Unix(), 10))

		if !decision.Allowed {
			c.Header("Retry-After", strconv.Itoa(retryAfter(decision.ResetTime, time.Now())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":     "Rate limit exceeded",
				"resetTime": decision.ResetTime,
			})
			return
		}

		c.Next()
	}
}

// retryAfter is the whole number of seconds until reset, at least one
func retryAfter(reset, now time.Time) int {
	secs := int(math.Ceil(reset.Sub(now).Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}

// RequestLogger logs every request once it completes
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		switch {
		case status >= http.StatusInternalServerError:
			level = slog.LevelError
		case status >= http.StatusBadRequest:
			level = slog.LevelWarn
		}

		logger.Log(c.Request.Context(), level, "http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}

// Recovery turns panics into a generic 500
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.ErrorContext(c.Request.Context(), "panic recovered", "path", c.Request.URL.Path, "panic", recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	})
}

// Metrics records request counts and latencies by route template
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(route, c.Request.Method, c.Writer.Status(), time.Since(start))
	}
}
