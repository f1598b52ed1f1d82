package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/moajmalnk/bugricer-sub002/config"
	"github.com/moajmalnk/bugricer-sub002/internal/pkg/redis"
	"github.com/moajmalnk/bugricer-sub002/middleware/jwt"
	logger "github.com/moajmalnk/bugricer-sub002/middleware/log"
	"github.com/moajmalnk/bugricer-sub002/utils/ratelimit"
	"github.com/moajmalnk/bugricer-sub002/utils/workerpool"
)

type MiddlewareManager struct {
	tokenManager *jwt.TokenManager
	rateLimiter  ratelimit.Limiter
	logger       *zap.Logger
	rateLimitCfg *config.RateLimitConfig
}

func NewMiddlewareManager(
	tokenManager *jwt.TokenManager,
	redisClient *redis.Client,
	logger *zap.Logger,
	rateLimitCfg *config.RateLimitConfig,
) *MiddlewareManager {
	// Fail-open: a Redis outage must not take chat down with it.
	rateLimiter := ratelimit.NewTokenBucketLimiter(redisClient.GetClient(), logger, true)

	return &MiddlewareManager{
		tokenManager: tokenManager,
		rateLimiter:  rateLimiter,
		logger:       logger,
		rateLimitCfg: rateLimitCfg,
	}
}

// JWTAuth validates the bearer token issued by the platform and stashes the
// caller's identity and role in the request context.
func (m *MiddlewareManager) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "authorization header required",
			})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "invalid authorization header format",
			})
			c.Abort()
			return
		}

		claims, err := m.tokenManager.ParseToken(parts[1])
		if err != nil {
			m.logger.Warn("token validation failed",
				zap.String("error", err.Error()),
				zap.String("ip", c.ClientIP()),
			)

			message := "invalid token"
			switch err {
			case jwt.ErrExpiredToken:
				message = "token has expired"
			case jwt.ErrTokenNotYetValid:
				message = "token not yet valid"
			}

			c.JSON(http.StatusUnauthorized, gin.H{
				"error": message,
			})
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("username", claims.UserName)
		c.Set("role", claims.Role)

		c.Next()
	}
}

// RateLimitByEndpoint applies the per-user rate limit for an endpoint class.
// Keys include the endpoint so a burst of typing updates cannot starve sends.
func (m *MiddlewareManager) RateLimitByEndpoint(endpoint string) gin.HandlerFunc {
	rule := ratelimit.RuleForEndpoint(endpoint,
		m.rateLimitCfg.SendPerMinute,
		m.rateLimitCfg.TypingPerMinute,
		m.rateLimitCfg.UploadPerMinute,
	)

	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var key string
		if userID, exists := c.Get("user_id"); exists {
			key = fmt.Sprintf("user:%s:%s", userID, endpoint)
		} else {
			key = fmt.Sprintf("ip:%s:%s", c.ClientIP(), endpoint)
		}

		allowed, err := m.rateLimiter.Allow(ctx, key, rule.Limit, rule.Window)
		if err != nil {
			m.logger.Error("rate limit check failed",
				zap.String("error", err.Error()),
				zap.String("key", key),
				zap.String("endpoint", endpoint),
			)
			if allowed {
				c.Next()
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{
					"error": "rate limit check failed",
				})
				c.Abort()
			}
			return
		}

		if !allowed {
			remaining, _ := m.rateLimiter.GetRemaining(ctx, key, rule.Limit, rule.Window)

			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": int(rule.Window.Seconds()),
				"remaining":   remaining,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// Bounded runs the rest of the handler chain on the given worker pool.
// The request stays synchronous for the client, but only pool-many
// requests execute at once; the rest queue. Applied to the voice upload
// route, where WAV decoding and disk writes are the expensive part.
func (m *MiddlewareManager) Bounded(pool *workerpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := pool.Do(c.Request.Context(), func() {
			c.Next()
		})
		if err != nil {
			m.logger.Warn("bounded handler did not run",
				zap.String("error", err.Error()),
				zap.String("path", c.Request.URL.Path),
			)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error": "server busy, try again",
			})
		}
	}
}

// TraceID tags each request with a trace ID for log correlation.
// Inbound X-Trace-ID headers are honored so platform calls stay traceable.
func (m *MiddlewareManager) TraceID() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader("X-Trace-ID")
		if traceID == "" {
			traceID = logger.NewTraceID()
		}
		c.Request = c.Request.WithContext(logger.WithTraceID(c.Request.Context(), traceID))
		c.Writer.Header().Set("X-Trace-ID", traceID)
		c.Next()
	}
}

func (m *MiddlewareManager) Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()
		userID, _ := c.Get("user_id")

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", statusCode),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
			zap.String("trace_id", logger.GetTraceID(c.Request.Context())),
		}

		if userID != nil {
			fields = append(fields, zap.String("user_id", userID.(string)))
		}

		if statusCode >= 500 {
			m.logger.Error("server error", fields...)
		} else if statusCode >= 400 {
			m.logger.Warn("client error", fields...)
		} else {
			m.logger.Info("request completed", fields...)
		}
	}
}

func (m *MiddlewareManager) CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Trace-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (m *MiddlewareManager) Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				m.logger.Error("panic recovered",
					zap.Any("error", err),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
				)

				c.JSON(http.StatusInternalServerError, gin.H{
					"error": "internal server error",
				})
				c.Abort()
			}
		}()

		c.Next()
	}
}
