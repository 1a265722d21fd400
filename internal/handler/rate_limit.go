package handler

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/spotlight-api/internal/domain"
	"github.com/prperemyshlev/spotlight-api/internal/dto"
	"github.com/prperemyshlev/spotlight-api/internal/service"
	"go.uber.org/zap"
)

// RateLimitMiddleware applies the named policy to every request, keyed by client IP.
// Store failures let the request through.
func RateLimitMiddleware(limiter *service.RateLimiter, policy string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := limiter.Allow(c.Request.Context(), policy, ClientIP(c))
		if err != nil {
			logger.Warn("Rate limiter unavailable",
				zap.String("policy", policy),
				zap.Error(err),
			)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))

		if !result.Allowed {
			retryAfter := int(math.Ceil(result.RetryAfter.Seconds()))
			c.Header("Retry-After", strconv.Itoa(retryAfter))

			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.ErrorResponse{
				StatusCode: http.StatusTooManyRequests,
				Code:       domain.ErrRateLimitExceeded.Code,
				Error:      http.StatusText(http.StatusTooManyRequests),
				Message:    domain.ErrRateLimitExceeded.Message,
			})
			return
		}

		c.Next()
	}
}
