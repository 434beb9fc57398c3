package middleware

import (
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/examhall/booking-api/internal/config"
)

// RateLimit returns a fixed-window rate limiter keyed on client IP and
// route, backed by Redis INCR with an expiring window key.  When the
// limiter is disabled or rdb is nil the middleware is a pass-through, and
// Redis errors fail open so a broker outage never blocks bookings.
func RateLimit(rdb *redis.Client, cfg config.RateLimitConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Enabled || rdb == nil {
				return next(c)
			}
			key := fmt.Sprintf("%s:%s:%s", cfg.Prefix, c.RealIP(), c.Path())

			ctx := c.Request().Context()
			n, err := rdb.Incr(ctx, key).Result()
			if err != nil {
				log.Printf("ratelimit: redis incr failed: %v", err)
				return next(c)
			}
			if n == 1 {
				// First hit in the window owns setting its expiry.
				if err := rdb.Expire(ctx, key, cfg.Window).Err(); err != nil {
					log.Printf("ratelimit: redis expire failed: %v", err)
				}
			}
			if n > int64(cfg.Limit) {
				return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "too many requests"})
			}
			return next(c)
		}
	}
}
