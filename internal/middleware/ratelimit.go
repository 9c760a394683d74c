package middleware

import (
    "math"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/recoverly/booking-api/internal/config"
)

// tokenBucketScript refills and drains one bucket atomically.  Running it
// in Redis keeps the limiter correct across multiple API instances:
// redemption retries from a team checking in together hit the same bucket
// no matter which instance serves them.
var tokenBucketScript = redis.NewScript(`
    local key = KEYS[1]
    local now_ms = tonumber(ARGV[1])
    local capacity = tonumber(ARGV[2])
    local refill = tonumber(ARGV[3])
    local interval_ms = tonumber(ARGV[4])
    local ttl_s = tonumber(ARGV[5])

    local state = redis.call('HMGET', key, 'tokens', 'refilled_ms')
    local tokens = tonumber(state[1])
    local refilled = tonumber(state[2])
    if tokens == nil or refilled == nil then
        tokens = capacity
        refilled = now_ms
    end

    local elapsed = math.max(0, now_ms - refilled)
    local cycles = math.floor(elapsed / interval_ms)
    if cycles > 0 then
        tokens = math.min(capacity, tokens + cycles * refill)
        refilled = refilled + cycles * interval_ms
    end

    local allowed = 0
    local wait_ms = 0
    if tokens > 0 then
        allowed = 1
        tokens = tokens - 1
    else
        wait_ms = math.max(0, interval_ms - (now_ms - refilled))
    end

    redis.call('HMSET', key, 'tokens', tokens, 'refilled_ms', refilled)
    redis.call('EXPIRE', key, ttl_s)
    return { allowed, tokens, wait_ms }
`)

// NewTokenBucket returns a distributed token-bucket rate limiter.  With a
// nil Redis client or the limiter disabled it passes every request
// through; a Redis error at request time also fails open, trading a burst
// of unthrottled traffic for availability.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := bucketKey(cfg, c)
            args := []interface{}{
                time.Now().UnixMilli(),
                cfg.Capacity,
                cfg.RefillTokens,
                cfg.RefillInterval.Milliseconds(),
                int64(cfg.TTL / time.Second),
            }
            res, err := tokenBucketScript.Run(c.Request().Context(), rdb, []string{key}, args...).Int64Slice()
            if err != nil || len(res) != 3 {
                if cfg.Debug {
                    c.Logger().Warnf("rate limiter unavailable for %s: %v", key, err)
                }
                return next(c)
            }
            allowed, remaining, waitMs := res[0] == 1, res[1], res[2]

            c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
            c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

            if !allowed {
                retry := int(math.Ceil(float64(waitMs) / 1000.0))
                c.Response().Header().Set("Retry-After", strconv.Itoa(retry))
                return c.JSON(http.StatusTooManyRequests, echo.Map{
                    "error":       "rate limit exceeded",
                    "retry_after": retry,
                })
            }
            return next(c)
        }
    }
}

// bucketKey composes the bucket identity from the configured strategy.
// Authenticated staff get per-user buckets; anonymous traffic falls back
// to the client IP.
func bucketKey(cfg config.RateLimitConfig, c echo.Context) string {
    ip := c.RealIP()
    if ip == "" {
        ip = "unknown"
    }
    user := "anon"
    if v, ok := c.Get("email").(string); ok && v != "" {
        user = v
    }
    route := c.Request().Method + " " + c.Path()

    parts := []string{cfg.Prefix}
    switch strings.ToLower(cfg.KeyStrategy) {
    case "ip":
        parts = append(parts, "ip", ip)
    case "user":
        parts = append(parts, "user", user)
    case "route":
        parts = append(parts, "route", route)
    case "ip_user":
        parts = append(parts, "ip", ip, "user", user)
    case "user_route":
        parts = append(parts, "user", user, "route", route)
    case "ip_user_route":
        parts = append(parts, "ip", ip, "user", user, "route", route)
    default: // ip_route
        parts = append(parts, "ip", ip, "route", route)
    }
    return strings.Join(parts, ":")
}
