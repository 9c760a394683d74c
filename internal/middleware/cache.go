package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "encoding/json"
    "fmt"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/recoverly/booking-api/internal/config"
)

// cachedResponse is the envelope stored in Redis: enough to replay the
// response byte-for-byte, headers included.
type cachedResponse struct {
    Status int         `json:"status"`
    Header http.Header `json:"header"`
    Body   []byte      `json:"body"`
}

// teeWriter forwards writes to the client while keeping a bounded copy for
// the cache.  A response that outgrows the limit is delivered normally but
// never stored.
type teeWriter struct {
    http.ResponseWriter
    status   int
    buf      bytes.Buffer
    limit    int
    overflow bool
}

func (w *teeWriter) WriteHeader(code int) {
    w.status = code
    w.ResponseWriter.WriteHeader(code)
}

func (w *teeWriter) Write(b []byte) (int, error) {
    if !w.overflow {
        if w.limit > 0 && w.buf.Len()+len(b) > w.limit {
            w.overflow = true
        } else {
            w.buf.Write(b)
        }
    }
    return w.ResponseWriter.Write(b)
}

func cacheKey(cfg config.CacheConfig, c echo.Context) string {
    r := c.Request()
    var tail string
    switch strings.ToLower(cfg.KeyStrategy) {
    case "route":
        tail = c.Path()
    case "method_route":
        tail = r.Method + ":" + c.Path()
    case "method_route_query":
        tail = r.Method + ":" + c.Path() + "?" + r.URL.RawQuery
    default: // route_query
        tail = c.Path() + "?" + r.URL.RawQuery
    }
    sum := sha1.Sum([]byte(tail))
    return fmt.Sprintf("%s:%x", cfg.Prefix, sum)
}

// NewRedisCache caches successful responses of the configured methods for
// the configured TTL.  It fronts the public pass and booking lookups; a
// hit is replayed with the original headers plus X-Cache: HIT.  Only 200
// responses are stored, so rejected redemptions and lookups of unknown ids
// are always re-evaluated.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
                return next(c)
            }
            ctx := c.Request().Context()
            key := cacheKey(cfg, c)

            if raw, err := rdb.Get(ctx, key).Bytes(); err == nil {
                var cached cachedResponse
                if json.Unmarshal(raw, &cached) == nil {
                    h := c.Response().Header()
                    for k, vals := range cached.Header {
                        if strings.EqualFold(k, "Content-Length") {
                            continue
                        }
                        for _, v := range vals {
                            h.Add(k, v)
                        }
                    }
                    h.Set("X-Cache", "HIT")
                    c.Response().WriteHeader(cached.Status)
                    _, err := c.Response().Write(cached.Body)
                    return err
                }
            }

            w := &teeWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
            c.Response().Writer = w
            c.Response().Header().Set("X-Cache", "MISS")

            if err := next(c); err != nil {
                return err
            }
            if w.status != http.StatusOK || w.overflow {
                return nil
            }

            header := make(http.Header, len(c.Response().Header()))
            for k, vals := range c.Response().Header() {
                header[k] = append([]string(nil), vals...)
            }
            payload, err := json.Marshal(cachedResponse{Status: w.status, Header: header, Body: w.buf.Bytes()})
            if err == nil {
                // The request context may already be done; storing the
                // entry is best effort either way.
                _ = rdb.SetEx(context.Background(), key, payload, cfg.TTL).Err()
            }
            return nil
        }
    }
}
