package config

import (
    "context"
    "crypto/tls"
    "time"

    "github.com/redis/go-redis/v9"
)

// NewRedisClient builds a Redis client from REDIS_ADDR (or REDIS_HOST plus
// REDIS_PORT), REDIS_PASSWORD, REDIS_DB and REDIS_TLS.  Redis only backs
// rate limiting and response caching here, so an unreachable server is not
// fatal: the function returns nil and both middlewares degrade to no-ops.
func NewRedisClient() *redis.Client {
    addr := envStr("REDIS_ADDR", "")
    if host := envStr("REDIS_HOST", ""); host != "" {
        addr = host + ":" + envStr("REDIS_PORT", "6379")
    }
    if addr == "" {
        addr = "localhost:6379"
    }

    opts := &redis.Options{
        Addr:     addr,
        Password: envStr("REDIS_PASSWORD", ""),
        DB:       envInt("REDIS_DB", 0),
    }
    if envBool("REDIS_TLS", false) {
        opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
    }

    client := redis.NewClient(opts)
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        _ = client.Close()
        return nil
    }
    return client
}
