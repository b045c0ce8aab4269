package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/JOHNINFA/crm-fabrica-sub002/internal/infra"
	"github.com/JOHNINFA/crm-fabrica-sub002/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const healthCheckKey = "health.check"

// Health reports local store and redis connectivity plus the remote API
// breaker state. An open breaker is not unhealthy: the local fallback serves.
// rdb and breaker may be nil.
func Health(store repository.KV, rdb *redis.Client, breaker *infra.CircuitBreaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		storeStatus := "connected"
		if err := store.Set(ctx, healthCheckKey, []byte(time.Now().UTC().Format(time.RFC3339))); err != nil {
			storeStatus = "error"
		} else if _, _, err := store.Get(ctx, healthCheckKey); err != nil {
			storeStatus = "error"
		}

		body := gin.H{"store": storeStatus}
		status := http.StatusOK
		if storeStatus != "connected" {
			status = http.StatusServiceUnavailable
		}

		if rdb != nil {
			redisStatus := "connected"
			if rdb.Ping(ctx).Err() != nil {
				redisStatus = "error"
				status = http.StatusServiceUnavailable
			}
			body["redis"] = redisStatus
		}
		if breaker != nil {
			body["api"] = breaker.State().String()
		}

		body["ok"] = status == http.StatusOK
		c.JSON(status, body)
	}
}
