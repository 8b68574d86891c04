package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/infra"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/worker"
)

// Health returns a JSON health check response.
// Checks DB and Redis connectivity; never exposes credentials or internals.
// The dead-letter sizes and the broker breaker state are informative and do
// not affect the status code. breaker is nil when events are disabled.
func Health(db *gorm.DB, rdb *redis.Client, breaker *infra.CircuitBreaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		redisStatus := "connected"
		dlq := gin.H{}
		if rdb.Ping(ctx).Err() != nil {
			redisStatus = "error"
		} else {
			for _, q := range []string{worker.QueueAuditoria, worker.QueueAlertaStock} {
				if n, err := worker.DLQLength(ctx, rdb, q); err == nil {
					dlq[q] = n
				}
			}
		}

		eventos := "disabled"
		if breaker != nil {
			eventos = breaker.State().String()
		}

		status := http.StatusOK
		if dbStatus != "connected" || redisStatus != "connected" {
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{
			"ok":      status == http.StatusOK,
			"db":      dbStatus,
			"redis":   redisStatus,
			"dlq":     dlq,
			"eventos": eventos,
		})
	}
}
