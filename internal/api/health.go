package api

import (
	"context"  // Ping timeout
	"net/http" // HTTP status codes
	"time"     // Ping timeout

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

// HealthHandler reports 200 when the database answers a ping and 503 otherwise.
// Redis is reported but does not affect the status since it is optional.
func HealthHandler(gdb *gorm.DB, rdb redis.Cmdable) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		redisStatus := "disabled"
		if rdb != nil {
			redisStatus = "ok"
			if err := rdb.Ping(ctx).Err(); err != nil {
				redisStatus = "unavailable"
			}
		}

		sqlDB, err := gdb.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": err.Error(), "redis": redisStatus})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "ok", "redis": redisStatus})
	}
}
