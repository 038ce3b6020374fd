package api

import (
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"time"     // Cache TTL

	"wallet_ledger/internal/ledger"  // Ledger service
	"wallet_ledger/internal/metrics" // Cache hit/miss counters
	"wallet_ledger/internal/utils"   // Redis JSON helpers

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/google/uuid"       // Operation identity
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// GetOperationHandler returns a single operation by id
func GetOperationHandler(svc *ledger.Service, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("operation_id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid operation_id"})
			return
		}
		op, err := svc.GetOperation(c.Request.Context(), id)
		if err != nil {
			respondError(c, log, err, "Get operation")
			return
		}
		c.JSON(http.StatusOK, op)
	}
}

// ListOperationsHandler returns a wallet's operation history, newest first.
// Pages are cached in Redis under the wallet's history version, which every
// committed operation bumps. A page read before a commit but stored after it
// lands under the old version and is never served.
func ListOperationsHandler(svc *ledger.Service, rdb redis.Cmdable, ttl time.Duration, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		walletID, ok := walletParam(c)
		if !ok {
			return
		}
		page := 1                          // Default page
		pageSize := ledger.DefaultPageSize // Default page size
		if p := c.Query("page"); p != "" {
			if v, err := strconv.Atoi(p); err == nil && v > 0 {
				page = v // Set page if valid
			}
		}
		if ps := c.Query("page_size"); ps != "" {
			if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= ledger.MaxPageSize {
				pageSize = v // Set page size if valid
			}
		}
		ctx := c.Request.Context()
		cache := rdb
		var cacheKey string
		if cache != nil {
			// Version is read before the database so the stored page can only be older than the key
			version, err := utils.HistoryVersion(ctx, cache, walletID)
			if err != nil {
				log.WithError(err).Warn("History cache unavailable")
				cache = nil
			}
			cacheKey = utils.HistoryCacheKey(walletID, version, page, pageSize)
		}

		// Try the cache first
		if cache != nil {
			var cached ledger.OperationPage
			found, err := utils.GetCache(ctx, cache, cacheKey, &cached)
			metrics.RecordCacheLookup(err == nil && found)
			if err == nil && found {
				c.JSON(http.StatusOK, pageResponse(&cached, true))
				return
			}
		}

		result, err := svc.ListOperations(ctx, walletID, page, pageSize)
		if err != nil {
			respondError(c, log, err, "List operations")
			return
		}
		if cache != nil {
			_ = utils.SetCache(ctx, cache, cacheKey, result, ttl) // Cache the page
		}
		c.JSON(http.StatusOK, pageResponse(result, false))
	}
}

func pageResponse(p *ledger.OperationPage, cached bool) gin.H {
	return gin.H{
		"operations":  p.Operations, // Page of operations
		"page":        p.Page,       // Current page
		"page_size":   p.PageSize,   // Page size
		"total":       p.Total,      // Total operations
		"total_pages": p.TotalPages, // Total pages
		"cached":      cached,       // Served from Redis
	}
}
