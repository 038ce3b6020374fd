// Package api exposes the wallet ledger over HTTP
package api

import (
	"time" // TTLs

	"wallet_ledger/internal/ledger"     // Ledger service
	"wallet_ledger/internal/metrics"    // Prometheus handler
	"wallet_ledger/internal/middleware" // Gin middleware

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
	"gorm.io/gorm"                 // GORM ORM library
)

// Deps are the handles the router wires into handlers
type Deps struct {
	Service          *ledger.Service
	DB               *gorm.DB
	Redis            redis.Cmdable // nil disables history caching and idempotency replay
	CacheTTL         time.Duration
	IdempotencyTTL   time.Duration
	CORSAllowOrigins []string
	Log              logrus.FieldLogger
}

// NewRouter builds the gin engine with every route and middleware
func NewRouter(d Deps) *gin.Engine {
	log := d.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestLogger(log),
		middleware.Metrics(),
		middleware.CORS(d.CORSAllowOrigins),
	)

	r.GET("/health", HealthHandler(d.DB, d.Redis))  // Liveness and DB check
	r.GET("/metrics", gin.WrapH(metrics.Handler())) // Prometheus scrape endpoint

	v1 := r.Group("/api/v1")
	v1.POST("/wallets", CreateWalletHandler(d.Service, log))
	v1.GET("/wallets/:wallet_id", GetWalletHandler(d.Service, log))
	v1.POST("/wallets/:wallet_id/operation",
		middleware.Idempotency(d.Redis, d.IdempotencyTTL, log),
		ProcessOperationHandler(d.Service, log),
	)
	v1.GET("/wallets/:wallet_id/operations", ListOperationsHandler(d.Service, d.Redis, d.CacheTTL, log))
	v1.GET("/operations/:operation_id", GetOperationHandler(d.Service, log))
	return r
}
