// Package router assembles the ops gin engine.
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/retailops/backend/internal/interfaces/http/handler"
	"github.com/retailops/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// Config wires the handlers and middleware of the ops server
type Config struct {
	Logger      *zap.Logger
	Tracing     middleware.TracingConfig
	Health      *handler.HealthHandler
	Outbox      *handler.OutboxHandler     // optional
	Comparators *handler.ComparatorHandler // optional
	Stock       *handler.StockHandler      // optional
	Audit       *handler.AuditHandler      // optional
}

// New builds the engine:
//
//	GET  /healthz
//	GET  /readyz
//	GET  /ops/outbox/stats
//	GET  /ops/outbox/dead
//	POST /ops/outbox/dead/retry
//	POST /ops/outbox/:id/retry
//	GET  /ops/fulfillment/comparators
//	POST /ops/fulfillment/select
//	GET  /ops/stock
//	POST /ops/stock/receive
//	GET  /ops/audit/:entity_type/:id
func New(cfg Config) *gin.Engine {
	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		middleware.Tracing(cfg.Tracing),
		middleware.SpanEnricher(handler.ActorHeader),
		middleware.RequestLogger(cfg.Logger),
		middleware.Recovery(cfg.Logger),
	)

	engine.GET("/healthz", cfg.Health.Live)
	engine.GET("/readyz", cfg.Health.Ready)

	ops := engine.Group("/ops")
	if cfg.Outbox != nil {
		outbox := ops.Group("/outbox")
		outbox.GET("/stats", cfg.Outbox.Stats)
		outbox.GET("/dead", cfg.Outbox.DeadLetters)
		outbox.POST("/dead/retry", cfg.Outbox.RequeueAll)
		outbox.POST("/:id/retry", cfg.Outbox.Requeue)
	}
	if cfg.Comparators != nil {
		ops.GET("/fulfillment/comparators", cfg.Comparators.List)
	}
	if cfg.Stock != nil {
		ops.POST("/fulfillment/select", cfg.Stock.SelectWarehouse)
		ops.GET("/stock", cfg.Stock.GetStock)
		ops.POST("/stock/receive", cfg.Stock.ReceiveStock)
	}
	if cfg.Audit != nil {
		ops.GET("/audit/:entity_type/:id", cfg.Audit.ListForEntity)
	}
	return engine
}
