package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"smartcontract-gateway.backend/internal/interfaces/http/handlers"
	"smartcontract-gateway.backend/internal/interfaces/http/middleware"
)

const (
	serviceName    = "smartcontract-gateway"
	serviceVersion = "0.1.0"
)

type routeDeps struct {
	contractHandler       *handlers.ContractHandler
	authMiddleware        gin.HandlerFunc
	idempotencyMiddleware gin.HandlerFunc
	timeoutMiddleware     gin.HandlerFunc
}

func registerAPIV1Routes(r *gin.Engine, d routeDeps) {
	v1 := r.Group("/api/v1")
	if d.timeoutMiddleware != nil {
		v1.Use(d.timeoutMiddleware)
	}

	// Contract routes (public read + call)
	contracts := v1.Group("/contracts")
	{
		contracts.GET("", d.contractHandler.ListContracts)
		contracts.GET("/:id", d.contractHandler.GetContract)
		contracts.GET("/:id/functions", d.contractHandler.ListFunctions)
		contracts.POST("/:id/call", d.contractHandler.CallFunction)
		contracts.GET("/:id/transactions", d.contractHandler.ListTransactions)
		contracts.GET("/:id/transactions/:txHash", d.contractHandler.GetTransaction)
	}

	// Protected contract routes (admin only)
	contractsAdmin := v1.Group("/contracts")
	contractsAdmin.Use(d.authMiddleware, middleware.RequireAdmin())
	{
		contractsAdmin.POST("", d.contractHandler.RegisterContract)
		contractsAdmin.DELETE("/:id", d.contractHandler.DeleteContract)
		contractsAdmin.POST("/:id/transact", d.idempotencyMiddleware, d.contractHandler.SendFunction)
	}
}

func registerHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": serviceName,
			"version": serviceVersion,
		})
	})
}

func registerMetricsRoute(r *gin.Engine, gatherer prometheus.Gatherer) {
	r.GET("/metrics", middleware.MetricsHandler(gatherer))
}

func applyCORSMiddleware(r *gin.Engine) {
	r.Use(func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, Idempotency-Key, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})
}
