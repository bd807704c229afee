package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

type RouterConfig struct {
	Handler        *Handler
	MetricsHandler http.Handler
	Logger         *zap.Logger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestID(), accessLog(logger))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if cfg.MetricsHandler != nil {
		router.GET("/metrics", gin.WrapH(cfg.MetricsHandler))
	}

	h := cfg.Handler
	v1 := router.Group("/v1")
	{
		// Identity
		v1.POST("/roles", h.Authorize)
		v1.GET("/roles/:role/*principal", h.IsAuthorized)

		// Products
		v1.POST("/products", h.RegisterProduct)
		v1.GET("/products/:id", h.Product)
		v1.GET("/serials/:serial", h.LookupBySerial)
		v1.POST("/products/:id/transfer", h.TransferOwnership)
		v1.GET("/products/:id/warranty", h.WarrantyStatus)
		v1.GET("/products/:id/lifecycle", h.ProductLifecycle)

		// Claims
		v1.POST("/products/:id/claims", h.SubmitClaim)
		v1.GET("/products/:id/claims", h.ClaimsForProduct)
		v1.GET("/claims/:id", h.Claim)
		v1.PUT("/claims/:id/status", h.UpdateClaimStatus)

		// Services
		v1.POST("/products/:id/services", h.RecordService)
		v1.GET("/products/:id/services", h.ServicesForProduct)
		v1.GET("/services/:id", h.ServiceRecord)
	}

	return router
}

// requestID propagates or assigns a request id.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func accessLog(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetString("request_id")),
			zap.String("principal", c.GetHeader(PrincipalHeader)),
		}
		if len(c.Errors) > 0 {
			logger.Error("request failed", append(fields, zap.String("errors", c.Errors.String()))...)
			return
		}
		logger.Info("request", fields...)
	}
}
