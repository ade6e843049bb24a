package http

import (
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"riskadvisor/internal/metrics"
	"riskadvisor/internal/service"
)

// NewRouter configura el router de Gin con middlewares y las rutas del gateway.
// Con tokens habilitado las rutas /api exigen bearer token.
func NewRouter(logger *zap.Logger, h *Handlers, tokens *service.GatewayTokenService, allowedOrigins []string) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := gin.New()

	// Middlewares basicos: logging, metricas, recovery y CORS.
	r.Use(zapLoggerMiddleware(logger), metricsMiddleware(), gin.Recovery(), corsMiddleware(allowedOrigins))

	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST("/auth/token", h.IssueToken)

	api := r.Group("/api")
	if tokens.Enabled() {
		api.Use(JWTAuthMiddleware(tokens))
	}
	api.POST("/auth/revoke", h.RevokeToken)

	api.GET("/messages", h.ListMessages)
	api.GET("/messages/:id/chart", h.MessageChart)
	api.GET("/messages/:id/export", h.MessageExport)
	api.POST("/query", h.PostQuery)
	api.POST("/query/batch", h.PostBatch)
	api.DELETE("/conversation", h.ClearConversation)
	api.GET("/conversation/export", h.ExportConversation)

	api.GET("/history", h.History)
	api.POST("/history/:id/bookmark", h.ToggleBookmark)
	api.POST("/feedback", h.Feedback)
	api.GET("/suggestions", h.Suggestions)
	api.GET("/insights", h.Insights)
	api.GET("/schema", h.Schema)
	api.GET("/stats", h.Stats)
	api.GET("/bookmarks", h.Bookmarks)
	api.GET("/analytics/queries", h.QueryAnalytics)

	api.GET("/agents", h.Agents)
	api.POST("/agents/refresh", h.RefreshAgents)

	api.GET("/documents/search", h.SearchDocuments)
	api.GET("/documents/collections", h.Collections)
	api.POST("/documents/vectorize", h.VectorizeDocument)
	api.DELETE("/documents/:id", h.DeleteDocument)

	api.GET("/stream", h.Stream)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// metricsMiddleware etiqueta por patron de ruta para no explotar la cardinalidad con ids.
func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.GatewayRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.GatewayRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// corsMiddleware permite los origenes configurados; sin lista acepta cualquiera.
func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Disposition"},
		MaxAge:        5 * time.Minute,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
