package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Stream maneja GET /api/stream: reenvia como SSE cada valor publicado por
// los stores. Termina cuando el cliente corta la conexion.
func (h *Handlers) Stream(c *gin.Context) {
	ctx := c.Request.Context()
	messages := h.chat.Messages.Subscribe(ctx)
	history := h.chat.History.Subscribe(ctx)
	loading := h.chat.Loading.Subscribe(ctx)
	agents := h.agents.Status.Subscribe(ctx)
	docs := h.docs.State.Subscribe(ctx)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	h.logger.Debug("stream opened", zap.String("operation", "stream"), zap.String("client_ip", c.ClientIP()))
	defer h.logger.Debug("stream closed", zap.String("operation", "stream"), zap.String("client_ip", c.ClientIP()))

	for {
		var (
			event string
			data  any
			ok    bool
		)
		select {
		case <-ctx.Done():
			return
		case data, ok = <-messages:
			event = "messages"
		case data, ok = <-history:
			event = "history"
		case data, ok = <-loading:
			event = "loading"
		case data, ok = <-agents:
			event = "agents"
		case data, ok = <-docs:
			event = "documents"
		}
		if !ok {
			return
		}
		c.SSEvent(event, data)
		c.Writer.Flush()
	}
}
