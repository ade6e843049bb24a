package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"riskadvisor/internal/backend"
	"riskadvisor/internal/chart"
	"riskadvisor/internal/domain"
	"riskadvisor/internal/export"
	"riskadvisor/internal/service"
)

// Handlers mantiene dependencias para los endpoints HTTP.
type Handlers struct {
	logger   *zap.Logger
	chat     *service.ChatService
	agents   *service.AgentService
	docs     *service.DocumentSearchService
	identity backend.IdentityProvider
	tokens   *service.GatewayTokenService
	limiter  service.RateLimiter
	now      func() time.Time
}

// NewHandlers crea una instancia de Handlers con las dependencias necesarias.
func NewHandlers(
	logger *zap.Logger,
	chat *service.ChatService,
	agents *service.AgentService,
	docs *service.DocumentSearchService,
	identity backend.IdentityProvider,
	tokens *service.GatewayTokenService,
	limiter service.RateLimiter,
) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		logger:   logger,
		chat:     chat,
		agents:   agents,
		docs:     docs,
		identity: identity,
		tokens:   tokens,
		limiter:  limiter,
		now:      time.Now,
	}
}

// Health maneja GET /health.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// IssueToken maneja POST /auth/token: firma un token para la identidad local.
func (h *Handlers) IssueToken(c *gin.Context) {
	if !h.tokens.Enabled() {
		c.JSON(http.StatusNotFound, gin.H{"error": "auth disabled"})
		return
	}
	if h.limiter != nil && !h.limiter.Allow(c.Request.Context(), c.ClientIP()) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many token requests"})
		return
	}
	identity, err := h.identity.Load(c.Request.Context())
	if err != nil {
		h.logger.Error("load identity failed", zap.String("operation", "issue_token"), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load identity"})
		return
	}
	token, err := h.tokens.Issue(identity)
	if err != nil {
		h.logger.Error("issue token failed", zap.String("operation", "issue_token"), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
		return
	}
	c.JSON(http.StatusCreated, token)
}

// RevokeToken maneja POST /api/auth/revoke con el token del header.
func (h *Handlers) RevokeToken(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing token"})
		return
	}
	if err := h.tokens.Revoke(c.Request.Context(), token); err != nil {
		h.logger.Warn("revoke token failed", zap.String("operation", "revoke_token"), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid token"})
		return
	}
	c.Status(http.StatusNoContent)
}

// ListMessages maneja GET /api/messages.
func (h *Handlers) ListMessages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"messages": h.chat.CurrentMessages(),
		"loading":  h.chat.Loading.Get(),
	})
}

// PostQuery maneja POST /api/query. La respuesta es el mensaje que cerro el turno,
// incluso si es un mensaje de error.
func (h *Handlers) PostQuery(c *gin.Context) {
	var req struct {
		Question string `json:"question" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid query request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	msg, err := h.chat.SendQuery(c.Request.Context(), req.Question)
	switch {
	case errors.Is(err, service.ErrEmptyQuestion):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrQueryInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrChatNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusBadGateway, gin.H{"error": backend.UserMessage(err), "message": msg})
	default:
		c.JSON(http.StatusOK, gin.H{"message": msg})
	}
}

// PostBatch maneja POST /api/query/batch: preguntas independientes, fuera de la conversacion.
func (h *Handlers) PostBatch(c *gin.Context) {
	var req struct {
		Questions []string `json:"questions" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid batch request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	out, err := h.chat.Batch(c.Request.Context(), req.Questions)
	switch {
	case errors.Is(err, service.ErrEmptyQuestion), errors.Is(err, service.ErrBatchTooLarge):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusBadGateway, gin.H{"error": backend.UserMessage(err)})
	default:
		c.JSON(http.StatusOK, gin.H{"responses": out})
	}
}

// ClearConversation maneja DELETE /api/conversation.
func (h *Handlers) ClearConversation(c *gin.Context) {
	if err := h.chat.ClearConversation(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": backend.UserMessage(err)})
		return
	}
	h.chat.AddWelcomeMessage()
	c.Status(http.StatusNoContent)
}

// ExportConversation maneja GET /api/conversation/export.
func (h *Handlers) ExportConversation(c *gin.Context) {
	data, err := h.chat.ExportConversation(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": backend.UserMessage(err)})
		return
	}
	filename := "conversation_" + h.now().UTC().Format("20060102_150405") + ".json"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/json", data)
}

// History maneja GET /api/history?tab=&q=.
func (h *Handlers) History(c *gin.Context) {
	tab := service.ParseHistoryTab(c.Query("tab"))
	view := service.FilterHistory(h.chat.CurrentHistory(), tab, c.Query("q"))
	c.JSON(http.StatusOK, view)
}

// ToggleBookmark maneja POST /api/history/:id/bookmark. Un fallo del backend
// no revierte el flag local; synced lo indica.
func (h *Handlers) ToggleBookmark(c *gin.Context) {
	id := c.Param("id")
	bookmarked, err := h.chat.ToggleBookmark(c.Request.Context(), id)
	if errors.Is(err, service.ErrMessageNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "bookmarked": bookmarked, "synced": err == nil})
}

// Feedback maneja POST /api/feedback.
func (h *Handlers) Feedback(c *gin.Context) {
	var req struct {
		QueryID string `json:"query_id" binding:"required"`
		Rating  int    `json:"rating" binding:"required"`
		Comment string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid feedback request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	err := h.chat.SubmitFeedback(c.Request.Context(), req.QueryID, req.Rating, req.Comment)
	switch {
	case errors.Is(err, service.ErrInvalidRating):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusBadGateway, gin.H{"error": backend.UserMessage(err)})
	default:
		c.Status(http.StatusNoContent)
	}
}

// Suggestions maneja GET /api/suggestions?q=&limit=.
func (h *Handlers) Suggestions(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "5"))
	if err != nil || limit <= 0 {
		limit = 5
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": h.chat.QuerySuggestions(c.Request.Context(), c.Query("q"), limit)})
}

// Insights maneja GET /api/insights y reenvia el JSON del backend tal cual.
func (h *Handlers) Insights(c *gin.Context) {
	writeRaw(c, h.chat.Insights)
}

// Schema maneja GET /api/schema.
func (h *Handlers) Schema(c *gin.Context) {
	writeRaw(c, h.chat.Schema)
}

// Stats maneja GET /api/stats.
func (h *Handlers) Stats(c *gin.Context) {
	writeRaw(c, h.chat.Stats)
}

// Bookmarks maneja GET /api/bookmarks con la lista que guarda el backend.
func (h *Handlers) Bookmarks(c *gin.Context) {
	writeRaw(c, h.chat.Bookmarks)
}

// QueryAnalytics maneja GET /api/analytics/queries?timeframe=.
func (h *Handlers) QueryAnalytics(c *gin.Context) {
	timeframe := c.Query("timeframe")
	writeRaw(c, func(ctx context.Context) (json.RawMessage, error) {
		return h.chat.QueryAnalytics(ctx, timeframe)
	})
}

func writeRaw(c *gin.Context, fetch func(context.Context) (json.RawMessage, error)) {
	raw, err := fetch(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": backend.UserMessage(err)})
		return
	}
	c.Data(http.StatusOK, "application/json", raw)
}

// Agents maneja GET /api/agents.
func (h *Handlers) Agents(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"agents":  h.agents.Agents(),
		"active":  h.agents.ActiveCount(),
		"total":   h.agents.TotalCount(),
		"visible": h.agents.Visible.Get(),
	})
}

// RefreshAgents maneja POST /api/agents/refresh.
func (h *Handlers) RefreshAgents(c *gin.Context) {
	if err := h.agents.Refresh(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	h.Agents(c)
}

// SearchDocuments maneja GET /api/documents/search?q=&collection=.
func (h *Handlers) SearchDocuments(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing q"})
		return
	}
	results, err := h.docs.Search(c.Request.Context(), query, c.Query("collection"))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": backend.UserMessage(err), "results": results})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// Collections maneja GET /api/documents/collections?refresh=true.
func (h *Handlers) Collections(c *gin.Context) {
	force := c.Query("refresh") == "true"
	collections, err := h.docs.LoadCollections(c.Request.Context(), force)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": backend.UserMessage(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"collections": collections})
}

// VectorizeDocument maneja POST /api/documents/vectorize.
func (h *Handlers) VectorizeDocument(c *gin.Context) {
	var req struct {
		FilePath   string         `json:"file_path" binding:"required"`
		Collection string         `json:"collection"`
		Metadata   map[string]any `json:"metadata"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid vectorize request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	raw, err := h.docs.Vectorize(c.Request.Context(), req.FilePath, req.Collection, req.Metadata)
	switch {
	case errors.Is(err, service.ErrEmptyFilePath):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusBadGateway, gin.H{"error": backend.UserMessage(err)})
	default:
		c.Data(http.StatusOK, "application/json", raw)
	}
}

// DeleteDocument maneja DELETE /api/documents/:id?collection=.
func (h *Handlers) DeleteDocument(c *gin.Context) {
	err := h.docs.Delete(c.Request.Context(), c.Param("id"), c.Query("collection"))
	switch {
	case errors.Is(err, service.ErrEmptyDocumentID):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusBadGateway, gin.H{"error": backend.UserMessage(err)})
	default:
		c.Status(http.StatusNoContent)
	}
}

// MessageChart maneja GET /api/messages/:id/chart?type=.
func (h *Handlers) MessageChart(c *gin.Context) {
	msg, ok := h.messageWithData(c)
	if !ok {
		return
	}
	cfg := chart.Resolve(msg.Data, msg.VisualizationHint(), domain.ChartType(c.Query("type")))
	c.JSON(http.StatusOK, cfg)
}

// MessageExport maneja GET /api/messages/:id/export?format=csv|json|pdf.
func (h *Handlers) MessageExport(c *gin.Context) {
	format, err := export.ParseFormat(c.DefaultQuery("format", "csv"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	msg, ok := h.messageWithData(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.Write(&buf, format, msg.Data); err != nil {
		if errors.Is(err, export.ErrNoData) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("export failed", zap.String("operation", "export_data"), zap.String("format", string(format)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not export data"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+export.DefaultFilename(format)+`"`)
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

func (h *Handlers) messageWithData(c *gin.Context) (domain.Message, bool) {
	msg, found := h.chat.Message(c.Param("id"))
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": service.ErrMessageNotFound.Error()})
		return domain.Message{}, false
	}
	if !msg.HasData() {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": export.ErrNoData.Error()})
		return domain.Message{}, false
	}
	return msg, true
}
