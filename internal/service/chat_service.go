package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"riskadvisor/internal/backend"
	"riskadvisor/internal/config"
	"riskadvisor/internal/domain"
	"riskadvisor/internal/metrics"
)

var (
	ErrEmptyQuestion     = errors.New("question is empty")
	ErrQueryInFlight     = errors.New("a query is already being processed")
	ErrMessageNotFound   = errors.New("message not found")
	ErrInvalidRating     = errors.New("rating must be between 1 and 5")
	ErrChatNotConfigured = errors.New("chat service not configured")
	ErrBatchTooLarge     = errors.New("too many questions in batch")
)

const (
	WelcomeMessageID          = "welcome"
	welcomeContent            = "Hello! I'm your AI Risk Advisor. I can help you with risk assessments, data analysis, regulatory compliance, and much more. What would you like to explore today?"
	defaultAssistantReply     = "I processed your request."
	recentQueriesKept         = 10
	maxBatchQuestions         = 10
	defaultAnalyticsTimeframe = "7d"
	batchConcurrency          = 3
	recentQueriesSent         = 3
)

// DefaultChatSuggestions se muestran antes de la primera respuesta del backend.
var DefaultChatSuggestions = []string{
	"Show me a risk assessment for our current portfolio",
	"What are the latest regulatory updates affecting insurance?",
	"Create a chart showing claims trends over the last year",
	"Find best practices for cybersecurity risk management",
	"Compare our loss ratios with industry benchmarks",
}

// ErrorSuggestions acompañan a cada mensaje de error.
var ErrorSuggestions = []string{
	"Try rephrasing your question",
	"Check your internet connection",
	"Contact support if the issue persists",
}

// ChatService es el estado de la conversacion: mensajes, historial,
// sugerencias y el flag de carga. Todas las vistas leen de sus stores.
type ChatService struct {
	client       backend.Client
	logger       *zap.Logger
	app          config.AppConfig
	historyLimit int
	now          func() time.Time
	newID        func() string

	Messages    *Store[[]domain.Message]
	History     *Store[[]domain.QueryHistoryEntry]
	Loading     *Store[bool]
	Suggestions *Store[[]string]
	LastError   *Store[string]

	mu       sync.Mutex
	inFlight bool
	recent   []string
}

func NewChatService(client backend.Client, app config.AppConfig, historyLimit int, logger *zap.Logger) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if historyLimit <= 0 {
		historyLimit = 50
	}
	return &ChatService{
		client:       client,
		logger:       logger,
		app:          app,
		historyLimit: historyLimit,
		now:          time.Now,
		newID:        func() string { return ulid.Make().String() },
		Messages:     NewStore("messages", []domain.Message{}),
		History:      NewStore("history", []domain.QueryHistoryEntry{}),
		Loading:      NewStore("loading", false),
		Suggestions:  NewStore("suggestions", append([]string(nil), DefaultChatSuggestions...)),
		LastError:    NewStore("last_error", ""),
	}
}

// SendQuery agrega un mensaje del usuario y, como maximo, un mensaje de
// respuesta o de error. Devuelve el mensaje que cerro el turno.
func (s *ChatService) SendQuery(ctx context.Context, question string) (domain.Message, error) {
	if s == nil || s.client == nil {
		return domain.Message{}, ErrChatNotConfigured
	}
	if strings.TrimSpace(question) == "" {
		return domain.Message{}, ErrEmptyQuestion
	}

	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return domain.Message{}, ErrQueryInFlight
	}
	s.inFlight = true
	s.recent = append([]string{question}, s.recent...)
	if len(s.recent) > recentQueriesKept {
		s.recent = s.recent[:recentQueriesKept]
	}
	reqCtx := s.buildRequestContext()
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
		s.Loading.Set(false)
	}()

	userMsg := domain.Message{
		ID:        s.newID(),
		Content:   question,
		IsUser:    true,
		Timestamp: s.now(),
		Type:      domain.MessageTypeText,
	}
	s.appendMessage(userMsg)
	s.LastError.Set("")
	s.Loading.Set(true)

	resp, err := s.client.ProcessQuery(ctx, domain.QueryRequest{
		Question:   question,
		Context:    &reqCtx,
		UseAgents:  s.app.Agents.Enabled,
		RequireSQL: false,
	})
	if err != nil {
		s.logger.Error("send query failed", zap.String("operation", "send_query"), zap.Error(err))
		metrics.QueriesSent.WithLabelValues("error").Inc()
		errMsg := s.errorMessage(err, userMsg.ID)
		s.appendMessage(errMsg)
		s.LastError.Set(errMsg.Content)
		return errMsg, err
	}

	metrics.QueriesSent.WithLabelValues("answered").Inc()
	reply := s.responseToMessage(resp, userMsg.ID)
	s.appendMessage(reply)

	if len(resp.Suggestions) > 0 {
		s.Suggestions.Set(append([]string(nil), resp.Suggestions...))
	}

	entry := domain.QueryHistoryEntry{
		ID:              reply.ID,
		Query:           firstNonEmpty(resp.Question, question),
		Timestamp:       s.now(),
		ResponseType:    resp.ResponseType,
		AgentsUsed:      resp.AgentsUsed(),
		SQLQuery:        resp.SQLQuery,
		Summary:         resp.Summary,
		ConfidenceScore: resp.ConfidenceScore,
		ProcessingTime:  resp.ProcessingTimeMS,
	}
	s.History.Update(func(cur []domain.QueryHistoryEntry) []domain.QueryHistoryEntry {
		return append([]domain.QueryHistoryEntry{entry}, cur...)
	})
	return reply, nil
}

// buildRequestContext requiere s.mu tomado. recent esta en orden inverso
// (la mas nueva primero) y se envian las tres ultimas posiciones.
func (s *ChatService) buildRequestContext() domain.RequestContext {
	start := len(s.recent) - recentQueriesSent
	if start < 0 {
		start = 0
	}
	recent := append([]string{}, s.recent[start:]...)
	return domain.RequestContext{
		RecentQueries: recent,
		UserPreferences: domain.UserPreferences{
			ShowConfidenceScores: s.app.UI.ShowConfidenceScores,
			EnableRealTimeSearch: s.app.UI.EnableRealTimeSearch,
			PreferredChartTypes:  []string{"bar", "line", "pie"},
			Language:             "en",
		},
		SessionContext: domain.SessionContext{
			ShowConfidenceScores: s.app.UI.ShowConfidenceScores,
			EnableRealTimeSearch: s.app.UI.EnableRealTimeSearch,
			Timestamp:            s.now().UTC().Format(time.RFC3339),
		},
	}
}

func (s *ChatService) responseToMessage(resp *domain.QueryResponse, relatedID string) domain.Message {
	id := resp.QueryID
	if id == "" {
		id = s.newID()
	}
	return domain.Message{
		ID:               id,
		Content:          firstNonEmpty(resp.Explanation, resp.Summary, defaultAssistantReply),
		IsUser:           false,
		Timestamp:        s.now(),
		Type:             MessageTypeForResponse(resp),
		Confidence:       resp.ConfidenceScore,
		ResponseType:     resp.ResponseType,
		Data:             resp.Data,
		SQLQuery:         resp.SQLQuery,
		AgentResponses:   resp.AgentResponses,
		Visualization:    resp.Visualization,
		Suggestions:      resp.Suggestions,
		Metadata:         resp.Metadata,
		ProcessingTimeMS: resp.ProcessingTimeMS,
		RelatedMessageID: relatedID,
	}
}

func (s *ChatService) errorMessage(err error, relatedID string) domain.Message {
	zero := 0.0
	return domain.Message{
		ID:               s.newID(),
		Content:          backend.UserMessage(err),
		IsUser:           false,
		Timestamp:        s.now(),
		Type:             domain.MessageTypeError,
		Confidence:       &zero,
		ResponseType:     domain.ResponseTypeError,
		Suggestions:      append([]string(nil), ErrorSuggestions...),
		RelatedMessageID: relatedID,
	}
}

// MessageTypeForResponse: error, luego chart si hay visualizacion, luego data, si no text.
func MessageTypeForResponse(resp *domain.QueryResponse) domain.MessageType {
	switch {
	case resp.ResponseType == domain.ResponseTypeError:
		return domain.MessageTypeError
	case present(resp.Visualization):
		return domain.MessageTypeChart
	case resp.Data != nil:
		return domain.MessageTypeData
	}
	return domain.MessageTypeText
}

// messageTypeForHistory deriva el tipo solo del response_type guardado.
func messageTypeForHistory(responseType string) domain.MessageType {
	switch responseType {
	case domain.ResponseTypeError:
		return domain.MessageTypeError
	case domain.ResponseTypeSQLConvertible:
		return domain.MessageTypeData
	}
	return domain.MessageTypeText
}

func present(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed != "" && trimmed != "null" && trimmed != "false" && trimmed != `""`
}

// LoadMessages reemplaza la conversacion con el historial del backend.
func (s *ChatService) LoadMessages(ctx context.Context, limit int) error {
	history, err := s.fetchHistory(ctx, limit, "load_messages")
	if err != nil {
		return err
	}
	s.Messages.Set(HistoryToMessages(history))
	return nil
}

// LoadChatHistory reemplaza el historial lateral.
func (s *ChatService) LoadChatHistory(ctx context.Context, limit int) error {
	history, err := s.fetchHistory(ctx, limit, "load_history")
	if err != nil {
		return err
	}
	s.History.Set(HistoryToEntries(history))
	return nil
}

// RefreshData recarga mensajes e historial con una sola llamada.
func (s *ChatService) RefreshData(ctx context.Context) error {
	history, err := s.fetchHistory(ctx, s.historyLimit, "refresh")
	if err != nil {
		return err
	}
	s.Messages.Set(HistoryToMessages(history))
	s.History.Set(HistoryToEntries(history))
	return nil
}

func (s *ChatService) fetchHistory(ctx context.Context, limit int, op string) ([]domain.ChatHistory, error) {
	if s == nil || s.client == nil {
		return nil, ErrChatNotConfigured
	}
	if limit <= 0 {
		limit = s.historyLimit
	}
	history, err := s.client.History(ctx, limit)
	if err != nil {
		s.logger.Warn("history request failed", zap.String("operation", op), zap.Error(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return history, nil
}

// HistoryToMessages arma pares usuario/asistente ordenados por tiempo. Los
// registros sin resumen solo aportan el mensaje del usuario.
func HistoryToMessages(history []domain.ChatHistory) []domain.Message {
	out := make([]domain.Message, 0, len(history)*2)
	for _, item := range history {
		ts := domain.ParseTimestamp(item.Timestamp)
		userID := "user_" + item.ID
		out = append(out, domain.Message{
			ID:        userID,
			Content:   item.Query,
			IsUser:    true,
			Timestamp: ts,
			Type:      domain.MessageTypeText,
		})
		if item.Summary == "" {
			continue
		}
		out = append(out, domain.Message{
			ID:               item.ID,
			Content:          item.Summary,
			Timestamp:        ts,
			Type:             messageTypeForHistory(item.ResponseType),
			Confidence:       item.ConfidenceScore,
			ResponseType:     item.ResponseType,
			SQLQuery:         item.SQLQuery,
			ProcessingTimeMS: item.ProcessingTime,
			IsBookmarked:     item.IsBookmarked,
			RelatedMessageID: userID,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

// HistoryToEntries convierte los registros del backend, la mas nueva primero.
func HistoryToEntries(history []domain.ChatHistory) []domain.QueryHistoryEntry {
	out := make([]domain.QueryHistoryEntry, 0, len(history))
	for _, item := range history {
		out = append(out, domain.QueryHistoryEntry{
			ID:              item.ID,
			Query:           item.Query,
			Timestamp:       domain.ParseTimestamp(item.Timestamp),
			IsBookmarked:    item.IsBookmarked,
			SQLQuery:        item.SQLQuery,
			ResponseType:    item.ResponseType,
			AgentsUsed:      item.AgentsUsed,
			Summary:         item.Summary,
			ConfidenceScore: item.ConfidenceScore,
			ProcessingTime:  item.ProcessingTime,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out
}

// SearchHistory filtra por texto de la pregunta o response_type, sin distinguir mayusculas.
func (s *ChatService) SearchHistory(term string) []domain.QueryHistoryEntry {
	history := s.CurrentHistory()
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return history
	}
	out := make([]domain.QueryHistoryEntry, 0, len(history))
	for _, h := range history {
		if strings.Contains(strings.ToLower(h.Query), term) || strings.Contains(strings.ToLower(h.ResponseType), term) {
			out = append(out, h)
		}
	}
	return out
}

// ClearConversation borra en el backend y, si funciona, vacia mensajes e historial.
func (s *ChatService) ClearConversation(ctx context.Context) error {
	if s == nil || s.client == nil {
		return ErrChatNotConfigured
	}
	if err := s.client.ClearConversation(ctx); err != nil {
		s.logger.Error("clear conversation failed", zap.String("operation", "clear_conversation"), zap.Error(err))
		return fmt.Errorf("clear conversation: %w", err)
	}
	s.Messages.Set([]domain.Message{})
	s.History.Set([]domain.QueryHistoryEntry{})
	return nil
}

// AddMessage agrega un mensaje local; completa id y timestamp si faltan.
func (s *ChatService) AddMessage(msg domain.Message) domain.Message {
	if msg.ID == "" {
		msg.ID = s.newID()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = s.now()
	}
	if msg.Type == "" {
		msg.Type = domain.MessageTypeText
	}
	s.appendMessage(msg)
	return msg
}

// AddWelcomeMessage saluda solo si la conversacion esta vacia.
func (s *ChatService) AddWelcomeMessage() bool {
	if len(s.Messages.Get()) > 0 {
		return false
	}
	one := 1.0
	s.AddMessage(domain.Message{
		ID:           WelcomeMessageID,
		Content:      welcomeContent,
		Timestamp:    s.now(),
		Type:         domain.MessageTypeText,
		Confidence:   &one,
		ResponseType: domain.ResponseTypeWelcome,
	})
	return true
}

func (s *ChatService) appendMessage(msg domain.Message) {
	s.Messages.Update(func(cur []domain.Message) []domain.Message {
		next := make([]domain.Message, len(cur), len(cur)+1)
		copy(next, cur)
		return append(next, msg)
	})
}

func (s *ChatService) CurrentMessages() []domain.Message {
	return append([]domain.Message(nil), s.Messages.Get()...)
}

func (s *ChatService) CurrentHistory() []domain.QueryHistoryEntry {
	return append([]domain.QueryHistoryEntry(nil), s.History.Get()...)
}

// Message busca un mensaje por id.
func (s *ChatService) Message(id string) (domain.Message, bool) {
	for _, m := range s.Messages.Get() {
		if m.ID == id {
			return m, true
		}
	}
	return domain.Message{}, false
}

// LastAssistantMessage es el ultimo mensaje no enviado por el usuario.
func (s *ChatService) LastAssistantMessage() (domain.Message, bool) {
	msgs := s.Messages.Get()
	for i := len(msgs) - 1; i >= 0; i-- {
		if !msgs[i].IsUser && msgs[i].ID != WelcomeMessageID {
			return msgs[i], true
		}
	}
	return domain.Message{}, false
}

// ToggleBookmark invierte el flag localmente, republica ambos stores y luego
// persiste. Si el backend falla solo se registra; el estado local queda.
func (s *ChatService) ToggleBookmark(ctx context.Context, id string) (bool, error) {
	current, found := s.bookmarkState(id)
	if !found {
		return false, ErrMessageNotFound
	}
	next := !current
	s.setBookmark(id, next)

	if s.client == nil {
		return next, ErrChatNotConfigured
	}
	var err error
	if next {
		err = s.client.Bookmark(ctx, domain.BookmarkRequest{QueryID: id})
	} else {
		err = s.client.RemoveBookmark(ctx, id)
	}
	if err != nil {
		s.logger.Error("bookmark toggle failed",
			zap.String("operation", "toggle_bookmark"),
			zap.String("query_id", id),
			zap.Bool("bookmarked", next),
			zap.Error(err),
		)
		return next, fmt.Errorf("toggle bookmark: %w", err)
	}
	return next, nil
}

// BookmarkQuery marca solo si el backend confirma.
func (s *ChatService) BookmarkQuery(ctx context.Context, id, title, notes string) error {
	if s == nil || s.client == nil {
		return ErrChatNotConfigured
	}
	if err := s.client.Bookmark(ctx, domain.BookmarkRequest{QueryID: id, Title: title, Notes: notes}); err != nil {
		s.logger.Error("bookmark failed", zap.String("operation", "bookmark_query"), zap.Error(err))
		return fmt.Errorf("bookmark query: %w", err)
	}
	s.setBookmark(id, true)
	return nil
}

func (s *ChatService) RemoveBookmark(ctx context.Context, id string) error {
	if s == nil || s.client == nil {
		return ErrChatNotConfigured
	}
	if err := s.client.RemoveBookmark(ctx, id); err != nil {
		s.logger.Error("remove bookmark failed", zap.String("operation", "remove_bookmark"), zap.Error(err))
		return fmt.Errorf("remove bookmark: %w", err)
	}
	s.setBookmark(id, false)
	return nil
}

func (s *ChatService) Bookmarks(ctx context.Context) (json.RawMessage, error) {
	if s == nil || s.client == nil {
		return nil, ErrChatNotConfigured
	}
	return s.client.Bookmarks(ctx)
}

func (s *ChatService) bookmarkState(id string) (bool, bool) {
	for _, m := range s.Messages.Get() {
		if m.ID == id {
			return m.IsBookmarked, true
		}
	}
	for _, h := range s.History.Get() {
		if h.ID == id {
			return h.IsBookmarked, true
		}
	}
	return false, false
}

func (s *ChatService) setBookmark(id string, bookmarked bool) {
	if idx := indexMessage(s.Messages.Get(), id); idx >= 0 {
		s.Messages.Update(func(cur []domain.Message) []domain.Message {
			next := append([]domain.Message(nil), cur...)
			if i := indexMessage(next, id); i >= 0 {
				next[i].IsBookmarked = bookmarked
			}
			return next
		})
	}
	if idx := indexEntry(s.History.Get(), id); idx >= 0 {
		s.History.Update(func(cur []domain.QueryHistoryEntry) []domain.QueryHistoryEntry {
			next := append([]domain.QueryHistoryEntry(nil), cur...)
			if i := indexEntry(next, id); i >= 0 {
				next[i].IsBookmarked = bookmarked
			}
			return next
		})
	}
}

func indexMessage(msgs []domain.Message, id string) int {
	for i := range msgs {
		if msgs[i].ID == id {
			return i
		}
	}
	return -1
}

func indexEntry(entries []domain.QueryHistoryEntry, id string) int {
	for i := range entries {
		if entries[i].ID == id {
			return i
		}
	}
	return -1
}

// SubmitFeedback envia una calificacion 1-5; 4 o mas cuenta como util.
func (s *ChatService) SubmitFeedback(ctx context.Context, queryID string, rating int, comment string) error {
	if s == nil || s.client == nil {
		return ErrChatNotConfigured
	}
	if rating < 1 || rating > 5 {
		return ErrInvalidRating
	}
	req := domain.FeedbackRequest{QueryID: queryID, Rating: rating, Feedback: strings.TrimSpace(comment), Helpful: rating >= 4}
	if err := s.client.Feedback(ctx, req); err != nil {
		s.logger.Error("feedback failed", zap.String("operation", "submit_feedback"), zap.Error(err))
		return fmt.Errorf("submit feedback: %w", err)
	}
	return nil
}

func (s *ChatService) Insights(ctx context.Context) (json.RawMessage, error) {
	if s == nil || s.client == nil {
		return nil, ErrChatNotConfigured
	}
	out, err := s.client.Insights(ctx)
	if err != nil {
		s.logger.Error("insights failed", zap.String("operation", "insights"), zap.Error(err))
		return nil, fmt.Errorf("insights: %w", err)
	}
	return out, nil
}

// Schema devuelve el esquema de datos que expone el backend.
func (s *ChatService) Schema(ctx context.Context) (json.RawMessage, error) {
	return s.rawRead(ctx, "schema", func(ctx context.Context) (json.RawMessage, error) {
		return s.client.Schema(ctx)
	})
}

// Stats devuelve las estadisticas de uso del backend.
func (s *ChatService) Stats(ctx context.Context) (json.RawMessage, error) {
	return s.rawRead(ctx, "stats", func(ctx context.Context) (json.RawMessage, error) {
		return s.client.Stats(ctx)
	})
}

// QueryAnalytics devuelve la analitica de consultas; timeframe vacio es 7d.
func (s *ChatService) QueryAnalytics(ctx context.Context, timeframe string) (json.RawMessage, error) {
	timeframe = strings.TrimSpace(timeframe)
	if timeframe == "" {
		timeframe = defaultAnalyticsTimeframe
	}
	return s.rawRead(ctx, "query_analytics", func(ctx context.Context) (json.RawMessage, error) {
		return s.client.QueryAnalytics(ctx, timeframe)
	})
}

func (s *ChatService) rawRead(ctx context.Context, op string, fn func(context.Context) (json.RawMessage, error)) (json.RawMessage, error) {
	if s == nil || s.client == nil {
		return nil, ErrChatNotConfigured
	}
	out, err := fn(ctx)
	if err != nil {
		s.logger.Error(op+" failed", zap.String("operation", op), zap.Error(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// ExportConversation devuelve el archivo que arma el backend.
func (s *ChatService) ExportConversation(ctx context.Context) ([]byte, error) {
	if s == nil || s.client == nil {
		return nil, ErrChatNotConfigured
	}
	out, err := s.client.ExportConversation(ctx)
	if err != nil {
		s.logger.Error("export conversation failed", zap.String("operation", "export_conversation"), zap.Error(err))
		return nil, fmt.Errorf("export conversation: %w", err)
	}
	return out, nil
}

func (s *ChatService) DocumentCollections(ctx context.Context) (map[string]domain.CollectionInfo, error) {
	if s == nil || s.client == nil {
		return nil, ErrChatNotConfigured
	}
	env, err := s.client.Collections(ctx)
	if err != nil {
		s.logger.Error("collections failed", zap.String("operation", "get_collections"), zap.Error(err))
		return nil, fmt.Errorf("collections: %w", err)
	}
	if env == nil || !env.Success || env.Collections == nil {
		return map[string]domain.CollectionInfo{}, nil
	}
	return env.Collections, nil
}

// QuerySuggestions pide autocompletado al backend; sin respuesta usa la lista actual.
func (s *ChatService) QuerySuggestions(ctx context.Context, partial string, limit int) []string {
	if s != nil && s.client != nil && strings.TrimSpace(partial) != "" {
		out, err := s.client.Suggestions(ctx, partial, limit)
		if err == nil && len(out) > 0 {
			return out
		}
		if err != nil {
			s.logger.Debug("suggestions failed", zap.String("operation", "suggestions"), zap.Error(err))
		}
	}
	return append([]string(nil), s.Suggestions.Get()...)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// Batch responde varias preguntas independientes sin tocar la conversacion.
// Si el lote falla se repite una por una y las que fallen reciben la
// respuesta de respaldo processing_error.
func (s *ChatService) Batch(ctx context.Context, questions []string) ([]*domain.QueryResponse, error) {
	if s == nil || s.client == nil {
		return nil, ErrChatNotConfigured
	}
	clean := make([]string, 0, len(questions))
	for _, q := range questions {
		if q = strings.TrimSpace(q); q != "" {
			clean = append(clean, q)
		}
	}
	if len(clean) == 0 {
		return nil, ErrEmptyQuestion
	}
	if len(clean) > maxBatchQuestions {
		return nil, ErrBatchTooLarge
	}

	out, err := backend.ProcessBatch(ctx, s.client, clean, batchConcurrency)
	if err == nil {
		return out, nil
	}
	s.logger.Warn("batch failed, retrying one by one", zap.String("operation", "batch_query"), zap.Error(err))
	out = make([]*domain.QueryResponse, len(clean))
	for i, q := range clean {
		out[i] = backend.ProcessQueryOrFallback(ctx, s.client, domain.QueryRequest{Question: q}, s.logger)
	}
	return out, nil
}
