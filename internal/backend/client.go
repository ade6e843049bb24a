package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"riskadvisor/internal/domain"
	"riskadvisor/internal/metrics"
	"riskadvisor/internal/repository"
)

// Client define las llamadas REST que el panel hace contra el backend de agentes.
type Client interface {
	ProcessQuery(ctx context.Context, req domain.QueryRequest) (*domain.QueryResponse, error)
	History(ctx context.Context, limit int) ([]domain.ChatHistory, error)
	ClearConversation(ctx context.Context) error
	ExportConversation(ctx context.Context) ([]byte, error)
	Schema(ctx context.Context) (json.RawMessage, error)
	Suggestions(ctx context.Context, query string, limit int) ([]string, error)
	Bookmark(ctx context.Context, req domain.BookmarkRequest) error
	RemoveBookmark(ctx context.Context, queryID string) error
	Bookmarks(ctx context.Context) (json.RawMessage, error)
	Stats(ctx context.Context) (json.RawMessage, error)
	Feedback(ctx context.Context, req domain.FeedbackRequest) error
	Insights(ctx context.Context) (json.RawMessage, error)
	QueryAnalytics(ctx context.Context, timeframe string) (json.RawMessage, error)
	AgentStatus(ctx context.Context) (*domain.AgentStatusEnvelope, error)
	SearchDocuments(ctx context.Context, req domain.DocumentSearchRequest) (*domain.DocumentSearchEnvelope, error)
	VectorizeDocument(ctx context.Context, filePath, collection string, metadata map[string]any) (json.RawMessage, error)
	Collections(ctx context.Context) (*domain.CollectionsEnvelope, error)
	DeleteDocument(ctx context.Context, docID, collection string) error
}

// IdentityProvider entrega los valores de los headers company-number y user-id.
type IdentityProvider interface {
	Load(ctx context.Context) (repository.Identity, error)
}

const (
	HeaderCompanyNumber = "company-number"
	HeaderUserID        = "user-id"

	DefaultBaseURL     = "http://localhost:8000/api"
	defaultReadRetries = 2
)

// HTTPClient implementa Client sobre net/http.
type HTTPClient struct {
	baseURL     string
	identity    IdentityProvider
	client      *http.Client
	readRetries int
	retryDelay  time.Duration
	logger      *zap.Logger
}

// NewHTTPClient construye el cliente. readRetries < 0 usa el valor por defecto (2).
func NewHTTPClient(baseURL string, identity IdentityProvider, timeout time.Duration, readRetries int, logger *zap.Logger) *HTTPClient {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if readRetries < 0 {
		readRetries = defaultReadRetries
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		identity:    identity,
		client:      &http.Client{Timeout: timeout},
		readRetries: readRetries,
		retryDelay:  250 * time.Millisecond,
		logger:      logger,
	}
}

func (c *HTTPClient) ProcessQuery(ctx context.Context, req domain.QueryRequest) (*domain.QueryResponse, error) {
	var out domain.QueryResponse
	if err := c.doJSON(ctx, "process_query", http.MethodPost, "/query", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// History trae el historial con reintentos; si todos fallan devuelve una lista vacia y el error.
func (c *HTTPClient) History(ctx context.Context, limit int) ([]domain.ChatHistory, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var out []domain.ChatHistory
	err := c.withRetry(ctx, "history", func() error {
		out = nil
		return c.doJSON(ctx, "history", http.MethodGet, "/history", query, nil, &out)
	})
	if err != nil {
		return []domain.ChatHistory{}, err
	}
	if out == nil {
		out = []domain.ChatHistory{}
	}
	return out, nil
}

func (c *HTTPClient) ClearConversation(ctx context.Context) error {
	return c.doJSON(ctx, "clear_conversation", http.MethodDelete, "/conversation", nil, nil, nil)
}

func (c *HTTPClient) ExportConversation(ctx context.Context) ([]byte, error) {
	return c.do(ctx, "export_conversation", http.MethodGet, "/conversation/export", nil, nil)
}

func (c *HTTPClient) Schema(ctx context.Context) (json.RawMessage, error) {
	return c.raw(ctx, "schema", http.MethodGet, "/schema", nil, nil)
}

func (c *HTTPClient) Suggestions(ctx context.Context, q string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 5
	}
	query := url.Values{"q": {q}, "limit": {strconv.Itoa(limit)}}
	var out []string
	if err := c.doJSON(ctx, "suggestions", http.MethodGet, "/suggestions", query, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) Bookmark(ctx context.Context, req domain.BookmarkRequest) error {
	return c.doJSON(ctx, "bookmark", http.MethodPost, "/bookmarks", nil, req, nil)
}

func (c *HTTPClient) RemoveBookmark(ctx context.Context, queryID string) error {
	return c.doJSON(ctx, "remove_bookmark", http.MethodDelete, "/bookmarks/"+url.PathEscape(queryID), nil, nil, nil)
}

func (c *HTTPClient) Bookmarks(ctx context.Context) (json.RawMessage, error) {
	return c.raw(ctx, "bookmarks", http.MethodGet, "/bookmarks", nil, nil)
}

func (c *HTTPClient) Stats(ctx context.Context) (json.RawMessage, error) {
	return c.raw(ctx, "stats", http.MethodGet, "/stats", nil, nil)
}

func (c *HTTPClient) Feedback(ctx context.Context, req domain.FeedbackRequest) error {
	return c.doJSON(ctx, "feedback", http.MethodPost, "/feedback", nil, req, nil)
}

func (c *HTTPClient) Insights(ctx context.Context) (json.RawMessage, error) {
	return c.raw(ctx, "insights", http.MethodGet, "/analytics/insights", nil, nil)
}

func (c *HTTPClient) QueryAnalytics(ctx context.Context, timeframe string) (json.RawMessage, error) {
	if timeframe == "" {
		timeframe = "7d"
	}
	return c.raw(ctx, "query_analytics", http.MethodGet, "/analytics/queries", url.Values{"timeframe": {timeframe}}, nil)
}

// AgentStatus es de solo lectura, asi que se reintenta igual que el historial.
func (c *HTTPClient) AgentStatus(ctx context.Context) (*domain.AgentStatusEnvelope, error) {
	var out domain.AgentStatusEnvelope
	err := c.withRetry(ctx, "agent_status", func() error {
		out = domain.AgentStatusEnvelope{}
		return c.doJSON(ctx, "agent_status", http.MethodGet, "/agents/status", nil, nil, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) SearchDocuments(ctx context.Context, req domain.DocumentSearchRequest) (*domain.DocumentSearchEnvelope, error) {
	collection := req.Collection
	if collection == "" {
		collection = domain.DefaultCollection
	}
	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}
	query := url.Values{
		"query":           {req.Query},
		"collection_name": {collection},
		"max_results":     {strconv.Itoa(maxResults)},
	}
	var out domain.DocumentSearchEnvelope
	if err := c.doJSON(ctx, "search_documents", http.MethodPost, "/documents/search", query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) VectorizeDocument(ctx context.Context, filePath, collection string, metadata map[string]any) (json.RawMessage, error) {
	if collection == "" {
		collection = domain.DefaultCollection
	}
	meta := ""
	if len(metadata) > 0 {
		encoded, err := json.Marshal(metadata)
		if err != nil {
			return nil, fmt.Errorf("encode metadata: %w", err)
		}
		meta = string(encoded)
	}
	query := url.Values{"file_path": {filePath}, "collection_name": {collection}, "metadata": {meta}}
	return c.raw(ctx, "vectorize_document", http.MethodPost, "/documents/vectorize", query, nil)
}

func (c *HTTPClient) Collections(ctx context.Context) (*domain.CollectionsEnvelope, error) {
	var out domain.CollectionsEnvelope
	if err := c.doJSON(ctx, "collections", http.MethodGet, "/documents/collections", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) DeleteDocument(ctx context.Context, docID, collection string) error {
	if collection == "" {
		collection = domain.DefaultCollection
	}
	query := url.Values{"collection_name": {collection}}
	return c.doJSON(ctx, "delete_document", http.MethodDelete, "/documents/"+url.PathEscape(docID), query, nil, nil)
}

// withRetry repite fn hasta readRetries veces extra; no reintenta si el contexto termino.
func (c *HTTPClient) withRetry(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 0; attempt <= c.readRetries; attempt++ {
		if attempt > 0 {
			metrics.BackendRetries.WithLabelValues(op).Inc()
			c.logger.Debug("retrying backend read", zap.String("operation", op), zap.Int("attempt", attempt))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}
		if err = fn(); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
	}
	c.logger.Warn("backend read failed after retries", zap.String("operation", op), zap.Error(err))
	return err
}

func (c *HTTPClient) raw(ctx context.Context, op, method, path string, query url.Values, body any) (json.RawMessage, error) {
	data, err := c.do(ctx, op, method, path, query, body)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return json.RawMessage("null"), nil
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%s: invalid json response", op)
	}
	return json.RawMessage(data), nil
}

func (c *HTTPClient) doJSON(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	data, err := c.do(ctx, op, method, path, query, body)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: unmarshal response: %w", op, err)
	}
	return nil
}

func (c *HTTPClient) do(ctx context.Context, op, method, path string, query url.Values, body any) (data []byte, err error) {
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.BackendRequestsTotal.WithLabelValues(op, outcome).Inc()
		metrics.BackendRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s: marshal request: %w", op, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if err := c.setIdentity(ctx, req); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: do request: %w", op, err)
	}
	defer resp.Body.Close()

	data, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", op, err)
	}

	if resp.StatusCode >= 400 {
		apiErr := newAPIError(op, resp.StatusCode, data)
		c.logger.Warn("backend error status",
			zap.String("operation", op),
			zap.Int("status", resp.StatusCode),
			zap.String("detail", apiErr.Detail),
		)
		return nil, apiErr
	}
	return data, nil
}

func (c *HTTPClient) setIdentity(ctx context.Context, req *http.Request) error {
	identity := repository.Identity{CompanyNumber: repository.DefaultCompanyNumber}
	if c.identity != nil {
		loaded, err := c.identity.Load(ctx)
		if err != nil {
			return fmt.Errorf("load identity: %w", err)
		}
		identity = loaded
	}
	req.Header.Set(HeaderCompanyNumber, identity.CompanyNumber)
	if identity.UserID != "" {
		req.Header.Set(HeaderUserID, identity.UserID)
	}
	return nil
}

// APIError es una respuesta >= 400 del backend.
type APIError struct {
	Operation  string
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: backend status %d: %s", e.Operation, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s: backend status %d", e.Operation, e.StatusCode)
}

func newAPIError(op string, status int, body []byte) *APIError {
	apiErr := &APIError{Operation: op, StatusCode: status}
	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		var detail string
		if len(payload.Detail) > 0 && json.Unmarshal(payload.Detail, &detail) == nil && detail != "" {
			apiErr.Detail = detail
		} else if len(payload.Detail) > 0 && string(payload.Detail) != "null" {
			apiErr.Detail = string(payload.Detail)
		} else {
			apiErr.Detail = payload.Message
		}
	}
	return apiErr
}

// GenericErrorMessage es el texto que ve el usuario cuando el backend no explica el fallo.
const GenericErrorMessage = "An error occurred while processing your request."

// UserMessage traduce un error a texto visible: detail o message del backend, si no el generico.
func UserMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && strings.TrimSpace(apiErr.Detail) != "" {
		return apiErr.Detail
	}
	return GenericErrorMessage
}
