package backend

import (
	"context"
	"encoding/json"
	"sync"

	"riskadvisor/internal/domain"
)

// MockClient permite tests sin backend real. Cada campo Fn es opcional; si
// falta, la llamada devuelve valores vacios. Calls registra el nombre de cada operacion.
type MockClient struct {
	mu    sync.Mutex
	Calls []string

	ProcessQueryFn    func(ctx context.Context, req domain.QueryRequest) (*domain.QueryResponse, error)
	HistoryFn         func(ctx context.Context, limit int) ([]domain.ChatHistory, error)
	ClearFn           func(ctx context.Context) error
	ExportFn          func(ctx context.Context) ([]byte, error)
	BookmarkFn        func(ctx context.Context, req domain.BookmarkRequest) error
	RemoveBookmarkFn  func(ctx context.Context, queryID string) error
	FeedbackFn        func(ctx context.Context, req domain.FeedbackRequest) error
	AgentStatusFn     func(ctx context.Context) (*domain.AgentStatusEnvelope, error)
	SearchDocumentsFn func(ctx context.Context, req domain.DocumentSearchRequest) (*domain.DocumentSearchEnvelope, error)
	CollectionsFn     func(ctx context.Context) (*domain.CollectionsEnvelope, error)
	SuggestionsFn     func(ctx context.Context, q string, limit int) ([]string, error)
	AnalyticsFn       func(ctx context.Context, timeframe string) (json.RawMessage, error)
	VectorizeFn       func(ctx context.Context, filePath, collection string, metadata map[string]any) (json.RawMessage, error)
	DeleteDocumentFn  func(ctx context.Context, docID, collection string) error
	RawResponse       json.RawMessage
	RawErr            error
}

func (m *MockClient) record(op string) {
	m.mu.Lock()
	m.Calls = append(m.Calls, op)
	m.mu.Unlock()
}

// CallCount cuenta cuantas veces se invoco op.
func (m *MockClient) CallCount(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Calls {
		if c == op {
			n++
		}
	}
	return n
}

func (m *MockClient) ProcessQuery(ctx context.Context, req domain.QueryRequest) (*domain.QueryResponse, error) {
	m.record("process_query")
	if m.ProcessQueryFn != nil {
		return m.ProcessQueryFn(ctx, req)
	}
	return &domain.QueryResponse{Question: req.Question}, nil
}

func (m *MockClient) History(ctx context.Context, limit int) ([]domain.ChatHistory, error) {
	m.record("history")
	if m.HistoryFn != nil {
		return m.HistoryFn(ctx, limit)
	}
	return []domain.ChatHistory{}, nil
}

func (m *MockClient) ClearConversation(ctx context.Context) error {
	m.record("clear_conversation")
	if m.ClearFn != nil {
		return m.ClearFn(ctx)
	}
	return nil
}

func (m *MockClient) ExportConversation(ctx context.Context) ([]byte, error) {
	m.record("export_conversation")
	if m.ExportFn != nil {
		return m.ExportFn(ctx)
	}
	return nil, nil
}

func (m *MockClient) Schema(ctx context.Context) (json.RawMessage, error) {
	m.record("schema")
	return m.RawResponse, m.RawErr
}

func (m *MockClient) Suggestions(ctx context.Context, q string, limit int) ([]string, error) {
	m.record("suggestions")
	if m.SuggestionsFn != nil {
		return m.SuggestionsFn(ctx, q, limit)
	}
	return nil, nil
}

func (m *MockClient) Bookmark(ctx context.Context, req domain.BookmarkRequest) error {
	m.record("bookmark")
	if m.BookmarkFn != nil {
		return m.BookmarkFn(ctx, req)
	}
	return nil
}

func (m *MockClient) RemoveBookmark(ctx context.Context, queryID string) error {
	m.record("remove_bookmark")
	if m.RemoveBookmarkFn != nil {
		return m.RemoveBookmarkFn(ctx, queryID)
	}
	return nil
}

func (m *MockClient) Bookmarks(ctx context.Context) (json.RawMessage, error) {
	m.record("bookmarks")
	return m.RawResponse, m.RawErr
}

func (m *MockClient) Stats(ctx context.Context) (json.RawMessage, error) {
	m.record("stats")
	return m.RawResponse, m.RawErr
}

func (m *MockClient) Feedback(ctx context.Context, req domain.FeedbackRequest) error {
	m.record("feedback")
	if m.FeedbackFn != nil {
		return m.FeedbackFn(ctx, req)
	}
	return nil
}

func (m *MockClient) Insights(ctx context.Context) (json.RawMessage, error) {
	m.record("insights")
	return m.RawResponse, m.RawErr
}

func (m *MockClient) QueryAnalytics(ctx context.Context, timeframe string) (json.RawMessage, error) {
	m.record("query_analytics")
	if m.AnalyticsFn != nil {
		return m.AnalyticsFn(ctx, timeframe)
	}
	return m.RawResponse, m.RawErr
}

func (m *MockClient) AgentStatus(ctx context.Context) (*domain.AgentStatusEnvelope, error) {
	m.record("agent_status")
	if m.AgentStatusFn != nil {
		return m.AgentStatusFn(ctx)
	}
	return &domain.AgentStatusEnvelope{Success: true}, nil
}

func (m *MockClient) SearchDocuments(ctx context.Context, req domain.DocumentSearchRequest) (*domain.DocumentSearchEnvelope, error) {
	m.record("search_documents")
	if m.SearchDocumentsFn != nil {
		return m.SearchDocumentsFn(ctx, req)
	}
	return &domain.DocumentSearchEnvelope{}, nil
}

func (m *MockClient) VectorizeDocument(ctx context.Context, filePath, collection string, metadata map[string]any) (json.RawMessage, error) {
	m.record("vectorize_document")
	if m.VectorizeFn != nil {
		return m.VectorizeFn(ctx, filePath, collection, metadata)
	}
	return m.RawResponse, m.RawErr
}

func (m *MockClient) Collections(ctx context.Context) (*domain.CollectionsEnvelope, error) {
	m.record("collections")
	if m.CollectionsFn != nil {
		return m.CollectionsFn(ctx)
	}
	return &domain.CollectionsEnvelope{}, nil
}

func (m *MockClient) DeleteDocument(ctx context.Context, docID, collection string) error {
	m.record("delete_document")
	if m.DeleteDocumentFn != nil {
		return m.DeleteDocumentFn(ctx, docID, collection)
	}
	return m.RawErr
}

var _ Client = (*MockClient)(nil)
var _ Client = (*HTTPClient)(nil)
