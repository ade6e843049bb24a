package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"riskadvisor/internal/domain"
	"riskadvisor/internal/repository"
)

type staticIdentity struct {
	identity repository.Identity
	err      error
}

func (s staticIdentity) Load(context.Context) (repository.Identity, error) {
	return s.identity, s.err
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewHTTPClient(srv.URL+"/api", staticIdentity{identity: repository.Identity{CompanyNumber: "CN102269887", UserID: "1166505"}}, time.Second, 2, nil)
	c.retryDelay = 0
	return c
}

func TestProcessQuery_SendsIdentityHeadersAndBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/query" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get(HeaderCompanyNumber) != "CN102269887" || r.Header.Get(HeaderUserID) != "1166505" {
			t.Errorf("missing identity headers: %v", r.Header)
		}
		var req domain.QueryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if req.Question != "What is the total insured value by state?" {
			t.Errorf("unexpected question %q", req.Question)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"query_id":"q1","explanation":"done","response_type":"sql_convertible","data":[{"state":"TX","tiv":10}]}`))
	})

	resp, err := client.ProcessQuery(context.Background(), domain.QueryRequest{Question: "What is the total insured value by state?"})
	if err != nil {
		t.Fatalf("process query: %v", err)
	}
	if resp.QueryID != "q1" || resp.Data.Len() != 1 || resp.Data.Columns[0] != "state" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestProcessQuery_IsNotRetried(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"agents unavailable"}`))
	})

	_, err := client.ProcessQuery(context.Background(), domain.QueryRequest{Question: "hi"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusInternalServerError || apiErr.Detail != "agents unavailable" {
		t.Fatalf("unexpected api error %+v", apiErr)
	}
	if UserMessage(err) != "agents unavailable" {
		t.Fatalf("expected backend detail as user message, got %q", UserMessage(err))
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected a single POST, got %d", calls)
	}
}

func TestHistory_RetriesThenSucceeds(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("limit") != "50" {
			t.Errorf("expected limit=50, got %q", r.URL.RawQuery)
		}
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[{"id":"h1","query":"q","timestamp":"2025-01-01T00:00:00Z","response_type":"sql_convertible"}]`))
	})

	history, err := client.History(context.Background(), 50)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 || history[0].ID != "h1" {
		t.Fatalf("unexpected history %+v", history)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestHistory_EmptyListAfterFinalFailure(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"message":"down"}`))
	})

	history, err := client.History(context.Background(), 10)
	if err == nil {
		t.Fatalf("expected error after retries")
	}
	if history == nil || len(history) != 0 {
		t.Fatalf("expected empty non-nil list, got %v", history)
	}
	if calls != 3 {
		t.Fatalf("expected 1 call plus 2 retries, got %d", calls)
	}
	if UserMessage(err) != "down" {
		t.Fatalf("expected message field as detail, got %q", UserMessage(err))
	}
}

func TestSearchDocuments_UsesQueryParams(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.Method != http.MethodPost || q.Get("query") != "flood zones" || q.Get("collection_name") != "general" || q.Get("max_results") != "5" {
			t.Errorf("unexpected search request %s %s", r.Method, r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"success":true,"data":{"results":[{"content":"FEMA zone A","source":"fema.pdf","similarity_score":0.91}]}}`))
	})

	env, err := client.SearchDocuments(context.Background(), domain.DocumentSearchRequest{Query: "flood zones"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if !env.Success || env.Data == nil || len(env.Data.Results) != 1 {
		t.Fatalf("unexpected envelope %+v", env)
	}
}

func TestBookmarkPaths(t *testing.T) {
	var seen []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Method+" "+r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})
	ctx := context.Background()
	if err := client.Bookmark(ctx, domain.BookmarkRequest{QueryID: "q1"}); err != nil {
		t.Fatalf("bookmark: %v", err)
	}
	if err := client.RemoveBookmark(ctx, "q1"); err != nil {
		t.Fatalf("remove bookmark: %v", err)
	}
	if len(seen) != 2 || seen[0] != "POST /api/bookmarks" || seen[1] != "DELETE /api/bookmarks/q1" {
		t.Fatalf("unexpected requests %v", seen)
	}
}

func TestIdentityErrorAbortsRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("request should not be sent")
	}))
	defer srv.Close()
	client := NewHTTPClient(srv.URL, staticIdentity{err: errors.New("disk gone")}, time.Second, 0, nil)

	if err := client.ClearConversation(context.Background()); err == nil {
		t.Fatalf("expected identity error")
	}
}

func TestUserMessage_Generic(t *testing.T) {
	if got := UserMessage(errors.New("dial tcp: refused")); got != GenericErrorMessage {
		t.Fatalf("expected generic message, got %q", got)
	}
}

func TestRawReads_HitExpectedPaths(t *testing.T) {
	var paths []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path+"?"+r.URL.RawQuery)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	ctx := context.Background()

	for name, call := range map[string]func() (json.RawMessage, error){
		"schema":    func() (json.RawMessage, error) { return client.Schema(ctx) },
		"stats":     func() (json.RawMessage, error) { return client.Stats(ctx) },
		"bookmarks": func() (json.RawMessage, error) { return client.Bookmarks(ctx) },
		"analytics": func() (json.RawMessage, error) { return client.QueryAnalytics(ctx, "") },
	} {
		out, err := call()
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if string(out) != `{"ok":true}` {
			t.Fatalf("%s: unexpected body %s", name, out)
		}
	}

	want := map[string]bool{
		"GET /api/schema?":                        true,
		"GET /api/stats?":                         true,
		"GET /api/bookmarks?":                     true,
		"GET /api/analytics/queries?timeframe=7d": true,
	}
	if len(paths) != len(want) {
		t.Fatalf("expected %d requests, got %v", len(want), paths)
	}
	for _, p := range paths {
		if !want[p] {
			t.Fatalf("unexpected request %q", p)
		}
	}
}

func TestRawRead_RejectsInvalidJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})
	if _, err := client.Stats(context.Background()); err == nil {
		t.Fatalf("expected invalid json error")
	}
}

func TestVectorizeDocument_SendsQueryParams(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/documents/vectorize" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("file_path") != "/data/codes.pdf" || q.Get("collection_name") != domain.DefaultCollection || q.Get("metadata") != `{"source":"upload"}` {
			t.Errorf("unexpected query %v", q)
		}
		_, _ = w.Write([]byte(`{"success":true}`))
	})

	out, err := client.VectorizeDocument(context.Background(), "/data/codes.pdf", "", map[string]any{"source": "upload"})
	if err != nil {
		t.Fatalf("vectorize: %v", err)
	}
	if string(out) != `{"success":true}` {
		t.Fatalf("unexpected body %s", out)
	}
}

func TestDeleteDocument_EscapesIDAndCollection(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.EscapedPath() != "/api/documents/doc%2F1" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.EscapedPath())
		}
		if r.URL.Query().Get("collection_name") != "claims" {
			t.Errorf("unexpected collection %q", r.URL.Query().Get("collection_name"))
		}
		w.WriteHeader(http.StatusOK)
	})

	if err := client.DeleteDocument(context.Background(), "doc/1", "claims"); err != nil {
		t.Fatalf("delete: %v", err)
	}
}
