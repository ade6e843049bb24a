package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"riskadvisor/internal/backend"
	"riskadvisor/internal/domain"
)

func envelopeWith(results ...domain.DocumentSearchResult) *domain.DocumentSearchEnvelope {
	env := &domain.DocumentSearchEnvelope{Success: true}
	env.Data = &struct {
		Results []domain.DocumentSearchResult `json:"results"`
	}{Results: results}
	return env
}

func TestDocumentSearch_DefaultsAndResults(t *testing.T) {
	var got domain.DocumentSearchRequest
	mock := &backend.MockClient{
		SearchDocumentsFn: func(_ context.Context, req domain.DocumentSearchRequest) (*domain.DocumentSearchEnvelope, error) {
			got = req
			return envelopeWith(domain.DocumentSearchResult{Content: "NFPA 13", Source: "codes.pdf"}), nil
		},
	}
	svc := NewDocumentSearchService(mock, nil)

	results, err := svc.Search(context.Background(), " sprinkler rules ", "")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if got.Collection != domain.DefaultCollection || got.MaxResults != 5 || got.Query != "sprinkler rules" {
		t.Fatalf("unexpected request %+v", got)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	state := svc.State.Get()
	if !state.HasSearched || state.Searching || len(state.Results) != 1 {
		t.Fatalf("unexpected state %+v", state)
	}

	svc.Clear()
	if s := svc.State.Get(); s.HasSearched || len(s.Results) != 0 {
		t.Fatalf("expected cleared state, got %+v", s)
	}
}

func TestDocumentSearch_FailureAndUnsuccessfulEnvelope(t *testing.T) {
	mock := &backend.MockClient{
		SearchDocumentsFn: func(context.Context, domain.DocumentSearchRequest) (*domain.DocumentSearchEnvelope, error) {
			return nil, errors.New("vector store down")
		},
	}
	svc := NewDocumentSearchService(mock, nil)
	results, err := svc.Search(context.Background(), "flood", "")
	if err == nil || len(results) != 0 {
		t.Fatalf("expected error with empty results, got %v %v", results, err)
	}

	mock.SearchDocumentsFn = func(context.Context, domain.DocumentSearchRequest) (*domain.DocumentSearchEnvelope, error) {
		return &domain.DocumentSearchEnvelope{Success: false}, nil
	}
	results, err = svc.Search(context.Background(), "flood", "")
	if err != nil || len(results) != 0 {
		t.Fatalf("expected empty results without error, got %v %v", results, err)
	}
}

func TestDocumentLiveSearch_IgnoresShortQueries(t *testing.T) {
	mock := &backend.MockClient{}
	svc := NewDocumentSearchService(mock, nil)
	if _, ran, _ := svc.LiveSearch(context.Background(), "ab", ""); ran {
		t.Fatalf("expected short query ignored")
	}
	if mock.CallCount("search_documents") != 0 {
		t.Fatalf("expected no backend call")
	}
	if _, ran, _ := svc.LiveSearch(context.Background(), "abc", ""); !ran {
		t.Fatalf("expected search for 3 characters")
	}
}

func TestDocumentCollections_Cached(t *testing.T) {
	mock := &backend.MockClient{
		CollectionsFn: func(context.Context) (*domain.CollectionsEnvelope, error) {
			return &domain.CollectionsEnvelope{Success: true, Collections: map[string]domain.CollectionInfo{"general": {DocumentCount: 3}}}, nil
		},
	}
	svc := NewDocumentSearchService(mock, nil)
	for i := 0; i < 2; i++ {
		got, err := svc.LoadCollections(context.Background(), false)
		if err != nil || got["general"].DocumentCount != 3 {
			t.Fatalf("unexpected collections %v err=%v", got, err)
		}
	}
	if mock.CallCount("collections") != 1 {
		t.Fatalf("expected one backend call, got %d", mock.CallCount("collections"))
	}
}

func TestPreview(t *testing.T) {
	long := strings.Repeat("a", 200)
	if got := Preview(long); len(got) != 153 || !strings.HasSuffix(got, "...") {
		t.Fatalf("unexpected preview length %d", len(got))
	}
	if Preview("short") != "short" {
		t.Fatalf("short content must not be truncated")
	}
}

func TestDocumentVectorize_DefaultsAndReloadsCollections(t *testing.T) {
	var gotPath, gotCollection string
	mock := &backend.MockClient{
		VectorizeFn: func(_ context.Context, filePath, collection string, _ map[string]any) (json.RawMessage, error) {
			gotPath, gotCollection = filePath, collection
			return json.RawMessage(`{"success":true,"chunks":4}`), nil
		},
		CollectionsFn: func(context.Context) (*domain.CollectionsEnvelope, error) {
			return &domain.CollectionsEnvelope{Success: true, Collections: map[string]domain.CollectionInfo{"general": {DocumentCount: 8}}}, nil
		},
	}
	svc := NewDocumentSearchService(mock, nil)

	if _, err := svc.Vectorize(context.Background(), "  ", "", nil); !errors.Is(err, ErrEmptyFilePath) {
		t.Fatalf("expected ErrEmptyFilePath, got %v", err)
	}
	out, err := svc.Vectorize(context.Background(), " /data/codes.pdf ", "", nil)
	if err != nil {
		t.Fatalf("vectorize: %v", err)
	}
	if gotPath != "/data/codes.pdf" || gotCollection != domain.DefaultCollection {
		t.Fatalf("unexpected args %q %q", gotPath, gotCollection)
	}
	if string(out) != `{"success":true,"chunks":4}` {
		t.Fatalf("unexpected response %s", out)
	}
	if svc.Collections.Get()["general"].DocumentCount != 8 {
		t.Fatalf("expected collections reloaded, got %+v", svc.Collections.Get())
	}
}

func TestDocumentDelete_RemovesVisibleResult(t *testing.T) {
	mock := &backend.MockClient{
		SearchDocumentsFn: func(context.Context, domain.DocumentSearchRequest) (*domain.DocumentSearchEnvelope, error) {
			return envelopeWith(
				domain.DocumentSearchResult{Content: "a", Metadata: map[string]any{"document_id": "doc-1"}},
				domain.DocumentSearchResult{Content: "b", Metadata: map[string]any{"document_id": "doc-2"}},
			), nil
		},
	}
	svc := NewDocumentSearchService(mock, nil)
	if _, err := svc.Search(context.Background(), "flood zones", ""); err != nil {
		t.Fatalf("search: %v", err)
	}

	if err := svc.Delete(context.Background(), "", ""); !errors.Is(err, ErrEmptyDocumentID) {
		t.Fatalf("expected ErrEmptyDocumentID, got %v", err)
	}
	if err := svc.Delete(context.Background(), "doc-1", ""); err != nil {
		t.Fatalf("delete: %v", err)
	}
	results := svc.State.Get().Results
	if len(results) != 1 || results[0].DocumentID() != "doc-2" {
		t.Fatalf("expected only doc-2 left, got %+v", results)
	}

	mock.DeleteDocumentFn = func(context.Context, string, string) error { return errors.New("boom") }
	if err := svc.Delete(context.Background(), "doc-2", ""); err == nil {
		t.Fatalf("expected backend error")
	}
	if len(svc.State.Get().Results) != 1 {
		t.Fatalf("expected results unchanged after failure")
	}
}
