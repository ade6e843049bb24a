package backend

import (
	"context"
	"errors"
	"testing"
	"time"

	"riskadvisor/internal/domain"
)

func TestProcessBatch_PreservesInputOrder(t *testing.T) {
	mock := &MockClient{
		ProcessQueryFn: func(ctx context.Context, req domain.QueryRequest) (*domain.QueryResponse, error) {
			if req.Question == "first" {
				time.Sleep(20 * time.Millisecond)
			}
			return &domain.QueryResponse{QueryID: req.Question}, nil
		},
	}

	out, err := ProcessBatch(context.Background(), mock, []string{"first", "second", "third"}, 0)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	for i, want := range []string{"first", "second", "third"} {
		if out[i].QueryID != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, out[i].QueryID)
		}
	}
}

func TestProcessBatch_FirstErrorFails(t *testing.T) {
	mock := &MockClient{
		ProcessQueryFn: func(ctx context.Context, req domain.QueryRequest) (*domain.QueryResponse, error) {
			if req.Question == "bad" {
				return nil, errors.New("boom")
			}
			return &domain.QueryResponse{}, nil
		},
	}
	if _, err := ProcessBatch(context.Background(), mock, []string{"ok", "bad"}, 1); err == nil {
		t.Fatalf("expected batch error")
	}
}

func TestProcessQueryOrFallback(t *testing.T) {
	mock := &MockClient{
		ProcessQueryFn: func(ctx context.Context, req domain.QueryRequest) (*domain.QueryResponse, error) {
			return nil, errors.New("timeout")
		},
	}
	resp := ProcessQueryOrFallback(context.Background(), mock, domain.QueryRequest{Question: "why"}, nil)
	if resp.ResponseType != domain.ResponseTypeProcessingError || resp.Question != "why" || resp.QueryID == "" {
		t.Fatalf("unexpected fallback %+v", resp)
	}
	if mock.CallCount("process_query") != 1 {
		t.Fatalf("expected single attempt, got %d", mock.CallCount("process_query"))
	}
}
