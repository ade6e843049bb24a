package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestMessage_VisualizationRequiresAgentFigures(t *testing.T) {
	msg := Message{Visualization: json.RawMessage(`{"chart_type":"bar"}`)}
	if msg.HasVisualization() {
		t.Fatalf("a bare chart hint is not an agent visualization")
	}
	msg.Visualization = json.RawMessage(`{"visualizations":[{"type":"bar","title":"TIV","plotly_json":"{}"}]}`)
	if !msg.HasVisualization() {
		t.Fatalf("expected agent visualization")
	}
	if got := msg.AgentVisualizations()[0].Title; got != "TIV" {
		t.Fatalf("unexpected title %q", got)
	}
}

func TestQueryResponse_AgentsUsed(t *testing.T) {
	resp := QueryResponse{Metadata: map[string]any{"agents_used": []any{"sql_agent", "risk_agent"}}}
	if got := resp.AgentsUsed(); len(got) != 2 || got[0] != "sql_agent" {
		t.Fatalf("expected metadata agents first, got %v", got)
	}

	resp = QueryResponse{AgentResponses: map[string]AgentResponse{"web_agent": {}, "doc_agent": {}}}
	if got := resp.AgentsUsed(); len(got) != 2 || got[0] != "doc_agent" || got[1] != "web_agent" {
		t.Fatalf("expected sorted agent response keys, got %v", got)
	}

	if got := (QueryResponse{}).AgentsUsed(); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", got)
	}
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)
	for _, raw := range []string{"2025-03-01T10:30:00Z", "2025-03-01T10:30:00", "2025-03-01 10:30:00"} {
		if got := ParseTimestamp(raw); !got.Equal(want) {
			t.Fatalf("ParseTimestamp(%q): expected %v, got %v", raw, want, got)
		}
	}
	if !ParseTimestamp("yesterday").IsZero() {
		t.Fatalf("expected zero time for garbage")
	}
}
