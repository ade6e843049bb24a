package present

import (
	"encoding/json"
	"strings"
	"testing"

	"riskadvisor/internal/domain"
)

func ptr(v float64) *float64 { return &v }

func TestFormatSQL(t *testing.T) {
	got := FormatSQL("select a,  b from t\n where x = 1 and y = 2 order by a")
	want := "select a,\n    b\nfrom t\nwhere x = 1\n  and y = 2\norder by a"
	if got != want {
		t.Fatalf("expected:\n%s\ngot:\n%s", want, got)
	}
	if FormatSQL("   ") != "" {
		t.Fatalf("expected empty output for blank sql")
	}
}

func TestFormatSQL_JoinKeepsTwoWordKeyword(t *testing.T) {
	got := FormatSQL("SELECT * FROM a LEFT JOIN b ON a.id = b.id")
	if !strings.Contains(got, "\nLEFT JOIN b ON a.id = b.id") {
		t.Fatalf("unexpected join layout:\n%s", got)
	}
}

func TestHighlightSQL_KeepsText(t *testing.T) {
	out := HighlightSQL("SELECT 1")
	if !strings.Contains(out, "SELECT") {
		t.Fatalf("expected sql text in output, got %q", out)
	}
}

func TestConfidenceBands(t *testing.T) {
	cases := []struct {
		score *float64
		text  string
		color string
	}{
		{nil, "Unknown", "#666666"},
		{ptr(0), "Unknown", "#666666"},
		{ptr(0.95), "Very High", "#4caf50"},
		{ptr(0.8), "High", "#4caf50"},
		{ptr(0.65), "Medium", "#ff9800"},
		{ptr(0.45), "Low", "#f44336"},
		{ptr(0.1), "Very Low", "#f44336"},
	}
	for _, tc := range cases {
		if got := ConfidenceText(tc.score); got != tc.text {
			t.Fatalf("expected text %q, got %q", tc.text, got)
		}
		if got := ConfidenceColor(tc.score); got != tc.color {
			t.Fatalf("expected color %q, got %q", tc.color, got)
		}
	}
	if ConfidencePercent(0.873) != "87%" {
		t.Fatalf("unexpected percent %q", ConfidencePercent(0.873))
	}
}

func TestFormatProcessingTime(t *testing.T) {
	if FormatProcessingTime(nil) != "" || FormatProcessingTime(ptr(0)) != "" {
		t.Fatalf("expected empty for missing time")
	}
	if got := FormatProcessingTime(ptr(850)); got != "850ms" {
		t.Fatalf("expected 850ms, got %q", got)
	}
	if got := FormatProcessingTime(ptr(2345)); got != "2.3s" {
		t.Fatalf("expected 2.3s, got %q", got)
	}
}

func TestAgentHelpers(t *testing.T) {
	if got := FormatAgentName("risk_advisor"); got != "Risk Advisor" {
		t.Fatalf("expected Risk Advisor, got %q", got)
	}
	if AgentIcon("Risk Advisor") != AgentIcon("risk_advisor") {
		t.Fatalf("expected same icon for key and display name")
	}
	if AgentIcon("unknown") != "🤖" {
		t.Fatalf("expected fallback icon")
	}
	if got := AgentSlug("Document Search Agent"); got != "agent-document-search-agent" {
		t.Fatalf("unexpected slug %q", got)
	}

	msg := domain.Message{AgentResponses: map[string]domain.AgentResponse{
		"web":       {Success: false},
		"knowledge": {Success: true},
		"query":     {Success: true},
	}}
	got := SuccessfulAgents(msg)
	if len(got) != 2 || got[0] != "knowledge" || got[1] != "query" {
		t.Fatalf("unexpected successful agents %v", got)
	}
	if AgentCount(msg) != 3 {
		t.Fatalf("expected 3 agents")
	}
	meta := domain.Message{Metadata: map[string]any{"agents_used": []any{"a", "b"}}}
	if AgentCount(meta) != 2 {
		t.Fatalf("expected agents_used fallback")
	}
}

func TestAgentContribution(t *testing.T) {
	risk := domain.AgentResponse{AgentName: "risk_advisor", Data: json.RawMessage(`{"risk_score":72,"recommendations":["a","b"]}`)}
	if got := AgentContribution(risk); got != "Risk Score: 72/100. 2 recommendations provided." {
		t.Fatalf("unexpected risk contribution %q", got)
	}
	search := domain.AgentResponse{AgentName: "search", Data: json.RawMessage(`{}`)}
	if got := AgentContribution(search); got != "Document search completed." {
		t.Fatalf("unexpected search contribution %q", got)
	}
	if got := AgentContribution(domain.AgentResponse{AgentName: "query"}); got != "No specific contribution data available." {
		t.Fatalf("unexpected empty contribution %q", got)
	}
}

func tableRows(n int) *domain.Dataset {
	rows := make([]domain.Row, 0, n)
	for i := 0; i < n; i++ {
		name := "site"
		if i%2 == 0 {
			name = "plant"
		}
		rows = append(rows, domain.Row{"name": name, "tiv": float64(n - i)})
	}
	return domain.NewDataset([]string{"name", "tiv"}, rows)
}

func TestDataTable_FilterSortPaginate(t *testing.T) {
	table := NewDataTable(tableRows(25))
	if table.PageCount() != 3 || len(table.Rows()) != 10 {
		t.Fatalf("expected 3 pages of 10, got %d pages and %d rows", table.PageCount(), len(table.Rows()))
	}
	table.SetPage(9)
	if table.Page() != 2 || len(table.Rows()) != 5 {
		t.Fatalf("expected clamped last page, got page %d with %d rows", table.Page(), len(table.Rows()))
	}

	table.Filter("PLANT")
	if table.Len() != 13 || table.Page() != 0 {
		t.Fatalf("expected 13 filtered rows on first page, got %d on %d", table.Len(), table.Page())
	}

	table.SortBy("tiv")
	if first, _ := domain.Float(table.Rows()[0]["tiv"]); first != 1 {
		t.Fatalf("expected ascending numeric sort, got %v", first)
	}
	table.SortBy("tiv")
	if first, _ := domain.Float(table.Rows()[0]["tiv"]); first != 25 {
		t.Fatalf("expected descending after second sort, got %v", first)
	}

	out := table.Render(40)
	if !strings.Contains(out, "tiv ↓") || !strings.Contains(out, "plant") {
		t.Fatalf("unexpected render:\n%s", out)
	}
}
