package service

import (
	"fmt"
	"testing"

	"riskadvisor/internal/domain"
)

func sampleHistory(n int) []domain.QueryHistoryEntry {
	out := make([]domain.QueryHistoryEntry, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.QueryHistoryEntry{ID: fmt.Sprintf("h%d", i), Query: fmt.Sprintf("query %d", i)})
	}
	return out
}

func TestFilterHistory_LimitsToNewestTwenty(t *testing.T) {
	history := sampleHistory(25)
	history[22].ResponseType = domain.ResponseTypeAgentic

	view := FilterHistory(history, TabAll, "")
	if len(view.Entries) != 20 || view.RecentCount != 20 {
		t.Fatalf("expected 20 entries, got %d", len(view.Entries))
	}
	if view.Entries[0].ID != "h0" {
		t.Fatalf("expected newest first, got %s", view.Entries[0].ID)
	}
	if view.AgentCount != 1 {
		t.Fatalf("expected agent count over full history, got %d", view.AgentCount)
	}
}

func TestFilterHistory_TabsAndSearch(t *testing.T) {
	history := sampleHistory(4)
	history[1].IsBookmarked = true
	history[2].ResponseType = domain.ResponseTypeAgentic
	history[3].Query = "Properties in FLOOD zones"

	if v := FilterHistory(history, TabBookmarked, ""); len(v.Entries) != 1 || v.Entries[0].ID != "h1" || v.BookmarkedCount != 1 {
		t.Fatalf("unexpected bookmarked view %+v", v)
	}
	if v := FilterHistory(history, TabAgents, ""); len(v.Entries) != 1 || v.Entries[0].ID != "h2" {
		t.Fatalf("unexpected agents view %+v", v)
	}
	if v := FilterHistory(history, TabAll, "flood"); len(v.Entries) != 1 || v.Entries[0].ID != "h3" {
		t.Fatalf("unexpected search view %+v", v)
	}
	if v := FilterHistory(history, TabSuggestions, ""); len(v.Suggestions) != 10 || len(v.Entries) != 0 {
		t.Fatalf("unexpected suggestions view %+v", v)
	}
}

func TestFilterHistory_EmptyMessages(t *testing.T) {
	if v := FilterHistory(nil, TabBookmarked, "x"); v.EmptyMessage != "No bookmarked queries yet" {
		t.Fatalf("unexpected message %q", v.EmptyMessage)
	}
	if v := FilterHistory(sampleHistory(2), TabAll, "zzz"); v.EmptyMessage != "No queries match your search" {
		t.Fatalf("unexpected message %q", v.EmptyMessage)
	}
	if v := FilterHistory(nil, TabAll, ""); v.EmptyMessage != "No queries found" {
		t.Fatalf("unexpected message %q", v.EmptyMessage)
	}
	if ParseHistoryTab("Bookmarked") != TabBookmarked || ParseHistoryTab("bogus") != TabAll {
		t.Fatalf("unexpected tab parsing")
	}
}
