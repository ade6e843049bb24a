package service

import (
	"strings"

	"riskadvisor/internal/domain"
)

// HistoryTab es la pestaña activa del panel de historial.
type HistoryTab string

const (
	TabAll         HistoryTab = "all"
	TabBookmarked  HistoryTab = "bookmarked"
	TabAgents      HistoryTab = "agents"
	TabSuggestions HistoryTab = "suggestions"

	historyPanelLimit = 20
)

// HistorySuggestions son las preguntas de ejemplo de la pestaña de sugerencias.
var HistorySuggestions = []string{
	"What is the total insured value by state?",
	"Show me properties with high earthquake risk",
	"List all buildings built after 2000",
	"Properties in flood zones",
	"Average TIV by construction type",
	"Buildings without sprinkler systems",
	"Revenue distribution by business unit",
	"Properties with basement flood risk",
	"Construction quality analysis by region",
	"Show locations on map",
}

// ParseHistoryTab acepta el nombre de la pestaña; cualquier otro valor es all.
func ParseHistoryTab(raw string) HistoryTab {
	switch HistoryTab(strings.ToLower(strings.TrimSpace(raw))) {
	case TabBookmarked:
		return TabBookmarked
	case TabAgents:
		return TabAgents
	case TabSuggestions:
		return TabSuggestions
	}
	return TabAll
}

// HistoryView es lo que dibuja el panel para una pestaña y una busqueda.
type HistoryView struct {
	Tab             HistoryTab                 `json:"tab"`
	Entries         []domain.QueryHistoryEntry `json:"entries"`
	Suggestions     []string                   `json:"suggestions,omitempty"`
	RecentCount     int                        `json:"recent_count"`
	BookmarkedCount int                        `json:"bookmarked_count"`
	AgentCount      int                        `json:"agent_count"`
	EmptyMessage    string                     `json:"empty_message,omitempty"`
}

// FilterHistory aplica pestaña y busqueda sobre las 20 entradas mas nuevas.
// El conteo de agentes usa el historial completo.
func FilterHistory(history []domain.QueryHistoryEntry, tab HistoryTab, search string) HistoryView {
	view := HistoryView{Tab: tab}
	for _, h := range history {
		if h.ResponseType == domain.ResponseTypeAgentic {
			view.AgentCount++
		}
	}
	recent := history
	if len(recent) > historyPanelLimit {
		recent = recent[:historyPanelLimit]
	}
	view.RecentCount = len(recent)
	for _, h := range recent {
		if h.IsBookmarked {
			view.BookmarkedCount++
		}
	}

	if tab == TabSuggestions {
		view.Suggestions = append([]string(nil), HistorySuggestions...)
		view.Entries = []domain.QueryHistoryEntry{}
		return view
	}

	term := strings.ToLower(strings.TrimSpace(search))
	filtered := make([]domain.QueryHistoryEntry, 0, len(recent))
	for _, h := range recent {
		switch tab {
		case TabBookmarked:
			if !h.IsBookmarked {
				continue
			}
		case TabAgents:
			if h.ResponseType != domain.ResponseTypeAgentic {
				continue
			}
		}
		if term != "" && !strings.Contains(strings.ToLower(h.Query), term) {
			continue
		}
		filtered = append(filtered, h)
	}
	view.Entries = filtered
	if len(filtered) == 0 {
		view.EmptyMessage = emptyHistoryMessage(tab, term)
	}
	return view
}

func emptyHistoryMessage(tab HistoryTab, term string) string {
	if tab == TabBookmarked {
		return "No bookmarked queries yet"
	}
	if term != "" {
		return "No queries match your search"
	}
	return "No queries found"
}
