package domain

import "time"

// ChatHistory es un registro de GET /history.
type ChatHistory struct {
	ID              string   `json:"id"`
	Query           string   `json:"query"`
	Summary         string   `json:"summary,omitempty"`
	Timestamp       string   `json:"timestamp"`
	ResponseType    string   `json:"response_type"`
	SQLQuery        string   `json:"sql_query,omitempty"`
	ConfidenceScore *float64 `json:"confidence_score,omitempty"`
	ProcessingTime  *float64 `json:"processing_time,omitempty"`
	IsBookmarked    bool     `json:"is_bookmarked"`
	AgentsUsed      []string `json:"agents_used,omitempty"`
}

// QueryHistoryEntry es una pregunta pasada que se muestra en el panel lateral.
type QueryHistoryEntry struct {
	ID              string    `json:"id"`
	Query           string    `json:"query"`
	Timestamp       time.Time `json:"timestamp"`
	IsBookmarked    bool      `json:"is_bookmarked"`
	SQLQuery        string    `json:"sql_query,omitempty"`
	ResponseType    string    `json:"response_type,omitempty"`
	AgentsUsed      []string  `json:"agents_used,omitempty"`
	Summary         string    `json:"summary,omitempty"`
	ConfidenceScore *float64  `json:"confidence_score,omitempty"`
	ProcessingTime  *float64  `json:"processing_time,omitempty"`
}

// BookmarkRequest es el cuerpo de POST /bookmarks.
type BookmarkRequest struct {
	QueryID string `json:"query_id"`
	Title   string `json:"title,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

// ParseTimestamp acepta RFC3339 con o sin zona; devuelve zero time si no puede.
func ParseTimestamp(raw string) time.Time {
	layouts := []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
