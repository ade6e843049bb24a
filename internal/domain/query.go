package domain

import (
	"encoding/json"
	"sort"
)

// QueryRequest es el cuerpo de POST /query.
type QueryRequest struct {
	Question          string          `json:"question"`
	Context           *RequestContext `json:"context,omitempty"`
	UseAgents         bool            `json:"use_agents"`
	RequireSQL        bool            `json:"require_sql"`
	VisualizationType string          `json:"visualization_type,omitempty"`
}

// RequestContext es el contexto liviano que acompaña cada pregunta.
type RequestContext struct {
	RecentQueries   []string        `json:"recent_queries"`
	UserPreferences UserPreferences `json:"user_preferences"`
	SessionContext  SessionContext  `json:"session_context"`
}

type UserPreferences struct {
	ShowConfidenceScores bool     `json:"show_confidence_scores"`
	EnableRealTimeSearch bool     `json:"enable_real_time_search"`
	PreferredChartTypes  []string `json:"preferred_chart_types"`
	Language             string   `json:"language"`
}

type SessionContext struct {
	ShowConfidenceScores bool   `json:"show_confidence_scores"`
	EnableRealTimeSearch bool   `json:"enable_real_time_search"`
	Timestamp            string `json:"timestamp"`
}

// QueryResponse es la respuesta estructurada del backend a una pregunta.
type QueryResponse struct {
	QueryID          string                   `json:"query_id"`
	Question         string                   `json:"question"`
	Explanation      string                   `json:"explanation"`
	Summary          string                   `json:"summary"`
	Timestamp        string                   `json:"timestamp"`
	ResponseType     string                   `json:"response_type"`
	ConfidenceScore  *float64                 `json:"confidence_score,omitempty"`
	ProcessingTimeMS *float64                 `json:"processing_time_ms,omitempty"`
	Data             *Dataset                 `json:"data,omitempty"`
	SQLQuery         string                   `json:"sql_query,omitempty"`
	AgentResponses   map[string]AgentResponse `json:"agent_responses,omitempty"`
	Visualization    json.RawMessage          `json:"visualization,omitempty"`
	Suggestions      []string                 `json:"suggestions,omitempty"`
	Metadata         map[string]any           `json:"metadata,omitempty"`
}

// AgentsUsed devuelve los agentes que participaron: primero metadata.agents_used,
// despues las claves de agent_responses.
func (r QueryResponse) AgentsUsed() []string {
	if raw, ok := r.Metadata["agents_used"].([]any); ok {
		out := make([]string, 0, len(raw))
		for _, v := range raw {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	if len(r.AgentResponses) == 0 {
		return []string{}
	}
	out := make([]string, 0, len(r.AgentResponses))
	for name := range r.AgentResponses {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// FeedbackRequest es el cuerpo de POST /feedback.
type FeedbackRequest struct {
	QueryID  string `json:"query_id"`
	Rating   int    `json:"rating"`
	Feedback string `json:"feedback,omitempty"`
	Helpful  bool   `json:"helpful"`
}
