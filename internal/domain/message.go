package domain

import (
	"encoding/json"
	"time"
)

// MessageType clasifica como se renderiza un turno del chat.
type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeData  MessageType = "data"
	MessageTypeChart MessageType = "chart"
	MessageTypeError MessageType = "error"
)

const (
	ResponseTypeError           = "error"
	ResponseTypeWelcome         = "welcome"
	ResponseTypeAgentic         = "agentic_response"
	ResponseTypeSQLConvertible  = "sql_convertible"
	ResponseTypeProcessingError = "processing_error"
)

// Message es un turno de la conversacion tal como lo ve el panel.
type Message struct {
	ID               string                   `json:"id"`
	Content          string                   `json:"content"`
	IsUser           bool                     `json:"is_user"`
	Timestamp        time.Time                `json:"timestamp"`
	Type             MessageType              `json:"type"`
	Confidence       *float64                 `json:"confidence,omitempty"`
	ResponseType     string                   `json:"response_type,omitempty"`
	Data             *Dataset                 `json:"data,omitempty"`
	SQLQuery         string                   `json:"sql_query,omitempty"`
	AgentResponses   map[string]AgentResponse `json:"agent_responses,omitempty"`
	Visualization    json.RawMessage          `json:"visualization,omitempty"`
	Suggestions      []string                 `json:"suggestions,omitempty"`
	Metadata         map[string]any           `json:"metadata,omitempty"`
	ProcessingTimeMS *float64                 `json:"processing_time_ms,omitempty"`
	RelatedMessageID string                   `json:"related_message_id,omitempty"`
	IsBookmarked     bool                     `json:"is_bookmarked"`
}

// HasData indica si el mensaje trae filas para tabla o grafico.
func (m Message) HasData() bool {
	return m.Data != nil && len(m.Data.Rows) > 0
}

// HasVisualization replica la regla del panel: solo cuenta si hay visualizaciones de agentes.
func (m Message) HasVisualization() bool {
	return len(m.AgentVisualizations()) > 0
}

// AgentVisualizations extrae las figuras Plotly que envian los agentes, si existen.
func (m Message) AgentVisualizations() []PlotlyVisualization {
	if len(m.Visualization) == 0 {
		return nil
	}
	var envelope struct {
		Visualizations []PlotlyVisualization `json:"visualizations"`
	}
	if err := json.Unmarshal(m.Visualization, &envelope); err != nil {
		return nil
	}
	return envelope.Visualizations
}

// AgentResponse es la sub respuesta etiquetada de un agente del backend.
type AgentResponse struct {
	ResponseID      string          `json:"response_id"`
	AgentName       string          `json:"agent_name"`
	Success         bool            `json:"success"`
	Data            json.RawMessage `json:"data,omitempty"`
	Error           string          `json:"error,omitempty"`
	Metadata        map[string]any  `json:"metadata,omitempty"`
	ConfidenceScore float64         `json:"confidence_score"`
	Sources         []string        `json:"sources,omitempty"`
	Timestamp       string          `json:"timestamp,omitempty"`
}

// VisualizationHint lee chart_type, ejes y titulo del campo visualization, si los trae.
func (m Message) VisualizationHint() *VisualizationConfig {
	if len(m.Visualization) == 0 {
		return nil
	}
	var hint VisualizationConfig
	if err := json.Unmarshal(m.Visualization, &hint); err != nil {
		return nil
	}
	return &hint
}
