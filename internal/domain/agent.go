package domain

// AgentStatus es la foto de un agente del backend; el cliente nunca la modifica.
type AgentStatus struct {
	AgentID     string `json:"agent_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// AgentStatusEnvelope es la respuesta de GET /agents/status.
type AgentStatusEnvelope struct {
	Success bool                   `json:"success"`
	Agents  map[string]AgentStatus `json:"agents"`
}
