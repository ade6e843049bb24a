package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"riskadvisor/internal/backend"
	"riskadvisor/internal/domain"
)

const DefaultAgentPollInterval = 30 * time.Second

var ErrAgentStatusUnavailable = errors.New("agent status unavailable")

// AgentService mantiene la foto del estado de los agentes. Cada refresh
// exitoso reemplaza el mapa completo.
type AgentService struct {
	client  backend.Client
	logger  *zap.Logger
	Status  *Store[map[string]domain.AgentStatus]
	Visible *Store[bool]
}

func NewAgentService(client backend.Client, showStatus bool, logger *zap.Logger) *AgentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AgentService{
		client:  client,
		logger:  logger,
		Status:  NewStore("agent_status", map[string]domain.AgentStatus{}),
		Visible: NewStore("agent_status_visible", showStatus),
	}
}

// Refresh consulta /agents/status. Un sobre sin success o sin agentes deja la foto anterior.
func (s *AgentService) Refresh(ctx context.Context) error {
	if s == nil || s.client == nil {
		return ErrChatNotConfigured
	}
	env, err := s.client.AgentStatus(ctx)
	if err != nil {
		s.logger.Warn("agent status refresh failed", zap.String("operation", "agent_status"), zap.Error(err))
		return fmt.Errorf("agent status: %w", err)
	}
	if env == nil || !env.Success || env.Agents == nil {
		return ErrAgentStatusUnavailable
	}
	snapshot := make(map[string]domain.AgentStatus, len(env.Agents))
	for k, v := range env.Agents {
		snapshot[k] = v
	}
	s.Status.Set(snapshot)
	return nil
}

// Poll refresca cada interval mientras el panel de agentes este visible.
// Termina cuando ctx se cancela.
func (s *AgentService) Poll(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultAgentPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.Visible.Get() {
				continue
			}
			_ = s.Refresh(ctx)
		}
	}
}

// ToggleVisible muestra u oculta el panel; al mostrarlo refresca en el acto.
func (s *AgentService) ToggleVisible(ctx context.Context) bool {
	visible := s.Visible.Update(func(v bool) bool { return !v })
	if visible {
		_ = s.Refresh(ctx)
	}
	return visible
}

// Agents devuelve la foto ordenada por nombre.
func (s *AgentService) Agents() []domain.AgentStatus {
	status := s.Status.Get()
	out := make([]domain.AgentStatus, 0, len(status))
	for _, a := range status {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].AgentID < out[j].AgentID
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (s *AgentService) ActiveCount() int {
	n := 0
	for _, a := range s.Status.Get() {
		if a.IsActive {
			n++
		}
	}
	return n
}

func (s *AgentService) TotalCount() int {
	return len(s.Status.Get())
}
