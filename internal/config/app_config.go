package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig agrupa los flags de producto del panel.
type AppConfig struct {
	Agents   AgentsConfig   `yaml:"agents"`
	Features FeaturesConfig `yaml:"features"`
	UI       UIConfig       `yaml:"ui"`
}

type AgentsConfig struct {
	Enabled             bool          `yaml:"enabled"`
	Timeout             time.Duration `yaml:"timeout"`
	RetryAttempts       int           `yaml:"retry_attempts"`
	ConfidenceThreshold float64       `yaml:"confidence_threshold"`
}

type FeaturesConfig struct {
	AgenticMode           bool `yaml:"agentic_mode"`
	DocumentSearch        bool `yaml:"document_search"`
	AdvancedVisualization bool `yaml:"advanced_visualization"`
	WebResearch           bool `yaml:"web_research"`
	RiskAdvisor           bool `yaml:"risk_advisor"`
}

type UIConfig struct {
	ShowAgentStatus      bool `yaml:"show_agent_status"`
	ShowConfidenceScores bool `yaml:"show_confidence_scores"`
	EnableVoiceInput     bool `yaml:"enable_voice_input"`
	EnableRealTimeSearch bool `yaml:"enable_real_time_search"`
}

// DefaultAppConfig son los valores con los que arranca el panel.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Agents: AgentsConfig{
			Enabled:             true,
			Timeout:             30 * time.Second,
			RetryAttempts:       3,
			ConfidenceThreshold: 0.6,
		},
		Features: FeaturesConfig{
			AgenticMode:           true,
			DocumentSearch:        true,
			AdvancedVisualization: true,
			WebResearch:           true,
			RiskAdvisor:           true,
		},
		UI: UIConfig{
			ShowAgentStatus:      true,
			ShowConfidenceScores: true,
			EnableVoiceInput:     true,
			EnableRealTimeSearch: true,
		},
	}
}

// LoadAppConfig lee el YAML de flags. Sin path devuelve los defaults; las
// claves ausentes en el archivo conservan su valor por defecto.
func LoadAppConfig(path string) (AppConfig, error) {
	cfg := DefaultAppConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read app config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse app config %s: %w", path, err)
	}
	if cfg.Agents.RetryAttempts < 0 {
		cfg.Agents.RetryAttempts = 0
	}
	return cfg, nil
}
