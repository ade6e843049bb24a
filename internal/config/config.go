package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

// Config centraliza la configuración del cliente y del gateway local.
type Config struct {
	HTTPHost          string        `env:"HTTP_HOST" envDefault:"127.0.0.1"`
	HTTPPort          string        `env:"HTTP_PORT" envDefault:"8080"`
	BackendURL        string        `env:"BACKEND_URL" envDefault:"http://localhost:8000/api"`
	CompanyNumber     string        `env:"COMPANY_NUMBER"`
	UserID            string        `env:"USER_ID"`
	RequestTimeout    time.Duration `env:"REQUEST_TIMEOUT" envDefault:"60s"`
	AgentPollInterval time.Duration `env:"AGENT_POLL_INTERVAL" envDefault:"30s"`
	HistoryLimit      int           `env:"HISTORY_LIMIT" envDefault:"50"`
	ReadRetries       int           `env:"READ_RETRIES" envDefault:"2"`
	StorageDir        string        `env:"STORAGE_DIR"`
	RedisAddr         string        `env:"REDIS_ADDR"`
	RedisPassword     string        `env:"REDIS_PASSWORD"`
	RedisDB           int           `env:"REDIS_DB" envDefault:"0"`
	GatewayJWTSecret  string        `env:"GATEWAY_JWT_SECRET"`
	GatewayTokenTTL   time.Duration `env:"GATEWAY_TOKEN_TTL" envDefault:"12h"`
	LogLevel          string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFile           string        `env:"LOG_FILE"`
	AppConfigFile     string        `env:"APP_CONFIG_FILE"`
	CORSOrigins       []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	// App son los flags de producto; vienen del YAML opcional, no del entorno.
	App AppConfig
}

// LoadConfig carga la configuración desde variables de entorno y, si hay
// APP_CONFIG_FILE, mezcla el YAML de flags sobre los valores por defecto.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	app, err := LoadAppConfig(cfg.AppConfigFile)
	if err != nil {
		return nil, err
	}
	cfg.App = app
	return &cfg, nil
}

// Addr es la dirección de escucha del gateway.
func (c *Config) Addr() string {
	return c.HTTPHost + ":" + c.HTTPPort
}
