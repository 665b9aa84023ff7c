package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const (
	DefaultHost                = "0.0.0.0"
	DefaultPort                = 18890
	DefaultBufSize             = 100
	DefaultMaxFanout           = 1
	DefaultCallTimeoutMs       = 30000
	DefaultMaxTokens           = 4096
	DefaultRoutingStrategy     = "weighted"
	DefaultPreferredTier       = "econ"
	DefaultEscalationThreshold = 0.6
	DefaultStoreType           = "sqlite"
	DefaultMemoryFlushCron     = "0 0 3 * * *"
	DefaultCostRollupCron      = "0 30 3 * * *"
	DefaultPersistQueueSize    = 64
	DefaultPersistMaxRetries   = 4
)

type Config struct {
	Gateway   GatewayConfig   `json:"gateway"`
	Channels  ChannelsConfig  `json:"channels"`
	Providers ProvidersConfig `json:"providers"`
	Routing   RoutingConfig   `json:"routing"`
	Memory    MemoryConfig    `json:"memory"`
	Store     StoreConfig     `json:"store"`
}

type GatewayConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

type ChannelsConfig struct {
	WebUI    WebUIConfig    `json:"webui"`
	Telegram TelegramConfig `json:"telegram"`
}

type WebUIConfig struct {
	Enabled   bool     `json:"enabled"`
	AllowFrom []string `json:"allowFrom"` // client IPs, empty admits all
}

type TelegramConfig struct {
	Enabled   bool     `json:"enabled"`
	Token     string   `json:"token"`
	AllowFrom []string `json:"allowFrom"`
	Proxy     string   `json:"proxy,omitempty"`
}

// ProviderConfig holds the credential and model selection for one upstream
// text-generation provider. A provider with an empty APIKey is never routed to.
type ProviderConfig struct {
	APIKey    string `json:"apiKey,omitempty"`
	BaseURL   string `json:"baseUrl,omitempty"`
	Model     string `json:"model,omitempty"`
	Tier      string `json:"tier,omitempty"` // econ | mid | max
	MaxTokens int    `json:"maxTokens,omitempty"`
}

// CompatConfig configures a generic OpenAI-compatible endpoint (groq, deepseek,
// a local server). Name becomes its provider identifier in routing and scoring.
type CompatConfig struct {
	ProviderConfig
	Name string `json:"name,omitempty"`
}

type ProvidersConfig struct {
	OpenAI    ProviderConfig `json:"openai"`
	Anthropic ProviderConfig `json:"anthropic"`
	Gemini    ProviderConfig `json:"gemini"`
	Compat    CompatConfig   `json:"compat"`
}

type RoutingConfig struct {
	MaxFanout           int     `json:"maxFanout,omitempty"`
	CallTimeoutMs       int     `json:"callTimeoutMs,omitempty"`
	Strategy            string  `json:"strategy,omitempty"` // weighted | escalation
	PreferredTier       string  `json:"preferredTier,omitempty"`
	EscalationThreshold float64 `json:"escalationThreshold,omitempty"`
}

type MemoryConfig struct {
	FlushCron         string `json:"flushCron,omitempty"`
	PersistQueueSize  int    `json:"persistQueueSize,omitempty"`
	PersistMaxRetries int    `json:"persistMaxRetries,omitempty"`
}

type StoreConfig struct {
	Type          string `json:"type,omitempty"` // sqlite | redis
	Path          string `json:"path,omitempty"`
	RedisAddr     string `json:"redisAddr,omitempty"`
	RedisPassword string `json:"redisPassword,omitempty"`
	RedisDB       int    `json:"redisDb,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Gateway: GatewayConfig{
			Host: DefaultHost,
			Port: DefaultPort,
		},
		Channels: ChannelsConfig{
			WebUI: WebUIConfig{Enabled: true},
		},
		Routing: RoutingConfig{
			MaxFanout:           DefaultMaxFanout,
			CallTimeoutMs:       DefaultCallTimeoutMs,
			Strategy:            DefaultRoutingStrategy,
			PreferredTier:       DefaultPreferredTier,
			EscalationThreshold: DefaultEscalationThreshold,
		},
		Memory: MemoryConfig{
			FlushCron:         DefaultMemoryFlushCron,
			PersistQueueSize:  DefaultPersistQueueSize,
			PersistMaxRetries: DefaultPersistMaxRetries,
		},
		Store: StoreConfig{
			Type: DefaultStoreType,
			Path: filepath.Join(ConfigDir(), "data", "anova.db"),
		},
	}
}

func ConfigDir() string {
	home := os.Getenv("HOME")
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return filepath.Join(home, ".anova")
}

func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if key := os.Getenv("OPENAI_API_KEY"); key != "" && cfg.Providers.OpenAI.APIKey == "" {
		cfg.Providers.OpenAI.APIKey = key
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" && cfg.Providers.Anthropic.APIKey == "" {
		cfg.Providers.Anthropic.APIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" && cfg.Providers.Gemini.APIKey == "" {
		cfg.Providers.Gemini.APIKey = key
	}
	if key := os.Getenv("ANOVA_COMPAT_API_KEY"); key != "" {
		cfg.Providers.Compat.APIKey = key
	}
	if url := os.Getenv("ANOVA_COMPAT_BASE_URL"); url != "" {
		cfg.Providers.Compat.BaseURL = url
	}
	if token := os.Getenv("ANOVA_TELEGRAM_TOKEN"); token != "" {
		cfg.Channels.Telegram.Token = token
	}
	if addr := os.Getenv("ANOVA_REDIS_ADDR"); addr != "" {
		cfg.Store.RedisAddr = addr
		if cfg.Store.Type == "" || cfg.Store.Type == DefaultStoreType {
			cfg.Store.Type = "redis"
		}
	}
	if fanout := os.Getenv("ANOVA_MAX_FANOUT"); fanout != "" {
		if parsed, err := strconv.Atoi(fanout); err == nil && parsed > 0 {
			cfg.Routing.MaxFanout = parsed
		}
	}
	if strategy := os.Getenv("ANOVA_ROUTING_STRATEGY"); strategy != "" {
		cfg.Routing.Strategy = strategy
	}

	if cfg.Routing.MaxFanout <= 0 {
		cfg.Routing.MaxFanout = DefaultMaxFanout
	}
	if cfg.Routing.CallTimeoutMs <= 0 {
		cfg.Routing.CallTimeoutMs = DefaultCallTimeoutMs
	}
	if cfg.Routing.Strategy == "" {
		cfg.Routing.Strategy = DefaultRoutingStrategy
	}
	if cfg.Routing.PreferredTier == "" {
		cfg.Routing.PreferredTier = DefaultPreferredTier
	}
	if cfg.Routing.EscalationThreshold <= 0 {
		cfg.Routing.EscalationThreshold = DefaultEscalationThreshold
	}
	if cfg.Memory.FlushCron == "" {
		cfg.Memory.FlushCron = DefaultMemoryFlushCron
	}
	if cfg.Memory.PersistQueueSize <= 0 {
		cfg.Memory.PersistQueueSize = DefaultPersistQueueSize
	}
	if cfg.Memory.PersistMaxRetries <= 0 {
		cfg.Memory.PersistMaxRetries = DefaultPersistMaxRetries
	}
	if cfg.Store.Type == "" {
		cfg.Store.Type = DefaultStoreType
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = DefaultConfig().Store.Path
	}

	return cfg, nil
}

func SaveConfig(cfg *Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(ConfigPath(), data, 0644)
}
