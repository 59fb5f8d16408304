package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Log     LogConfig     `koanf:"log"`
	App     AppConfig     `koanf:"app"`
	Gateway GatewayConfig `koanf:"gateway"`
	Storage StorageConfig `koanf:"storage"`
	Session SessionConfig `koanf:"session"`
	Tracing TracingConfig `koanf:"tracing"`
}

type ServerConfig struct {
	ListenAddr string `koanf:"listen_addr"`
}

type LogConfig struct {
	Level string `koanf:"level"`
	File  string `koanf:"file"`
}

type AppConfig struct {
	Variant string `koanf:"variant"` // kids, general
}

type GatewayConfig struct {
	Backend        string        `koanf:"backend"` // gemini, claude, ollama
	Gemini         GeminiConfig  `koanf:"gemini"`
	Claude         ClaudeConfig  `koanf:"claude"`
	Ollama         OllamaConfig  `koanf:"ollama"`
	VisionModels   []string      `koanf:"vision_models"`
	ChatModels     []string      `koanf:"chat_models"`
	AttemptTimeout time.Duration `koanf:"attempt_timeout"`
}

type GeminiConfig struct {
	APIKey  string `koanf:"api_key"`
	BaseURL string `koanf:"base_url"`
}

type ClaudeConfig struct {
	APIKey  string `koanf:"api_key"`
	BaseURL string `koanf:"base_url"`
}

type OllamaConfig struct {
	Host string `koanf:"host"`
}

type StorageConfig struct {
	Backend   string `koanf:"backend"` // memory, sqlite
	DBPath    string `koanf:"db_path"`
	PhotoPath string `koanf:"photo_path"`
}

type SessionConfig struct {
	IdleTTL time.Duration `koanf:"idle_ttl"`
}

type TracingConfig struct {
	Enabled bool `koanf:"enabled"`
}

// envKeys maps the flat environment names onto config keys. Variables not
// listed here are ignored.
var envKeys = map[string]string{
	"LISTEN_ADDR":      "server.listen_addr",
	"LOG_LEVEL":        "log.level",
	"LOG_FILE":         "log.file",
	"APP_VARIANT":      "app.variant",
	"MODEL_BACKEND":    "gateway.backend",
	"GEMINI_API_KEY":   "gateway.gemini.api_key",
	"GEMINI_BASE_URL":  "gateway.gemini.base_url",
	"CLAUDE_API_KEY":   "gateway.claude.api_key",
	"CLAUDE_BASE_URL":  "gateway.claude.base_url",
	"OLLAMA_HOST":      "gateway.ollama.host",
	"VISION_MODELS":    "gateway.vision_models",
	"CHAT_MODELS":      "gateway.chat_models",
	"ATTEMPT_TIMEOUT":  "gateway.attempt_timeout",
	"STORAGE_BACKEND":  "storage.backend",
	"DB_PATH":          "storage.db_path",
	"PHOTO_LOCAL_PATH": "storage.photo_path",
	"SESSION_IDLE_TTL": "session.idle_ttl",
	"TRACING_ENABLED":  "tracing.enabled",
}

var defaults = map[string]interface{}{
	"server.listen_addr":      ":8080",
	"log.level":               "info",
	"app.variant":             "kids",
	"gateway.backend":         "gemini",
	"gateway.ollama.host":     "http://localhost:11434",
	"gateway.attempt_timeout": "60s",
	"storage.backend":         "memory",
	"storage.db_path":         "/data/animalexplorer.db",
	"storage.photo_path":      "/data/photos",
	"session.idle_ttl":        "24h",
	"tracing.enabled":         false,
}

// listKeys hold comma-separated values in the environment.
var listKeys = map[string]bool{
	"gateway.vision_models": true,
	"gateway.chat_models":   true,
}

// envValue maps an environment variable onto its config key. Unknown
// variables map to "" and are dropped.
func envValue(name, value string) (string, interface{}) {
	key, ok := envKeys[name]
	if !ok {
		return "", nil
	}
	if listKeys[key] {
		return key, splitList(value)
	}
	return key, value
}

func splitList(value string) []string {
	items := []string{}
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// defaultModels are the candidate lists per backend, cheapest first.
var defaultModels = map[string]struct{ vision, chat []string }{
	"gemini": {
		vision: []string{"gemini-1.5-flash", "gemini-1.5-pro", "gemini-pro-vision"},
		chat:   []string{"gemini-1.5-flash", "gemini-1.5-pro", "gemini-pro"},
	},
	"claude": {
		vision: []string{"claude-3-5-haiku-latest", "claude-3-5-sonnet-latest"},
		chat:   []string{"claude-3-5-haiku-latest", "claude-3-5-sonnet-latest"},
	},
	"ollama": {
		vision: []string{"llava", "moondream"},
		chat:   []string{"llama3.2", "llava"},
	},
}

// Load reads CONFIG_FILE (default config.yaml, optional) and then the
// environment.
func Load() (*Config, error) {
	return LoadFile(getEnv("CONFIG_FILE", "config.yaml"))
}

func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.ProviderWithValue("", ".", envValue), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	for key, val := range defaults {
		if !k.Exists(key) {
			if err := k.Set(key, val); err != nil {
				return nil, fmt.Errorf("failed to set default %s: %w", key, err)
			}
		}
	}

	models, ok := defaultModels[k.String("gateway.backend")]
	if !ok {
		return nil, fmt.Errorf("unknown model backend %q", k.String("gateway.backend"))
	}
	for key, list := range map[string][]string{
		"gateway.vision_models": models.vision,
		"gateway.chat_models":   models.chat,
	} {
		if !k.Exists(key) {
			if err := k.Set(key, list); err != nil {
				return nil, fmt.Errorf("failed to set default %s: %w", key, err)
			}
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Backend {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Gateway.AttemptTimeout <= 0 {
		return fmt.Errorf("gateway.attempt_timeout must be positive")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}
