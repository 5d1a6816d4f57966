package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultSystemPrompt is the System message every conversation starts with.
const DefaultSystemPrompt = "You are a helpful assistant. Do not use Markdown (bold, italic, code blocks)."

// Supported values for Config.LLMProvider.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// Config represents the application configuration
type Config struct {
	Serial            SerialConfig  `json:"serial"`
	LLMProvider       string        `json:"llm_provider"`
	Model             string        `json:"model"`
	Server            string        `json:"server"`
	ServerPort        int           `json:"server_port"`
	APITimeoutSeconds int           `json:"api_timeout_seconds"` // 0 waits forever
	OpenAI            OpenAIConfig  `json:"openai"`
	Session           SessionConfig `json:"session"`
	LogLevel          string        `json:"log_level"`
	LogFormat         string        `json:"log_format"`
	LogFile           string        `json:"log_file"` // empty logs to stderr
}

// SerialConfig describes the link to the terminal peer.
type SerialConfig struct {
	Port          string `json:"port"`
	BaudRate      int    `json:"baud_rate"`
	ReadTimeoutMs int    `json:"read_timeout_ms"`
	// PTY makes the bridge allocate a pseudo-terminal and publish its
	// slave device at Port instead of opening an existing device.
	PTY bool `json:"pty"`
}

// OpenAIConfig holds settings for the OpenAI-compatible provider.
type OpenAIConfig struct {
	APIURL     string `json:"api_url"` // empty derives http://server:server_port/v1
	APIKey     string `json:"api_key"`
	MaxRetries int    `json:"max_retries"`
}

// SessionConfig tunes the session bridge.
type SessionConfig struct {
	SystemPrompt    string `json:"system_prompt"`
	ResetCommand    string `json:"reset_command"`
	CharDelayMs     int    `json:"char_delay_ms"`
	PollIntervalMs  int    `json:"poll_interval_ms"`
	ErrorPauseMs    int    `json:"error_pause_ms"`
	MaxLineLength   int    `json:"max_line_length"`  // 0 is unbounded
	ContextMessages int    `json:"context_messages"` // 0 sends the whole history
	Echo            bool   `json:"echo"`
	Backspace       bool   `json:"backspace"`
	StripEscapes    bool   `json:"strip_escapes"`
}

// Default returns a configuration with default values
func Default() Config {
	return Config{
		Serial: SerialConfig{
			Port:          "/tmp/proxy_pty",
			BaudRate:      9600,
			ReadTimeoutMs: 100,
		},
		LLMProvider: ProviderOllama,
		Model:       "gemma3:12b",
		Server:      "localhost",
		ServerPort:  11434,
		OpenAI: OpenAIConfig{
			MaxRetries: 2,
		},
		Session: SessionConfig{
			SystemPrompt:   DefaultSystemPrompt,
			ResetCommand:   "/new",
			CharDelayMs:    5,
			PollIntervalMs: 10,
			ErrorPauseMs:   1000,
		},
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load reads the configuration at configPath, creating it with default
// values if it does not exist, then applies .env and environment overrides.
func Load(configPath string) (Config, error) {
	cfg := Default()

	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return Config{}, fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := Save(configPath, cfg); err != nil {
			return Config{}, fmt.Errorf("failed to create default config: %w", err)
		}
		slog.Debug("config_created", "config_path", configPath)
	case err != nil:
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	default:
		// Fields missing from the file keep their defaults.
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	LoadDotEnv(".env")
	return ApplyEnv(cfg), nil
}

// Save saves the configuration to the specified path
func Save(configPath string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// LoadDotEnv loads KEY=value pairs from path into the process environment.
// Variables already set win; a missing file is not an error.
func LoadDotEnv(path string) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("dotenv_load_failed", "path", path, "error", err)
	}
}

// ApplyEnv overrides cfg with RETROCHAT_* environment variables.
func ApplyEnv(cfg Config) Config {
	if v := os.Getenv("RETROCHAT_PORT"); v != "" {
		cfg.Serial.Port = v
	}
	if v, ok := envInt("RETROCHAT_BAUD"); ok && v > 0 {
		cfg.Serial.BaudRate = v
	}
	if v := os.Getenv("RETROCHAT_PROVIDER"); v != "" {
		cfg.LLMProvider = strings.ToLower(v)
	}
	if v := os.Getenv("RETROCHAT_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("RETROCHAT_SERVER"); v != "" {
		cfg.Server = v
	}
	if v, ok := envInt("RETROCHAT_SERVER_PORT"); ok && v > 0 {
		cfg.ServerPort = v
	}
	if v, ok := envInt("RETROCHAT_API_TIMEOUT"); ok && v >= 0 {
		cfg.APITimeoutSeconds = v
	}
	if v := os.Getenv("RETROCHAT_API_KEY"); v != "" {
		cfg.OpenAI.APIKey = v
	} else if v := os.Getenv("OPENAI_API_KEY"); v != "" && cfg.OpenAI.APIKey == "" {
		cfg.OpenAI.APIKey = v
	}
	if v := os.Getenv("RETROCHAT_SYSTEM_PROMPT"); v != "" {
		cfg.Session.SystemPrompt = v
	}
	if v := os.Getenv("RETROCHAT_LOG_LEVEL"); v != "" {
		if validLogLevel(v) {
			cfg.LogLevel = strings.ToLower(strings.TrimSpace(v))
		} else {
			slog.Warn("config_env_invalid", "key", "RETROCHAT_LOG_LEVEL", "value", v)
		}
	}
	if v := os.Getenv("RETROCHAT_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	return cfg
}

func envInt(key string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("config_env_invalid", "key", key, "value", raw)
		return 0, false
	}
	return v, true
}

func validLogLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}

// Validate checks if the configuration is valid. Whether llm_provider names
// a registered provider is checked by the provider registry.
func (c Config) Validate() error {
	if strings.TrimSpace(c.LLMProvider) == "" {
		return errors.New("llm_provider cannot be empty")
	}

	if strings.TrimSpace(c.Serial.Port) == "" {
		return errors.New("serial port cannot be empty")
	}
	if c.Serial.BaudRate <= 0 {
		return fmt.Errorf("baud_rate must be positive, got: %d", c.Serial.BaudRate)
	}
	if c.Serial.ReadTimeoutMs <= 0 {
		return fmt.Errorf("read_timeout_ms must be positive, got: %d", c.Serial.ReadTimeoutMs)
	}

	if strings.TrimSpace(c.Model) == "" {
		return errors.New("model cannot be empty")
	}
	if strings.TrimSpace(c.Server) == "" {
		return errors.New("server cannot be empty")
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("server_port must be between 1 and 65535, got: %d", c.ServerPort)
	}
	if c.APITimeoutSeconds < 0 {
		return fmt.Errorf("api_timeout_seconds cannot be negative, got: %d", c.APITimeoutSeconds)
	}
	if c.OpenAI.MaxRetries < 0 {
		return fmt.Errorf("openai max_retries cannot be negative, got: %d", c.OpenAI.MaxRetries)
	}

	s := c.Session
	if strings.TrimSpace(s.ResetCommand) == "" {
		return errors.New("reset_command cannot be empty")
	}
	if s.CharDelayMs < 0 || s.PollIntervalMs < 0 || s.ErrorPauseMs < 0 {
		return errors.New("session delays cannot be negative")
	}
	if s.MaxLineLength < 0 {
		return fmt.Errorf("max_line_length cannot be negative, got: %d", s.MaxLineLength)
	}
	if s.ContextMessages < 0 {
		return fmt.Errorf("context_messages cannot be negative, got: %d", s.ContextMessages)
	}

	if c.LogLevel != "" && !validLogLevel(c.LogLevel) {
		return fmt.Errorf("unsupported log level: %s", c.LogLevel)
	}

	return nil
}

// ChatURL returns the native Ollama chat endpoint for the configured server.
func (c Config) ChatURL() string {
	return fmt.Sprintf("http://%s:%d/api/chat", c.Server, c.ServerPort)
}

// OpenAIBaseURL returns the OpenAI-compatible base URL, derived from the
// server address when none is configured.
func (c Config) OpenAIBaseURL() string {
	if u := strings.TrimSpace(c.OpenAI.APIURL); u != "" {
		return u
	}
	return fmt.Sprintf("http://%s:%d/v1", c.Server, c.ServerPort)
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".retrochat", "config.json")
	}
	return filepath.Join(homeDir, ".retrochat", "config.json")
}
