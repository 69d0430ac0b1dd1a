package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Env Environment `mapstructure:"-"`

	Server    ServerConfig    `mapstructure:"server"`
	DB        DBConfig        `mapstructure:"db"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	LLM       LLMConfig       `mapstructure:"llm"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Archive   ArchiveConfig   `mapstructure:"archive"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// DBConfig configures the user store.
type DBConfig struct {
	// Driver is "postgres" or "sqlite".
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"ssl_mode"`
	// Path is the sqlite file; ":memory:" is allowed.
	Path string `mapstructure:"path"`
}

// DSN returns the postgres connection string.
func (d DBConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// RedisConfig is optional: an empty Host and URL disables Redis.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	URL      string `mapstructure:"url"`
}

// Enabled reports whether a Redis server was configured.
func (r RedisConfig) Enabled() bool {
	return r.Host != "" || r.URL != ""
}

// JWTConfig configures session tokens.
type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
}

// LLMConfig configures the text-generation model client.
type LLMConfig struct {
	// Provider selects the model backend: "gemini", "openai" or "ollama".
	Provider string `mapstructure:"provider"`
	Model    string `mapstructure:"model"`
	APIKey   string `mapstructure:"api_key"`
	// BaseURL overrides the provider endpoint (DeepSeek, a local Ollama, test servers).
	BaseURL     string        `mapstructure:"base_url"`
	Temperature float32       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxRetries  int           `mapstructure:"max_retries"`
	// SchemaMode is "strict" (schema-constrained decoding) or "json" (JSON mode only).
	SchemaMode string `mapstructure:"schema_mode"`
}

// RateLimitConfig bounds recipe generation per client.
type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// ArchiveConfig enables the S3 archive of generated recipes when Bucket is set.
type ArchiveConfig struct {
	Bucket string `mapstructure:"bucket"`
	Region string `mapstructure:"region"`
	Prefix string `mapstructure:"prefix"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var defaults = map[string]any{
	"server.host":             "0.0.0.0",
	"server.port":             "8080",
	"server.shutdown_timeout": 10 * time.Second,
	"server.allowed_origins":  []string{"http://localhost:5173"},
	"db.driver":               "postgres",
	"db.host":                 "localhost",
	"db.port":                 "5432",
	"db.user":                 "postgres",
	"db.password":             "",
	"db.name":                 "pantrychef",
	"db.ssl_mode":             "disable",
	"db.path":                 "pantrychef.db",
	"redis.host":              "",
	"redis.port":              "6379",
	"redis.password":          "",
	"redis.db":                0,
	"redis.url":               "",
	"jwt.secret":              "",
	"jwt.ttl":                 24 * time.Hour,
	"llm.provider":            "gemini",
	"llm.model":               "",
	"llm.api_key":             "",
	"llm.base_url":            "",
	"llm.temperature":         1.0,
	"llm.timeout":             30 * time.Second,
	"llm.max_retries":         1,
	"llm.schema_mode":         "strict",
	"rate_limit.requests":     30,
	"rate_limit.window":       time.Hour,
	"archive.bucket":          "",
	"archive.region":          "",
	"archive.prefix":          "recipes",
	"log.level":               "info",
	"log.format":              "text",
}

// LoadConfig builds the configuration from defaults, an optional config file,
// a .env file, environment variables and Docker secrets, in that order of precedence
// (later wins, secrets only fill values that are still empty).
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	cfg.Env = GetEnvironment()

	// The original service read GEMINI_API_KEY; keep honouring it.
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	loadSecrets(cfg)
	applyProviderDefaults(&cfg.LLM)

	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadSecrets fills empty sensitive values from Docker secrets.
func loadSecrets(cfg *Config) {
	fill := func(dst *string, name string) {
		if *dst == "" {
			*dst = readSecret(name)
		}
	}
	fill(&cfg.DB.Password, "db_password")
	fill(&cfg.Redis.Password, "redis_password")
	fill(&cfg.JWT.Secret, "jwt_secret")
	fill(&cfg.LLM.APIKey, "llm_api_key")
}

func applyProviderDefaults(llm *LLMConfig) {
	if llm.Model != "" {
		return
	}
	switch llm.Provider {
	case "gemini":
		llm.Model = "gemini-2.0-flash"
	case "openai":
		llm.Model = "gpt-4o-mini"
	case "ollama":
		llm.Model = "llama3.2"
	}
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	if data, err := os.ReadFile(filepath.Join(secretsDir, name)); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}
