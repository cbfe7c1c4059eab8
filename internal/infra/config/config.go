package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP   HTTPConfig   `yaml:"http"`
	LLM    LLMConfig    `yaml:"llm"`
	Intake IntakeConfig `yaml:"intake"`
	Notes  NotesConfig  `yaml:"notes"`
	Auth   AuthConfig   `yaml:"auth"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
	Retry          RetryConfig     `yaml:"retry"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// RetryConfig configures best-effort retries for idempotent requests.
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseBackoff time.Duration `yaml:"baseBackoff"`
	Exclude     []string      `yaml:"exclude"`
}

// LLMConfig contains ChatGPT/OpenAI settings.
type LLMConfig struct {
	APIKey         string  `yaml:"apiKey"`
	BaseURL        string  `yaml:"baseUrl"`
	Model          string  `yaml:"model"`
	EmbeddingModel string  `yaml:"embeddingModel"`
	Temperature    float32 `yaml:"temperature"`
}

// IntakeConfig controls the complaint intake domain.
type IntakeConfig struct {
	QuestionPrompt      string         `yaml:"questionPrompt"`
	MaxQuestions        int            `yaml:"maxQuestions"`
	CacheTTL            time.Duration  `yaml:"cacheTtl"`
	TrendingLimit       int            `yaml:"trendingLimit"`
	SimilarityThreshold float64        `yaml:"similarityThreshold"`
	Valkey              ValkeyConfig   `yaml:"valkey"`
	Postgres            PostgresConfig `yaml:"postgres"`
}

// NotesConfig controls uploaded note ingestion.
type NotesConfig struct {
	MaxUploadBytes int64         `yaml:"maxUploadBytes"`
	QueueKey       string        `yaml:"queueKey"`
	Storage        StorageConfig `yaml:"storage"`
}

// StorageConfig contains S3-compatible object storage settings.
type StorageConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
}

// AuthConfig drives clinician authentication.
type AuthConfig struct {
	Secret          string        `yaml:"secret"`
	TokenTTL        time.Duration `yaml:"tokenTtl"`
	RefreshTokenTTL time.Duration `yaml:"refreshTokenTtl"`
	SSO             SSOConfig     `yaml:"sso"`
}

// SSOConfig holds OIDC settings for single sign-on.
type SSOConfig struct {
	Enabled              bool   `yaml:"enabled"`
	IssuerURL            string `yaml:"issuerUrl"`
	ClientID             string `yaml:"clientId"`
	ClientSecret         string `yaml:"clientSecret"`
	RedirectURL          string `yaml:"redirectUrl"`
	TokenEncryptionKey   string `yaml:"tokenEncryptionKey"`
	PostLoginRedirectURL string `yaml:"postLoginRedirectUrl"`
}

// ValkeyConfig contains connection information for cache storage.
type ValkeyConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitCSV(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = isTruthy(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
	if v := os.Getenv("HTTP_RETRY_ENABLED"); v != "" {
		cfg.HTTP.Retry.Enabled = isTruthy(v)
	}
	if v := os.Getenv("HTTP_RETRY_MAX_ATTEMPTS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.Retry.MaxAttempts = parsed
		}
	}
	if v := os.Getenv("HTTP_RETRY_BASE_BACKOFF"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.HTTP.Retry.BaseBackoff = parsed
		}
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("LLM_EMBEDDING_MODEL"); v != "" {
		cfg.LLM.EmbeddingModel = v
	}
	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 32); err == nil {
			cfg.LLM.Temperature = float32(parsed)
		}
	}
	if v := os.Getenv("INTAKE_QUESTION_PROMPT"); v != "" {
		cfg.Intake.QuestionPrompt = v
	}
	if v := os.Getenv("INTAKE_MAX_QUESTIONS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Intake.MaxQuestions = parsed
		}
	}
	if v := os.Getenv("INTAKE_CACHE_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Intake.CacheTTL = parsed
		}
	}
	if v := os.Getenv("INTAKE_TRENDING_LIMIT"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Intake.TrendingLimit = parsed
		}
	}
	if v := os.Getenv("INTAKE_SIMILARITY_THRESHOLD"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Intake.SimilarityThreshold = parsed
		}
	}
	if v := os.Getenv("INTAKE_VALKEY_ENABLED"); v != "" {
		cfg.Intake.Valkey.Enabled = isTruthy(v)
	}
	if v := os.Getenv("INTAKE_VALKEY_ADDR"); v != "" {
		cfg.Intake.Valkey.Addr = v
	}
	if v := os.Getenv("INTAKE_POSTGRES_DSN"); v != "" {
		cfg.Intake.Postgres.DSN = v
	}
	if v := os.Getenv("INTAKE_POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Intake.Postgres.MaxConns = int32(parsed)
		}
	}
	if v := os.Getenv("INTAKE_POSTGRES_MIN_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Intake.Postgres.MinConns = int32(parsed)
		}
	}
	if v := os.Getenv("NOTES_MAX_UPLOAD_BYTES"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Notes.MaxUploadBytes = parsed
		}
	}
	if v := os.Getenv("NOTES_QUEUE_KEY"); v != "" {
		cfg.Notes.QueueKey = v
	}
	if v := os.Getenv("NOTES_STORAGE_ENABLED"); v != "" {
		cfg.Notes.Storage.Enabled = isTruthy(v)
	}
	if v := os.Getenv("NOTES_STORAGE_ENDPOINT"); v != "" {
		cfg.Notes.Storage.Endpoint = v
	}
	if v := os.Getenv("NOTES_STORAGE_ACCESS_KEY"); v != "" {
		cfg.Notes.Storage.AccessKey = v
	}
	if v := os.Getenv("NOTES_STORAGE_SECRET_KEY"); v != "" {
		cfg.Notes.Storage.SecretKey = v
	}
	if v := os.Getenv("NOTES_STORAGE_BUCKET"); v != "" {
		cfg.Notes.Storage.Bucket = v
	}
	if v := os.Getenv("NOTES_STORAGE_REGION"); v != "" {
		cfg.Notes.Storage.Region = v
	}
	if v := os.Getenv("AUTH_SECRET"); v != "" {
		cfg.Auth.Secret = v
	}
	if v := os.Getenv("AUTH_TOKEN_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Auth.TokenTTL = parsed
		}
	}
	if v := os.Getenv("AUTH_REFRESH_TOKEN_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Auth.RefreshTokenTTL = parsed
		}
	}
	if v := os.Getenv("AUTH_SSO_ENABLED"); v != "" {
		cfg.Auth.SSO.Enabled = isTruthy(v)
	}
	if v := os.Getenv("AUTH_SSO_ISSUER_URL"); v != "" {
		cfg.Auth.SSO.IssuerURL = v
	}
	if v := os.Getenv("AUTH_SSO_CLIENT_ID"); v != "" {
		cfg.Auth.SSO.ClientID = v
	}
	if v := os.Getenv("AUTH_SSO_CLIENT_SECRET"); v != "" {
		cfg.Auth.SSO.ClientSecret = v
	}
	if v := os.Getenv("AUTH_SSO_REDIRECT_URL"); v != "" {
		cfg.Auth.SSO.RedirectURL = v
	}
	if v := os.Getenv("AUTH_SSO_TOKEN_ENCRYPTION_KEY"); v != "" {
		cfg.Auth.SSO.TokenEncryptionKey = v
	}
	if v := os.Getenv("AUTH_SSO_POST_LOGIN_REDIRECT_URL"); v != "" {
		cfg.Auth.SSO.PostLoginRedirectURL = v
	}
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 60,
				Burst:             20,
			},
			Retry: RetryConfig{
				Enabled:     true,
				MaxAttempts: 3,
				BaseBackoff: 150 * time.Millisecond,
				Exclude: []string{
					"/api/v1/notes",
				},
			},
		},
		LLM: LLMConfig{
			Model:          "gpt-4o-mini",
			EmbeddingModel: "text-embedding-3-small",
			Temperature:    0.2,
		},
		Intake: IntakeConfig{
			QuestionPrompt:      "You are a clinical intake assistant. Given a normalized patient complaint, propose short follow-up questions a triage nurse should ask. Respond strictly as JSON with the key questions (array of <=5 short strings). No markdown fences, no commentary.",
			MaxQuestions:        5,
			CacheTTL:            6 * time.Hour,
			TrendingLimit:       10,
			SimilarityThreshold: 0.7,
			Valkey: ValkeyConfig{
				Enabled: false,
				Addr:    "",
			},
			Postgres: PostgresConfig{
				DSN:      "",
				MaxConns: 4,
				MinConns: 0,
			},
		},
		Notes: NotesConfig{
			MaxUploadBytes: 2 << 20,
			QueueKey:       "notes:jobs",
			Storage: StorageConfig{
				Enabled: false,
				Region:  "auto",
			},
		},
		Auth: AuthConfig{
			Secret:          "",
			TokenTTL:        15 * time.Minute,
			RefreshTokenTTL: 7 * 24 * time.Hour,
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if c.HTTP.Retry.Enabled {
		if c.HTTP.Retry.MaxAttempts <= 0 {
			return errors.New("http.retry.maxAttempts must be positive")
		}
		if c.HTTP.Retry.BaseBackoff <= 0 {
			return errors.New("http.retry.baseBackoff must be positive")
		}
	}
	if strings.TrimSpace(c.Intake.QuestionPrompt) == "" {
		return errors.New("intake.questionPrompt cannot be empty")
	}
	if c.Intake.MaxQuestions <= 0 {
		return errors.New("intake.maxQuestions must be positive")
	}
	if c.Intake.CacheTTL < 0 {
		return errors.New("intake.cacheTtl cannot be negative")
	}
	if c.Intake.TrendingLimit < 0 {
		return errors.New("intake.trendingLimit cannot be negative")
	}
	if c.Intake.SimilarityThreshold < 0 {
		return errors.New("intake.similarityThreshold must be non-negative")
	}
	if c.Intake.Valkey.Enabled && strings.TrimSpace(c.Intake.Valkey.Addr) == "" {
		return errors.New("intake.valkey.addr cannot be empty when valkey is enabled")
	}
	if c.Notes.MaxUploadBytes <= 0 {
		return errors.New("notes.maxUploadBytes must be positive")
	}
	if c.Notes.Storage.Enabled {
		if strings.TrimSpace(c.Notes.Storage.Endpoint) == "" {
			return errors.New("notes.storage.endpoint cannot be empty when storage is enabled")
		}
		if strings.TrimSpace(c.Notes.Storage.Bucket) == "" {
			return errors.New("notes.storage.bucket cannot be empty when storage is enabled")
		}
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.tokenTtl must be positive")
	}
	if c.Auth.RefreshTokenTTL <= 0 {
		return errors.New("auth.refreshTokenTtl must be positive")
	}
	if c.Auth.SSO.Enabled {
		if strings.TrimSpace(c.Auth.SSO.IssuerURL) == "" {
			return errors.New("auth.sso.issuerUrl cannot be empty when sso is enabled")
		}
		if strings.TrimSpace(c.Auth.SSO.ClientID) == "" {
			return errors.New("auth.sso.clientId cannot be empty when sso is enabled")
		}
		if strings.TrimSpace(c.Auth.SSO.RedirectURL) == "" {
			return errors.New("auth.sso.redirectUrl cannot be empty when sso is enabled")
		}
	}
	return nil
}

func isTruthy(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
