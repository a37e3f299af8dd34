package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

// readSecret reads a Docker secret from a file path specified by an env var
// with _FILE suffix. If FOO is already set directly, the file is skipped.
// If FOO_FILE is set, reads the file content and sets FOO.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	fileKey := envKey + "_FILE"
	filePath := os.Getenv(fileKey)
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	val := strings.TrimSpace(string(data))
	os.Setenv(envKey, val)
}

type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	Telegram  TelegramConfig
	Groq      GroqConfig
	Media     MediaConfig
	Render    RenderConfig
	R2        R2Config
	Pipeline  PipelineConfig
	Gateway   GatewayConfig
}

type ServerConfig struct {
	Port      string
	Env       string
	LogLevel  string
	ApiDomain string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
}

type RateLimitConfig struct {
	WebhookPerMin int
	JobsPerMin    int
}

type TelegramConfig struct {
	BotToken      string
	WebhookSecret string
	BaseURL       string
}

type GroqConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type MediaConfig struct {
	ServiceURL string
	Timeout    int // seconds
}

type RenderConfig struct {
	APIKey  string
	BaseURL string
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicURL       string
}

type PipelineConfig struct {
	Concurrency  int
	StageTimeout int // seconds, applied per capability call
}

type GatewayConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	// Read Docker Swarm secrets from _FILE env vars before Viper binds
	readSecret("REDIS_PASSWORD")
	readSecret("TELEGRAM_BOT_TOKEN")
	readSecret("TELEGRAM_WEBHOOK_SECRET")
	readSecret("GROQ_API_KEY")
	readSecret("RENDER_API_KEY")
	readSecret("R2_ACCOUNT_ID")
	readSecret("R2_ACCESS_KEY_ID")
	readSecret("R2_SECRET_ACCESS_KEY")
	readSecret("JWT_SECRET")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variables
	viper.AutomaticEnv()

	// Bind environment variables with underscores to nested config keys
	_ = viper.BindEnv("server.port", "SERVER_PORT")
	_ = viper.BindEnv("server.env", "SERVER_ENV")
	_ = viper.BindEnv("server.log_level", "LOG_LEVEL")
	_ = viper.BindEnv("server.api_domain", "API_DOMAIN")
	_ = viper.BindEnv("redis.addr", "REDIS_ADDR")
	_ = viper.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = viper.BindEnv("redis.db", "REDIS_DB")
	_ = viper.BindEnv("jwt.secret", "JWT_SECRET")
	_ = viper.BindEnv("ratelimit.webhook_per_min", "RATELIMIT_WEBHOOK_PER_MIN")
	_ = viper.BindEnv("ratelimit.jobs_per_min", "RATELIMIT_JOBS_PER_MIN")
	_ = viper.BindEnv("telegram.bot_token", "TELEGRAM_BOT_TOKEN")
	_ = viper.BindEnv("telegram.webhook_secret", "TELEGRAM_WEBHOOK_SECRET")
	_ = viper.BindEnv("telegram.base_url", "TELEGRAM_BASE_URL")
	_ = viper.BindEnv("groq.api_key", "GROQ_API_KEY")
	_ = viper.BindEnv("groq.base_url", "GROQ_BASE_URL")
	_ = viper.BindEnv("groq.model", "GROQ_MODEL")
	_ = viper.BindEnv("media.service_url", "MEDIA_SERVICE_URL")
	_ = viper.BindEnv("media.timeout", "MEDIA_SERVICE_TIMEOUT")
	_ = viper.BindEnv("render.api_key", "RENDER_API_KEY")
	_ = viper.BindEnv("render.base_url", "RENDER_BASE_URL")
	_ = viper.BindEnv("r2.account_id", "R2_ACCOUNT_ID")
	_ = viper.BindEnv("r2.access_key_id", "R2_ACCESS_KEY_ID")
	_ = viper.BindEnv("r2.secret_access_key", "R2_SECRET_ACCESS_KEY")
	_ = viper.BindEnv("r2.bucket_name", "R2_BUCKET_NAME")
	_ = viper.BindEnv("r2.public_url", "R2_PUBLIC_URL")
	_ = viper.BindEnv("pipeline.concurrency", "PIPELINE_CONCURRENCY")
	_ = viper.BindEnv("pipeline.stage_timeout", "PIPELINE_STAGE_TIMEOUT")
	_ = viper.BindEnv("gateway.enabled", "GATEWAY_ENABLED")

	// Defaults
	viper.SetDefault("server.port", "8000")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("server.log_level", "info")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("jwt.secret", "")
	viper.SetDefault("ratelimit.webhook_per_min", 20)
	viper.SetDefault("ratelimit.jobs_per_min", 120)

	// Telegram defaults
	viper.SetDefault("telegram.base_url", "https://api.telegram.org")

	// Groq defaults
	viper.SetDefault("groq.base_url", "https://api.groq.com/openai/v1")
	viper.SetDefault("groq.model", "llama-3.3-70b-versatile")

	// Media service defaults; empty URL means the asset capability
	// falls back to mock output.
	viper.SetDefault("media.service_url", "")
	viper.SetDefault("media.timeout", 120)

	// Render service defaults
	viper.SetDefault("render.base_url", "https://api.renderpipe.io")

	// Pipeline defaults: concurrency sized to the render service, the
	// slowest external capability.
	viper.SetDefault("pipeline.concurrency", 4)
	viper.SetDefault("pipeline.stage_timeout", 600)

	// Gateway defaults
	viper.SetDefault("gateway.enabled", false)

	// Try to read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port:      viper.GetString("server.port"),
			Env:       viper.GetString("server.env"),
			LogLevel:  viper.GetString("server.log_level"),
			ApiDomain: viper.GetString("server.api_domain"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret: viper.GetString("jwt.secret"),
		},
		RateLimit: RateLimitConfig{
			WebhookPerMin: viper.GetInt("ratelimit.webhook_per_min"),
			JobsPerMin:    viper.GetInt("ratelimit.jobs_per_min"),
		},
		Telegram: TelegramConfig{
			BotToken:      viper.GetString("telegram.bot_token"),
			WebhookSecret: viper.GetString("telegram.webhook_secret"),
			BaseURL:       viper.GetString("telegram.base_url"),
		},
		Groq: GroqConfig{
			APIKey:  viper.GetString("groq.api_key"),
			BaseURL: viper.GetString("groq.base_url"),
			Model:   viper.GetString("groq.model"),
		},
		Media: MediaConfig{
			ServiceURL: viper.GetString("media.service_url"),
			Timeout:    viper.GetInt("media.timeout"),
		},
		Render: RenderConfig{
			APIKey:  viper.GetString("render.api_key"),
			BaseURL: viper.GetString("render.base_url"),
		},
		R2: R2Config{
			AccountID:       viper.GetString("r2.account_id"),
			AccessKeyID:     viper.GetString("r2.access_key_id"),
			SecretAccessKey: viper.GetString("r2.secret_access_key"),
			BucketName:      viper.GetString("r2.bucket_name"),
			PublicURL:       viper.GetString("r2.public_url"),
		},
		Pipeline: PipelineConfig{
			Concurrency:  viper.GetInt("pipeline.concurrency"),
			StageTimeout: viper.GetInt("pipeline.stage_timeout"),
		},
		Gateway: GatewayConfig{
			Enabled: viper.GetBool("gateway.enabled"),
		},
	}

	return cfg, nil
}
