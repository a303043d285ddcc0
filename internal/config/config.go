package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Env       string `env:"ENV" envDefault:"production"`
	Server    ServerConfig
	AI        AIConfig
	Log       LogConfig
	Documents DocumentConfig
	Chat      ChatConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	addr, err := resolveAddr(cfg.Server.Port)
	if err != nil {
		return nil, err
	}
	cfg.Server.Addr = addr

	if cfg.Chat.HistoryTurns < 0 {
		cfg.Chat.HistoryTurns = 0
	}
	if cfg.Documents.MaxChars <= 0 {
		return nil, fmt.Errorf("invalid DOCUMENT_MAX_CHARS value %d", cfg.Documents.MaxChars)
	}

	return cfg, nil
}

// Development 表示是否运行在开发环境。
func (c *Config) Development() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), "development")
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Port              string        `env:"PORT" envDefault:"8080"`
	Addr              string        `env:"-"`
	AllowedOrigins    []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	ReadHeaderTimeout time.Duration `env:"SERVER_READ_HEADER_TIMEOUT" envDefault:"5s"`
	ShutdownTimeout   time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// resolveAddr 解析服务器监听地址。
func resolveAddr(port string) (string, error) {
	port = strings.TrimSpace(port)
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return port, nil
	}

	if strings.Contains(port, " ") {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}

	return ":" + port, nil
}

// AIConfig 描述大模型相关配置。APIKey 为空时后端不可用，但服务照常启动。
type AIConfig struct {
	APIKey      string        `env:"ARK_API_KEY"`
	Model       string        `env:"ARK_MODEL" envDefault:"doubao-seed-1-6-flash-250615"`
	BaseURL     string        `env:"ARK_BASE_URL" envDefault:"https://ark.cn-beijing.volces.com/api/v3"`
	Region      string        `env:"ARK_REGION" envDefault:"cn-beijing"`
	Temperature *float64      `env:"ARK_TEMPERATURE"`
	TopP        *float64      `env:"ARK_TOP_P"`
	MaxTokens   *int          `env:"ARK_MAX_TOKENS"`
	Stream      bool          `env:"ARK_STREAM" envDefault:"true"`
	Timeout     time.Duration `env:"ARK_TIMEOUT" envDefault:"60s"`
	// CachedBackends 限制按凭证缓存的模型实例数量，超出后淘汰最久未用的。
	CachedBackends int `env:"ARK_CACHED_BACKENDS" envDefault:"32"`
	Breaker        BreakerConfig
}

// BreakerConfig 控制调用大模型时的熔断策略。
type BreakerConfig struct {
	MaxRequests      uint32        `env:"BACKEND_BREAKER_MAX_REQUESTS" envDefault:"3"`
	Interval         time.Duration `env:"BACKEND_BREAKER_INTERVAL" envDefault:"30s"`
	Timeout          time.Duration `env:"BACKEND_BREAKER_TIMEOUT" envDefault:"60s"`
	MinRequests      uint32        `env:"BACKEND_BREAKER_MIN_REQUESTS" envDefault:"5"`
	FailureThreshold float64       `env:"BACKEND_BREAKER_FAILURE_RATIO" envDefault:"0.8"`
}

// Configured 表示模型参数是否齐全；凭证另行解析。
func (c AIConfig) Configured() bool {
	return strings.TrimSpace(c.Model) != ""
}

// NewChatModel 使用配置与给定凭证创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context, apiKey string) (model.ChatModel, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("ARK_MODEL is not configured")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("api key is empty")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	var timeout *time.Duration
	if c.Timeout > 0 {
		val := c.Timeout
		timeout = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      apiKey,
		Model:       c.Model,
		Timeout:     timeout,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

// LogConfig 日志配置。
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

// DocumentConfig 控制文档摘要。
type DocumentConfig struct {
	MaxChars       int   `env:"DOCUMENT_MAX_CHARS" envDefault:"4000"`
	MaxUploadBytes int64 `env:"DOCUMENT_MAX_UPLOAD_BYTES" envDefault:"10485760"`
	Chunked        bool  `env:"DOCUMENT_CHUNKED" envDefault:"false"`
}

// ChatConfig 控制对话提示词的构造。HistoryTurns 为 0 时只发送最新一条用户消息。
type ChatConfig struct {
	HistoryTurns int `env:"CHAT_HISTORY_TURNS" envDefault:"0"`
}
