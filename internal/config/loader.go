// Package config 提供配置加载功能
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// DefaultConfigDir 默认配置目录，可通过 CONFIG_DIR 覆盖
const DefaultConfigDir = "configs"

var placeholderRe = regexp.MustCompile(`\${(\w+)(:([^}]*))?}`)

// Load 加载配置文件
// 按优先级加载：默认配置 -> 环境配置 -> 环境变量
func Load() (*Config, error) {
	dir := os.Getenv("CONFIG_DIR")
	if dir == "" {
		dir = DefaultConfigDir
	}
	return LoadFrom(dir)
}

// LoadFrom 从指定目录加载配置并校验
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	// 1. 加载默认配置
	if err := loadConfigFile(v, filepath.Join(dir, "config.yaml"), false); err != nil {
		return nil, err
	}

	// 2. 加载环境特定配置
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	envFile := filepath.Join(dir, fmt.Sprintf("config.%s.yaml", env))
	if err := loadConfigFile(v, envFile, true); err != nil {
		return nil, err
	}

	// 3. 绑定环境变量 (直接覆盖)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 设置默认值 (兜底)
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadConfigFile 读取文件，执行环境变量替换，并加载到 viper
func loadConfigFile(v *viper.Viper, path string, optional bool) error {
	content, err := os.ReadFile(path)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	reader := strings.NewReader(expandEnv(string(content)))
	if v.ConfigFileUsed() == "" {
		if err := v.ReadConfig(reader); err != nil {
			return fmt.Errorf("failed to read processed config %s: %w", path, err)
		}
		// 手动标记已加载文件，后续文件走 MergeConfig
		v.SetConfigFile(path)
	} else {
		if err := v.MergeConfig(reader); err != nil {
			return fmt.Errorf("failed to merge processed config %s: %w", path, err)
		}
	}

	return nil
}

// expandEnv 替换字符串中的 ${VAR:default} 占位符
// 未设置且无默认值的变量保留原样
func expandEnv(s string) string {
	return placeholderRe.ReplaceAllStringFunc(s, func(match string) string {
		submatch := placeholderRe.FindStringSubmatch(match)
		key := submatch[1]
		hasDefault := submatch[2] != ""
		defVal := submatch[3]

		if val, ok := os.LookupEnv(key); ok {
			return val
		}
		if hasDefault {
			return defVal
		}
		return match
	})
}

// Validate 校验启动必需配置；缺少 API Key 时拒绝启动
func (c *Config) Validate() error {
	name := strings.TrimSpace(c.LLM.DefaultProvider)
	if name == "" {
		return errors.New("llm.default_provider is required")
	}
	p, ok := c.LLM.Providers[name]
	if !ok {
		return fmt.Errorf("llm provider %q not found in config", name)
	}
	key := strings.TrimSpace(p.APIKey)
	if key == "" || placeholderRe.MatchString(key) {
		return fmt.Errorf("api_key for llm provider %q is not set", name)
	}
	switch p.Type {
	case "", ProviderTypeOpenAI:
	case ProviderTypeAzure:
		if strings.TrimSpace(p.BaseURL) == "" || strings.TrimSpace(p.Deployment) == "" {
			return fmt.Errorf("azure provider %q requires base_url and deployment", name)
		}
	default:
		return fmt.Errorf("llm provider %q has unknown type %q", name, p.Type)
	}

	switch c.Story.Mode {
	case StoryModeParagraphs:
		if c.Story.Paragraphs <= 0 || c.Story.WordsPerParagraph <= 0 {
			return errors.New("story.paragraphs and story.words_per_paragraph must be positive")
		}
	case StoryModeWords:
		if c.Story.MaxWords <= 0 {
			return errors.New("story.max_words must be positive")
		}
	default:
		return fmt.Errorf("unknown story.mode %q", c.Story.Mode)
	}

	if c.Security.RateLimit.Enabled && c.Security.RateLimit.RequestsPerWindow <= 0 {
		return errors.New("security.rate_limit.requests_per_window must be positive")
	}
	return nil
}

// setDefaults 设置配置默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "short-story-api")
	v.SetDefault("app.version", "v0.0.0")
	v.SetDefault("app.env", "development")

	// HTTP 服务器默认值
	v.SetDefault("server.http.host", "0.0.0.0")
	v.SetDefault("server.http.port", 5000)
	v.SetDefault("server.http.read_timeout", "30s")
	v.SetDefault("server.http.write_timeout", "90s")
	v.SetDefault("server.http.idle_timeout", "120s")
	v.SetDefault("server.http.shutdown_timeout", "30s")

	// Redis 默认值
	v.SetDefault("cache.redis.host", "localhost")
	v.SetDefault("cache.redis.port", 6379)
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.pool_size", 20)
	v.SetDefault("cache.redis.min_idle_conns", 2)
	v.SetDefault("cache.redis.dial_timeout", "5s")
	v.SetDefault("cache.redis.read_timeout", "3s")
	v.SetDefault("cache.redis.write_timeout", "3s")

	// LLM 默认值（Mistral OpenAI 兼容接口）
	v.SetDefault("llm.default_provider", "mistral")
	v.SetDefault("llm.providers.mistral.type", ProviderTypeOpenAI)
	v.SetDefault("llm.providers.mistral.base_url", "https://api.mistral.ai/v1")
	v.SetDefault("llm.providers.mistral.model", "mistral-small")
	v.SetDefault("llm.providers.mistral.max_tokens", 600)
	v.SetDefault("llm.providers.mistral.temperature", 0.8)
	v.SetDefault("llm.providers.mistral.timeout", "60s")

	// 故事约束默认值
	v.SetDefault("story.mode", StoryModeParagraphs)
	v.SetDefault("story.paragraphs", 3)
	v.SetDefault("story.words_per_paragraph", 100)
	v.SetDefault("story.max_words", 100)
	v.SetDefault("story.system_prompt", "You are a creative storyteller. Keep stories short and fun.")
	v.SetDefault("story.generation_timeout", "75s")

	// 可观测性默认值
	v.SetDefault("observability.logging.level", "info")
	v.SetDefault("observability.logging.format", "json")
	v.SetDefault("observability.logging.output", "stdout")
	v.SetDefault("observability.tracing.enabled", false)
	v.SetDefault("observability.tracing.endpoint", "localhost:4317")
	v.SetDefault("observability.tracing.sample_rate", 1.0)
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.path", "/metrics")

	// 安全默认值
	v.SetDefault("security.rate_limit.enabled", false)
	v.SetDefault("security.rate_limit.requests_per_window", 10)
	v.SetDefault("security.rate_limit.window", "1m")
	v.SetDefault("security.rate_limit.key_prefix", "ratelimit:story")
	v.SetDefault("security.cors.allowed_origins", []string{"*"})
	v.SetDefault("security.cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("security.cors.allowed_headers", []string{"Origin", "Content-Type", "X-Request-ID"})
}
