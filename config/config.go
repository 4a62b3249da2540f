package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用程序配置结构体
type Config struct {
	Log    LogConfig    `mapstructure:"log"`
	LLM    LLMConfig    `mapstructure:"llm"`
	OCR    OCRConfig    `mapstructure:"ocr"`
	Cache  CacheConfig  `mapstructure:"cache"`
	Parser ParserConfig `mapstructure:"parser"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`       // 日志级别：debug/info/warn/error
	File       string `mapstructure:"file"`        // 日志文件路径，空则输出到stderr
	MaxSizeMB  int    `mapstructure:"max_size_mb"` // 单个日志文件大小上限
	MaxBackups int    `mapstructure:"max_backups"` // 保留的旧日志文件数
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// LLMConfig 大语言模型配置
type LLMConfig struct {
	Provider     string        `mapstructure:"provider"`       // 提供商，目前支持 tongyi
	Model        string        `mapstructure:"model"`          // 模型名称
	APIKey       string        `mapstructure:"api_key"`        // API密钥，支持 ${ENV_VAR} 形式
	Endpoint     string        `mapstructure:"endpoint"`       // API端点
	MaxTokens    int           `mapstructure:"max_tokens"`     // 最大生成token数
	Temperature  float32       `mapstructure:"temperature"`    // 采样温度，层级分析要求≤0.2
	Timeout      time.Duration `mapstructure:"timeout"`        // 请求超时时间
	MaxRetries   int           `mapstructure:"max_retries"`    // 最大重试次数
	UseForLevels bool          `mapstructure:"use_for_levels"` // parse_quick是否优先使用LLM层级分析
}

// OCRConfig OCR服务配置
type OCRConfig struct {
	BaseURL        string        `mapstructure:"base_url"`         // OCR服务基础URL
	Timeout        time.Duration `mapstructure:"timeout"`          // 单批请求超时
	MaxPagesPerReq int           `mapstructure:"max_pages_per_req"` // 单批最大页数
	MaxBytesPerReq int64         `mapstructure:"max_bytes_per_req"` // 单批最大字节数
}

// CacheConfig 解析结果缓存配置
type CacheConfig struct {
	Enable          bool          `mapstructure:"enable"`           // 是否启用缓存
	Type            string        `mapstructure:"type"`             // 缓存类型：memory 或 redis
	RedisAddr       string        `mapstructure:"redis_addr"`       // Redis地址
	RedisPassword   string        `mapstructure:"redis_password"`   // Redis密码
	RedisDB         int           `mapstructure:"redis_db"`         // Redis数据库编号
	DefaultTTL      time.Duration `mapstructure:"default_ttl"`      // 默认过期时间
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"` // 内存缓存清理间隔
}

// Load 从文件和环境变量加载配置
func Load(configPath string) (*Config, error) {
	var config Config

	if configPath == "" {
		configPath = "config.yaml"
	}

	v := viper.New()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Printf("Warning: Config file not found at %s, using defaults", configPath)
		} else if os.IsNotExist(err) {
			log.Printf("Warning: Config file not found at %s, using defaults", configPath)
		} else {
			return nil, fmt.Errorf("failed to read config file: %v", err)
		}
	} else {
		log.Printf("Using config file: %s", v.ConfigFileUsed())
	}

	setDefaults(v)

	// 支持环境变量覆盖，如 TENDER_LLM_API_KEY
	v.SetEnvPrefix("tender")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %v", err)
	}

	// 解析规则未在配置文件中覆盖时使用内置默认
	config.Parser = mergeParserDefaults(config.Parser)

	return processEnvironmentVariables(&config), nil
}

// processEnvironmentVariables 处理配置项中的 ${ENV_VAR} 占位符
func processEnvironmentVariables(cfg *Config) *Config {
	if strings.HasPrefix(cfg.LLM.APIKey, "${") && strings.HasSuffix(cfg.LLM.APIKey, "}") {
		envVar := cfg.LLM.APIKey[2 : len(cfg.LLM.APIKey)-1]
		if envVal := os.Getenv(envVar); envVal != "" {
			cfg.LLM.APIKey = envVal
		}
	}
	return cfg
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)

	v.SetDefault("llm.provider", "tongyi")
	v.SetDefault("llm.model", "qwen-plus")
	v.SetDefault("llm.max_tokens", 2048)
	v.SetDefault("llm.temperature", 0.1)
	v.SetDefault("llm.timeout", 60*time.Second)
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.use_for_levels", false)

	v.SetDefault("ocr.timeout", 120*time.Second)
	v.SetDefault("ocr.max_pages_per_req", 10)
	v.SetDefault("ocr.max_bytes_per_req", 4*1024*1024)

	v.SetDefault("cache.enable", false)
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.default_ttl", 24*time.Hour)
	v.SetDefault("cache.cleanup_interval", 10*time.Minute)
}

// Default 返回全默认配置，主要供测试使用
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info", MaxSizeMB: 100, MaxBackups: 5, MaxAgeDays: 30},
		LLM: LLMConfig{
			Provider:    "tongyi",
			Model:       "qwen-plus",
			MaxTokens:   2048,
			Temperature: 0.1,
			Timeout:     60 * time.Second,
			MaxRetries:  3,
		},
		OCR: OCRConfig{
			Timeout:        120 * time.Second,
			MaxPagesPerReq: 10,
			MaxBytesPerReq: 4 * 1024 * 1024,
		},
		Cache: CacheConfig{
			Type:            "memory",
			DefaultTTL:      24 * time.Hour,
			CleanupInterval: 10 * time.Minute,
		},
		Parser: DefaultParserConfig(),
	}
}
