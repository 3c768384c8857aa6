// Package configs provides configuration structures and utilities for hshop.
// It offers mechanisms for loading, validating, and saving configuration from
// JSON and YAML files, and a viper-backed loader with environment overrides and
// hot reloading.
//
// Package configs 提供hshop的配置结构和工具。
// 它提供从JSON和YAML文件加载、验证和保存配置的机制，
// 以及支持环境变量覆盖和热重载的基于viper的加载器。
package configs

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Humphrey-He/hshop/pkg/catalog"
	"github.com/Humphrey-He/hshop/pkg/storage"
)

// Config represents the complete configuration for hshop.
// It is organized into sections for the components it configures.
//
// Config 表示hshop的完整配置，按所配置的组件分为若干部分。
type Config struct {
	// Server configures the HTTP presentation adapter
	// Server 配置HTTP表示层适配器
	Server ServerConfig `json:"server" yaml:"server" mapstructure:"server"`

	// Storage selects the persistent backend
	// Storage 选择持久化后端
	Storage storage.Config `json:"storage" yaml:"storage" mapstructure:"storage"`

	// Keys are the storage keys of the stored documents
	// Keys 是已存储文档的存储键
	Keys KeysConfig `json:"keys" yaml:"keys" mapstructure:"keys"`

	// Catalog configures the product and category repositories
	// Catalog 配置商品和分类仓库
	Catalog CatalogConfig `json:"catalog" yaml:"catalog" mapstructure:"catalog"`

	// Metrics configures prometheus metrics
	// Metrics 配置prometheus指标
	Metrics MetricsConfig `json:"metrics" yaml:"metrics" mapstructure:"metrics"`

	// Log configures the logging behavior
	// Log 配置日志行为
	Log LogConfig `json:"log" yaml:"log" mapstructure:"log"`

	// Extensions configures optional features like hot reloading
	// Extensions 配置可选功能，如热重载
	Extensions ExtensionsConfig `json:"extensions" yaml:"extensions" mapstructure:"extensions"`

	// Extra allows for custom configuration options
	// Extra 允许自定义配置选项
	Extra map[string]interface{} `json:"extra,omitempty" yaml:"extra,omitempty" mapstructure:"extra"`
}

// ServerConfig contains settings for the HTTP server.
//
// ServerConfig 包含HTTP服务器的设置。
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8080"
	// Addr 是监听地址，例如":8080"
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// Mode is the gin mode ("debug", "release", "test")
	// Mode 是gin模式（"debug"、"release"、"test"）
	Mode string `json:"mode" yaml:"mode" mapstructure:"mode"`

	// ReadTimeout bounds reading a request
	// ReadTimeout 限制读取请求的时间
	ReadTimeout time.Duration `json:"read_timeout" yaml:"read_timeout" mapstructure:"read_timeout"`

	// WriteTimeout bounds writing a response; 0 disables it so SSE streams stay open
	// WriteTimeout 限制写入响应的时间；0表示禁用，以便SSE流保持打开
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout" mapstructure:"write_timeout"`

	// ShutdownTimeout bounds graceful shutdown
	// ShutdownTimeout 限制优雅关闭的时间
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`

	// RateLimit configures the per-client token bucket
	// RateLimit 配置每个客户端的令牌桶
	RateLimit RateLimitConfig `json:"rate_limit" yaml:"rate_limit" mapstructure:"rate_limit"`
}

// RateLimitConfig contains settings for request rate limiting.
//
// RateLimitConfig 包含请求限流的设置。
type RateLimitConfig struct {
	Enable bool    `json:"enable" yaml:"enable" mapstructure:"enable"`
	RPS    float64 `json:"rps" yaml:"rps" mapstructure:"rps"`
	Burst  int     `json:"burst" yaml:"burst" mapstructure:"burst"`
}

// KeysConfig names the storage key of each collection.
//
// KeysConfig 指定每个集合的存储键。
type KeysConfig struct {
	Products   string `json:"products" yaml:"products" mapstructure:"products"`
	Cart       string `json:"cart" yaml:"cart" mapstructure:"cart"`
	Categories string `json:"categories" yaml:"categories" mapstructure:"categories"`
	Session    string `json:"session" yaml:"session" mapstructure:"session"`
}

// CatalogConfig contains settings for the catalog repositories.
//
// CatalogConfig 包含目录仓库的设置。
type CatalogConfig struct {
	// CategoryPolicy is "exact" or "case_insensitive"
	// CategoryPolicy 为"exact"或"case_insensitive"
	CategoryPolicy string `json:"category_policy" yaml:"category_policy" mapstructure:"category_policy"`

	// PlaceholderImage is used for products without any image
	// PlaceholderImage 用于没有任何图片的商品
	PlaceholderImage string `json:"placeholder_image" yaml:"placeholder_image" mapstructure:"placeholder_image"`

	// SeedFile is a YAML or JSON catalog loaded into an empty store
	// SeedFile 是加载到空存储中的YAML或JSON目录文件
	SeedFile string `json:"seed_file" yaml:"seed_file" mapstructure:"seed_file"`

	// SeedOptional starts with an empty catalog when the seed file cannot be loaded
	// SeedOptional 在种子文件无法加载时以空目录启动
	SeedOptional bool `json:"seed_optional" yaml:"seed_optional" mapstructure:"seed_optional"`
}

// MetricsConfig contains settings for metrics collection.
//
// MetricsConfig 包含指标收集的设置。
type MetricsConfig struct {
	// Enable determines whether metrics collection is active
	// Enable 确定是否启用指标收集
	Enable bool `json:"enable" yaml:"enable" mapstructure:"enable"`

	// Path is the HTTP path serving the prometheus exposition
	// Path 是提供prometheus指标的HTTP路径
	Path string `json:"path" yaml:"path" mapstructure:"path"`

	// Namespace prefixes every metric name
	// Namespace 是所有指标名称的前缀
	Namespace string `json:"namespace" yaml:"namespace" mapstructure:"namespace"`

	// HistogramBuckets defines latency histogram buckets in seconds
	// HistogramBuckets 定义延迟直方图桶（秒）
	HistogramBuckets []float64 `json:"histogram_buckets,omitempty" yaml:"histogram_buckets,omitempty" mapstructure:"histogram_buckets"`
}

// LogConfig contains settings for logging.
//
// LogConfig 包含日志记录的设置。
type LogConfig struct {
	// Level sets the minimum log level ("debug", "info", "warn", "error")
	// Level 设置最低日志级别（"debug"、"info"、"warn"、"error"）
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format specifies the log format ("console", "json")
	// Format 指定日志格式（"console"、"json"）
	Format string `json:"format" yaml:"format" mapstructure:"format"`

	// Output determines where logs are written ("stdout", "stderr", "file")
	// Output 确定日志写入的位置（"stdout"、"stderr"、"file"）
	Output string `json:"output" yaml:"output" mapstructure:"output"`

	// FilePath is the path to the log file when Output is "file"
	// FilePath 是当Output为"file"时的日志文件路径
	FilePath string `json:"file_path" yaml:"file_path" mapstructure:"file_path"`
}

// ExtensionsConfig contains settings for extensions.
//
// ExtensionsConfig 包含扩展的设置。
type ExtensionsConfig struct {
	// HotReload contains settings for dynamic configuration reloading
	// HotReload 包含动态配置重新加载的设置
	HotReload HotReloadConfig `json:"hot_reload" yaml:"hot_reload" mapstructure:"hot_reload"`
}

// HotReloadConfig contains settings for hot reloading.
//
// HotReloadConfig 包含热重载的设置。
type HotReloadConfig struct {
	// Enable determines whether hot reloading is active
	// Enable 确定是否启用热重载
	Enable bool `json:"enable" yaml:"enable" mapstructure:"enable"`

	// WatchInterval switches from fsnotify to polling when positive
	// WatchInterval 为正数时从fsnotify切换为轮询
	WatchInterval time.Duration `json:"watch_interval" yaml:"watch_interval" mapstructure:"watch_interval"`
}

// DefaultConfig returns a new Config with default values.
//
// DefaultConfig 返回具有默认值的新Config。
//
// Returns:
//   - *Config: A new configuration instance with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			Mode:            "release",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    0,
			ShutdownTimeout: 10 * time.Second,
			RateLimit: RateLimitConfig{
				Enable: true,
				RPS:    20,
				Burst:  40,
			},
		},
		Storage: storage.NewDefaultConfig(),
		Keys: KeysConfig{
			Products:   catalog.DefaultProductsKey,
			Cart:       "cart",
			Categories: catalog.DefaultCategoriesKey,
			Session:    "user",
		},
		Catalog: CatalogConfig{
			CategoryPolicy:   catalog.PolicyExact.String(),
			PlaceholderImage: catalog.DefaultPlaceholderImage,
		},
		Metrics: MetricsConfig{
			Enable:    true,
			Path:      "/metrics",
			Namespace: "hshop",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Extensions: ExtensionsConfig{
			HotReload: HotReloadConfig{
				Enable: false,
			},
		},
	}
}

// LoadFromFile loads configuration from a file.
// The format is determined by the file extension (.json, .yaml, or .yml).
//
// LoadFromFile 从文件加载配置，格式由文件扩展名决定（.json、.yaml或.yml）。
//
// Parameters:
//   - filename: Path to the configuration file
//
// Returns:
//   - *Config: The loaded configuration
//   - error: An error if loading fails
func LoadFromFile(filename string) (*Config, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open configuration file: %w", err)
	}
	defer file.Close()

	return LoadFromReader(file, strings.TrimPrefix(filepath.Ext(filename), "."))
}

// LoadFromReader loads configuration from an io.Reader.
// Fields missing from the input keep their default values.
//
// LoadFromReader 从io.Reader加载配置，输入中缺失的字段保留默认值。
//
// Parameters:
//   - r: The reader providing the configuration data
//   - format: The format of the data ("json", "yaml", or "yml")
//
// Returns:
//   - *Config: The loaded configuration
//   - error: An error if loading fails
func LoadFromReader(r io.Reader, format string) (*Config, error) {
	config := DefaultConfig()
	var err error

	switch strings.ToLower(format) {
	case "yaml", "yml":
		err = yaml.NewDecoder(r).Decode(config)
	case "json":
		err = json.NewDecoder(r).Decode(config)
	default:
		return nil, fmt.Errorf("unsupported configuration format: %s", format)
	}

	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a file, selecting YAML or JSON by extension.
//
// SaveToFile 将配置保存到文件，根据扩展名选择YAML或JSON。
func (c *Config) SaveToFile(filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext != ".yaml" && ext != ".yml" && ext != ".json" {
		return fmt.Errorf("unsupported configuration file format: %s", ext)
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}
	defer file.Close()

	if ext == ".json" {
		encoder := json.NewEncoder(file)
		encoder.SetIndent("", "  ")
		err = encoder.Encode(c)
	} else {
		encoder := yaml.NewEncoder(file)
		defer encoder.Close()
		err = encoder.Encode(c)
	}

	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}

	return nil
}

// Validate checks that all settings have valid values.
//
// Validate 检查所有设置是否具有有效值。
//
// Returns:
//   - error: An error describing the validation failure, or nil if valid
func (c *Config) Validate() error {
	// Validate server settings
	// 验证服务器设置
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server.mode must be one of: debug, release, test")
	}
	if c.Server.RateLimit.Enable {
		if c.Server.RateLimit.RPS <= 0 {
			return fmt.Errorf("server.rate_limit.rps must be positive")
		}
		if c.Server.RateLimit.Burst < 1 {
			return fmt.Errorf("server.rate_limit.burst must be at least 1")
		}
	}

	// Validate storage settings
	// 验证存储设置
	if err := c.Storage.Validate(); err != nil {
		return err
	}

	// Validate keys; each repository owns a distinct key
	// 验证存储键；每个仓库拥有独立的键
	keys := map[string]string{
		"keys.products":   c.Keys.Products,
		"keys.cart":       c.Keys.Cart,
		"keys.categories": c.Keys.Categories,
	}
	seen := make(map[string]string, len(keys))
	for name, key := range keys {
		if key == "" {
			return fmt.Errorf("%s is required", name)
		}
		if other, ok := seen[key]; ok {
			return fmt.Errorf("%s and %s must differ", other, name)
		}
		seen[key] = name
	}
	if c.Keys.Session == "" {
		return fmt.Errorf("keys.session is required")
	}

	// Validate catalog settings
	// 验证目录设置
	if _, err := catalog.ParsePolicy(c.Catalog.CategoryPolicy); err != nil {
		return fmt.Errorf("catalog.category_policy: %w", err)
	}

	// Validate metrics settings
	// 验证指标设置
	if c.Metrics.Enable && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with /")
	}

	// Validate log settings
	// 验证日志设置
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of: debug, info, warn, error")
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be one of: console, json")
	}
	switch c.Log.Output {
	case "stdout", "stderr":
	case "file":
		if c.Log.FilePath == "" {
			return fmt.Errorf("log.file_path is required when log.output is file")
		}
	default:
		return fmt.Errorf("log.output must be one of: stdout, stderr, file")
	}

	return nil
}
