// Package configs provides configuration structures and utilities for hshop.
// This file implements Viper-based configuration management with environment
// overrides and hot reloading support.
//
// Package configs 提供hshop的配置结构和工具。
// 本文件实现基于Viper的配置管理，支持环境变量覆盖和热重载。
package configs

import (
	"context"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// EnvPrefix prefixes environment overrides, e.g. HSHOP_STORAGE_ENGINE=redis.
const EnvPrefix = "HSHOP"

// ViperConfig wraps a Config with Viper functionality for hot reloading.
// It provides thread-safe access to configuration and supports dynamic
// updates when the underlying configuration file changes.
//
// ViperConfig 使用Viper功能包装Config以支持热重载。
// 它提供对配置的线程安全访问，并支持在底层配置文件更改时进行动态更新。
type ViperConfig struct {
	config      *Config         // Current configuration / 当前配置
	viper       *viper.Viper    // Viper instance for configuration management / 用于配置管理的Viper实例
	configFile  string          // Path to the configuration file, may be empty / 配置文件路径，可以为空
	logger      *zap.Logger     // Reports reload outcomes / 报告重新加载的结果
	mu          sync.RWMutex    // Mutex for thread-safe access / 用于线程安全访问的互斥锁
	subscribers []func(*Config) // List of subscribers to notify on config changes / 配置更改时要通知的订阅者列表
}

// NewViperConfig creates a new ViperConfig.
// Values come from, in increasing priority: DefaultConfig, configFile (skipped
// when empty) and HSHOP_* environment variables.
//
// NewViperConfig 创建一个新的ViperConfig。
// 配置值的优先级从低到高依次为：DefaultConfig、configFile（为空时跳过）和HSHOP_*环境变量。
//
// Parameters:
//   - configFile: Path to the configuration file
//   - logger: Logger for reload events, may be nil
//
// Returns:
//   - *ViperConfig: A new ViperConfig instance
//   - error: An error if loading or validation fails
func NewViperConfig(configFile string, logger *zap.Logger) (*ViperConfig, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType(strings.TrimPrefix(filepath.Ext(configFile), "."))

		// Read the config file
		// 读取配置文件
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	config, err := decode(v)
	if err != nil {
		return nil, err
	}

	return &ViperConfig{
		config:      config,
		viper:       v,
		configFile:  configFile,
		logger:      logger,
		subscribers: make([]func(*Config), 0),
	}, nil
}

// EnableHotReload enables fsnotify-based reloading of the configuration file.
// When the file changes, the configuration is reloaded and, if it is valid,
// all subscribers are notified.
//
// EnableHotReload 启用基于fsnotify的配置文件热重载。
// 文件更改时重新加载配置，若配置有效则通知所有订阅者。
func (vc *ViperConfig) EnableHotReload() {
	if vc.configFile == "" {
		return
	}
	vc.viper.OnConfigChange(func(e fsnotify.Event) {
		vc.logger.Info("config file changed", zap.String("file", e.Name), zap.Stringer("op", e.Op))
		vc.reload()
	})
	vc.viper.WatchConfig()
}

// WatchPoll re-reads the configuration file every interval until ctx is done.
// It is an alternative to EnableHotReload for filesystems where notifications
// are unreliable.
//
// WatchPoll 每隔interval重新读取配置文件，直到ctx结束。
// 在文件系统通知不可靠的环境中，它可以替代EnableHotReload。
func (vc *ViperConfig) WatchPoll(ctx context.Context, interval time.Duration) {
	if vc.configFile == "" || interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := vc.viper.ReadInConfig(); err != nil {
					vc.logger.Warn("failed to read config file", zap.Error(err))
					continue
				}
				vc.reload()
			}
		}
	}()
}

// Subscribe adds a subscriber that will be notified when the configuration changes.
// The subscriber function is called with the new configuration as its argument.
//
// Subscribe 添加一个在配置更改时将被通知的订阅者。
// 订阅者函数将以新配置作为其参数被调用。
func (vc *ViperConfig) Subscribe(subscriber func(*Config)) {
	vc.mu.Lock()
	defer vc.mu.Unlock()
	vc.subscribers = append(vc.subscribers, subscriber)
}

// Get returns the current configuration.
// This method is thread-safe and can be called concurrently.
//
// Get 返回当前配置。此方法是线程安全的，可以并发调用。
func (vc *ViperConfig) Get() *Config {
	vc.mu.RLock()
	defer vc.mu.RUnlock()
	return vc.config
}

// reload decodes the current viper state and publishes it if it differs.
func (vc *ViperConfig) reload() {
	newConfig, err := decode(vc.viper)
	if err != nil {
		vc.logger.Warn("ignoring invalid configuration", zap.Error(err))
		return
	}

	vc.mu.Lock()
	if configsEqual(vc.config, newConfig) {
		vc.mu.Unlock()
		return
	}
	vc.config = newConfig
	subscribers := make([]func(*Config), len(vc.subscribers))
	copy(subscribers, vc.subscribers)
	vc.mu.Unlock()

	vc.logger.Info("configuration reloaded", zap.Int("subscribers", len(subscribers)))

	// Notify subscribers
	// 通知订阅者
	for _, subscriber := range subscribers {
		subscriber(newConfig)
	}
}

// LoadViperConfig loads a configuration using Viper and enables the reload
// mechanism selected by extensions.hot_reload.
//
// LoadViperConfig 使用Viper加载配置，并启用extensions.hot_reload所选择的重新加载机制。
func LoadViperConfig(ctx context.Context, configFile string, logger *zap.Logger) (*ViperConfig, error) {
	vc, err := NewViperConfig(configFile, logger)
	if err != nil {
		return nil, err
	}

	hr := vc.Get().Extensions.HotReload
	switch {
	case !hr.Enable:
	case hr.WatchInterval > 0:
		vc.WatchPoll(ctx, hr.WatchInterval)
	default:
		vc.EnableHotReload()
	}

	return vc, nil
}

func decode(v *viper.Viper) (*Config, error) {
	config := DefaultConfig()

	// Unmarshal the merged settings into the config struct
	// 将合并后的设置解析到配置结构中
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// setDefaults registers every leaf of cfg so AutomaticEnv can override keys
// that the config file does not mention.
func setDefaults(v *viper.Viper, cfg *Config) {
	var walk func(prefix string, val reflect.Value)
	walk = func(prefix string, val reflect.Value) {
		typ := val.Type()
		for i := 0; i < typ.NumField(); i++ {
			field := typ.Field(i)
			name := strings.Split(field.Tag.Get("mapstructure"), ",")[0]
			if name == "" || name == "-" {
				continue
			}
			key := name
			if prefix != "" {
				key = prefix + "." + name
			}

			fv := val.Field(i)
			if fv.Kind() == reflect.Struct && fv.Type() != reflect.TypeOf(time.Duration(0)) {
				walk(key, fv)
				continue
			}
			v.SetDefault(key, fv.Interface())
		}
	}
	walk("", reflect.ValueOf(cfg).Elem())
}

// configsEqual checks if two configs are equal.
//
// configsEqual 检查两个配置是否相等。
func configsEqual(c1, c2 *Config) bool {
	return reflect.DeepEqual(c1, c2)
}
