// Package configs provides configuration structures and utilities for hshop.
// This file contains tests for the configuration functionality.
//
// Package configs 提供hshop的配置结构和工具。
// 本文件包含配置功能的测试。
package configs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestDefaultConfig verifies that DefaultConfig returns a valid Config with the
// expected default values for important settings.
//
// TestDefaultConfig 验证DefaultConfig返回一个有效的Config，包含重要设置的预期默认值。
func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	if config == nil {
		t.Fatal("DefaultConfig() returned nil")
	}
	if err := config.Validate(); err != nil {
		t.Fatalf("DefaultConfig() is invalid: %v", err)
	}

	if config.Storage.Engine != "memory" {
		t.Errorf("Expected Storage.Engine to be 'memory', got '%s'", config.Storage.Engine)
	}
	if config.Keys.Products != "products" || config.Keys.Cart != "cart" || config.Keys.Categories != "categories" {
		t.Errorf("Unexpected default keys: %+v", config.Keys)
	}
	if config.Keys.Session != "user" {
		t.Errorf("Expected Keys.Session to be 'user', got '%s'", config.Keys.Session)
	}
	if config.Catalog.CategoryPolicy != "exact" {
		t.Errorf("Expected Catalog.CategoryPolicy to be 'exact', got '%s'", config.Catalog.CategoryPolicy)
	}
}

// TestLoadAndSaveConfig tests saving and loading configuration in YAML and JSON.
//
// TestLoadAndSaveConfig 测试以YAML和JSON格式保存和加载配置。
func TestLoadAndSaveConfig(t *testing.T) {
	tempDir := t.TempDir()

	for _, name := range []string{"config.yaml", "config.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(tempDir, name)

			config := DefaultConfig()
			config.Storage.Engine = "file"
			config.Storage.FileDir = "/var/lib/hshop"
			config.Catalog.CategoryPolicy = "case_insensitive"
			config.Server.ReadTimeout = 3 * time.Second

			if err := config.SaveToFile(path); err != nil {
				t.Fatalf("Failed to save config: %v", err)
			}

			loaded, err := LoadFromFile(path)
			if err != nil {
				t.Fatalf("Failed to load config: %v", err)
			}
			if !configsEqual(config, loaded) {
				t.Errorf("Loaded config differs from saved config:\nsaved:  %+v\nloaded: %+v", config, loaded)
			}
		})
	}

	if err := DefaultConfig().SaveToFile(filepath.Join(tempDir, "config.ini")); err == nil {
		t.Error("Expected error saving to unsupported extension")
	}
	if _, err := os.Stat(filepath.Join(tempDir, "config.ini")); !os.IsNotExist(err) {
		t.Error("Unsupported extension should not create a file")
	}
}

// TestLoadFromReaderKeepsDefaults verifies that sections missing from the input
// keep their default values.
//
// TestLoadFromReaderKeepsDefaults 验证输入中缺失的部分保留默认值。
func TestLoadFromReaderKeepsDefaults(t *testing.T) {
	config, err := LoadFromReader(strings.NewReader(`{"storage": {"engine": "redis", "redis_url": "redis://localhost:6379"}}`), "json")
	if err != nil {
		t.Fatalf("LoadFromReader() error: %v", err)
	}
	if config.Storage.Engine != "redis" {
		t.Errorf("Expected Storage.Engine to be 'redis', got '%s'", config.Storage.Engine)
	}
	if config.Server.Addr != ":8080" {
		t.Errorf("Expected default Server.Addr, got '%s'", config.Server.Addr)
	}

	if _, err := LoadFromReader(strings.NewReader(""), "yaml"); err != nil {
		t.Errorf("Empty YAML should load defaults, got %v", err)
	}
	if _, err := LoadFromReader(strings.NewReader("x = 1"), "toml"); err == nil {
		t.Error("Expected error for unsupported format")
	}
}

// TestValidate tests configuration validation with invalid values.
//
// TestValidate 使用无效值测试配置验证。
func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(*Config)
	}{
		{"empty addr", func(c *Config) { c.Server.Addr = "" }},
		{"bad mode", func(c *Config) { c.Server.Mode = "prod" }},
		{"zero rps", func(c *Config) { c.Server.RateLimit.RPS = 0 }},
		{"unknown engine", func(c *Config) { c.Storage.Engine = "leveldb" }},
		{"redis without url", func(c *Config) { c.Storage.Engine = "redis" }},
		{"shared key", func(c *Config) { c.Keys.Cart = c.Keys.Products }},
		{"empty session key", func(c *Config) { c.Keys.Session = "" }},
		{"bad policy", func(c *Config) { c.Catalog.CategoryPolicy = "fuzzy" }},
		{"bad metrics path", func(c *Config) { c.Metrics.Path = "metrics" }},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }},
		{"file log without path", func(c *Config) { c.Log.Output = "file" }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			config := DefaultConfig()
			tc.modify(config)
			if err := config.Validate(); err == nil {
				t.Errorf("Validate() returned nil for %s", tc.name)
			}
		})
	}
}

// TestExampleConfig keeps the shipped example file loadable and valid.
//
// TestExampleConfig 确保附带的示例文件可加载且有效。
func TestExampleConfig(t *testing.T) {
	cfg, err := LoadFromFile("hshop.example.yaml")
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.Storage.Engine != "file" {
		t.Errorf("Storage.Engine = %q, want %q", cfg.Storage.Engine, "file")
	}
	if !cfg.Extensions.HotReload.Enable {
		t.Error("Extensions.HotReload.Enable = false, want true")
	}
	if cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Errorf("Server.ShutdownTimeout = %v, want 10s", cfg.Server.ShutdownTimeout)
	}
}
