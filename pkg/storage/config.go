package storage

import (
	"fmt"
	"strings"

	hserrors "github.com/Humphrey-He/hshop/pkg/errors"
)

// Engine names accepted by NewBackend.
const (
	EngineMemory   = "memory"
	EngineFile     = "file"
	EngineRedis    = "redis"
	EnginePostgres = "postgres"
)

// Config selects and configures a Backend.
//
// Config 选择并配置一个Backend。
type Config struct {
	Engine        string `json:"engine" yaml:"engine" mapstructure:"engine"`
	Namespace     string `json:"namespace" yaml:"namespace" mapstructure:"namespace"`
	FileDir       string `json:"file_dir" yaml:"file_dir" mapstructure:"file_dir"`
	RedisURL      string `json:"redis_url" yaml:"redis_url" mapstructure:"redis_url"`
	RedisDB       int    `json:"redis_db" yaml:"redis_db" mapstructure:"redis_db"`
	PostgresDSN   string `json:"postgres_dsn" yaml:"postgres_dsn" mapstructure:"postgres_dsn"`
	PostgresTable string `json:"postgres_table" yaml:"postgres_table" mapstructure:"postgres_table"`
}

// NewDefaultConfig returns an in-memory configuration.
//
// NewDefaultConfig 返回内存存储配置。
func NewDefaultConfig() Config {
	return Config{
		Engine:        EngineMemory,
		Namespace:     DefaultNamespace,
		FileDir:       "./data",
		RedisDB:       0,
		PostgresTable: DefaultPostgresTable,
	}
}

// Validate checks that the fields required by the selected engine are set.
//
// Validate 检查所选引擎所需的字段是否已设置。
func (c Config) Validate() error {
	switch strings.ToLower(c.Engine) {
	case EngineMemory, "":
		return nil
	case EngineFile:
		if c.FileDir == "" {
			return fmt.Errorf("storage: file_dir is required for the file engine")
		}
	case EngineRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("storage: redis_url is required for the redis engine")
		}
		if c.RedisDB < 0 || c.RedisDB > 15 {
			return fmt.Errorf("storage: redis_db must be between 0 and 15")
		}
	case EnginePostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("storage: postgres_dsn is required for the postgres engine")
		}
	default:
		return fmt.Errorf("%w: %s", hserrors.ErrUnsupportedEngine, c.Engine)
	}
	return nil
}
