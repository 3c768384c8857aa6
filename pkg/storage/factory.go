package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	hserrors "github.com/Humphrey-He/hshop/pkg/errors"
)

// NewBackend creates the Backend selected by cfg.Engine.
//
// NewBackend 根据cfg.Engine创建对应的Backend。
//
// Parameters:
//   - ctx: Context bounding connection setup
//   - cfg: Storage configuration
//   - logger: Logger handed to network backends, may be nil
//
// Returns:
//   - Backend: The created backend
//   - error: An error if cfg is invalid or the backend cannot be reached
func NewBackend(ctx context.Context, cfg Config, logger *zap.Logger) (Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	switch strings.ToLower(cfg.Engine) {
	case EngineMemory, "":
		return NewMemoryBackend(), nil
	case EngineFile:
		return NewFileBackend(afero.NewOsFs(), cfg.FileDir)
	case EngineRedis:
		return NewRedisBackend(ctx, RedisOptions{
			URL:       cfg.RedisURL,
			DB:        cfg.RedisDB,
			Namespace: cfg.Namespace,
			Logger:    logger,
		})
	case EnginePostgres:
		return NewPostgresBackend(ctx, PostgresOptions{
			DSN:       cfg.PostgresDSN,
			Table:     cfg.PostgresTable,
			Namespace: cfg.Namespace,
			Logger:    logger,
		})
	default:
		return nil, fmt.Errorf("%w: %s", hserrors.ErrUnsupportedEngine, cfg.Engine)
	}
}
