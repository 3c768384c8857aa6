package storage

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	hserrors "github.com/Humphrey-He/hshop/pkg/errors"
)

const (
	// DefaultNamespace prefixes every key written to shared stores (redis, postgres).
	// DefaultNamespace 是写入共享存储（redis、postgres）的每个键的前缀。
	DefaultNamespace = "hshop"

	redisScanCount   = 100
	redisPingTimeout = 5 * time.Second
)

// RedisOptions configures a RedisBackend.
//
// RedisOptions 配置RedisBackend。
type RedisOptions struct {
	URL       string      // redis://[:password@]host:port[/db]
	DB        int         // Overrides the DB in URL when >= 0
	Namespace string      // Key prefix, DefaultNamespace when empty
	Logger    *zap.Logger // Optional
}

// RedisBackend stores documents in redis under "<namespace>:<key>".
//
// RedisBackend 将文档存储在redis的"<namespace>:<key>"下。
type RedisBackend struct {
	client     *redis.Client
	namespace  string
	ownsClient bool
	closed     atomic.Bool
	logger     *zap.Logger
	counters
}

// NewRedisBackend connects to redis and verifies the connection with a ping.
//
// NewRedisBackend 连接redis并通过ping验证连接。
//
// Parameters:
//   - ctx: Context bounding the initial ping
//   - opts: Connection options
//
// Returns:
//   - *RedisBackend: A connected backend
//   - error: An error if the URL is invalid or redis is unreachable
func NewRedisBackend(ctx context.Context, opts RedisOptions) (*RedisBackend, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("redis backend: url is required")
	}

	redisOpt, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("redis backend: invalid url: %w", err)
	}
	if opts.DB >= 0 && opts.DB <= 15 {
		redisOpt.DB = opts.DB
	}

	client := redis.NewClient(redisOpt)

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis backend: connect to db %d: %w", redisOpt.DB, err)
	}

	b := NewRedisBackendFromClient(client, opts.Namespace, opts.Logger)
	b.ownsClient = true
	b.logger.Info("redis backend connected",
		zap.Int("db", redisOpt.DB),
		zap.String("namespace", b.namespace))
	return b, nil
}

// NewRedisBackendFromClient wraps an existing client. The caller keeps ownership
// of the client; Close does not close it.
//
// NewRedisBackendFromClient 包装已有的客户端。调用方保留客户端的所有权，Close不会关闭它。
func NewRedisBackendFromClient(client *redis.Client, namespace string, logger *zap.Logger) *RedisBackend {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisBackend{
		client:    client,
		namespace: namespace,
		logger:    logger,
	}
}

func (r *RedisBackend) key(key string) string {
	return r.namespace + ":" + key
}

// Get retrieves the document stored under key.
//
// Get 检索键下存储的文档。
func (r *RedisBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := checkKey(key); err != nil {
		return nil, false, err
	}
	if r.closed.Load() {
		return nil, false, hserrors.ErrClosed
	}

	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		r.recordGet(false)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis backend: get %q: %w", key, err)
	}

	r.recordGet(true)
	return data, true, nil
}

// Set stores value under key without expiry.
//
// Set 在键下存储值，不设置过期时间。
func (r *RedisBackend) Set(ctx context.Context, key string, value []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if r.closed.Load() {
		return hserrors.ErrClosed
	}

	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis backend: set %q: %w", key, err)
	}
	r.recordWrite()
	return nil
}

// Delete removes key.
//
// Delete 删除键。
func (r *RedisBackend) Delete(ctx context.Context, key string) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}
	if r.closed.Load() {
		return false, hserrors.ErrClosed
	}

	n, err := r.client.Del(ctx, r.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("redis backend: delete %q: %w", key, err)
	}
	r.recordDelete(n > 0)
	return n > 0, nil
}

// Clear deletes every key under the namespace using SCAN, never KEYS.
//
// Clear 使用SCAN（而非KEYS）删除命名空间下的所有键。
func (r *RedisBackend) Clear(ctx context.Context) error {
	if r.closed.Load() {
		return hserrors.ErrClosed
	}

	keys, err := r.scan(ctx)
	if err != nil {
		return err
	}
	for start := 0; start < len(keys); start += redisScanCount {
		end := start + redisScanCount
		if end > len(keys) {
			end = len(keys)
		}
		if err := r.client.Del(ctx, keys[start:end]...).Err(); err != nil {
			return fmt.Errorf("redis backend: clear: %w", err)
		}
	}

	r.logger.Debug("redis namespace cleared",
		zap.String("namespace", r.namespace),
		zap.Int("keys", len(keys)))
	return nil
}

// Stats returns the backend statistics; EntryCount is the namespace size.
//
// Stats 返回后端统计信息；EntryCount为命名空间中的键数量。
func (r *RedisBackend) Stats(ctx context.Context) (*Stats, error) {
	keys, err := r.scan(ctx)
	if err != nil {
		return nil, err
	}
	return r.snapshot(int64(len(keys))), nil
}

// Close closes the client if the backend created it.
//
// Close 如果客户端由后端创建，则关闭它。
func (r *RedisBackend) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	if r.ownsClient {
		return r.client.Close()
	}
	return nil
}

func (r *RedisBackend) scan(ctx context.Context) ([]string, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, r.namespace+":*", redisScanCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis backend: scan %s: %w", r.namespace, err)
	}
	return keys, nil
}
