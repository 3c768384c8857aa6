package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/lib/pq"
	"go.uber.org/zap"

	hserrors "github.com/Humphrey-He/hshop/pkg/errors"
)

// DefaultPostgresTable is the table holding documents when none is configured.
const DefaultPostgresTable = "kv_store"

// PostgresOptions configures a PostgresBackend.
//
// PostgresOptions 配置PostgresBackend。
type PostgresOptions struct {
	DSN       string      // lib/pq connection string
	Table     string      // DefaultPostgresTable when empty
	Namespace string      // DefaultNamespace when empty
	Logger    *zap.Logger // Optional
}

// PostgresBackend stores documents as rows of (namespace, key, value).
//
// PostgresBackend 将文档存储为(namespace, key, value)行。
type PostgresBackend struct {
	db        *sql.DB
	ownsDB    bool
	table     string
	namespace string
	closed    atomic.Bool
	logger    *zap.Logger
	counters
}

// NewPostgresBackend opens a connection pool, pings it and creates the table if needed.
//
// NewPostgresBackend 打开连接池，执行ping，并在需要时创建表。
func NewPostgresBackend(ctx context.Context, opts PostgresOptions) (*PostgresBackend, error) {
	if opts.DSN == "" {
		return nil, fmt.Errorf("postgres backend: dsn is required")
	}

	db, err := sql.Open("postgres", opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres backend: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres backend: ping: %w", err)
	}

	b, err := NewPostgresBackendFromDB(ctx, db, opts.Table, opts.Namespace, opts.Logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	b.ownsDB = true
	return b, nil
}

// NewPostgresBackendFromDB uses an existing pool. The caller keeps ownership of db.
//
// NewPostgresBackendFromDB 使用已有的连接池，调用方保留db的所有权。
func NewPostgresBackendFromDB(ctx context.Context, db *sql.DB, table, namespace string, logger *zap.Logger) (*PostgresBackend, error) {
	if table == "" {
		table = DefaultPostgresTable
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	b := &PostgresBackend{
		db:        db,
		table:     pq.QuoteIdentifier(table),
		namespace: namespace,
		logger:    logger,
	}

	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		namespace  TEXT        NOT NULL,
		key        TEXT        NOT NULL,
		value      BYTEA       NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (namespace, key)
	)`, b.table)
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return nil, fmt.Errorf("postgres backend: create table %s: %w", b.table, err)
	}

	logger.Info("postgres backend ready",
		zap.String("table", table),
		zap.String("namespace", namespace))
	return b, nil
}

// Get retrieves the document stored under key.
//
// Get 检索键下存储的文档。
func (p *PostgresBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := checkKey(key); err != nil {
		return nil, false, err
	}
	if p.closed.Load() {
		return nil, false, hserrors.ErrClosed
	}

	query := fmt.Sprintf(`SELECT value FROM %s WHERE namespace = $1 AND key = $2`, p.table)

	var data []byte
	err := p.db.QueryRowContext(ctx, query, p.namespace, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		p.recordGet(false)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("postgres backend: get %q: %w", key, err)
	}

	p.recordGet(true)
	return data, true, nil
}

// Set upserts the document.
//
// Set 插入或更新文档。
func (p *PostgresBackend) Set(ctx context.Context, key string, value []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if p.closed.Load() {
		return hserrors.ErrClosed
	}

	query := fmt.Sprintf(`INSERT INTO %s (namespace, key, value, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (namespace, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`, p.table)

	if _, err := p.db.ExecContext(ctx, query, p.namespace, key, value); err != nil {
		return fmt.Errorf("postgres backend: set %q: %w", key, err)
	}
	p.recordWrite()
	return nil
}

// Delete removes the row for key.
//
// Delete 删除键对应的行。
func (p *PostgresBackend) Delete(ctx context.Context, key string) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}
	if p.closed.Load() {
		return false, hserrors.ErrClosed
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE namespace = $1 AND key = $2`, p.table)
	res, err := p.db.ExecContext(ctx, query, p.namespace, key)
	if err != nil {
		return false, fmt.Errorf("postgres backend: delete %q: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("postgres backend: delete %q: %w", key, err)
	}
	p.recordDelete(n > 0)
	return n > 0, nil
}

// Clear deletes every row in the namespace.
//
// Clear 删除命名空间中的所有行。
func (p *PostgresBackend) Clear(ctx context.Context) error {
	if p.closed.Load() {
		return hserrors.ErrClosed
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE namespace = $1`, p.table)
	if _, err := p.db.ExecContext(ctx, query, p.namespace); err != nil {
		return fmt.Errorf("postgres backend: clear: %w", err)
	}
	return nil
}

// Stats returns the backend statistics.
//
// Stats 返回后端统计信息。
func (p *PostgresBackend) Stats(ctx context.Context) (*Stats, error) {
	query := fmt.Sprintf(`SELECT count(*) FROM %s WHERE namespace = $1`, p.table)

	var n int64
	if err := p.db.QueryRowContext(ctx, query, p.namespace).Scan(&n); err != nil {
		return nil, fmt.Errorf("postgres backend: stats: %w", err)
	}
	return p.snapshot(n), nil
}

// Close closes the pool if the backend opened it.
//
// Close 如果连接池由后端打开，则关闭它。
func (p *PostgresBackend) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	if p.ownsDB {
		return p.db.Close()
	}
	return nil
}
