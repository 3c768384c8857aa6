package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Humphrey-He/hshop/internal/metrics"
	"github.com/Humphrey-He/hshop/pkg/codec"
	hserrors "github.com/Humphrey-He/hshop/pkg/errors"
)

// Adapter stores encoded documents in a Backend.
//
// Reads never fail: a missing key, a backend error and undecodable bytes all
// read as "nothing stored" so callers fall back to their empty value. Writes
// report errors to the caller.
//
// Adapter 在Backend中存储编码后的文档。
//
// 读取永不失败：键不存在、后端错误和无法解码的字节都视为"未存储"，
// 调用方因此回退到空值。写入会把错误返回给调用方。
type Adapter struct {
	backend Backend
	codec   codec.Codec
	logger  *zap.Logger
	metrics *metrics.Collector
}

// NewAdapter creates an Adapter over backend.
//
// NewAdapter 在backend之上创建Adapter。
func NewAdapter(backend Backend, opts ...Option) *Adapter {
	a := &Adapter{
		backend: backend,
		codec:   codec.DefaultCodec(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Read decodes the document under key into out, which must be a pointer.
// It reports whether out was filled.
//
// Read 将键下的文档解码到out（必须为指针），并报告out是否被填充。
func (a *Adapter) Read(ctx context.Context, key string, out interface{}) bool {
	data, ok := a.get(ctx, key)
	if !ok {
		return false
	}

	if err := a.codec.Unmarshal(data, out); err != nil {
		a.logger.Warn("stored document is not decodable, treating as absent",
			zap.String("key", key),
			zap.String("codec", a.codec.Name()),
			zap.Error(err))
		a.metrics.CorruptRead(key)
		return false
	}
	return true
}

// ReadRaw decodes the document under key into generic values
// (map[string]interface{}, []interface{}, float64, string, bool or nil).
//
// ReadRaw 将键下的文档解码为通用值。
func (a *Adapter) ReadRaw(ctx context.Context, key string) (interface{}, bool) {
	var v interface{}
	if !a.Read(ctx, key, &v) {
		return nil, false
	}
	return v, true
}

// Write encodes v and stores it under key, replacing the previous document.
//
// Write 编码v并将其存储在键下，替换之前的文档。
func (a *Adapter) Write(ctx context.Context, key string, v interface{}) error {
	data, err := a.codec.Marshal(v)
	if err != nil {
		a.metrics.StorageOp("write", metrics.ResultError)
		return fmt.Errorf("%w: %v", hserrors.NewKeyError(key, hserrors.ErrSerializationFailed), err)
	}

	if err := a.backend.Set(ctx, key, data); err != nil {
		a.metrics.StorageOp("write", metrics.ResultError)
		return fmt.Errorf("write %q: %w", key, err)
	}
	a.metrics.StorageOp("write", metrics.ResultOK)
	return nil
}

// Remove deletes the document under key. Removing an absent key is not an error.
//
// Remove 删除键下的文档，删除不存在的键不是错误。
func (a *Adapter) Remove(ctx context.Context, key string) error {
	if _, err := a.backend.Delete(ctx, key); err != nil {
		a.metrics.StorageOp("remove", metrics.ResultError)
		return fmt.Errorf("remove %q: %w", key, err)
	}
	a.metrics.StorageOp("remove", metrics.ResultOK)
	return nil
}

// Has reports whether anything is stored under key, decodable or not.
//
// Has 报告键下是否存储了内容（无论能否解码）。
func (a *Adapter) Has(ctx context.Context, key string) bool {
	_, ok := a.get(ctx, key)
	return ok
}

// Stats returns the statistics of the underlying backend.
//
// Stats 返回底层后端的统计信息。
func (a *Adapter) Stats(ctx context.Context) (*Stats, error) {
	return a.backend.Stats(ctx)
}

// Close closes the underlying backend.
//
// Close 关闭底层后端。
func (a *Adapter) Close() error {
	return a.backend.Close()
}

func (a *Adapter) get(ctx context.Context, key string) ([]byte, bool) {
	data, found, err := a.backend.Get(ctx, key)
	switch {
	case err != nil:
		a.logger.Warn("storage read failed, treating as absent",
			zap.String("key", key),
			zap.Error(err))
		a.metrics.StorageOp("read", metrics.ResultError)
		return nil, false
	case !found:
		a.metrics.StorageOp("read", metrics.ResultMiss)
		return nil, false
	default:
		a.metrics.StorageOp("read", metrics.ResultOK)
		return data, true
	}
}
