// Package storage provides the key-value persistence used by the storefront.
// A Backend stores opaque byte blobs by string key; the Adapter layered on top
// stores JSON documents and turns every read failure into "nothing stored yet".
// The Adapter is the only component that talks to a Backend.
//
// Package storage 提供商店使用的键值持久化。
// Backend 按字符串键存储不透明的字节块；其上的Adapter存储JSON文档，
// 并把所有读取失败都视为"尚未存储"。Adapter是唯一直接访问Backend的组件。
package storage

import (
	"context"
	"sync/atomic"

	hserrors "github.com/Humphrey-He/hshop/pkg/errors"
)

// Backend defines the interface of a raw blob store.
// All methods are safe for concurrent use.
//
// Backend 定义原始字节存储的接口。
// 所有方法都可以并发调用。
type Backend interface {
	// Get retrieves the blob stored under key.
	// If the key is absent, (nil, false, nil) is returned.
	//
	// Get 检索键下存储的字节块。
	// 如果键不存在，则返回 (nil, false, nil)。
	//
	// Parameters:
	//   - ctx: Context for the operation
	//   - key: The key to retrieve
	//
	// Returns:
	//   - []byte: The stored bytes if found
	//   - bool: True if the key exists
	//   - error: Error if the backend could not be read
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key, replacing any previous value.
	//
	// Set 将值存储在键下，替换之前的值。
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. It reports whether the key existed.
	//
	// Delete 删除键，并报告该键是否存在。
	Delete(ctx context.Context, key string) (bool, error)

	// Clear removes every key owned by this backend (its namespace only).
	//
	// Clear 删除此后端拥有的所有键（仅限其命名空间）。
	Clear(ctx context.Context) error

	// Stats returns operation counters and the current entry count.
	//
	// Stats 返回操作计数和当前条目数量。
	Stats(ctx context.Context) (*Stats, error)

	// Close releases resources. Later calls return errors.ErrClosed.
	//
	// Close 释放资源。之后的调用返回errors.ErrClosed。
	Close() error
}

// Stats represents backend statistics.
//
// Stats 表示后端统计信息。
type Stats struct {
	// EntryCount is the current number of keys
	// EntryCount 是当前的键数量
	EntryCount int64 `json:"entry_count"`

	// Hits is the number of Get calls that found a value
	// Hits 是找到值的Get调用次数
	Hits int64 `json:"hits"`

	// Misses is the number of Get calls for absent keys
	// Misses 是键不存在的Get调用次数
	Misses int64 `json:"misses"`

	// Writes is the number of successful Set calls
	// Writes 是成功的Set调用次数
	Writes int64 `json:"writes"`

	// Deletes is the number of Delete calls that removed a key
	// Deletes 是实际删除了键的Delete调用次数
	Deletes int64 `json:"deletes"`
}

// counters is embedded by every backend implementation.
type counters struct {
	hits    atomic.Int64
	misses  atomic.Int64
	writes  atomic.Int64
	deletes atomic.Int64
}

func (c *counters) recordGet(found bool) {
	if found {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
}

func (c *counters) recordWrite() { c.writes.Add(1) }

func (c *counters) recordDelete(existed bool) {
	if existed {
		c.deletes.Add(1)
	}
}

func (c *counters) snapshot(entries int64) *Stats {
	return &Stats{
		EntryCount: entries,
		Hits:       c.hits.Load(),
		Misses:     c.misses.Load(),
		Writes:     c.writes.Load(),
		Deletes:    c.deletes.Load(),
	}
}

// checkKey rejects empty keys.
func checkKey(key string) error {
	if key == "" {
		return hserrors.NewKeyError(key, hserrors.ErrKeyEmpty)
	}
	return nil
}
