package storage

import (
	"context"
	"sync"

	hserrors "github.com/Humphrey-He/hshop/pkg/errors"
)

// MemoryBackend is an in-memory Backend.
// It backs the session store and stands in for persistent storage in tests.
//
// MemoryBackend 是一个内存Backend。
// 它用作会话存储，并在测试中替代持久化存储。
type MemoryBackend struct {
	mu     sync.RWMutex
	items  map[string][]byte
	closed bool
	counters
}

// NewMemoryBackend creates an empty MemoryBackend.
//
// NewMemoryBackend 创建一个空的MemoryBackend。
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{items: make(map[string][]byte)}
}

// Get retrieves a copy of the blob stored under key.
//
// Get 检索键下存储的字节块副本。
func (m *MemoryBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := checkKey(key); err != nil {
		return nil, false, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, false, hserrors.ErrClosed
	}

	value, found := m.items[key]
	m.recordGet(found)
	if !found {
		return nil, false, nil
	}

	out := make([]byte, len(value))
	copy(out, value)
	return out, true, nil
}

// Set stores a copy of value under key.
//
// Set 在键下存储值的副本。
func (m *MemoryBackend) Set(ctx context.Context, key string, value []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return hserrors.ErrClosed
	}

	stored := make([]byte, len(value))
	copy(stored, value)
	m.items[key] = stored
	m.recordWrite()
	return nil
}

// Delete removes key.
//
// Delete 删除键。
func (m *MemoryBackend) Delete(ctx context.Context, key string) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false, hserrors.ErrClosed
	}

	_, exists := m.items[key]
	delete(m.items, key)
	m.recordDelete(exists)
	return exists, nil
}

// Clear removes all keys.
//
// Clear 删除所有键。
func (m *MemoryBackend) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return hserrors.ErrClosed
	}

	m.items = make(map[string][]byte)
	return nil
}

// Stats returns the backend statistics.
//
// Stats 返回后端统计信息。
func (m *MemoryBackend) Stats(ctx context.Context) (*Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.snapshot(int64(len(m.items))), nil
}

// Close drops all data. Later calls return errors.ErrClosed.
//
// Close 丢弃所有数据。之后的调用返回errors.ErrClosed。
func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items = make(map[string][]byte)
	m.closed = true
	return nil
}
