package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cast"
	"go.uber.org/zap"
	"golang.org/x/text/cases"

	hserrors "github.com/Humphrey-He/hshop/pkg/errors"
	"github.com/Humphrey-He/hshop/pkg/storage"
)

// Policy decides when two category names are the same category.
//
// Policy 决定两个分类名称何时视为同一分类。
type Policy int

const (
	// PolicyExact matches names byte for byte.
	// PolicyExact 按字节完全匹配名称。
	PolicyExact Policy = iota

	// PolicyCaseInsensitive matches names after Unicode case folding.
	// PolicyCaseInsensitive 在Unicode大小写折叠后匹配名称。
	PolicyCaseInsensitive
)

// String returns the configuration name of the policy.
func (p Policy) String() string {
	switch p {
	case PolicyCaseInsensitive:
		return "case_insensitive"
	default:
		return "exact"
	}
}

// ParsePolicy parses "exact" or "case_insensitive". The empty string is PolicyExact.
//
// ParsePolicy 解析"exact"或"case_insensitive"，空字符串为PolicyExact。
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "exact":
		return PolicyExact, nil
	case "case_insensitive", "case-insensitive", "fold":
		return PolicyCaseInsensitive, nil
	default:
		return PolicyExact, fmt.Errorf("unknown category policy: %q", s)
	}
}

// Match reports whether a and b name the same category under p.
func (p Policy) Match(a, b string) bool {
	if p == PolicyCaseInsensitive {
		// A Caser is stateful, so each comparison gets its own.
		return cases.Fold().String(a) == cases.Fold().String(b)
	}
	return a == b
}

// CategorySource supplies category names to seed an empty category list.
type CategorySource interface {
	Load(ctx context.Context, key string) ([]string, error)
}

// CategoryManager is the repository of category names.
// Deleting a category never touches products that reference it.
//
// CategoryManager 是分类名称的仓库。删除分类不会修改引用它的商品。
type CategoryManager struct {
	store  *storage.Adapter
	key    string
	logger *zap.Logger

	mu     sync.Mutex
	policy Policy
}

// NewCategoryManager creates a CategoryManager storing its list under key.
//
// NewCategoryManager 创建一个在key下存储列表的CategoryManager。
func NewCategoryManager(store *storage.Adapter, key string, opts ...Option) *CategoryManager {
	if key == "" {
		key = DefaultCategoriesKey
	}
	o := newOptions(opts)
	return &CategoryManager{
		store:  store,
		key:    key,
		logger: o.logger.With(zap.String("repository", "categories")),
		policy: o.policy,
	}
}

// Policy returns the current matching policy.
func (m *CategoryManager) Policy() Policy {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.policy
}

// SetPolicy switches the matching policy. Names already stored are kept as they are.
//
// SetPolicy 切换匹配策略，已存储的名称保持不变。
func (m *CategoryManager) SetPolicy(p Policy) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.policy != p {
		m.logger.Info("category policy changed",
			zap.Stringer("from", m.policy),
			zap.Stringer("to", p))
	}
	m.policy = p
}

// GetAll returns the stored category names. Scalar entries are coerced to
// strings and anything else is skipped.
//
// GetAll 返回已存储的分类名称。标量条目转换为字符串，其他条目被跳过。
func (m *CategoryManager) GetAll(ctx context.Context) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load(ctx)
}

// Add appends name unless a matching name is already stored. It reports whether
// name was added.
//
// Add 在没有匹配名称时追加name，并报告是否已添加。
func (m *CategoryManager) Add(ctx context.Context, name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, fmt.Errorf("%w: category name is empty", hserrors.ErrInvalidRecord)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	names := m.load(ctx)
	for _, existing := range names {
		if m.policy.Match(existing, name) {
			return false, nil
		}
	}

	if err := m.store.Write(ctx, m.key, append(names, name)); err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes every name matching name and returns how many were removed.
//
// Delete 删除所有与name匹配的名称，并返回删除的数量。
func (m *CategoryManager) Delete(ctx context.Context, name string) (int, error) {
	name = strings.TrimSpace(name)

	m.mu.Lock()
	defer m.mu.Unlock()

	names := m.load(ctx)
	kept := make([]string, 0, len(names))
	for _, existing := range names {
		if !m.policy.Match(existing, name) {
			kept = append(kept, existing)
		}
	}

	removed := len(names) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if err := m.store.Write(ctx, m.key, kept); err != nil {
		return 0, err
	}
	return removed, nil
}

// InUse returns the products whose category matches name under the current policy.
// Callers that want to block or reassign before Delete use it.
//
// InUse 返回分类在当前策略下与name匹配的商品。
func (m *CategoryManager) InUse(ctx context.Context, products *ProductManager, name string) []Product {
	policy := m.Policy()

	var out []Product
	for _, p := range products.GetAll(ctx) {
		if policy.Match(p.Category, name) {
			out = append(out, p)
		}
	}
	return out
}

// Seed fills the list from src when nothing has ever been stored under the key.
//
// Seed 当键下从未存储过内容时，从src填充列表。
func (m *CategoryManager) Seed(ctx context.Context, src CategorySource) (int, error) {
	if m.store.Has(ctx, m.key) {
		return 0, nil
	}

	names, err := src.Load(ctx, m.key)
	if err != nil {
		return 0, fmt.Errorf("seed categories: %w", err)
	}

	added := 0
	for _, name := range names {
		ok, err := m.Add(ctx, name)
		if err != nil {
			return added, fmt.Errorf("seed category %q: %w", name, err)
		}
		if ok {
			added++
		}
	}
	return added, nil
}

func (m *CategoryManager) load(ctx context.Context) []string {
	var raw []interface{}
	if !m.store.Read(ctx, m.key, &raw) {
		return []string{}
	}

	names := make([]string, 0, len(raw))
	for _, entry := range raw {
		name, err := cast.ToStringE(entry)
		if err != nil || name == "" {
			continue
		}
		names = append(names, name)
	}
	return names
}
