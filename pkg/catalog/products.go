package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/Humphrey-He/hshop/internal/metrics"
	hserrors "github.com/Humphrey-He/hshop/pkg/errors"
	"github.com/Humphrey-He/hshop/pkg/storage"
)

// ProductSource supplies products to seed an empty catalog.
// loader.Loader[[]Product] satisfies it.
type ProductSource interface {
	Load(ctx context.Context, key string) ([]Product, error)
}

// ProductManager is the repository of the product collection.
//
// Every read migrates the stored records and, when any record changed, writes
// the whole collection back so later reads see canonical data.
//
// ProductManager 是商品集合的仓库。
//
// 每次读取都会迁移已存储的记录；只要有记录发生变化，就把整个集合写回，
// 使之后的读取看到规范数据。
type ProductManager struct {
	store    *storage.Adapter
	key      string
	migrator Migrator
	validate *validator.Validate
	logger   *zap.Logger
	metrics  *metrics.Collector

	// mu makes each read-modify-write of the collection atomic within the process.
	mu sync.Mutex
}

// NewProductManager creates a ProductManager storing its collection under key.
//
// NewProductManager 创建一个在key下存储集合的ProductManager。
//
// Parameters:
//   - store: The document store
//   - key: The storage key, DefaultProductsKey when empty
//   - opts: Logger, metrics and placeholder options
//
// Returns:
//   - *ProductManager: A new product repository
func NewProductManager(store *storage.Adapter, key string, opts ...Option) *ProductManager {
	if key == "" {
		key = DefaultProductsKey
	}
	o := newOptions(opts)
	return &ProductManager{
		store:    store,
		key:      key,
		migrator: Migrator{Placeholder: o.placeholder},
		validate: validator.New(),
		logger:   o.logger.With(zap.String("repository", "products")),
		metrics:  o.metrics,
	}
}

// GetAll returns every product in stored order. Unreadable storage yields an
// empty slice.
//
// GetAll 按存储顺序返回所有商品。存储不可读时返回空切片。
func (m *ProductManager) GetAll(ctx context.Context) []Product {
	m.mu.Lock()
	defer m.mu.Unlock()

	records := m.load(ctx)
	return m.decodeAll(records)
}

// GetByID returns the product with id.
//
// GetByID 返回指定id的商品。
func (m *ProductManager) GetByID(ctx context.Context, id int64) (Product, bool) {
	for _, p := range m.GetAll(ctx) {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

// ListByCategory returns the products whose category is exactly name.
//
// ListByCategory 返回分类恰好为name的商品。
func (m *ProductManager) ListByCategory(ctx context.Context, name string) []Product {
	var out []Product
	for _, p := range m.GetAll(ctx) {
		if p.Category == name {
			out = append(out, p)
		}
	}
	return out
}

// Save stores p and returns it as stored.
//
// A zero ID is assigned 1 + the largest existing ID and appended. An ID that
// matches a stored record replaces it in place. Any other ID is appended as is.
//
// Save 存储p并返回存储后的记录。
//
// ID为0时分配"现有最大ID + 1"并追加。ID与已存储记录匹配时原地替换。其他ID按原样追加。
func (m *ProductManager) Save(ctx context.Context, p Product) (Product, error) {
	if err := m.validate.Struct(p); err != nil {
		return Product{}, fmt.Errorf("%w: %v", hserrors.ErrInvalidRecord, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	records := m.load(ctx)

	if p.ID == 0 {
		p.ID = maxID(records) + 1
	}

	rec, err := encodeProduct(p)
	if err != nil {
		return Product{}, err
	}
	rec, _ = m.migrator.Migrate(rec)

	saved, err := DecodeProduct(rec)
	if err != nil {
		return Product{}, fmt.Errorf("%w: %v", hserrors.ErrInvalidRecord, err)
	}

	replaced := false
	for i, existing := range records {
		if recordID(existing) == p.ID {
			records[i] = rec
			replaced = true
			break
		}
	}
	if !replaced {
		records = append(records, rec)
	}

	if err := m.store.Write(ctx, m.key, records); err != nil {
		return Product{}, err
	}

	m.logger.Debug("product saved",
		zap.Int64("id", saved.ID),
		zap.Bool("replaced", replaced))
	return saved, nil
}

// Delete removes the product with id. It reports whether a product was removed.
//
// Delete 删除指定id的商品，并报告是否有商品被删除。
func (m *ProductManager) Delete(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	records := m.load(ctx)
	kept := make([]map[string]interface{}, 0, len(records))
	for _, rec := range records {
		if recordID(rec) != id {
			kept = append(kept, rec)
		}
	}
	if len(kept) == len(records) {
		return false, nil
	}

	if err := m.store.Write(ctx, m.key, kept); err != nil {
		return false, err
	}
	return true, nil
}

// Seed fills the collection from src when nothing has ever been stored under the
// products key. It returns the number of products written.
//
// Seed 当products键下从未存储过任何内容时，从src填充集合，返回写入的商品数量。
func (m *ProductManager) Seed(ctx context.Context, src ProductSource) (int, error) {
	if m.store.Has(ctx, m.key) {
		return 0, nil
	}

	products, err := src.Load(ctx, m.key)
	if err != nil {
		return 0, fmt.Errorf("seed products: %w", err)
	}

	for i, p := range products {
		if _, err := m.Save(ctx, p); err != nil {
			return i, fmt.Errorf("seed product %q: %w", p.Name, err)
		}
	}

	m.logger.Info("product catalog seeded", zap.Int("count", len(products)))
	return len(products), nil
}

// load reads and migrates the stored records, writing them back when needed.
// Callers hold mu.
func (m *ProductManager) load(ctx context.Context) []map[string]interface{} {
	var raw []interface{}
	if !m.store.Read(ctx, m.key, &raw) {
		return []map[string]interface{}{}
	}

	records := make([]map[string]interface{}, 0, len(raw))
	migrated := 0
	dropped := 0
	for _, entry := range raw {
		rec, ok := entry.(map[string]interface{})
		if !ok {
			dropped++
			continue
		}
		out, changed := m.migrator.Migrate(rec)
		if changed {
			migrated++
		}
		records = append(records, out)
	}

	if migrated > 0 || dropped > 0 {
		m.metrics.Migrated(migrated)
		if err := m.store.Write(ctx, m.key, records); err != nil {
			m.logger.Warn("write-back of migrated products failed", zap.Error(err))
		} else {
			m.metrics.WriteBack()
			m.logger.Info("migrated stored products",
				zap.Int("migrated", migrated),
				zap.Int("dropped", dropped))
		}
	}
	return records
}

func (m *ProductManager) decodeAll(records []map[string]interface{}) []Product {
	products := make([]Product, 0, len(records))
	for _, rec := range records {
		p, err := DecodeProduct(rec)
		if err != nil {
			// Keep the record addressable so cart lines still resolve to it.
			m.logger.Warn("product only partly decodable", zap.Any("id", rec["id"]), zap.Error(err))
			p = Product{
				ID:     recordID(rec),
				Name:   cast.ToString(rec["name"]),
				Images: cast.ToStringSlice(rec["images"]),
				Image:  cast.ToString(rec["image"]),
				Colors: []Color{},
			}
		}
		products = append(products, p)
	}
	return products
}

func recordID(rec map[string]interface{}) int64 {
	return cast.ToInt64(rec["id"])
}

func maxID(records []map[string]interface{}) int64 {
	var max int64
	for _, rec := range records {
		if id := recordID(rec); id > max {
			max = id
		}
	}
	return max
}
