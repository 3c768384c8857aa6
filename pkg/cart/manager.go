package cart

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Humphrey-He/hshop/pkg/catalog"
	hserrors "github.com/Humphrey-He/hshop/pkg/errors"
	"github.com/Humphrey-He/hshop/pkg/event"
	"github.com/Humphrey-He/hshop/pkg/storage"
)

// ProductLookup finds products by id. *catalog.ProductManager satisfies it.
type ProductLookup interface {
	GetByID(ctx context.Context, id int64) (catalog.Product, bool)
}

// Line is a cart item together with the product it references.
type Line struct {
	Item
	Product catalog.Product `json:"product"`
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock sets the clock used to stamp new lines.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// Manager is the cart repository.
//
// Lines can be addressed by position, as returned by GetCart, or by LineKey.
// Positions shift whenever a line is removed, so the keyed methods are preferred
// for anything that is not acting on a fresh GetCart.
//
// Manager 是购物车仓库。
//
// 行项目可以按GetCart返回的位置寻址，也可以按LineKey寻址。删除行项目会导致位置变化，
// 因此对于不是基于最新GetCart结果的操作，应优先使用按键寻址的方法。
type Manager struct {
	store  *storage.Adapter
	key    string
	bus    *event.Bus
	now    func() time.Time
	logger *zap.Logger

	mu sync.Mutex
}

// NewManager creates a cart Manager. bus may be nil.
//
// NewManager 创建购物车Manager，bus可以为nil。
//
// Parameters:
//   - store: The document store
//   - key: The storage key, DefaultKey when empty
//   - bus: Receives a cart.updated event after each mutation
//   - opts: Clock and logger options
//
// Returns:
//   - *Manager: A new cart repository
func NewManager(store *storage.Adapter, key string, bus *event.Bus, opts ...Option) *Manager {
	if key == "" {
		key = DefaultKey
	}
	m := &Manager{
		store:  store,
		key:    key,
		bus:    bus,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With(zap.String("repository", "cart"))
	return m
}

// GetCart returns the cart lines in order. A missing or malformed cart is empty.
//
// GetCart 按顺序返回购物车行项目。缺失或格式错误的购物车为空。
func (m *Manager) GetCart(ctx context.Context) []Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load(ctx)
}

// AddItem adds p with the given options. A line with the same product, color and
// size gets its quantity increased; otherwise a new line is appended. A zero or
// negative Quantity adds one unit; AddItem never decreases a line.
//
// AddItem 按给定选项添加商品p。若已存在商品、颜色和尺码相同的行，则增加其数量；否则追加新行。
// Quantity为零或负数时按1件添加，AddItem不会减少行项目数量。
func (m *Manager) AddItem(ctx context.Context, p catalog.Product, opts AddOptions) (Item, error) {
	qty := opts.Quantity
	if qty <= 0 {
		qty = 1
	}
	key := LineKey{ProductID: p.ID, Color: opts.Color, Size: opts.Size}

	m.mu.Lock()
	items := m.load(ctx)

	var line Item
	if i := indexOf(items, key); i >= 0 {
		items[i].Quantity += qty
		line = items[i]
	} else {
		line = Item{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.EffectivePrice(),
			Image:     p.PrimaryImage(),
			Options: Options{
				Color:        opts.Color,
				Size:         opts.Size,
				VariantImage: opts.VariantImage,
			},
			Quantity: qty,
			AddedAt:  m.now(),
		}
		items = append(items, line)
	}

	err := m.store.Write(ctx, m.key, items)
	m.mu.Unlock()
	if err != nil {
		return Item{}, err
	}

	m.logger.Debug("cart line added", zap.Stringer("line", key), zap.Int("quantity", line.Quantity))
	m.publish()
	return line, nil
}

// UpdateQuantity sets the quantity of the line at index; qty <= 0 removes it.
//
// UpdateQuantity 设置index处行项目的数量；qty <= 0时删除该行。
func (m *Manager) UpdateQuantity(ctx context.Context, index, qty int) error {
	return m.mutate(ctx, func(items []Item) ([]Item, error) {
		if index < 0 || index >= len(items) {
			return nil, fmt.Errorf("%w: index %d", hserrors.ErrLineNotFound, index)
		}
		return setQuantity(items, index, qty), nil
	})
}

// RemoveItem removes the line at index.
//
// RemoveItem 删除index处的行项目。
func (m *Manager) RemoveItem(ctx context.Context, index int) error {
	return m.UpdateQuantity(ctx, index, 0)
}

// UpdateQuantityByKey sets the quantity of the line identified by key; qty <= 0
// removes it.
//
// UpdateQuantityByKey 设置由key标识的行项目数量；qty <= 0时删除该行。
func (m *Manager) UpdateQuantityByKey(ctx context.Context, key LineKey, qty int) error {
	return m.mutate(ctx, func(items []Item) ([]Item, error) {
		i := indexOf(items, key)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", hserrors.ErrLineNotFound, key)
		}
		return setQuantity(items, i, qty), nil
	})
}

// RemoveByKey removes the line identified by key.
//
// RemoveByKey 删除由key标识的行项目。
func (m *Manager) RemoveByKey(ctx context.Context, key LineKey) error {
	return m.UpdateQuantityByKey(ctx, key, 0)
}

// Find returns the line identified by key and its current position.
//
// Find 返回由key标识的行项目及其当前位置。
func (m *Manager) Find(ctx context.Context, key LineKey) (Item, int, bool) {
	items := m.GetCart(ctx)
	i := indexOf(items, key)
	if i < 0 {
		return Item{}, -1, false
	}
	return items[i], i, true
}

// ClearCart deletes the stored cart.
//
// ClearCart 删除已存储的购物车。
func (m *Manager) ClearCart(ctx context.Context) error {
	m.mu.Lock()
	err := m.store.Remove(ctx, m.key)
	m.mu.Unlock()
	if err != nil {
		return err
	}
	m.publish()
	return nil
}

// GetCount returns the sum of all line quantities.
//
// GetCount 返回所有行项目数量之和。
func (m *Manager) GetCount(ctx context.Context) int {
	count := 0
	for _, item := range m.GetCart(ctx) {
		count += item.Quantity
	}
	return count
}

// GetSubtotal returns the sum of price * quantity over all lines. The sum is
// computed exactly in decimal and then rounded half away from zero to cents, so
// 0.1*3 + 0.2 is 0.5 and a sub-cent price such as 0.333 contributes 0.33.
//
// GetSubtotal 返回所有行项目price * quantity之和。先以十进制精确求和，
// 再四舍五入到分，因此0.1*3 + 0.2为0.5，0.333这样的不足一分的价格计为0.33。
func (m *Manager) GetSubtotal(ctx context.Context) float64 {
	total := decimal.Zero
	for _, item := range m.GetCart(ctx) {
		line := decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(line)
	}
	return total.Round(2).InexactFloat64()
}

// Resolve pairs every line with its product and leaves out lines whose product
// no longer exists.
//
// Resolve 将每个行项目与其商品配对，并排除商品已不存在的行项目。
func (m *Manager) Resolve(ctx context.Context, products ProductLookup) []Line {
	items := m.GetCart(ctx)
	lines := make([]Line, 0, len(items))
	for _, item := range items {
		p, ok := products.GetByID(ctx, item.ProductID)
		if !ok {
			m.logger.Debug("cart line references a missing product", zap.Int64("product_id", item.ProductID))
			continue
		}
		lines = append(lines, Line{Item: item, Product: p})
	}
	return lines
}

// Subscribe registers h for cart.updated events. It returns a no-op
// unsubscribe function when the manager has no bus.
func (m *Manager) Subscribe(h event.Handler) func() {
	if m.bus == nil {
		return func() {}
	}
	return m.bus.Subscribe(event.TopicCartUpdated, h)
}

func (m *Manager) mutate(ctx context.Context, fn func([]Item) ([]Item, error)) error {
	m.mu.Lock()
	items, err := fn(m.load(ctx))
	if err == nil {
		err = m.store.Write(ctx, m.key, items)
	}
	m.mu.Unlock()
	if err != nil {
		return err
	}
	m.publish()
	return nil
}

func (m *Manager) load(ctx context.Context) []Item {
	var raw []interface{}
	if !m.store.Read(ctx, m.key, &raw) {
		return []Item{}
	}
	return decodeItems(raw)
}

func (m *Manager) publish() {
	if m.bus != nil {
		m.bus.Publish(event.TopicCartUpdated)
	}
}

func indexOf(items []Item, key LineKey) int {
	for i, item := range items {
		if item.Key() == key {
			return i
		}
	}
	return -1
}

func setQuantity(items []Item, i, qty int) []Item {
	if qty <= 0 {
		out := make([]Item, 0, len(items)-1)
		out = append(out, items[:i]...)
		return append(out, items[i+1:]...)
	}
	items[i].Quantity = qty
	return items
}
