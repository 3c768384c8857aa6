// Package storefront assembles the storefront data layer from configuration:
// the persistent and session stores, the event bus, metrics, and the product,
// category, cart and session repositories. Presentation layers receive a *Store
// instead of reaching for shared globals.
//
// Package storefront 根据配置组装商店数据层：持久化存储与会话存储、事件总线、指标，
// 以及商品、分类、购物车和会话仓库。表示层接收*Store，而不是访问共享的全局变量。
package storefront

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/Humphrey-He/hshop/configs"
	"github.com/Humphrey-He/hshop/internal/metrics"
	"github.com/Humphrey-He/hshop/pkg/cart"
	"github.com/Humphrey-He/hshop/pkg/catalog"
	"github.com/Humphrey-He/hshop/pkg/event"
	"github.com/Humphrey-He/hshop/pkg/loader"
	"github.com/Humphrey-He/hshop/pkg/session"
	"github.com/Humphrey-He/hshop/pkg/storage"
)

// Store is the assembled data layer.
//
// Store 是组装好的数据层。
type Store struct {
	Products   *catalog.ProductManager
	Categories *catalog.CategoryManager
	Cart       *cart.Manager
	Sessions   *session.Manager
	Bus        *event.Bus
	Metrics    *metrics.Collector

	persistent *storage.Adapter
	session    *storage.Adapter
	logger     *zap.Logger
}

type options struct {
	backend storage.Backend
	fs      afero.Fs
	now     func() time.Time
}

// Option configures New.
type Option func(*options)

// WithBackend uses backend instead of building one from the storage section.
// The Store takes ownership and closes it.
//
// WithBackend 使用backend而不是根据storage部分构建后端。Store拥有并负责关闭它。
func WithBackend(backend storage.Backend) Option {
	return func(o *options) {
		o.backend = backend
	}
}

// WithFs sets the filesystem the seed file is read from.
func WithFs(fs afero.Fs) Option {
	return func(o *options) {
		o.fs = fs
	}
}

// WithClock sets the clock of the cart, session and bus.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// New builds a Store from cfg and seeds it when catalog.seed_file is set.
//
// New 根据cfg构建Store，并在设置了catalog.seed_file时填充初始数据。
//
// Parameters:
//   - ctx: Context bounding backend connection and seeding
//   - cfg: A validated configuration
//   - logger: The root logger, may be nil
//   - opts: Backend, filesystem and clock overrides
//
// Returns:
//   - *Store: The assembled data layer
//   - error: An error if the backend cannot be created or seeding fails
func New(ctx context.Context, cfg *configs.Config, logger *zap.Logger, opts ...Option) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := &options{fs: afero.NewOsFs(), now: time.Now}
	for _, opt := range opts {
		opt(o)
	}

	policy, err := catalog.ParsePolicy(cfg.Catalog.CategoryPolicy)
	if err != nil {
		return nil, err
	}

	var collector *metrics.Collector
	if cfg.Metrics.Enable {
		collector = metrics.New(cfg.Metrics.Namespace, cfg.Metrics.HistogramBuckets)
	}

	backend := o.backend
	if backend == nil {
		backend, err = storage.NewBackend(ctx, cfg.Storage, logger.Named("storage"))
		if err != nil {
			return nil, fmt.Errorf("storefront: %w", err)
		}
	}

	persistent := storage.NewAdapter(backend,
		storage.WithLogger(logger.Named("storage")),
		storage.WithMetrics(collector))
	sessionStore := storage.NewAdapter(storage.NewMemoryBackend(),
		storage.WithLogger(logger.Named("session")))

	bus := event.NewBus(
		event.WithLogger(logger.Named("event")),
		event.WithMetrics(collector),
		event.WithClock(o.now))

	catalogOpts := []catalog.Option{
		catalog.WithLogger(logger.Named("catalog")),
		catalog.WithMetrics(collector),
		catalog.WithPlaceholderImage(cfg.Catalog.PlaceholderImage),
		catalog.WithPolicy(policy),
	}

	s := &Store{
		Products:   catalog.NewProductManager(persistent, cfg.Keys.Products, catalogOpts...),
		Categories: catalog.NewCategoryManager(persistent, cfg.Keys.Categories, catalogOpts...),
		Cart: cart.NewManager(persistent, cfg.Keys.Cart, bus,
			cart.WithClock(o.now),
			cart.WithLogger(logger.Named("cart"))),
		Sessions: session.NewManager(sessionStore, cfg.Keys.Session,
			session.WithClock(o.now),
			session.WithLogger(logger.Named("session"))),
		Bus:        bus,
		Metrics:    collector,
		persistent: persistent,
		session:    sessionStore,
		logger:     logger,
	}

	if cfg.Catalog.SeedFile != "" {
		products, categories := s.seedLoaders(ctx, o.fs, cfg.Catalog)
		if err := s.Seed(ctx, products, categories); err != nil {
			_ = s.Close()
			return nil, err
		}
	}

	logger.Info("storefront ready",
		zap.String("engine", cfg.Storage.Engine),
		zap.Stringer("category_policy", policy),
		zap.Bool("metrics", collector != nil))
	return s, nil
}

// seedLoaders reads the seed file. With seed_optional set, an unreadable or
// malformed file falls back to an empty catalog.
func (s *Store) seedLoaders(ctx context.Context, fs afero.Fs, cfg configs.CatalogConfig) (loader.Loader[[]catalog.Product], loader.Loader[[]string]) {
	seed := loader.NewFileLoader(fs, cfg.SeedFile, catalog.Migrator{Placeholder: cfg.PlaceholderImage})
	if !cfg.SeedOptional {
		return seed.Products(), seed.Categories()
	}

	if _, err := seed.Catalog(ctx); err != nil {
		s.logger.Warn("seed file unusable, starting with an empty catalog",
			zap.String("path", cfg.SeedFile),
			zap.Error(err))
	}
	return loader.NewFallbackLoader[[]catalog.Product](seed.Products(), loader.NewStaticLoader([]catalog.Product{})),
		loader.NewFallbackLoader[[]string](seed.Categories(), loader.NewStaticLoader([]string{}))
}

// Seed fills the product and category collections that have never been written.
//
// Seed 为从未写入过的商品和分类集合填充初始数据。
func (s *Store) Seed(ctx context.Context, products loader.Loader[[]catalog.Product], categories loader.Loader[[]string]) error {
	n, err := s.Products.Seed(ctx, products)
	if err != nil {
		return fmt.Errorf("storefront: %w", err)
	}
	m, err := s.Categories.Seed(ctx, categories)
	if err != nil {
		return fmt.Errorf("storefront: %w", err)
	}
	if n > 0 || m > 0 {
		s.logger.Info("store seeded", zap.Int("products", n), zap.Int("categories", m))
	}
	return nil
}

// ApplyConfig applies the settings that can change while running. It is meant
// to be registered with configs.ViperConfig.Subscribe.
//
// ApplyConfig 应用可以在运行时更改的设置，用于注册到configs.ViperConfig.Subscribe。
func (s *Store) ApplyConfig(cfg *configs.Config) {
	policy, err := catalog.ParsePolicy(cfg.Catalog.CategoryPolicy)
	if err != nil {
		s.logger.Warn("ignoring category policy", zap.Error(err))
		return
	}
	s.Categories.SetPolicy(policy)
}

// Stats returns the statistics of the persistent backend.
//
// Stats 返回持久化后端的统计信息。
func (s *Store) Stats(ctx context.Context) (*storage.Stats, error) {
	return s.persistent.Stats(ctx)
}

// Close closes both stores.
//
// Close 关闭两个存储。
func (s *Store) Close() error {
	err := s.persistent.Close()
	if serr := s.session.Close(); err == nil {
		err = serr
	}
	return err
}
