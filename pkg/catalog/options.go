package catalog

import (
	"go.uber.org/zap"

	"github.com/Humphrey-He/hshop/internal/metrics"
)

// Default storage keys.
const (
	DefaultProductsKey   = "products"
	DefaultCategoriesKey = "categories"
)

type options struct {
	logger      *zap.Logger
	metrics     *metrics.Collector
	placeholder string
	policy      Policy
}

// Option configures a ProductManager or a CategoryManager.
//
// Option 配置ProductManager或CategoryManager。
type Option func(*options)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithPlaceholderImage sets the image used for products that have none.
//
// WithPlaceholderImage 设置没有图片的商品所使用的占位图。
func WithPlaceholderImage(url string) Option {
	return func(o *options) {
		o.placeholder = url
	}
}

// WithPolicy sets the category matching policy.
//
// WithPolicy 设置分类匹配策略。
func WithPolicy(p Policy) Option {
	return func(o *options) {
		o.policy = p
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		logger:      zap.NewNop(),
		placeholder: DefaultPlaceholderImage,
		policy:      PolicyExact,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
