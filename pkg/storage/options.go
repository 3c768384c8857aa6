package storage

import (
	"go.uber.org/zap"

	"github.com/Humphrey-He/hshop/internal/metrics"
	"github.com/Humphrey-He/hshop/pkg/codec"
)

// Option configures an Adapter.
//
// Option 配置Adapter。
type Option func(*Adapter)

// WithCodec sets the document codec. The default is compact JSON.
//
// WithCodec 设置文档编解码器，默认为紧凑JSON。
func WithCodec(c codec.Codec) Option {
	return func(a *Adapter) {
		if c != nil {
			a.codec = c
		}
	}
}

// WithLogger sets the logger used to report degraded reads.
//
// WithLogger 设置用于报告降级读取的日志记录器。
func WithLogger(logger *zap.Logger) Option {
	return func(a *Adapter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithMetrics sets the metrics collector.
//
// WithMetrics 设置指标收集器。
func WithMetrics(m *metrics.Collector) Option {
	return func(a *Adapter) {
		a.metrics = m
	}
}
