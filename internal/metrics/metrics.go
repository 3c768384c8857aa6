// Package metrics provides runtime metrics for the storefront data layer.
// Package metrics 提供商店数据层的运行时指标。
//
// Metrics are registered on a private prometheus registry owned by the Collector,
// so several stores can live in one process (and in one test binary) without
// colliding on the default registerer. Every recording method is safe to call on a
// nil *Collector, which is how components run with metrics disabled.
//
// 指标注册在Collector自己的prometheus注册表上，因此同一进程（以及同一测试二进制）
// 中可以存在多个商店实例而不会在默认注册表上冲突。所有记录方法都可以在nil *Collector
// 上调用，组件以此方式在禁用指标时运行。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// DefaultNamespace is the metric name prefix.
	// DefaultNamespace 是指标名称前缀。
	DefaultNamespace = "hshop"

	// Result labels for storage operations.
	// 存储操作的结果标签。
	ResultOK    = "ok"
	ResultMiss  = "miss"
	ResultError = "error"
)

// Collector owns the prometheus registry and the storefront metric vectors.
//
// Collector 持有prometheus注册表以及商店相关的指标向量。
type Collector struct {
	registry *prometheus.Registry

	storageOps   *prometheus.CounterVec   // op, result
	corruptReads *prometheus.CounterVec   // key
	migrated     prometheus.Counter       // records rewritten into canonical shape
	writeBacks   prometheus.Counter       // collections persisted after migration
	events       *prometheus.CounterVec   // topic
	httpRequests *prometheus.CounterVec   // method, route, status
	httpLatency  *prometheus.HistogramVec // method, route
}

// New creates a Collector. Empty namespace falls back to DefaultNamespace and nil
// buckets fall back to prometheus.DefBuckets.
//
// New 创建一个Collector。命名空间为空时使用DefaultNamespace，buckets为nil时使用
// prometheus.DefBuckets。
func New(namespace string, buckets []float64) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	c := &Collector{
		registry: prometheus.NewRegistry(),
		storageOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "operations_total",
			Help:      "Storage backend operations by operation and result.",
		}, []string{"op", "result"}),
		corruptReads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "corrupt_reads_total",
			Help:      "Stored documents that could not be decoded and were treated as absent.",
		}, []string{"key"}),
		migrated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "migrated_records_total",
			Help:      "Product records rewritten into the canonical shape on read.",
		}),
		writeBacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "write_backs_total",
			Help:      "Product collections persisted again after an on-read migration.",
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Events published on the in-process bus by topic.",
		}, []string{"topic"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   buckets,
		}, []string{"method", "route"}),
	}

	c.registry.MustRegister(
		c.storageOps,
		c.corruptReads,
		c.migrated,
		c.writeBacks,
		c.events,
		c.httpRequests,
		c.httpLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler returns an http.Handler serving the registry in the prometheus text format.
//
// Handler 返回以prometheus文本格式输出注册表的http.Handler。
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// StorageOp records one backend operation.
// StorageOp 记录一次后端操作。
func (c *Collector) StorageOp(op, result string) {
	if c == nil {
		return
	}
	c.storageOps.WithLabelValues(op, result).Inc()
}

// CorruptRead records a document that failed to decode.
// CorruptRead 记录一次解码失败的文档读取。
func (c *Collector) CorruptRead(key string) {
	if c == nil {
		return
	}
	c.corruptReads.WithLabelValues(key).Inc()
}

// Migrated records n product records rewritten on read.
// Migrated 记录读取时被重写的n条产品记录。
func (c *Collector) Migrated(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.migrated.Add(float64(n))
}

// WriteBack records one collection persisted after migration.
// WriteBack 记录一次迁移后的集合回写。
func (c *Collector) WriteBack() {
	if c == nil {
		return
	}
	c.writeBacks.Inc()
}

// Event records a published bus event.
// Event 记录一次总线事件发布。
func (c *Collector) Event(topic string) {
	if c == nil {
		return
	}
	c.events.WithLabelValues(topic).Inc()
}

// HTTPRequest records one served request.
// HTTPRequest 记录一次已处理的请求。
func (c *Collector) HTTPRequest(method, route string, status int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
