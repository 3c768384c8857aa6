// Package event provides the in-process notification bus used to announce
// repository changes, most importantly "the cart changed".
//
// Package event 提供用于通知仓库变更（最重要的是"购物车已变更"）的进程内通知总线。
package event

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Humphrey-He/hshop/internal/metrics"
)

// TopicCartUpdated is published after every cart mutation. It carries no payload.
const TopicCartUpdated = "cart.updated"

// Event is one notification.
//
// Event 表示一次通知。
type Event struct {
	Topic string    `json:"topic"`
	At    time.Time `json:"at"`
}

// Handler receives events synchronously on the publishing goroutine.
type Handler func(Event)

type subscriber struct {
	id      uint64
	handler Handler
	ch      chan Event
}

// Bus delivers events to the subscribers of a topic.
//
// Function subscribers run synchronously, in subscription order, after channel
// subscribers have been offered the event. Channel subscribers never block the
// publisher; an event is dropped for a channel whose buffer is full.
//
// Bus 把事件投递给主题的订阅者。
//
// 通道订阅者先收到事件，随后函数订阅者按订阅顺序同步执行。
// 通道订阅者不会阻塞发布者；通道缓冲区已满时该事件会被丢弃。
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[string][]subscriber

	logger  *zap.Logger
	metrics *metrics.Collector
	now     func() time.Time
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogger sets the logger used to report dropped events.
func WithLogger(logger *zap.Logger) Option {
	return func(b *Bus) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(b *Bus) {
		b.metrics = m
	}
}

// WithClock sets the clock used to stamp events.
func WithClock(now func() time.Time) Option {
	return func(b *Bus) {
		if now != nil {
			b.now = now
		}
	}
}

// NewBus creates an empty Bus.
//
// NewBus 创建一个空的Bus。
func NewBus(opts ...Option) *Bus {
	b := &Bus{
		subs:   make(map[string][]subscriber),
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers h for topic and returns a function that removes it.
//
// Subscribe 为topic注册h，并返回用于取消订阅的函数。
func (b *Bus) Subscribe(topic string, h Handler) (unsubscribe func()) {
	return b.add(topic, subscriber{handler: h})
}

// SubscribeChan returns a channel receiving the events of topic and a function
// that unsubscribes and closes the channel.
//
// SubscribeChan 返回接收topic事件的通道，以及取消订阅并关闭通道的函数。
func (b *Bus) SubscribeChan(topic string, buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	return ch, b.add(topic, subscriber{ch: ch})
}

// Publish delivers an event for topic to its current subscribers.
//
// Publish 把topic的事件投递给当前的订阅者。
func (b *Bus) Publish(topic string) {
	ev := Event{Topic: topic, At: b.now()}

	// Channel sends never block, so they happen under the read lock where no
	// unsubscribe can close a channel. Handlers run after the lock is released
	// so they may subscribe or publish themselves.
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[topic]))
	for _, s := range b.subs[topic] {
		if s.handler != nil {
			handlers = append(handlers, s.handler)
			continue
		}
		b.send(s, ev)
	}
	b.mu.RUnlock()

	b.metrics.Event(topic)

	for _, h := range handlers {
		h(ev)
	}
}

// Subscribers returns the number of subscribers of topic.
func (b *Bus) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

func (b *Bus) send(s subscriber, ev Event) {
	select {
	case s.ch <- ev:
	default:
		b.logger.Debug("event dropped, subscriber buffer full",
			zap.String("topic", ev.Topic),
			zap.Uint64("subscriber", s.id))
	}
}

func (b *Bus) add(topic string, s subscriber) func() {
	b.mu.Lock()
	b.nextID++
	s.id = b.nextID
	b.subs[topic] = append(b.subs[topic], s)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(topic, s.id) })
	}
}

func (b *Bus) remove(topic string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[topic]
	for i, s := range subs {
		if s.id != id {
			continue
		}
		b.subs[topic] = append(subs[:i:i], subs[i+1:]...)
		if s.ch != nil {
			close(s.ch)
		}
		break
	}
	if len(b.subs[topic]) == 0 {
		delete(b.subs, topic)
	}
}
