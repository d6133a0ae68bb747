package events

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/taoyao-code/liveview-bridge/internal/metrics"
	"go.uber.org/zap"
)

// Sink 事件下游（Redis、WebSocket 等）
type Sink interface {
	Name() string
	Deliver(ctx context.Context, e Event) error
}

const defaultBufferSize = 256

// Bus 异步事件总线：缓冲通道 + 单个 worker 顺序投递到各 Sink。
// Publish 永不阻塞，缓冲满时丢弃并计数。
type Bus struct {
	ch      chan Event
	sinks   []Sink
	logger  *zap.Logger
	metrics *metrics.AppMetrics

	deliverTimeout time.Duration

	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64

	done chan struct{}
}

// NewBus 创建事件总线，需调用 Start 启动 worker
func NewBus(bufferSize int, logger *zap.Logger, m *metrics.AppMetrics, sinks ...Sink) *Bus {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		ch:             make(chan Event, bufferSize),
		sinks:          sinks,
		logger:         logger,
		metrics:        m,
		deliverTimeout: 2 * time.Second,
		done:           make(chan struct{}),
	}
}

// Publish 非阻塞投递
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	select {
	case b.ch <- e:
	default:
		b.dropped.Add(1)
		b.metrics.IncEventDropped()
		b.logger.Debug("event bus full, event dropped",
			zap.String("event_type", string(e.Type)))
	}
}

// Start 启动 worker，ctx 取消后排空缓冲再退出
func (b *Bus) Start(ctx context.Context) {
	go b.worker(ctx)
}

func (b *Bus) worker(ctx context.Context) {
	defer close(b.done)
	for {
		select {
		case e, ok := <-b.ch:
			if !ok {
				return
			}
			b.deliver(e)
		case <-ctx.Done():
			b.Close()
			for e := range b.ch {
				b.deliver(e)
			}
			return
		}
	}
}

func (b *Bus) deliver(e Event) {
	for _, s := range b.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), b.deliverTimeout)
		err := s.Deliver(ctx, e)
		cancel()
		if err != nil {
			b.logger.Warn("deliver event failed",
				zap.String("sink", s.Name()),
				zap.String("event_type", string(e.Type)),
				zap.Error(err))
			continue
		}
		b.metrics.IncEventPublished(s.Name())
	}
}

// Close 停止接收新事件，worker 排空缓冲后退出。可重复调用。
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	close(b.ch)
}

// Wait 等待 worker 退出
func (b *Bus) Wait() { <-b.done }

// Dropped 返回因缓冲满而丢弃的事件数
func (b *Bus) Dropped() uint64 { return b.dropped.Load() }
