package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/taoyao-code/liveview-bridge/internal/metrics"
	"github.com/taoyao-code/liveview-bridge/internal/operator"
	"github.com/taoyao-code/liveview-bridge/internal/protocol/liveview"
	"github.com/taoyao-code/liveview-bridge/internal/transport"
	"go.uber.org/zap"
)

// ErrDisconnected 对端正常关闭串行通道
var ErrDisconnected = errors.New("gateway: device disconnected")

// TransportIOError 串行通道读写失败
type TransportIOError struct {
	Op  string // read | write
	Err error
}

func (e *TransportIOError) Error() string {
	return fmt.Sprintf("gateway: %s: %v", e.Op, e.Err)
}

func (e *TransportIOError) Unwrap() error { return e.Err }

// LoopOptions 传输循环参数
type LoopOptions struct {
	SettleDelay time.Duration
	MaxPayload  uint32
	Metrics     *metrics.AppMetrics
	Logger      *zap.Logger
}

// Loop 传输循环：在串口读事件与操作员命令两个来源之间等待，
// 一次只处理一个事件，每个入站包的应答全部写完后才处理下一个。
type Loop struct {
	port    transport.Port
	keys    operator.Source
	sess    *liveview.Session
	dec     *liveview.Decoder
	pacer   *transport.Pacer
	ids     liveview.IDTable
	logger  *zap.Logger
	metrics *metrics.AppMetrics
}

// NewLoop 创建传输循环，port 与 keys 在循环期间归其独占
func NewLoop(port transport.Port, keys operator.Source, sess *liveview.Session, opts LoopOptions) *Loop {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Loop{
		port:    port,
		keys:    keys,
		sess:    sess,
		dec:     liveview.NewDecoder(opts.MaxPayload),
		pacer:   transport.NewPacer(opts.SettleDelay),
		ids:     sess.IDs(),
		logger:  logger.With(zap.String("session_id", sess.State().ID())),
		metrics: opts.Metrics,
	}
	l.pacer.OnWait = func(d time.Duration) { l.metrics.ObservePacingWait(d.Seconds()) }
	return l
}

// Run 发送握手后进入事件循环。
// 返回 nil 表示操作员退出；ErrDisconnected 表示对端关闭；
// 其余为 TransportIOError、帧错误或 ctx 错误。
func (l *Loop) Run(ctx context.Context) (err error) {
	rd := transport.NewReader(l.port)
	defer rd.Stop()

	l.metrics.SetConnected(true)
	defer l.metrics.SetConnected(false)
	defer func() { l.sess.End(err) }()

	if err := l.send(ctx, l.sess.Handshake()); err != nil {
		return err
	}

	var cmds <-chan operator.Command
	if l.keys != nil {
		cmds = l.keys.Commands()
	}

	pending := false
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !pending {
			rd.Request(l.dec.Need())
			pending = true
		}

		select {
		case c, ok := <-rd.Chunks():
			if !ok {
				return ErrDisconnected
			}
			pending = false
			if err := l.onChunk(ctx, c); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return err
			}

		case cmd, ok := <-cmds:
			if !ok {
				// 操作员输入结束，仅继续服务设备
				l.logger.Debug("operator input closed")
				cmds = nil
				continue
			}
			pkts, quit := l.sess.OnCommand(cmd)
			if quit {
				return nil
			}
			if err := l.send(ctx, pkts); err != nil {
				return err
			}

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// onChunk 先处理已读到的字节，再处理读错误
func (l *Loop) onChunk(ctx context.Context, c transport.Chunk) error {
	if len(c.Data) > 0 {
		l.metrics.AddBytes(len(c.Data))
		if _, err := l.dec.Feed(c.Data); err != nil {
			l.metrics.IncFramingError()
			return err
		}
		for {
			p, ok := l.dec.Next()
			if !ok {
				break
			}
			l.logger.Debug("recv",
				zap.String("name", l.ids.Name(p.ID)),
				zap.Stringer("packet", p))
			if err := l.send(ctx, l.sess.OnPacket(p)); err != nil {
				return err
			}
		}
	}
	if c.Err != nil {
		if errors.Is(c.Err, io.EOF) {
			return ErrDisconnected
		}
		return &TransportIOError{Op: "read", Err: c.Err}
	}
	return nil
}

// send 按序写出，写入间隔由 pacer 保证；取消不会打断写入
func (l *Loop) send(ctx context.Context, pkts []liveview.Packet) error {
	for _, p := range pkts {
		err := l.pacer.Do(context.WithoutCancel(ctx), func() error {
			return liveview.WritePacket(l.port, p)
		})
		if err != nil {
			return &TransportIOError{Op: "write", Err: err}
		}
		name := l.ids.Name(p.ID)
		l.sess.State().OnOutbound(time.Now())
		l.metrics.IncPacketOut(name)
		l.logger.Debug("sent",
			zap.String("name", name),
			zap.Stringer("packet", p))
	}
	return nil
}
