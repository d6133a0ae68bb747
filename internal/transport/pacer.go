package transport

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// DefaultSettleDelay 固件要求的两次写入之间的最小间隔
const DefaultSettleDelay = 100 * time.Millisecond

// Pacer 写入节流：令牌桶容量为 1，每 settle 补充一个令牌。
// 令牌在写入完成时扣除，保证下一次写入开始时距上一次写入完成不少于 settle。
type Pacer struct {
	limiter *rate.Limiter
	settle  time.Duration

	// OnWait 每次写入前的等待时长，用于指标
	OnWait func(time.Duration)
}

// NewPacer 创建节流器，settle <= 0 时使用默认值
func NewPacer(settle time.Duration) *Pacer {
	if settle <= 0 {
		settle = DefaultSettleDelay
	}
	return &Pacer{
		limiter: rate.NewLimiter(rate.Every(settle), 1),
		settle:  settle,
	}
}

// Settle 返回写入间隔
func (p *Pacer) Settle() time.Duration { return p.settle }

// Wait 阻塞直到允许下一次写入，不消耗令牌
func (p *Pacer) Wait(ctx context.Context) error {
	start := time.Now()
	for {
		now := time.Now()
		tokens := p.limiter.TokensAt(now)
		if tokens >= 1 {
			break
		}
		d := time.Duration((1 - tokens) / float64(p.limiter.Limit()) * float64(time.Second))
		if d < time.Millisecond {
			d = time.Millisecond
		}
		t := time.NewTimer(d)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		}
	}
	if p.OnWait != nil {
		p.OnWait(time.Since(start))
	}
	return nil
}

// Sent 记录一次写入完成
func (p *Pacer) Sent(at time.Time) {
	p.limiter.ReserveN(at, 1)
}

// Do 等待间隔后执行写入，并以写入完成时刻扣除令牌。
// 写入一旦开始不受 ctx 取消影响。
func (p *Pacer) Do(ctx context.Context, write func() error) error {
	if err := p.Wait(ctx); err != nil {
		return err
	}
	err := write()
	p.Sent(time.Now())
	return err
}
