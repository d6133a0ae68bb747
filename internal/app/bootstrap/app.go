package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/taoyao-code/liveview-bridge/internal/app"
	cfgpkg "github.com/taoyao-code/liveview-bridge/internal/config"
	"github.com/taoyao-code/liveview-bridge/internal/events"
	"github.com/taoyao-code/liveview-bridge/internal/gateway"
	"github.com/taoyao-code/liveview-bridge/internal/httpserver"
	"github.com/taoyao-code/liveview-bridge/internal/locator"
	"github.com/taoyao-code/liveview-bridge/internal/metrics"
	"github.com/taoyao-code/liveview-bridge/internal/operator"
	"github.com/taoyao-code/liveview-bridge/internal/transport"
	"go.uber.org/zap"
)

// Run 统一启动流程：定位设备、打开串行通道、运行一次会话后返回。
// ctx 取消（SIGINT/SIGTERM）时返回 ctx.Err()，清理全部在 defer 中完成。
func Run(ctx context.Context, cfg *cfgpkg.Config, log *zap.Logger) error {
	log.Info("starting liveview bridge",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("mode", cfg.Serial.Mode))

	// ========== 阶段1: 初始化基础组件 ==========
	reg, appm := app.NewMetrics()
	ready := app.NewReady()
	defer ready.SetSession(nil)

	ids, err := app.LoadIDTable(cfg.Protocol, log)
	if err != nil {
		log.Error("load id table failed", zap.String("path", cfg.Protocol.IDTablePath), zap.Error(err))
		return err
	}
	log.Info("basic components initialized")

	// ========== 阶段2: 事件分发（Redis 可选）==========
	redisClient, err := app.NewRedisClient(cfg.Redis, log)
	if err != nil {
		log.Error("redis initialization failed", zap.Error(err))
		return err
	}
	var redisSink *events.RedisSink
	if redisClient != nil {
		defer redisClient.Close()
		redisSink = app.NewRedisSink(redisClient, cfg.Redis.Channel)
	}

	hub := events.NewHub(log)
	bus := app.NewEventBus(cfg.Events, log, appm, hub, redisSink)
	// 信号到来后仍需投递 session_end，worker 由 Close 结束
	bus.Start(context.Background())
	defer func() {
		bus.Close()
		waitBus(bus, 2*time.Second)
		if n := bus.Dropped(); n > 0 {
			log.Warn("events dropped", zap.Uint64("count", n))
		}
	}()

	// ========== 阶段3: 启动诊断HTTP服务（非阻塞）==========
	healthAgg := app.NewHealthAggregator(ready)
	app.AddRedisChecker(healthAgg, redisClient)

	deps := httpserver.Deps{
		Readiness: ready,
		Health:    healthAgg,
		Hub:       hub,
		Logger:    log,
	}
	if cfg.Metrics.Enable {
		deps.MetricsPath = cfg.Metrics.Path
		deps.MetricsHandler = metrics.Handler(reg)
	}
	if httpSrv := app.NewHTTPServer(cfg.HTTP, deps); httpSrv != nil {
		go func() {
			if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("http server error", zap.Error(err))
			}
		}()
		log.Info("http server started", zap.String("addr", cfg.HTTP.Addr))
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = httpSrv.Shutdown(sctx)
			log.Info("http server stopped")
		}()
	}

	// ========== 阶段4: 定位设备并打开串行通道（失败直接返回，不重试）==========
	bz, err := locator.NewBlueZ(cfg.Locator, cfg.Serial, log)
	if err != nil {
		log.Error("bluez unavailable", zap.Error(err))
		return err
	}
	defer func() { _ = bz.Shutdown() }()

	cand, port, err := connect(ctx, bz, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := port.Close(); err != nil {
			log.Warn("close serial channel failed", zap.Error(err))
		}
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := bz.Close(cctx, cand); err != nil {
			log.Warn("disconnect device failed", zap.Error(err))
		}
		log.Info("serial channel closed", zap.String("address", cand.Address))
	}()

	if err := port.Flush(); err != nil {
		log.Warn("flush serial channel failed", zap.Error(err))
	}

	// ========== 阶段5: 操作员输入 ==========
	term, err := operator.Acquire(int(os.Stdin.Fd()))
	if err != nil {
		log.Warn("terminal raw mode unavailable", zap.Error(err))
	} else {
		defer func() { _ = term.Restore() }()
	}
	keys := operator.NewKeySource(os.Stdin, log)
	keys.Start()
	log.Info(operator.Banner)

	// ========== 阶段6: 会话与传输循环 ==========
	st, sess := app.NewSession(cfg.Session, ids, cand.Address, appm, bus, log)
	ready.SetSession(st)

	loop := gateway.NewLoop(port, keys, sess, gateway.LoopOptions{
		SettleDelay: cfg.Session.SettleDelay,
		MaxPayload:  cfg.Session.MaxPayload,
		Metrics:     appm,
		Logger:      log,
	})
	err = loop.Run(ctx)
	switch {
	case err == nil:
		log.Info("operator quit")
	case errors.Is(err, gateway.ErrDisconnected):
		log.Info("device disconnected")
	case errors.Is(err, context.Canceled):
		log.Info("received shutdown signal, gracefully shutting down...")
	default:
		log.Error("session terminated", zap.Error(err))
	}
	return err
}

// connect 按候选顺序尝试打开串行通道，全部失败时返回最后一个错误
func connect(ctx context.Context, l locator.Locator, log *zap.Logger) (locator.Candidate, transport.Port, error) {
	cands, err := l.ListCandidates(ctx)
	if err != nil {
		log.Error("device discovery failed", zap.Error(err))
		return locator.Candidate{}, nil, err
	}
	var lastErr error
	for _, c := range cands {
		port, err := l.Open(ctx, c)
		if err == nil {
			log.Info("serial channel open",
				zap.String("name", c.Name),
				zap.String("address", c.Address))
			return c, port, nil
		}
		if ctx.Err() != nil {
			return locator.Candidate{}, nil, ctx.Err()
		}
		log.Warn("open serial channel failed",
			zap.String("address", c.Address),
			zap.Error(err))
		lastErr = err
	}
	return locator.Candidate{}, nil, fmt.Errorf("open serial channel: %w", lastErr)
}

func waitBus(bus *events.Bus, timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		bus.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
	}
}
