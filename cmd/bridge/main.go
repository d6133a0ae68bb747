package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/taoyao-code/liveview-bridge/internal/app/bootstrap"
	cfgpkg "github.com/taoyao-code/liveview-bridge/internal/config"
	"github.com/taoyao-code/liveview-bridge/internal/gateway"
	"github.com/taoyao-code/liveview-bridge/internal/logging"
	"go.uber.org/zap"
)

func main() {
	os.Exit(run())
}

func run() int {
	// 1) 加载配置
	cfg, err := cfgpkg.Load("")
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		return 1
	}

	// 2) 初始化日志
	logger, err := logging.InitLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintln(os.Stderr, "init logger:", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	// 3) 信号取消 ctx，bootstrap 的 defer 负责恢复终端与关闭通道
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = bootstrap.Run(ctx, cfg, logger)
	if exitCode(err) != 0 {
		logger.Error("bridge exited with error", zap.Error(err))
		return 1
	}
	logger.Info("shutdown complete")
	return 0
}

// exitCode 正常退出、对端断开与信号中断视为成功
func exitCode(err error) int {
	switch {
	case err == nil,
		errors.Is(err, gateway.ErrDisconnected),
		errors.Is(err, context.Canceled):
		return 0
	default:
		return 1
	}
}
