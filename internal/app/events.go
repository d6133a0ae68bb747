package app

import (
	cfgpkg "github.com/taoyao-code/liveview-bridge/internal/config"
	"github.com/taoyao-code/liveview-bridge/internal/events"
	"github.com/taoyao-code/liveview-bridge/internal/metrics"
	"go.uber.org/zap"
)

// NewEventBus 创建事件总线，sink 为 nil 时跳过
func NewEventBus(cfg cfgpkg.EventsConfig, logger *zap.Logger, appm *metrics.AppMetrics, hub *events.Hub, redisSink *events.RedisSink) *events.Bus {
	sinks := []events.Sink{}
	if hub != nil {
		sinks = append(sinks, hub)
	}
	if redisSink != nil {
		sinks = append(sinks, redisSink)
	}
	return events.NewBus(cfg.BufferSize, logger, appm, sinks...)
}
