package app

import (
	"github.com/taoyao-code/liveview-bridge/internal/health"
)

// NewReady 创建就绪状态，握手完成后 /readyz 返回 200
func NewReady() *health.Readiness {
	return health.New()
}

// NewHealthAggregator 创建健康检查聚合器，初始只包含设备会话检查
func NewHealthAggregator(ready *health.Readiness) *health.Aggregator {
	return health.NewAggregator(
		health.NewSessionChecker(ready),
	)
}
