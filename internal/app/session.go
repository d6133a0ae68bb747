package app

import (
	"time"

	cfgpkg "github.com/taoyao-code/liveview-bridge/internal/config"
	"github.com/taoyao-code/liveview-bridge/internal/events"
	"github.com/taoyao-code/liveview-bridge/internal/metrics"
	"github.com/taoyao-code/liveview-bridge/internal/protocol/liveview"
	"github.com/taoyao-code/liveview-bridge/internal/session"
	"go.uber.org/zap"
)

// LoadIDTable 加载包标识表，未配置路径时使用默认映射
func LoadIDTable(cfg cfgpkg.ProtocolConfig, logger *zap.Logger) (liveview.IDTable, error) {
	if cfg.IDTablePath == "" {
		return liveview.DefaultIDTable(), nil
	}
	ids, err := liveview.LoadIDTable(cfg.IDTablePath)
	if err != nil {
		return liveview.IDTable{}, err
	}
	logger.Info("id table loaded", zap.String("path", cfg.IDTablePath))
	return ids, nil
}

// NewSession 为一次连接构造会话状态与协议会话
func NewSession(
	cfg cfgpkg.SessionConfig,
	ids liveview.IDTable,
	device string,
	appm *metrics.AppMetrics,
	pub events.Publisher,
	logger *zap.Logger,
) (*session.State, *liveview.Session) {
	st := session.New(device, cfg.Use24HourClock, time.Now())
	sess := liveview.NewSession(SessionOptions(cfg, ids, appm, pub), st, logger)
	logger.Info("session created",
		zap.String("session_id", st.ID()),
		zap.String("device", device),
		zap.Bool("use_24h", cfg.Use24HourClock))
	return st, sess
}

// SessionOptions 把配置映射为协议会话参数，未配置版本号时保留默认值
func SessionOptions(cfg cfgpkg.SessionConfig, ids liveview.IDTable, appm *metrics.AppMetrics, pub events.Publisher) liveview.SessionOptions {
	opts := liveview.DefaultSessionOptions()
	opts.IDs = ids
	if cfg.SoftwareVersion != "" {
		opts.SoftwareVersion = cfg.SoftwareVersion
	}
	opts.LocalTime = cfg.LocalTime
	opts.VibrateDelay = cfg.VibrateDelay
	opts.VibrateDuration = cfg.VibrateDuration
	opts.IndicatorDelay = cfg.IndicatorDelay
	opts.IndicatorDuration = cfg.IndicatorOn
	opts.IndicatorColor = liveview.Color{
		R: cfg.IndicatorColor.Red,
		G: cfg.IndicatorColor.Green,
		B: cfg.IndicatorColor.Blue,
	}
	opts.Metrics = appm
	opts.Events = pub
	return opts
}
