package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/liveview-bridge/internal/config"
	"github.com/taoyao-code/liveview-bridge/internal/events"
	"github.com/taoyao-code/liveview-bridge/internal/health"
	"github.com/taoyao-code/liveview-bridge/internal/httpserver"
	"github.com/taoyao-code/liveview-bridge/internal/protocol/liveview"
)

// TestSessionOptions 配置到协议会话参数的映射
func TestSessionOptions(t *testing.T) {
	cfg := cfgpkg.SessionConfig{
		SoftwareVersion: "1.2.3",
		LocalTime:       true,
		VibrateDelay:    10 * time.Millisecond,
		VibrateDuration: 200 * time.Millisecond,
		IndicatorOn:     time.Second,
		IndicatorColor:  cfgpkg.ColorConfig{Red: 1, Green: 2, Blue: 3},
	}
	ids := liveview.DefaultIDTable()
	ids.Ack = 99

	opts := SessionOptions(cfg, ids, nil, events.Discard{})
	assert.Equal(t, "1.2.3", opts.SoftwareVersion)
	assert.True(t, opts.LocalTime)
	assert.Equal(t, byte(99), opts.IDs.Ack)
	assert.Equal(t, 10*time.Millisecond, opts.VibrateDelay)
	assert.Equal(t, 200*time.Millisecond, opts.VibrateDuration)
	assert.Equal(t, time.Duration(0), opts.IndicatorDelay)
	assert.Equal(t, time.Second, opts.IndicatorDuration)
	assert.Equal(t, liveview.Color{R: 1, G: 2, B: 3}, opts.IndicatorColor)

	// 未配置版本号时保留默认
	opts = SessionOptions(cfgpkg.SessionConfig{}, ids, nil, nil)
	assert.Equal(t, liveview.DefaultSessionOptions().SoftwareVersion, opts.SoftwareVersion)
}

// TestExampleConfig 示例配置可加载，且示例标识表与默认映射一致
func TestExampleConfig(t *testing.T) {
	cfg, err := cfgpkg.Load("../../configs/example.yaml")
	require.NoError(t, err, "配置文件加载失败")
	assert.Equal(t, 100*time.Millisecond, cfg.Session.SettleDelay)
	assert.Equal(t, "rfcomm", cfg.Serial.Mode)

	ids, err := LoadIDTable(cfgpkg.ProtocolConfig{IDTablePath: "../../configs/liveview_ids.yaml"}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, liveview.DefaultIDTable(), ids)
}

func TestLoadIDTable(t *testing.T) {
	ids, err := LoadIDTable(cfgpkg.ProtocolConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, liveview.DefaultIDTable(), ids)

	path := filepath.Join(t.TempDir(), "ids.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ack: 44\nstandbyRequest: 44\n"), 0o600))
	_, err = LoadIDTable(cfgpkg.ProtocolConfig{IDTablePath: path}, zap.NewNop())
	assert.Error(t, err, "重复标识应被拒绝")

	_, err = LoadIDTable(cfgpkg.ProtocolConfig{IDTablePath: "/nonexistent/ids.yaml"}, zap.NewNop())
	assert.Error(t, err)
}

func TestNewSession(t *testing.T) {
	st, sess := NewSession(cfgpkg.SessionConfig{Use24HourClock: true}, liveview.DefaultIDTable(), "AA:BB:CC:DD:EE:FF", nil, nil, zap.NewNop())
	require.NotNil(t, sess)
	assert.Same(t, st, sess.State())
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", st.Device())
	assert.True(t, st.Use24Hour())
	assert.False(t, st.HandshakeDone())
}

func TestProviders_Disabled(t *testing.T) {
	client, err := NewRedisClient(cfgpkg.RedisConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, client)

	assert.Nil(t, NewHTTPServer(cfgpkg.HTTPConfig{Enable: false}, httpserver.Deps{}))

	agg := NewHealthAggregator(NewReady())
	AddRedisChecker(agg, nil)
	report := agg.Report(context.Background())
	assert.Len(t, report.Checks, 1)
	assert.Equal(t, health.StatusUnhealthy, report.Status, "尚无设备会话")
}

func TestNewEventBus_SkipsNilSinks(t *testing.T) {
	_, appm := NewMetrics()
	bus := NewEventBus(cfgpkg.EventsConfig{BufferSize: 1}, zap.NewNop(), appm, nil, nil)
	bus.Start(context.Background())
	bus.Publish(events.New(events.TypeCommand, "s", nil))
	bus.Close()
	bus.Wait()
	assert.Zero(t, bus.Dropped())
}
