package locator

import (
	"context"
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"
	cfgpkg "github.com/taoyao-code/liveview-bridge/internal/config"
	"github.com/taoyao-code/liveview-bridge/internal/transport"
	"go.uber.org/zap"
)

// Locator 解析并打开到配件的串行通道
type Locator interface {
	ListCandidates(ctx context.Context) ([]Candidate, error)
	Open(ctx context.Context, c Candidate) (transport.Port, error)
	Close(ctx context.Context, c Candidate) error
}

// BlueZ 通过系统 D-Bus 查询 BlueZ
type BlueZ struct {
	conn   *dbus.Conn
	loc    cfgpkg.LocatorConfig
	serial cfgpkg.SerialConfig
	logger *zap.Logger
}

// NewBlueZ 连接系统总线
func NewBlueZ(loc cfgpkg.LocatorConfig, serial cfgpkg.SerialConfig, logger *zap.Logger) (*BlueZ, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("%w: connect system bus: %v", ErrDiscovery, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BlueZ{conn: conn, loc: loc, serial: serial, logger: logger}, nil
}

// ListCandidates 列出名称匹配的设备，已配对的排在前面；为空时返回 ErrDiscovery
func (b *BlueZ) ListCandidates(ctx context.Context) ([]Candidate, error) {
	if b.loc.Discover {
		if err := b.discover(ctx); err != nil {
			return nil, err
		}
	}

	objects := make(map[dbus.ObjectPath]map[string]map[string]dbus.Variant)
	root := b.conn.Object(bluezBus, "/")
	if err := root.CallWithContext(ctx, objectManager, 0).Store(&objects); err != nil {
		return nil, fmt.Errorf("%w: get managed objects: %v", ErrDiscovery, err)
	}

	cands := FilterCandidates(ManagedObjects(objects), b.loc.Adapter, b.loc.NameHints, b.loc.Address)
	if len(cands) == 0 {
		return nil, fmt.Errorf("%w: no device matching %v", ErrDiscovery, b.hints())
	}
	for _, c := range cands {
		b.logger.Info("liveview device",
			zap.String("name", c.Name),
			zap.String("address", c.Address),
			zap.String("path", c.ID),
			zap.Bool("paired", c.Paired),
			zap.Bool("serial", c.HasSerial))
	}
	return cands, nil
}

func (b *BlueZ) hints() []string {
	if b.loc.Address != "" {
		return []string{b.loc.Address}
	}
	if len(b.loc.NameHints) == 0 {
		return DefaultNameHints
	}
	return b.loc.NameHints
}

// discover 扫描 DiscoveryTimeout 时长，期间新发现的设备进入对象树
func (b *BlueZ) discover(ctx context.Context) error {
	adapter := b.conn.Object(bluezBus, dbus.ObjectPath(b.loc.Adapter))
	if err := adapter.CallWithContext(ctx, adapterIface+".StartDiscovery", 0).Err; err != nil {
		return fmt.Errorf("%w: start discovery: %v", ErrDiscovery, err)
	}
	timeout := b.loc.DiscoveryTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	b.logger.Info("discovery started", zap.Duration("timeout", timeout))

	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := adapter.CallWithContext(stopCtx, adapterIface+".StopDiscovery", 0).Err; err != nil {
		b.logger.Warn("stop discovery failed", zap.Error(err))
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	b.logger.Info("discovery done")
	return nil
}

// Open 按配置模式打开串行通道
func (b *BlueZ) Open(ctx context.Context, c Candidate) (transport.Port, error) {
	switch b.serial.Mode {
	case "tty":
		b.logger.Info("opening serial device",
			zap.String("device", b.serial.Device),
			zap.Int("baud", b.serial.Baud))
		return transport.OpenSerial(b.serial.Device, b.serial.Baud)
	default:
		b.logger.Info("connecting rfcomm",
			zap.String("address", c.Address),
			zap.Uint8("channel", b.serial.Channel))
		return transport.DialRFCOMM(ctx, c.Address, b.serial.Channel)
	}
}

// Close 按配置断开设备的基带连接
func (b *BlueZ) Close(ctx context.Context, c Candidate) error {
	if !b.loc.DisconnectOnClose {
		return nil
	}
	dev := b.conn.Object(bluezBus, dbus.ObjectPath(c.ID))
	if err := dev.CallWithContext(ctx, deviceIface+".Disconnect", 0).Err; err != nil {
		return fmt.Errorf("disconnect %s: %w", c.Address, err)
	}
	return nil
}

// Shutdown 关闭 D-Bus 连接
func (b *BlueZ) Shutdown() error {
	return b.conn.Close()
}
