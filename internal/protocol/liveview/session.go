package liveview

import (
	"time"

	"github.com/taoyao-code/liveview-bridge/internal/events"
	"github.com/taoyao-code/liveview-bridge/internal/metrics"
	"github.com/taoyao-code/liveview-bridge/internal/operator"
	"github.com/taoyao-code/liveview-bridge/internal/session"
	"go.uber.org/zap"
)

// Color 指示灯颜色，R/B 取低 5 位，G 取低 6 位
type Color struct {
	R, G, B uint8
}

// SessionOptions 协议会话参数
type SessionOptions struct {
	IDs             IDTable
	SoftwareVersion string
	LocalTime       bool // 时间应答按本地时区偏移

	VibrateDelay      time.Duration
	VibrateDuration   time.Duration
	IndicatorDelay    time.Duration
	IndicatorDuration time.Duration
	IndicatorColor    Color

	Metrics *metrics.AppMetrics
	Events  events.Publisher
	Now     func() time.Time
}

// DefaultSessionOptions 默认参数
func DefaultSessionOptions() SessionOptions {
	return SessionOptions{
		IDs:               DefaultIDTable(),
		SoftwareVersion:   "0.0.3",
		VibrateDelay:      100 * time.Millisecond,
		VibrateDuration:   50 * time.Millisecond,
		IndicatorDelay:    100 * time.Millisecond,
		IndicatorDuration: 250 * time.Millisecond,
		IndicatorColor:    Color{R: 31, G: 63, B: 31},
	}
}

// Session 协议会话：决定每个入站包的应答，并构造操作员命令对应的出站包。
// 非并发安全，只由传输循环调用。
type Session struct {
	opts    SessionOptions
	ids     IDTable
	state   *session.State
	table   *Table
	logger  *zap.Logger
	metrics *metrics.AppMetrics
	events  events.Publisher
	now     func() time.Time
}

// NewSession 创建协议会话并注册处理器
func NewSession(opts SessionOptions, state *session.State, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Session{
		opts:    opts,
		ids:     opts.IDs,
		state:   state,
		table:   NewTable(),
		logger:  logger.With(zap.String("session_id", state.ID())),
		metrics: opts.Metrics,
		events:  opts.Events,
		now:     opts.Now,
	}
	if s.events == nil {
		s.events = events.Discard{}
	}
	if s.now == nil {
		s.now = time.Now
	}

	s.table.Register(s.ids.StandbyRequest, s.onStandby)
	s.table.Register(s.ids.TimeRequest, s.onTime)
	s.table.Register(s.ids.NavigationRequest, s.onNavigation)
	s.table.Register(s.ids.DisplayPropertiesResponse, s.onDisplayProperties)
	s.table.Register(s.ids.VibrateResponse, s.onConfirmation)
	s.table.Register(s.ids.LEDResponse, s.onConfirmation)
	s.table.Register(s.ids.ClearDisplayResponse, s.onConfirmation)
	return s
}

// State 返回会话状态
func (s *Session) State() *session.State { return s.state }

// IDs 返回使用中的标识映射
func (s *Session) IDs() IDTable { return s.ids }

// Handshake 连接建立后立即发送：待机应答 + 显示属性请求（携带软件版本）
func (s *Session) Handshake() []Packet {
	s.publish(events.TypeSessionStart, map[string]any{
		"device":  s.state.Device(),
		"version": s.opts.SoftwareVersion,
	})
	return []Packet{
		s.standbyAck(),
		{ID: s.ids.DisplayPropertiesRequest, Payload: VersionPayload(s.opts.SoftwareVersion)},
	}
}

// OnPacket 处理一个完整入站包。非 ACK 包的第一个应答总是 ACK。
func (s *Session) OnPacket(p Packet) []Packet {
	name := s.ids.Name(p.ID)
	s.state.OnInbound(s.now())
	s.metrics.IncPacketIn(name)

	if p.ID == s.ids.Ack {
		s.logger.Debug("ack received", zap.Stringer("packet", p))
		return nil
	}

	out := []Packet{s.ack(p.ID)}
	s.metrics.IncAck()

	replies, handled := s.table.Route(p)
	if !handled {
		s.metrics.IncUnhandled(name)
		s.logger.Warn("unhandled packet",
			zap.Uint8("id", p.ID),
			zap.String("name", name),
			zap.Stringer("packet", p))
		return out
	}
	return append(out, replies...)
}

// OnCommand 操作员命令转换为出站包；quit 为 true 时应结束循环
func (s *Session) OnCommand(cmd operator.Command) (out []Packet, quit bool) {
	switch cmd {
	case operator.CmdQuit:
		s.logger.Info("quit requested")
		return nil, true

	case operator.CmdVibrate:
		delay, on := millis(s.opts.VibrateDelay), millis(s.opts.VibrateDuration)
		s.logger.Info("vibrate",
			zap.Uint16("delay_ms", delay),
			zap.Uint16("duration_ms", on))
		out = []Packet{{ID: s.ids.VibrateRequest, Payload: VibratePayload(delay, on)}}

	case operator.CmdIndicator:
		c := s.opts.IndicatorColor
		delay, on := millis(s.opts.IndicatorDelay), millis(s.opts.IndicatorDuration)
		s.logger.Info("led",
			zap.Uint16("delay_ms", delay),
			zap.Uint16("duration_ms", on),
			zap.Uint8("r", c.R), zap.Uint8("g", c.G), zap.Uint8("b", c.B))
		out = []Packet{{ID: s.ids.LEDRequest, Payload: IndicatorPayload(RGB565(c.R, c.G, c.B), delay, on)}}

	case operator.CmdClear:
		s.logger.Info("clear display")
		out = []Packet{{ID: s.ids.ClearDisplayRequest}}

	default:
		s.logger.Warn("unknown operator command", zap.Int("command", int(cmd)))
		return nil, false
	}

	s.publish(events.TypeCommand, map[string]any{"command": cmd.String()})
	return out, false
}

// End 会话结束通知
func (s *Session) End(reason error) {
	data := map[string]any{}
	if reason != nil {
		data["reason"] = reason.Error()
	}
	s.publish(events.TypeSessionEnd, data)
}

func (s *Session) onStandby(p Packet) []Packet {
	phase, ok := ParseStandby(p.Payload)
	if !ok {
		s.logger.Warn("malformed standby payload", zap.Stringer("packet", p))
		return []Packet{s.standbyAck()}
	}
	if s.state.SetPhase(phase, s.now()) {
		s.logger.Info("standby mode", zap.Stringer("phase", phase))
	}
	s.metrics.SetStandbyPhase(float64(phase))
	s.publish(events.TypeStandby, map[string]any{"phase": phase.String()})
	return []Packet{s.standbyAck()}
}

func (s *Session) onTime(Packet) []Packet {
	payload := TimePayload(s.now(), s.state.Use24Hour(), s.opts.LocalTime)
	s.logger.Debug("time response", zap.Binary("payload", payload))
	return []Packet{
		{ID: s.ids.TimeResponse, Payload: payload},
		s.standbyAck(),
	}
}

func (s *Session) onNavigation(p Packet) []Packet {
	nav, ok := ParseNavigation(p.Payload)
	if !ok {
		s.logger.Warn("not a navigation packet", zap.Stringer("packet", p))
		return nil
	}
	s.logger.Info("navigation",
		zap.String("direction", string(nav.Direction)),
		zap.Uint8("code", nav.Code),
		zap.Uint8("x", nav.X),
		zap.Uint8("y", nav.Y))
	s.metrics.IncNavigation(string(nav.Direction))
	s.publish(events.TypeNavigation, map[string]any{
		"direction": string(nav.Direction),
		"code":      nav.Code,
		"x":         nav.X,
		"y":         nav.Y,
	})
	return []Packet{{ID: s.ids.NavigationResponse, Payload: []byte{0}}}
}

func (s *Session) onDisplayProperties(p Packet) []Packet {
	dp, err := ParseDisplayProperties(p.Payload)
	if err != nil {
		s.logger.Warn("malformed display properties", zap.Error(err), zap.Stringer("packet", p))
		return []Packet{s.standbyAck()}
	}
	s.state.RecordDisplay(dp)
	s.logger.Info("display properties",
		zap.Uint8("width", dp.Width),
		zap.Uint8("height", dp.Height),
		zap.Uint8("sb_width", dp.StatusBarWidth),
		zap.Uint8("sb_height", dp.StatusBarHeight),
		zap.Uint8("view_width", dp.ViewWidth),
		zap.Uint8("view_height", dp.ViewHeight),
		zap.Uint8("a_width", dp.AnnounceWidth),
		zap.Uint8("a_height", dp.AnnounceHeight),
		zap.Uint8("text_chunk", dp.TextChunkSize),
		zap.Uint8("idle_timer", dp.IdleTimer),
		zap.String("version", dp.Version))
	s.publish(events.TypeDisplayProperties, map[string]any{"display": dp})
	return []Packet{s.standbyAck()}
}

func (s *Session) onConfirmation(p Packet) []Packet {
	s.logger.Info("confirmation received", zap.String("name", s.ids.Name(p.ID)))
	return nil
}

func (s *Session) ack(id byte) Packet {
	return Packet{ID: s.ids.Ack, Payload: []byte{id}}
}

func (s *Session) standbyAck() Packet {
	return Packet{ID: s.ids.StandbyResponse}
}

func (s *Session) publish(t events.Type, data map[string]any) {
	s.events.Publish(events.New(t, s.state.ID(), data))
}

// millis 毫秒数截断到 u16
func millis(d time.Duration) uint16 {
	ms := d.Milliseconds()
	switch {
	case ms < 0:
		return 0
	case ms > 0xFFFF:
		return 0xFFFF
	default:
		return uint16(ms)
	}
}
