package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Phase 配件上报的待机阶段
type Phase byte

const (
	PhaseSleeping Phase = 0
	PhaseClock    Phase = 1
	PhaseAwake    Phase = 2
	PhaseUnknown  Phase = 0xFF
)

func (p Phase) String() string {
	switch p {
	case PhaseSleeping:
		return "sleeping"
	case PhaseClock:
		return "clock"
	case PhaseAwake:
		return "awake"
	default:
		return "unknown"
	}
}

// DisplayProperties 显示属性应答（仅用于诊断）
type DisplayProperties struct {
	Width           uint8  `json:"width"`
	Height          uint8  `json:"height"`
	StatusBarWidth  uint8  `json:"status_bar_width"`
	StatusBarHeight uint8  `json:"status_bar_height"`
	ViewWidth       uint8  `json:"view_width"`
	ViewHeight      uint8  `json:"view_height"`
	AnnounceWidth   uint8  `json:"announce_width"`
	AnnounceHeight  uint8  `json:"announce_height"`
	TextChunkSize   uint8  `json:"text_chunk_size"`
	IdleTimer       uint8  `json:"idle_timer"`
	Version         string `json:"version"`
}

// State 单个连接的会话状态。
// 仅由协议会话修改；诊断接口通过 Snapshot 并发读取。
type State struct {
	mu sync.RWMutex

	id          string
	device      string
	use24Hour   bool
	connectedAt time.Time

	phase         Phase
	phaseAt       time.Time
	handshakeDone bool
	display       *DisplayProperties
	lastActivity  time.Time
	packetsIn     uint64
	packetsOut    uint64
}

// New 创建会话状态，连接建立时调用
func New(device string, use24Hour bool, now time.Time) *State {
	return &State{
		id:           uuid.New().String(),
		device:       device,
		use24Hour:    use24Hour,
		connectedAt:  now,
		phase:        PhaseUnknown,
		lastActivity: now,
	}
}

// ID 会话ID（日志与事件关联）
func (s *State) ID() string { return s.id }

// Device 设备标识（地址或串口路径）
func (s *State) Device() string { return s.device }

// Use24Hour 时间应答中的时钟格式标志
func (s *State) Use24Hour() bool { return s.use24Hour }

// SetPhase 更新待机阶段，返回是否发生变化
func (s *State) SetPhase(p Phase, at time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := s.phase != p
	s.phase = p
	s.phaseAt = at
	return changed
}

// Phase 返回最近一次上报的待机阶段
func (s *State) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// RecordDisplay 记录显示属性，握手至此完成
func (s *State) RecordDisplay(dp DisplayProperties) {
	s.mu.Lock()
	s.display = &dp
	s.handshakeDone = true
	s.mu.Unlock()
}

// HandshakeDone 是否已收到显示属性应答
func (s *State) HandshakeDone() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.handshakeDone
}

// Display 返回已记录的显示属性
func (s *State) Display() (DisplayProperties, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.display == nil {
		return DisplayProperties{}, false
	}
	return *s.display, true
}

// OnInbound 记录一次入站包
func (s *State) OnInbound(at time.Time) {
	s.mu.Lock()
	s.packetsIn++
	s.lastActivity = at
	s.mu.Unlock()
}

// OnOutbound 记录一次出站包
func (s *State) OnOutbound(at time.Time) {
	s.mu.Lock()
	s.packetsOut++
	s.lastActivity = at
	s.mu.Unlock()
}

// Snapshot 会话状态快照
type Snapshot struct {
	ID            string             `json:"id"`
	Device        string             `json:"device"`
	ConnectedAt   time.Time          `json:"connected_at"`
	LastActivity  time.Time          `json:"last_activity"`
	Phase         string             `json:"standby_phase"`
	PhaseAt       *time.Time         `json:"standby_phase_at,omitempty"`
	HandshakeDone bool               `json:"handshake_done"`
	Use24Hour     bool               `json:"use_24_hour"`
	Display       *DisplayProperties `json:"display,omitempty"`
	PacketsIn     uint64             `json:"packets_in"`
	PacketsOut    uint64             `json:"packets_out"`
}

// Snapshot 返回当前状态的副本
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		ID:            s.id,
		Device:        s.device,
		ConnectedAt:   s.connectedAt,
		LastActivity:  s.lastActivity,
		Phase:         s.phase.String(),
		HandshakeDone: s.handshakeDone,
		Use24Hour:     s.use24Hour,
		PacketsIn:     s.packetsIn,
		PacketsOut:    s.packetsOut,
	}
	if !s.phaseAt.IsZero() {
		at := s.phaseAt
		snap.PhaseAt = &at
	}
	if s.display != nil {
		dp := *s.display
		snap.Display = &dp
	}
	return snap
}
