package health

import (
	"sync/atomic"

	"github.com/taoyao-code/liveview-bridge/internal/session"
)

// Readiness 跟踪当前设备会话。连接建立时设置，循环退出时清空。
type Readiness struct {
	current atomic.Pointer[session.State]
}

func New() *Readiness { return &Readiness{} }

// SetSession 设置当前会话，nil 表示无连接
func (r *Readiness) SetSession(s *session.State) { r.current.Store(s) }

// Session 返回当前会话
func (r *Readiness) Session() (*session.State, bool) {
	s := r.current.Load()
	return s, s != nil
}

// Ready 已连接且握手完成
func (r *Readiness) Ready() bool {
	s := r.current.Load()
	return s != nil && s.HandshakeDone()
}
