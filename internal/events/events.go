package events

import (
	"time"

	"github.com/google/uuid"
)

// Type 事件类型
type Type string

const (
	// TypeSessionStart 连接建立，握手已发送
	TypeSessionStart Type = "session_start"
	// TypeSessionEnd 传输循环退出
	TypeSessionEnd Type = "session_end"
	// TypeStandby 待机阶段上报
	TypeStandby Type = "standby"
	// TypeNavigation 导航输入
	TypeNavigation Type = "navigation"
	// TypeDisplayProperties 显示属性应答
	TypeDisplayProperties Type = "display_properties"
	// TypeCommand 操作员命令已下发
	TypeCommand Type = "command"
)

// Event 设备事件
type Event struct {
	ID        string         `json:"id"`
	Type      Type           `json:"type"`
	SessionID string         `json:"session_id"`
	At        time.Time      `json:"at"`
	Data      map[string]any `json:"data,omitempty"`
}

// New 创建事件
func New(t Type, sessionID string, data map[string]any) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      t,
		SessionID: sessionID,
		At:        time.Now().UTC(),
		Data:      data,
	}
}

// Publisher 事件发布方，实现不得阻塞调用者
type Publisher interface {
	Publish(Event)
}

// Discard 丢弃所有事件
type Discard struct{}

func (Discard) Publish(Event) {}
