package liveview

import "sync"

// Handler 处理一个入站包，返回需要依次发送的应答（不含通用 ACK）
type Handler func(Packet) []Packet

// Table 按包标识分发
type Table struct {
	mu sync.RWMutex
	m  map[byte]Handler
}

func NewTable() *Table { return &Table{m: make(map[byte]Handler)} }

func (t *Table) Register(id byte, h Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.m[id] = h
}

// Route 调用已注册的处理器；未注册时 handled 为 false
func (t *Table) Route(p Packet) (replies []Packet, handled bool) {
	t.mu.RLock()
	h := t.m[p.ID]
	t.mu.RUnlock()
	if h == nil {
		return nil, false
	}
	return h(p), true
}
