package liveview

import (
	"errors"
	"fmt"
	"strings"
)

// 帧格式（大端）：id(1) + marker(1)=0x04 + len(4) + payload(len)
// len 为 0 时不携带 payload
const (
	Marker    byte = 0x04
	HeaderLen      = 6 // id + marker + len
	fieldLen       = 5 // marker + len，紧随 id 读取

	// DefaultMaxPayload 单帧载荷上限，防止畸形长度字段占用过多内存
	DefaultMaxPayload uint32 = 1 << 20
)

var (
	// ErrFraming 头部 marker 不为 0x04，流已失步且无法恢复
	ErrFraming = errors.New("liveview: framing error (bad marker)")
	// ErrPayloadTooLarge 长度字段超过配置上限
	ErrPayloadTooLarge = errors.New("liveview: payload too large")
	// ErrShortFrame 完整帧缓冲不足
	ErrShortFrame = errors.New("liveview: short frame")
	// ErrTrailingBytes 完整帧缓冲包含多余字节
	ErrTrailingBytes = errors.New("liveview: trailing bytes after frame")
)

// Packet 完整的协议包，解码完成后不再修改
type Packet struct {
	ID      byte
	Payload []byte
}

// NewPacket 复制 payload 构造出站包
func NewPacket(id byte, payload []byte) Packet {
	if len(payload) == 0 {
		return Packet{ID: id}
	}
	buf := make([]byte, len(payload))
	copy(buf, payload)
	return Packet{ID: id, Payload: buf}
}

// Len 返回载荷长度（即线上 len 字段）
func (p Packet) Len() int { return len(p.Payload) }

// Equal 比较 id 与载荷，nil 与空载荷视为相同
func (p Packet) Equal(o Packet) bool {
	if p.ID != o.ID || len(p.Payload) != len(o.Payload) {
		return false
	}
	for i := range p.Payload {
		if p.Payload[i] != o.Payload[i] {
			return false
		}
	}
	return true
}

// String 调试输出：<Packet: id 44, length 1, data 07>
func (p Packet) String() string {
	if len(p.Payload) == 0 {
		return fmt.Sprintf("<Packet: id %d, length 0>", p.ID)
	}
	return fmt.Sprintf("<Packet: id %d, length %d, data %s>", p.ID, len(p.Payload), hexBytes(p.Payload))
}

func hexBytes(b []byte) string {
	var sb strings.Builder
	for i, x := range b {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02X", x)
	}
	return sb.String()
}
