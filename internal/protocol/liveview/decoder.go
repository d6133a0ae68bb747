package liveview

import (
	"encoding/binary"
	"fmt"
)

// decodeState 解码状态：每个状态只携带该阶段有效的字段
type decodeState interface {
	size() int // 当前字段总字节数
}

type awaitID struct{}

type awaitHeader struct {
	id byte
}

type awaitPayload struct {
	id     byte
	length uint32
}

func (awaitID) size() int        { return 1 }
func (awaitHeader) size() int    { return fieldLen }
func (s awaitPayload) size() int { return int(s.length) }

// Decoder 流式解码器：告知调用方下一次需要读取的字节数，
// 支持任意切分的输入（逐字节或跨字段/跨帧的整块）。
// 非并发安全，归属单个连接。
type Decoder struct {
	state      decodeState
	field      []byte // 当前字段已收到的字节
	ready      []Packet
	maxPayload uint32
	err        error
}

// NewDecoder 创建解码器，maxPayload 为 0 时使用 DefaultMaxPayload
func NewDecoder(maxPayload uint32) *Decoder {
	if maxPayload == 0 {
		maxPayload = DefaultMaxPayload
	}
	return &Decoder{state: awaitID{}, maxPayload: maxPayload}
}

// Need 返回完成当前字段仍需的字节数；字段边界处即下一字段的长度
func (d *Decoder) Need() int {
	return d.state.size() - len(d.field)
}

// Feed 追加数据，返回下一次期望读取的字节数。
// 一旦返回 ErrFraming / ErrPayloadTooLarge，解码器不可再用。
func (d *Decoder) Feed(p []byte) (int, error) {
	if d.err != nil {
		return 0, d.err
	}
	for len(p) > 0 {
		n := d.Need()
		if n > len(p) {
			n = len(p)
		}
		d.field = append(d.field, p[:n]...)
		p = p[n:]
		if d.Need() == 0 {
			if err := d.advance(); err != nil {
				d.err = err
				d.field = nil
				return 0, err
			}
		}
	}
	return d.Need(), nil
}

// advance 当前字段已完整，切换到下一状态
func (d *Decoder) advance() error {
	field := d.field
	d.field = nil

	switch st := d.state.(type) {
	case awaitID:
		d.state = awaitHeader{id: field[0]}

	case awaitHeader:
		if field[0] != Marker {
			return fmt.Errorf("%w: id %d marker 0x%02X", ErrFraming, st.id, field[0])
		}
		length := binary.BigEndian.Uint32(field[1:5])
		if length > d.maxPayload {
			return fmt.Errorf("%w: id %d length %d > %d", ErrPayloadTooLarge, st.id, length, d.maxPayload)
		}
		if length == 0 {
			// 空载荷立即完成
			d.ready = append(d.ready, Packet{ID: st.id})
			d.state = awaitID{}
			return nil
		}
		d.field = make([]byte, 0, length)
		d.state = awaitPayload{id: st.id, length: length}

	case awaitPayload:
		d.ready = append(d.ready, Packet{ID: st.id, Payload: field})
		d.state = awaitID{}
	}
	return nil
}

// Next 取出最早完成的包，每个包只返回一次
func (d *Decoder) Next() (Packet, bool) {
	if len(d.ready) == 0 {
		return Packet{}, false
	}
	p := d.ready[0]
	d.ready[0] = Packet{}
	d.ready = d.ready[1:]
	return p, true
}

// Pending 返回已完成但尚未取走的包数量
func (d *Decoder) Pending() int { return len(d.ready) }

// Err 返回导致解码器失效的错误
func (d *Decoder) Err() error { return d.err }
