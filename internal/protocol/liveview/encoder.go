package liveview

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Encode 序列化为线上字节：id + 0x04 + len(BE32) [+ payload]
func Encode(p Packet) []byte {
	buf := make([]byte, HeaderLen+len(p.Payload))
	buf[0] = p.ID
	buf[1] = Marker
	binary.BigEndian.PutUint32(buf[2:6], uint32(len(p.Payload)))
	copy(buf[HeaderLen:], p.Payload)
	return buf
}

// WritePacket 以单次 Write 写出完整帧
func WritePacket(w io.Writer, p Packet) error {
	b := Encode(p)
	n, err := w.Write(b)
	if err != nil {
		return err
	}
	if n != len(b) {
		return fmt.Errorf("incomplete write: %d/%d bytes", n, len(b))
	}
	return nil
}

// Decode 从恰好包含一帧的缓冲中解出 Packet
func Decode(raw []byte) (Packet, error) {
	if len(raw) < HeaderLen {
		return Packet{}, ErrShortFrame
	}
	d := NewDecoder(0)
	if _, err := d.Feed(raw); err != nil {
		return Packet{}, err
	}
	p, ok := d.Next()
	if !ok {
		return Packet{}, ErrShortFrame
	}
	if d.Pending() > 0 || d.Need() != 1 {
		return Packet{}, ErrTrailingBytes
	}
	return p, nil
}
