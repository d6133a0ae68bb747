package liveview

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/taoyao-code/liveview-bridge/internal/session"
)

// Direction 导航输入方向
type Direction string

const (
	DirUp      Direction = "up"
	DirDown    Direction = "down"
	DirLeft    Direction = "left"
	DirRight   Direction = "right"
	DirSelect  Direction = "select"
	DirOpen    Direction = "open"
	DirIgnore  Direction = "ignore"
	DirUnknown Direction = "unknown"
)

// ClassifyDirection 按取值区间划分方向码
func ClassifyDirection(code byte) Direction {
	switch {
	case code >= 1 && code <= 3:
		return DirUp
	case code >= 4 && code <= 6:
		return DirDown
	case code >= 7 && code <= 9:
		return DirLeft
	case code >= 10 && code <= 12:
		return DirRight
	case code >= 13 && code <= 15:
		return DirSelect
	case code == 32:
		return DirOpen
	case code >= 16 && code <= 31:
		return DirIgnore
	default:
		return DirUnknown
	}
}

// Navigation 导航事件
type Navigation struct {
	Code      byte
	Direction Direction
	X, Y      byte
}

// ParseNavigation 仅识别 (0,3) 前缀且至少 5 字节的载荷
func ParseNavigation(payload []byte) (Navigation, bool) {
	if len(payload) < 5 || payload[0] != 0x00 || payload[1] != 0x03 {
		return Navigation{}, false
	}
	return Navigation{
		Code:      payload[2],
		Direction: ClassifyDirection(payload[2]),
		X:         payload[3],
		Y:         payload[4],
	}, true
}

// ParseStandby 载荷必须恰好是 0/1/2 单字节
func ParseStandby(payload []byte) (session.Phase, bool) {
	if len(payload) != 1 {
		return session.PhaseUnknown, false
	}
	switch p := session.Phase(payload[0]); p {
	case session.PhaseSleeping, session.PhaseClock, session.PhaseAwake:
		return p, true
	default:
		return session.PhaseUnknown, false
	}
}

// displayFixedLen 10 个尺寸字段 + 1 个停止字节
const displayFixedLen = 11

// ParseDisplayProperties 解析显示属性应答，版本串去掉末尾的 NUL
func ParseDisplayProperties(payload []byte) (session.DisplayProperties, error) {
	if len(payload) < displayFixedLen {
		return session.DisplayProperties{}, fmt.Errorf("display properties: need %d bytes, got %d", displayFixedLen, len(payload))
	}
	return session.DisplayProperties{
		Width:           payload[0],
		Height:          payload[1],
		StatusBarWidth:  payload[2],
		StatusBarHeight: payload[3],
		ViewWidth:       payload[4],
		ViewHeight:      payload[5],
		AnnounceWidth:   payload[6],
		AnnounceHeight:  payload[7],
		TextChunkSize:   payload[8],
		IdleTimer:       payload[9],
		// payload[10] 为停止字节
		Version: string(bytes.TrimRight(payload[displayFixedLen:], "\x00")),
	}, nil
}

// VersionPayload 显示属性请求载荷：版本串 + NUL
func VersionPayload(version string) []byte {
	buf := make([]byte, len(version)+1)
	copy(buf, version)
	return buf
}

// TimePayload 时间应答载荷：epoch 秒(BE32) + 时钟格式标志。
// local 为 true 时叠加本地时区偏移，配件按本地时间显示。
func TimePayload(now time.Time, use24Hour, local bool) []byte {
	sec := now.Unix()
	if local {
		_, off := now.Zone()
		sec += int64(off)
	}
	buf := make([]byte, 5)
	binary.BigEndian.PutUint32(buf[:4], uint32(sec))
	if use24Hour {
		buf[4] = 1
	}
	return buf
}

// VibratePayload 振动请求：延迟(ms) + 持续(ms)
func VibratePayload(delay, duration uint16) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint16(buf[0:2], delay)
	binary.BigEndian.PutUint16(buf[2:4], duration)
	return buf
}

// RGB565 打包 5/6/5 位颜色，超出位宽的高位被截断
func RGB565(r, g, b uint8) uint16 {
	return uint16(r&0x1F)<<11 | uint16(g&0x3F)<<5 | uint16(b&0x1F)
}

// IndicatorPayload 指示灯请求：颜色(RGB565) + 延迟(ms) + 持续(ms)
func IndicatorPayload(color, delay, duration uint16) []byte {
	buf := make([]byte, 6)
	binary.BigEndian.PutUint16(buf[0:2], color)
	binary.BigEndian.PutUint16(buf[2:4], delay)
	binary.BigEndian.PutUint16(buf[4:6], duration)
	return buf
}
