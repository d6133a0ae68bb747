package transport

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseBDAddr 解析 "00:11:22:33:44:55" 形式的蓝牙地址。
// 返回值按内核 bdaddr_t 的字节序（低字节在前）。
func ParseBDAddr(s string) ([6]uint8, error) {
	var out [6]uint8
	parts := strings.Split(s, ":")
	if len(parts) != 6 {
		return out, fmt.Errorf("invalid bluetooth address %q", s)
	}
	for i, p := range parts {
		if len(p) != 2 {
			return out, fmt.Errorf("invalid bluetooth address %q", s)
		}
		v, err := strconv.ParseUint(p, 16, 8)
		if err != nil {
			return out, fmt.Errorf("invalid bluetooth address %q: %w", s, err)
		}
		out[5-i] = uint8(v)
	}
	return out, nil
}
