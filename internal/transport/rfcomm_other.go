//go:build !linux

package transport

import (
	"context"
	"errors"
)

// ErrRFCOMMUnsupported 当前平台无 RFCOMM 套接字，请使用 tty 模式
var ErrRFCOMMUnsupported = errors.New("transport: rfcomm sockets are only supported on linux")

func DialRFCOMM(context.Context, string, uint8) (Port, error) {
	return nil, ErrRFCOMMUnsupported
}
