package transport

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// rfcommPort RFCOMM 套接字，写入即送达内核，无需额外刷新
type rfcommPort struct {
	*os.File
}

func (rfcommPort) Flush() error { return nil }

// DialRFCOMM 连接远端设备的 RFCOMM 通道。ctx 取消时中断阻塞中的 connect。
func DialRFCOMM(ctx context.Context, address string, channel uint8) (Port, error) {
	bdaddr, err := ParseBDAddr(address)
	if err != nil {
		return nil, err
	}
	fd, err := unix.Socket(unix.AF_BLUETOOTH, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, unix.BTPROTO_RFCOMM)
	if err != nil {
		return nil, fmt.Errorf("rfcomm socket: %w", err)
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = unix.Shutdown(fd, unix.SHUT_RDWR)
		case <-done:
		}
	}()

	sa := &unix.SockaddrRFCOMM{Addr: bdaddr, Channel: channel}
	if err := unix.Connect(fd, sa); err != nil {
		_ = unix.Close(fd)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("rfcomm connect %s channel %d: %w", address, channel, err)
	}
	// 非阻塞 fd 才会进入 netpoller，Close 能打断阻塞中的 Read
	if err := unix.SetNonblock(fd, true); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("rfcomm nonblock: %w", err)
	}
	return rfcommPort{File: os.NewFile(uintptr(fd), "rfcomm:"+address)}, nil
}
