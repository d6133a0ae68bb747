package transport

import (
	"fmt"
	"io"

	"github.com/tarm/serial"
)

// Port 串行通道：tty 串口或 RFCOMM 套接字
type Port interface {
	io.ReadWriteCloser
	// Flush 丢弃尚未读取/发送的缓冲数据，连接建立后调用一次
	Flush() error
}

// OpenSerial 打开串口设备。ReadTimeout 为 0，Read 阻塞直到至少一个字节到达。
func OpenSerial(device string, baud int) (Port, error) {
	if baud <= 0 {
		baud = 4800
	}
	p, err := serial.OpenPort(&serial.Config{Name: device, Baud: baud})
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", device, err)
	}
	_ = p.Flush()
	return p, nil
}
