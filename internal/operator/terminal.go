//go:build linux || darwin || freebsd || netbsd || openbsd

package operator

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// Terminal 终端模式的作用域获取：Acquire 关闭回显与行缓冲，Restore 还原。
// 非 TTY 的输入（管道、文件）获取为空操作。
type Terminal struct {
	fd    int
	saved *unix.Termios
	once  sync.Once
	err   error
}

// Acquire 切换为逐键、无回显模式（VMIN=1, VTIME=0）
func Acquire(fd int) (*Terminal, error) {
	t := &Terminal{fd: fd}
	old, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	if err != nil {
		if errors.Is(err, unix.ENOTTY) || errors.Is(err, unix.EINVAL) || errors.Is(err, unix.ENODEV) {
			return t, nil
		}
		return nil, fmt.Errorf("get termios: %w", err)
	}

	raw := *old
	raw.Lflag &^= unix.ECHO | unix.ICANON
	raw.Cc[unix.VMIN] = 1
	raw.Cc[unix.VTIME] = 0
	if err := unix.IoctlSetTermios(fd, ioctlSetTermios, &raw); err != nil {
		return nil, fmt.Errorf("set termios: %w", err)
	}
	t.saved = old
	return t, nil
}

// Active 是否实际修改了终端模式
func (t *Terminal) Active() bool { return t != nil && t.saved != nil }

// Restore 还原原终端模式，可重复调用
func (t *Terminal) Restore() error {
	if t == nil {
		return nil
	}
	t.once.Do(func() {
		if t.saved == nil {
			return
		}
		if err := unix.IoctlSetTermios(t.fd, ioctlSetTermios, t.saved); err != nil {
			t.err = fmt.Errorf("restore termios: %w", err)
		}
	})
	return t.err
}
