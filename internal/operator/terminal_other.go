//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package operator

// Terminal 不支持 termios 的平台上为空操作
type Terminal struct{}

func Acquire(int) (*Terminal, error) { return &Terminal{}, nil }

func (t *Terminal) Active() bool { return false }

func (t *Terminal) Restore() error { return nil }
