package operator

import (
	"errors"
	"io"

	"go.uber.org/zap"
)

// Source 操作员命令来源。Commands 关闭表示输入结束。
type Source interface {
	Commands() <-chan Command
}

// KeySource 从 io.Reader 逐字节读取按键并解析为命令
type KeySource struct {
	r      io.Reader
	ch     chan Command
	logger *zap.Logger
}

// NewKeySource 创建按键来源，需调用 Start 启动读协程
func NewKeySource(r io.Reader, logger *zap.Logger) *KeySource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KeySource{r: r, ch: make(chan Command, 1), logger: logger}
}

func (s *KeySource) Commands() <-chan Command { return s.ch }

// Start 启动读协程。读取结束（EOF 或错误）时关闭命令通道。
// 阻塞在 Read 上的协程无法被中断，进程退出时随之结束。
func (s *KeySource) Start() {
	go func() {
		defer close(s.ch)
		buf := make([]byte, 1)
		for {
			n, err := s.r.Read(buf)
			if n == 1 {
				if cmd, ok := ParseKey(buf[0]); ok {
					s.ch <- cmd
					if cmd == CmdQuit {
						return
					}
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					s.logger.Warn("operator input read failed", zap.Error(err))
				}
				return
			}
		}
	}()
}

// Static 预置命令序列，用于测试和非交互运行
type Static struct {
	ch chan Command
}

// NewStatic 返回依次产出给定命令后关闭的来源
func NewStatic(cmds ...Command) *Static {
	ch := make(chan Command, len(cmds))
	for _, c := range cmds {
		ch <- c
	}
	close(ch)
	return &Static{ch: ch}
}

func (s *Static) Commands() <-chan Command { return s.ch }
