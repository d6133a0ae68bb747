package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/taoyao-code/liveview-bridge/internal/gateway"
	"github.com/taoyao-code/liveview-bridge/internal/locator"
	"github.com/taoyao-code/liveview-bridge/internal/protocol/liveview"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"操作员退出", nil, 0},
		{"对端断开", gateway.ErrDisconnected, 0},
		{"信号中断", context.Canceled, 0},
		{"帧错误", fmt.Errorf("decode: %w", liveview.ErrFraming), 1},
		{"读失败", &gateway.TransportIOError{Op: "read", Err: errors.New("EIO")}, 1},
		{"未找到设备", locator.ErrDiscovery, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}
