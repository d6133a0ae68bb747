package app

import (
	cfgpkg "github.com/taoyao-code/liveview-bridge/internal/config"
	"github.com/taoyao-code/liveview-bridge/internal/httpserver"
)

// NewHTTPServer 根据配置创建诊断 HTTP 服务器，未启用时返回 nil
func NewHTTPServer(cfg cfgpkg.HTTPConfig, deps httpserver.Deps) *httpserver.Server {
	if !cfg.Enable {
		return nil
	}
	return httpserver.New(cfg, deps)
}
