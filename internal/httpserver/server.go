package httpserver

import (
	"context"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	cfgpkg "github.com/taoyao-code/liveview-bridge/internal/config"
	"github.com/taoyao-code/liveview-bridge/internal/events"
	"github.com/taoyao-code/liveview-bridge/internal/health"
	"go.uber.org/zap"
)

// Deps 诊断接口依赖，可选项为 nil 时对应路由不注册
type Deps struct {
	MetricsPath    string
	MetricsHandler http.Handler
	Readiness      *health.Readiness
	Health         *health.Aggregator
	Hub            *events.Hub
	Logger         *zap.Logger
}

// Server HTTP 服务封装
type Server struct {
	srv    *http.Server
	cancel context.CancelFunc
}

// New 创建并配置 Gin + HTTP Server，注册健康检查、指标、会话与事件流路由
func New(cfg cfgpkg.HTTPConfig, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/readyz", func(c *gin.Context) {
		if deps.Readiness != nil && deps.Readiness.Ready() {
			c.String(http.StatusOK, "ready")
			return
		}
		c.String(http.StatusServiceUnavailable, "not-ready")
	})

	metricsPath := deps.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	if deps.MetricsHandler != nil {
		r.GET(metricsPath, gin.WrapH(deps.MetricsHandler))
	}
	if deps.Health != nil {
		health.RegisterHTTPRoutes(r, deps.Health)
	}

	api := r.Group("/api")
	api.GET("/session", func(c *gin.Context) {
		if deps.Readiness == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "no device session"})
			return
		}
		st, ok := deps.Readiness.Session()
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "no device session"})
			return
		}
		c.JSON(http.StatusOK, st.Snapshot())
	})

	if deps.Hub != nil {
		upgrader := websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		}
		r.GET("/ws/events", func(c *gin.Context) {
			conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
			if err != nil {
				logger.Warn("websocket upgrade failed", zap.Error(err))
				return
			}
			logger.Debug("websocket client connected", zap.String("remote", c.Request.RemoteAddr))
			deps.Hub.Serve(c.Request.Context(), conn)
		})
	}

	// 关闭时取消 base context，让已升级的 websocket 连接退出
	base, cancel := context.WithCancel(context.Background())
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return base },
	}
	return &Server{srv: srv, cancel: cancel}
}

// Handler 返回路由，便于测试
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Start 启动 HTTP 服务（阻塞）
func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

// Shutdown 优雅关闭
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	return s.srv.Shutdown(ctx)
}
