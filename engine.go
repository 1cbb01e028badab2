package roomcast

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tokmz/roomcast/pkg/logger"
)

// Engine 基于 gin 的 HTTP 引擎
type Engine struct {
	config *Config
	engine *gin.Engine
	server *http.Server
	log    logger.Logger
}

// New 创建一个新的 Engine 实例，使用 Options 模式配置
func New(opts ...Option) *Engine {
	config := defaultConfig()
	for _, opt := range opts {
		opt(config)
	}

	// gin.SetMode 是全局操作，多次调用会相互覆盖
	if gin.Mode() == gin.DebugMode || config.Mode != gin.DebugMode {
		gin.SetMode(config.Mode)
	}

	// 静默 Gin 默认输出，由 Engine 自行打印
	silenceGin()

	log := config.Logger
	if log == nil {
		log = logger.Nop()
	}

	ginEngine := gin.New()
	if config.TrustedProxies != nil {
		if err := ginEngine.SetTrustedProxies(config.TrustedProxies); err != nil {
			log.Warn("set trusted proxies failed", zap.Error(err))
		}
	}

	return &Engine{
		engine: ginEngine,
		config: config,
		log:    log,
	}
}

// Default 创建带 Recovery 和 Logger 中间件的 Engine
func Default(opts ...Option) *Engine {
	e := New(opts...)
	e.Use(Recovery(e.log), Logger(e.log))
	return e
}

// Use 注册全局中间件
func (e *Engine) Use(middlewares ...HandlerFunc) {
	e.engine.Use(WrapMiddlewares(middlewares...)...)
}

// Group 返回路由组
func (e *Engine) Group(path string, middlewares ...HandlerFunc) *RouterGroup {
	return &RouterGroup{
		group: e.engine.Group(path, WrapMiddlewares(middlewares...)...),
	}
}

// RouterGroup 返回根路由组
func (e *Engine) RouterGroup() *RouterGroup {
	return &RouterGroup{
		group: &e.engine.RouterGroup,
	}
}

// Handler 返回 http.Handler（测试中配合 httptest 使用）
func (e *Engine) Handler() http.Handler {
	return e.engine
}

// Routes 返回已注册的路由
func (e *Engine) Routes() gin.RoutesInfo {
	return e.engine.Routes()
}

// newServer 创建 http.Server
func (e *Engine) newServer(addr string) *http.Server {
	return &http.Server{
		Addr:           addr,
		Handler:        e.engine,
		ReadTimeout:    e.config.Server.ReadTimeout,
		WriteTimeout:   e.config.Server.WriteTimeout,
		IdleTimeout:    e.config.Server.IdleTimeout,
		MaxHeaderBytes: e.config.Server.MaxHeaderBytes,
	}
}

// Run 启动 HTTP 服务器，收到 SIGINT/SIGTERM 后优雅关机
func (e *Engine) Run(addr ...string) error {
	address := e.config.Server.Addr
	if len(addr) > 0 && addr[0] != "" {
		address = addr[0]
	}

	e.server = e.newServer(address)
	if e.config.Banner {
		e.printBanner(address)
	}

	return e.serve(func() error {
		return e.server.ListenAndServe()
	})
}

// RunListener 在已有的 Listener 上启动服务器
func (e *Engine) RunListener(ln net.Listener) error {
	e.server = e.newServer(ln.Addr().String())
	if e.config.Banner {
		e.printBanner(ln.Addr().String())
	}

	return e.serve(func() error {
		return e.server.Serve(ln)
	})
}

// serve 统一的服务器启动和优雅关机逻辑
func (e *Engine) serve(startFunc func() error) error {
	errChan := make(chan error, 1)

	go func() {
		if err := startFunc(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errChan:
		return err
	case sig := <-quit:
		e.log.Info("shutting down server", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.config.Shutdown.Timeout)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		e.log.Error("server forced to shutdown", zap.Error(err))
		return err
	}

	e.log.Info("server exited")
	return nil
}

// Shutdown 关闭服务器
//
// 已劫持的 WebSocket 连接不受 http.Server.Shutdown 管理，会继续运行直到进程退出。
func (e *Engine) Shutdown(ctx context.Context) error {
	if e.server == nil {
		return nil
	}

	if e.config.Shutdown.BeforeShutdown != nil {
		e.config.Shutdown.BeforeShutdown()
	}

	err := e.server.Shutdown(ctx)

	if e.config.Shutdown.AfterShutdown != nil {
		e.config.Shutdown.AfterShutdown()
	}

	return err
}
