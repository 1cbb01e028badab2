package roomcast

import (
	"errors"
	"net/http"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/tokmz/roomcast/pkg/logger"
)

// LoggerConfig 日志中间件配置
type LoggerConfig struct {
	// Logger 日志实例（必填）
	Logger logger.Logger

	// SkipFunc 跳过日志的函数
	SkipFunc func(c *Context) bool

	// ExcludePaths 排除的路径（不记录日志），如 /healthz
	ExcludePaths []string
}

// Logger 创建访问日志中间件
//
// 普通请求记录为 "request"；WebSocket 升级请求在连接结束后才返回，
// 记录为 "websocket closed"，duration 即连接存活时长，并附带路由参数。
func Logger(log logger.Logger, cfgs ...*LoggerConfig) HandlerFunc {
	cfg := &LoggerConfig{Logger: log}
	if len(cfgs) > 0 && cfgs[0] != nil {
		cfg = cfgs[0]
	}
	skip := lo.Keyify(cfg.ExcludePaths)

	return func(c *Context) {
		if _, ok := skip[c.Request().URL.Path]; ok || (cfg.SkipFunc != nil && cfg.SkipFunc(c)) {
			c.Next()
			return
		}

		start := time.Now()
		upgrade := websocket.IsWebSocketUpgrade(c.Request())

		c.Next()

		status := c.Writer().Status()
		fields := []zap.Field{
			zap.String("method", c.Request().Method),
			zap.String("path", c.Request().URL.Path),
			zap.String("client_ip", c.ClientIP()),
		}
		ctx := c.RequestContext()

		// 升级成功后连接被劫持，gin 记录的状态码仍是初始值
		if upgrade && status < http.StatusBadRequest {
			fields = append(fields, zap.Duration("duration", time.Since(start)))
			for _, p := range c.ctx.Params {
				fields = append(fields, zap.String(p.Key, p.Value))
			}
			cfg.Logger.InfoContext(ctx, "websocket closed", fields...)
			return
		}

		fields = append(fields, zap.Int("status", status), zap.Duration("latency", time.Since(start)))
		switch {
		case status >= http.StatusInternalServerError:
			cfg.Logger.ErrorContext(ctx, "request", fields...)
		case status >= http.StatusBadRequest:
			cfg.Logger.WarnContext(ctx, "request", fields...)
		default:
			cfg.Logger.InfoContext(ctx, "request", fields...)
		}
	}
}

// Recovery 创建 panic 恢复中间件
// panic 时返回统一响应格式（500）；连接已被劫持或已写出响应时只记录日志
func Recovery(logs ...logger.Logger) HandlerFunc {
	log := logger.Nop()
	if len(logs) > 0 && logs[0] != nil {
		log = logs[0]
	}

	return func(c *Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			fields := []zap.Field{
				zap.Any("error", rec),
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
			}

			if isBrokenPipe(rec) {
				log.WarnContext(c.RequestContext(), "client connection lost", fields...)
				c.Abort()
				return
			}

			log.ErrorContext(c.RequestContext(), "panic recovered",
				append(fields, zap.String("client_ip", c.ClientIP()), zap.ByteString("stack", debug.Stack()))...)

			if c.Writer().Written() {
				c.Abort()
				return
			}
			c.respond(http.StatusInternalServerError, Fail(http.StatusInternalServerError, "Internal Server Error"))
			c.Abort()
		}()
		c.Next()
	}
}

// isBrokenPipe 对端已断开（EPIPE / ECONNRESET）
func isBrokenPipe(rec any) bool {
	err, ok := rec.(error)
	if !ok {
		return false
	}
	return errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET)
}
