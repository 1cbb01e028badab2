package roomcast

import (
	"cmp"
	"fmt"
	"io"
	"net"
	"os"
	"runtime"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

// Version 服务版本号
const Version = "0.3.0"

const bannerArt = `
  _ _ ___  ___  _ __ ___   ___ __ _ ___| |_
 | '_/ _ \/ _ \| '_ ` + "`" + ` _ \ / __/ _` + "`" + ` / __| __|
 | || (_) | (_) | | | | | | (_| (_| \__ \ |_
 |_| \___/ \___/|_| |_| |_|\___\__,_|___/\__|   房间制 WebSocket 聊天服务
`

const resetColor = "\033[0m"

var methodColors = map[string]string{
	"GET":     "\033[34m",
	"POST":    "\033[32m",
	"PUT":     "\033[33m",
	"DELETE":  "\033[31m",
	"PATCH":   "\033[36m",
	"HEAD":    "\033[35m",
	"OPTIONS": "\033[37m",
}

// printBanner 打印启动 banner 和路由表
func (e *Engine) printBanner(addr string) {
	writeBanner(os.Stdout, addr, e.config.Mode, e.engine.Routes())
}

// writeBanner 输出版本、访问地址与路由表
// WebSocket 路由标记为 ws，客户端需要用 ws:// 地址连接
func writeBanner(out io.Writer, addr, mode string, routes gin.RoutesInfo) {
	httpURL, wsURL := listenURLs(addr)

	fPrint(out, "%s\n", bannerArt)
	fPrint(out, "  version %s | %s | %s/%s\n", Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	fPrint(out, "  http    %s\n", httpURL)
	fPrint(out, "  ws      %s\n\n", wsURL)

	if len(routes) > 0 {
		sorted := slices.Clone(routes)
		slices.SortFunc(sorted, func(a, b gin.RouteInfo) int {
			return cmp.Or(cmp.Compare(a.Path, b.Path), cmp.Compare(a.Method, b.Method))
		})
		width := lo.Max(lo.Map(sorted, func(r gin.RouteInfo, _ int) int { return len(r.Path) }))

		for _, r := range sorted {
			color, ok := methodColors[r.Method]
			if !ok {
				color = resetColor
			}
			fPrint(out, "[roomcast-%s] %-4s %s%-7s%s %-*s --> %s\n",
				mode, routeKind(r.Path), color, r.Method, resetColor, width, r.Path, r.Handler)
		}
		fPrint(out, "\n")
	}

	if mode == gin.DebugMode {
		fPrint(out, "[roomcast] Running in %q mode. Switch to \"release\" mode in production.\n", mode)
	}
	fPrint(out, "[roomcast] Listening on %s\n", addr)
}

// listenURLs 由监听地址推导本机访问地址
// 未指定主机或监听全部地址时使用 127.0.0.1
func listenURLs(addr string) (httpURL, wsURL string) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		// 只有端口号，如 "8080"
		host, port = "", addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	hostPort := net.JoinHostPort(host, port)
	return "http://" + hostPort, "ws://" + hostPort
}

// routeKind WebSocket 路由返回 ws，其余返回 http
func routeKind(path string) string {
	if strings.Contains(path, "/ws/") || strings.HasSuffix(path, "/ws") {
		return "ws"
	}
	return "http"
}

// silenceGin 静默 Gin 的默认输出
func silenceGin() {
	gin.DefaultWriter = io.Discard
	gin.DefaultErrorWriter = io.Discard
}

// fPrint 打印到 writer，忽略错误（banner 输出场景）
func fPrint(out io.Writer, format string, a ...any) {
	_, _ = fmt.Fprintf(out, format, a...)
}
