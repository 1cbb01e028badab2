package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/tokmz/roomcast"
	"github.com/tokmz/roomcast/middleware"
	"github.com/tokmz/roomcast/pkg/chat"
	"github.com/tokmz/roomcast/pkg/config"
	"github.com/tokmz/roomcast/pkg/counter"
	"github.com/tokmz/roomcast/pkg/logger"
	"github.com/tokmz/roomcast/pkg/tracing"
	"github.com/tokmz/roomcast/pkg/ws"
)

func main() {
	var (
		configPath  = flag.String("config", "", "配置文件路径（默认查找 ./configs/roomcast.yaml）")
		printConfig = flag.Bool("print-config", false, "打印生效配置后退出")
	)
	flag.Parse()

	if err := run(*configPath, *printConfig); err != nil {
		fmt.Fprintf(os.Stderr, "roomcast: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, printConfig bool) error {
	// 日志在配置加载之后才创建，监听在日志就绪后才开启
	var (
		log    logger.Logger
		loader *config.Config
	)

	loader = newConfigLoader(configPath,
		config.WithOnChange(func(file string) {
			reloadLogLevel(loader, log, file)
		}),
	)
	cfg, err := loadAppConfig(loader)
	if err != nil {
		return err
	}
	defer loader.Close()

	if printConfig {
		out, err := config.DumpValue(cfg)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(out)
		return err
	}

	if log, err = logger.NewWithOptions(cfg.loggerOptions()...); err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	if used := loader.ConfigFileUsed(); used != "" {
		log.Info("config loaded", zap.String("file", used))
		if err := loader.StartWatch(); err != nil {
			log.Warn("config watch disabled", zap.Error(err))
		}
	}

	ctx := context.Background()
	tp, err := tracing.NewTracerProvider(ctx, cfg.tracingConfig(roomcast.Version))
	if err != nil {
		return err
	}

	views, err := counter.New(cfg.counterConfig())
	if err != nil {
		return err
	}

	metrics := &ws.CounterMetrics{}
	upgrader, err := ws.NewUpgraderWithOptions(cfg.wsOptions(metrics)...)
	if err != nil {
		return err
	}

	svc, err := chat.NewService(cfg.chatConfig(), upgrader,
		chat.WithLogger(log.With(zap.String("component", "chat"))),
		chat.WithCounter(views),
		chat.WithConnMetrics(metrics),
	)
	if err != nil {
		return err
	}

	opts := []roomcast.Option{
		roomcast.WithMode(cfg.Server.Mode),
		roomcast.WithAddr(cfg.Server.Addr),
		roomcast.WithReadTimeout(cfg.Server.ReadTimeout),
		roomcast.WithWriteTimeout(cfg.Server.WriteTimeout),
		roomcast.WithIdleTimeout(cfg.Server.IdleTimeout),
		roomcast.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		roomcast.WithLogger(log),
		roomcast.WithBeforeShutdown(func() {
			svc.Close(ctx)
		}),
		roomcast.WithAfterShutdown(func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := views.Close(); err != nil {
				log.Warn("close counter failed", zap.Error(err))
			}
			if err := tp.Shutdown(shutdownCtx); err != nil {
				log.Warn("shutdown tracer provider failed", zap.Error(err))
			}
		}),
	}
	if len(cfg.Server.TrustedProxies) > 0 {
		opts = append(opts, roomcast.WithTrustedProxies(cfg.Server.TrustedProxies...))
	}

	engine := roomcast.Default(opts...)
	if cfg.Tracing.Enabled {
		engine.Use(middleware.Tracing(&middleware.TracingConfig{
			TracerName:        "roomcast.http",
			SpanNameFormatter: middleware.DefaultTracingConfig().SpanNameFormatter,
			ExcludePaths:      []string{"/healthz"},
		}))
	}

	chat.RegisterHealth(engine.RouterGroup())
	chat.RegisterRoutes(engine.Group(cfg.Server.RoutePrefix), svc)

	return engine.Run()
}

// reloadLogLevel 配置文件变更后重新应用日志级别
// 其余配置项需要重启才能生效
func reloadLogLevel(c *config.Config, log logger.Logger, file string) {
	level, err := logger.ParseLevel(c.GetString("log.level"))
	if err != nil {
		log.Warn("ignore invalid log level", zap.String("file", file), zap.Error(err))
		return
	}
	if level == log.Level() {
		return
	}
	log.SetLevel(level)
	log.Info("log level changed", zap.String("file", file), zap.String("level", level.String()))
}
