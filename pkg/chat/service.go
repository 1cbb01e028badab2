package chat

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/tokmz/roomcast/pkg/counter"
	"github.com/tokmz/roomcast/pkg/logger"
	"github.com/tokmz/roomcast/pkg/ws"
)

const tracerName = "roomcast.chat"

// Service 聊天服务：注册表、计数器与 WebSocket 升级器的组合
type Service struct {
	cfg      *Config
	registry *Registry
	counter  counter.Counter
	upgrader *ws.Upgrader
	metrics  *ws.CounterMetrics
	log      logger.Logger
}

// ServiceOption 服务选项
type ServiceOption func(*Service)

// WithLogger 设置日志
func WithLogger(log logger.Logger) ServiceOption {
	return func(s *Service) {
		s.log = log
	}
}

// WithCounter 设置投递计数器（默认进程内计数）
func WithCounter(c counter.Counter) ServiceOption {
	return func(s *Service) {
		s.counter = c
	}
}

// WithConnMetrics 在 Stats 中附带连接指标
// 需要与创建 Upgrader 时传入的是同一个实例
func WithConnMetrics(m *ws.CounterMetrics) ServiceOption {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService 创建聊天服务
func NewService(cfg *Config, upgrader *ws.Upgrader, opts ...ServiceOption) (*Service, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if upgrader == nil {
		var err error
		if upgrader, err = ws.NewUpgrader(nil); err != nil {
			return nil, err
		}
	}

	s := &Service{
		cfg:      cfg,
		upgrader: upgrader,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	if s.counter == nil {
		s.counter = counter.NewMemory()
	}
	s.registry = NewRegistry(cfg.ChannelCapacity, s.log)
	return s, nil
}

// Registry 房间注册表
func (s *Service) Registry() *Registry {
	return s.registry
}

// ServeChat 升级连接并加入房间，连接结束前不返回
//
// 用户名重复时连接被直接关闭，不发送任何消息。
func (s *Service) ServeChat(ctx context.Context, w http.ResponseWriter, r *http.Request, room RoomID, username string) {
	conn, err := s.upgrader.Upgrade(w, r)
	if err != nil {
		s.log.WarnContext(ctx, "upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx = logger.WithConnID(ctx, conn.ID)
	ctx, span := otel.Tracer(tracerName).Start(ctx, "chat.session",
		trace.WithAttributes(
			attribute.Int64("chat.room", int64(room)),
			attribute.String("chat.user", username),
			attribute.String("ws.conn_id", conn.ID),
		),
	)
	defer span.End()

	log := s.log.With(zap.Uint32("room", uint32(room)), zap.String("user", username))

	m, ok := s.registry.Join(room, username)
	if !ok {
		span.AddEvent("join rejected")
		log.InfoContext(ctx, "join rejected: username taken", zap.String("remote", conn.RemoteAddr()))
		return
	}
	defer func() {
		s.registry.Leave(m)
		log.InfoContext(ctx, "left room")
	}()

	// 先订阅再启动循环，自己发出的消息也能收到
	sub, err := m.Channel().Subscribe()
	if err != nil {
		log.WarnContext(ctx, "subscribe failed", zap.Error(err))
		return
	}
	log.InfoContext(ctx, "joined room", zap.String("remote", conn.RemoteAddr()))

	sess := &session{svc: s, conn: conn, m: m, sub: sub, log: log}
	sess.run(ctx)
}

// ServePing 升级连接并运行 ping/pong 心跳，连接结束前不返回
func (s *Service) ServePing(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r)
	if err != nil {
		s.log.WarnContext(ctx, "upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx = logger.WithConnID(ctx, conn.ID)
	var hb Heartbeat
	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			s.log.DebugContext(ctx, "ping connection ended", zap.Error(err))
			return
		}
		if mt != ws.TextMessage {
			continue
		}
		reply, ok := hb.Handle(string(data))
		if !ok {
			continue
		}
		if err := conn.WriteText([]byte(reply)); err != nil {
			s.log.DebugContext(ctx, "ping connection ended", zap.Error(err))
			return
		}
	}
}

// Reset 计数清零并清空注册表
// 被清掉的房间里的连接不会断开，继续使用原来的广播通道
func (s *Service) Reset(ctx context.Context) error {
	rooms := s.registry.Reset()
	if err := s.counter.Reset(ctx); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "state reset", zap.Int("rooms_removed", rooms))
	return nil
}

// Close 关闭所有房间，连接在读完已入队的消息后断开
// 用于进程退出前，之后新的加入会得到新房间
func (s *Service) Close(ctx context.Context) {
	rooms := s.registry.Close()
	s.log.InfoContext(ctx, "rooms closed", zap.Int("rooms", rooms))
}

// Views 当前投递计数
func (s *Service) Views(ctx context.Context) (uint64, error) {
	return s.counter.Load(ctx)
}

// Stats 服务快照
type Stats struct {
	Rooms       int                 `json:"rooms"`
	Members     int                 `json:"members"`
	Delivered   uint64              `json:"delivered"`
	Connections *ws.MetricsSnapshot `json:"connections,omitempty"`
	Detail      []RoomStats         `json:"detail"`
}

// Stats 生成服务快照
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	delivered, err := s.counter.Load(ctx)
	if err != nil {
		return nil, err
	}

	detail := s.registry.Snapshot()
	stats := &Stats{
		Rooms:     len(detail),
		Delivered: delivered,
		Detail:    detail,
	}
	for _, r := range detail {
		stats.Members += len(r.Members)
	}
	if s.metrics != nil {
		snap := s.metrics.Snapshot()
		stats.Connections = &snap
	}
	return stats, nil
}
