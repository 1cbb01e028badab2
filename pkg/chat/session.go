package chat

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tokmz/roomcast/pkg/broadcast"
	"github.com/tokmz/roomcast/pkg/logger"
	"github.com/tokmz/roomcast/pkg/ws"
)

// session 一个聊天连接：一个接收循环加一个发送循环
type session struct {
	svc  *Service
	conn *ws.Conn
	m    *Membership
	sub  *broadcast.Subscription[Message]
	log  logger.Logger
}

// run 启动两个循环并等待它们都结束
// 两个循环互不取消，除非开启了 LinkLoops
func (s *session) run(ctx context.Context) {
	var g errgroup.Group
	g.Go(func() error {
		s.receiveLoop(ctx)
		if s.svc.cfg.LinkLoops {
			s.sub.Unsubscribe()
		}
		return nil
	})
	g.Go(func() error {
		defer s.sub.Unsubscribe()
		s.sendLoop(ctx)
		return nil
	})
	_ = g.Wait()
}

// receiveLoop 读取客户端帧并发布到房间
func (s *session) receiveLoop(ctx context.Context) {
	channel := s.m.Channel()
	for {
		mt, data, err := s.conn.ReadMessage()
		if err != nil {
			s.log.DebugContext(ctx, "receive loop ended", zap.Error(err))
			return
		}
		if mt != ws.TextMessage {
			continue
		}

		text, ok := decodeInbound(data)
		if !ok {
			continue
		}
		if len(text) > s.svc.cfg.MaxMessageLength {
			continue
		}

		if _, err := channel.Publish(Message{User: s.m.Username, Message: text}); err != nil {
			s.log.WarnContext(ctx, "publish failed", zap.Error(err))
			return
		}
	}
}

// sendLoop 把房间消息写给客户端，每写成功一次计数加一
func (s *session) sendLoop(ctx context.Context) {
	for {
		msg, ok := s.sub.Recv()
		if !ok {
			switch {
			case s.sub.Lagged():
				s.log.WarnContext(ctx, "subscriber evicted for lagging")
			case s.m.Channel().IsClosed():
				// 房间已关闭，断开连接让接收循环也结束
				s.log.InfoContext(ctx, "room closed")
				_ = s.conn.Close()
			}
			return
		}

		if err := s.conn.WriteJSON(msg); err != nil {
			s.log.DebugContext(ctx, "send loop ended", zap.Error(err))
			return
		}
		if _, err := s.svc.counter.Incr(ctx); err != nil {
			s.log.ErrorContext(ctx, "increment delivered counter failed", zap.Error(err))
		}
	}
}
