package chat

import (
	"net/http"

	"github.com/tokmz/roomcast"
	"github.com/tokmz/roomcast/pkg/errors"
)

// RegisterRoutes 注册聊天相关路由
//
//	GET  /ws/room/:room_number/user/:username  聊天连接
//	GET  /ws/ping                              心跳连接
//	POST /reset                                计数清零并清空房间
//	GET  /views                                已投递消息数（纯文本）
//	GET  /stats                                房间与连接快照
func RegisterRoutes(rg *roomcast.RouterGroup, s *Service) {
	rg.GET("/ws/room/:room_number/user/:username", func(c *roomcast.Context) {
		room, err := ParseRoomID(c.Param("room_number"))
		if err != nil {
			c.RespondError(ErrInvalidRoom.WithError(err))
			return
		}
		s.ServeChat(c.RequestContext(), c.Writer(), c.Request(), room, c.Param("username"))
	})

	rg.GET("/ws/ping", func(c *roomcast.Context) {
		s.ServePing(c.RequestContext(), c.Writer(), c.Request())
	})

	rg.POST("/reset", func(c *roomcast.Context) {
		if err := s.Reset(c.RequestContext()); err != nil {
			c.RespondError(errors.ErrUnavailable.WithError(err))
			return
		}
		c.Status(http.StatusOK)
	})

	rg.GET("/views", func(c *roomcast.Context) {
		n, err := s.Views(c.RequestContext())
		if err != nil {
			c.RespondError(errors.ErrUnavailable.WithError(err))
			return
		}
		c.String(http.StatusOK, "%d", n)
	})

	roomcast.HandleOnly(rg.GET, "/stats", func(c *roomcast.Context) (*Stats, error) {
		stats, err := s.Stats(c.RequestContext())
		if err != nil {
			return nil, errors.ErrUnavailable.WithError(err)
		}
		return stats, nil
	})
}

// RegisterHealth 注册存活检查
func RegisterHealth(rg *roomcast.RouterGroup) {
	rg.GET("/healthz", func(c *roomcast.Context) {
		c.String(http.StatusOK, "ok")
	})
}
