package ws

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// MessageType 帧类型
type MessageType int

const (
	TextMessage   MessageType = websocket.TextMessage
	BinaryMessage MessageType = websocket.BinaryMessage
)

// Conn 已升级的 WebSocket 连接
//
// 允许一个读协程与一个写协程同时使用；写操作之间由内部锁串行化。
type Conn struct {
	ID string

	conn         *websocket.Conn
	writeTimeout time.Duration
	metrics      Metrics

	writeMu   sync.Mutex
	closed    atomic.Bool
	closeOnce sync.Once
}

// newConn 包装连接并分配 ID
func newConn(c *websocket.Conn, writeTimeout time.Duration, metrics Metrics) *Conn {
	return &Conn{
		ID:           uuid.NewString(),
		conn:         c,
		writeTimeout: writeTimeout,
		metrics:      metrics,
	}
}

// ReadMessage 阻塞读取下一帧
// 控制帧（ping/pong/close）由 gorilla 内部处理，不会返回
func (c *Conn) ReadMessage() (MessageType, []byte, error) {
	mt, data, err := c.conn.ReadMessage()
	if err != nil {
		if !c.closed.Load() && websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			c.metrics.IncrementReadErrors()
		}
		return 0, nil, err
	}
	return MessageType(mt), data, nil
}

// WriteText 写一个文本帧
func (c *Conn) WriteText(data []byte) error {
	if c.closed.Load() {
		return ErrConnectionClosed
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.writeTimeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			c.metrics.IncrementWriteErrors()
			return err
		}
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		c.metrics.IncrementWriteErrors()
		return err
	}
	return nil
}

// WriteJSON 编码为 JSON 后写一个文本帧
func (c *Conn) WriteJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.WriteText(data)
}

// Close 关闭底层连接，可重复调用
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		err = c.conn.Close()
		c.metrics.DecrementConnections()
	})
	return err
}

// IsClosed 检查是否已关闭
func (c *Conn) IsClosed() bool {
	return c.closed.Load()
}

// RemoteAddr 获取远程地址
func (c *Conn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
