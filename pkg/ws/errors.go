package ws

import "errors"

// 错误定义
var (
	ErrConnectionClosed = errors.New("ws: connection closed")
	ErrInvalidConfig    = errors.New("ws: invalid config")
)
