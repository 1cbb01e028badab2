package counter

import "github.com/tokmz/roomcast/pkg/errors"

// 预定义错误
var (
	ErrConnection    = errors.New(3003, "counter connection failed", 500)
	ErrInvalidConfig = errors.New(3005, "counter invalid config", 500)
	ErrOperation     = errors.New(3006, "counter operation failed", 500)
)
