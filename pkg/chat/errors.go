package chat

import (
	"net/http"

	"github.com/tokmz/roomcast/pkg/errors"
)

// ErrInvalidRoom 房间号不是合法的非负 32 位整数
var ErrInvalidRoom = errors.New(2001, "房间号无效", http.StatusBadRequest)
