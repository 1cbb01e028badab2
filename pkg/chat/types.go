package chat

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// RoomID 房间号，对应路径参数 room_number
type RoomID uint32

// ParseRoomID 解析十进制房间号，超出 uint32 范围或含非数字字符时返回错误
func ParseRoomID(s string) (RoomID, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return RoomID(n), nil
}

// String 十进制表示
func (id RoomID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Message 广播给房间成员的聊天消息
type Message struct {
	User    string `json:"user"`
	Message string `json:"message"`
}

// decodeInbound 解析 {"message": "..."}
// 字段名大小写必须完全一致，缺少字段、值为 null 或类型不符时返回 false
func decodeInbound(data []byte) (string, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return "", false
	}
	raw, ok := fields["message"]
	if !ok || bytes.Equal(raw, []byte("null")) {
		return "", false
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return "", false
	}
	return text, true
}
