package chat

// HeartbeatState 心跳连接状态
type HeartbeatState int

const (
	// HeartbeatWaiting 初始状态，只认 "serve"
	HeartbeatWaiting HeartbeatState = iota
	// HeartbeatActive 收到 "serve" 之后，"ping" 回 "pong"
	HeartbeatActive
)

const (
	heartbeatServe = "serve"
	heartbeatPing  = "ping"
	heartbeatPong  = "pong"
)

// Heartbeat ping/pong 状态机，只在单个连接的协程内使用
type Heartbeat struct {
	state HeartbeatState
}

// State 当前状态
func (h *Heartbeat) State() HeartbeatState {
	return h.state
}

// Handle 处理一帧文本，返回需要回写的内容
func (h *Heartbeat) Handle(payload string) (string, bool) {
	if payload == heartbeatServe {
		h.state = HeartbeatActive
		return "", false
	}
	if h.state == HeartbeatActive && payload == heartbeatPing {
		return heartbeatPong, true
	}
	return "", false
}
