package chat

import (
	"slices"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/tokmz/roomcast/pkg/broadcast"
)

// Room 房间：成员集合加一个广播通道
type Room struct {
	id        RoomID
	channel   *broadcast.Broadcast[Message]
	createdAt time.Time

	mu      sync.Mutex
	members map[string]struct{}
	retired bool // 已从 Registry 移除，不再接受加入
}

func newRoom(id RoomID, capacity int) *Room {
	return &Room{
		id:        id,
		channel:   broadcast.New[Message](capacity),
		createdAt: time.Now(),
		members:   make(map[string]struct{}),
	}
}

// ID 房间号
func (r *Room) ID() RoomID { return r.id }

// Channel 房间广播通道
func (r *Room) Channel() *broadcast.Broadcast[Message] { return r.channel }

// add 加入成员；房间已退役返回 retired=true，用户名重复返回 ok=false
func (r *Room) add(username string) (ok, retired bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.retired {
		return false, true
	}
	if _, exists := r.members[username]; exists {
		return false, false
	}
	r.members[username] = struct{}{}
	return true, false
}

// remove 移除成员，返回剩余人数
func (r *Room) remove(username string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.members, username)
	return len(r.members)
}

// retireIfEmpty 房间为空时标记退役
func (r *Room) retireIfEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.members) > 0 {
		return false
	}
	r.retired = true
	return true
}

// retire 无条件标记退役
func (r *Room) retire() {
	r.mu.Lock()
	r.retired = true
	r.mu.Unlock()
}

// Has 用户是否在房间中
func (r *Room) Has(username string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.members[username]
	return ok
}

// Size 当前成员数
func (r *Room) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.members)
}

// Members 按字典序返回成员列表
func (r *Room) Members() []string {
	r.mu.Lock()
	names := lo.Keys(r.members)
	r.mu.Unlock()

	slices.Sort(names)
	return names
}

// RoomStats 房间快照
type RoomStats struct {
	Room        RoomID    `json:"room"`
	Members     []string  `json:"members"`
	Subscribers int       `json:"subscribers"`
	Capacity    int       `json:"capacity"`
	CreatedAt   time.Time `json:"created_at"`
}

// Stats 生成房间快照
func (r *Room) Stats() RoomStats {
	return RoomStats{
		Room:        r.id,
		Members:     r.Members(),
		Subscribers: r.channel.SubscriberCount(),
		Capacity:    r.channel.Capacity(),
		CreatedAt:   r.createdAt,
	}
}
