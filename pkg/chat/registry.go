package chat

import (
	"cmp"
	"slices"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/tokmz/roomcast/pkg/broadcast"
	"github.com/tokmz/roomcast/pkg/logger"
)

// Registry 房间注册表
//
// 顶层锁只负责房间的创建与删除，成员增减由各房间自己的锁保护。
// 两把锁同时持有时，顺序总是先 Registry 后 Room。
type Registry struct {
	mu       sync.Mutex
	rooms    map[RoomID]*Room
	capacity int
	log      logger.Logger
}

// Membership 一次成功加入的凭据，离开时原样交回
type Membership struct {
	RoomID   RoomID
	Username string
	Room     *Room
}

// Channel 加入时拿到的广播通道
// 房间被删除或重置后仍然有效，只是不再与注册表中的同号房间相通
func (m *Membership) Channel() *broadcast.Broadcast[Message] {
	return m.Room.channel
}

// NewRegistry 创建注册表，capacity 为新建房间的广播通道容量
func NewRegistry(capacity int, log logger.Logger) *Registry {
	if log == nil {
		log = logger.Nop()
	}
	return &Registry{
		rooms:    make(map[RoomID]*Room),
		capacity: capacity,
		log:      log,
	}
}

// Join 加入房间，房间不存在时创建
// 同一房间内用户名已存在时返回 ok=false，房间状态不变
func (g *Registry) Join(id RoomID, username string) (*Membership, bool) {
	for {
		room := g.getOrCreate(id)

		ok, retired := room.add(username)
		if retired {
			// 取到房间后它恰好被删除，换一个新房间重试
			continue
		}
		if !ok {
			return nil, false
		}
		return &Membership{RoomID: id, Username: username, Room: room}, true
	}
}

func (g *Registry) getOrCreate(id RoomID) *Room {
	g.mu.Lock()
	defer g.mu.Unlock()

	if room, ok := g.rooms[id]; ok {
		return room
	}
	room := newRoom(id, g.capacity)
	g.rooms[id] = room
	g.log.Debug("room created", zap.Uint32("room", uint32(id)))
	return room
}

// Leave 离开房间，房间变空时立即删除
// 只删除仍登记在册的那个房间实例，已被重置或重建的房间不受影响
func (g *Registry) Leave(m *Membership) {
	if m == nil || m.Room == nil {
		return
	}
	if m.Room.remove(m.Username) > 0 {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.rooms[m.RoomID] != m.Room {
		return
	}
	if !m.Room.retireIfEmpty() {
		// 在两次加锁之间有人加入
		return
	}
	delete(g.rooms, m.RoomID)
	g.log.Debug("room removed", zap.Uint32("room", uint32(m.RoomID)))
}

// Reset 清空注册表，返回被移除的房间数
// 房间中已有的连接继续使用各自的广播通道
func (g *Registry) Reset() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := len(g.rooms)
	for _, room := range g.rooms {
		room.retire()
	}
	g.rooms = make(map[RoomID]*Room)
	return n
}

// Close 清空注册表并关闭所有房间的广播通道，返回被关闭的房间数
// 与 Reset 不同，已有连接的发送循环会随之结束
func (g *Registry) Close() int {
	g.mu.Lock()
	rooms := lo.Values(g.rooms)
	for _, room := range rooms {
		room.retire()
	}
	g.rooms = make(map[RoomID]*Room)
	g.mu.Unlock()

	for _, room := range rooms {
		room.channel.Close()
	}
	return len(rooms)
}

// Room 查找房间
// 刚创建尚未加入成员、或成员刚走光尚未删除的房间视为不存在
func (g *Registry) Room(id RoomID) (*Room, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	room, ok := g.rooms[id]
	if !ok || room.Size() == 0 {
		return nil, false
	}
	return room, true
}

// Len 当前有成员的房间数
func (g *Registry) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return lo.CountBy(lo.Values(g.rooms), func(r *Room) bool {
		return r.Size() > 0
	})
}

// Snapshot 按房间号升序返回全部有成员的房间快照
func (g *Registry) Snapshot() []RoomStats {
	g.mu.Lock()
	rooms := lo.Filter(lo.Values(g.rooms), func(r *Room, _ int) bool {
		return r.Size() > 0
	})
	g.mu.Unlock()

	slices.SortFunc(rooms, func(a, b *Room) int {
		return cmp.Compare(a.id, b.id)
	})
	return lo.Map(rooms, func(r *Room, _ int) RoomStats {
		return r.Stats()
	})
}
