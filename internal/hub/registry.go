package hub

import "whiteboard-relay/internal/domain"

// Registry 记录每个连接当前绑定的 (userId, roomId)，并按房间维护连接集合用于广播。
// 只由 Hub 的事件循环访问，因此不加锁。
type Registry struct {
	bindings map[*Client]domain.Identity
	rooms    map[string]map[*Client]struct{}
}

// NewRegistry 创建空的连接注册表
func NewRegistry() *Registry {
	return &Registry{
		bindings: make(map[*Client]domain.Identity),
		rooms:    make(map[string]map[*Client]struct{}),
	}
}

// Associate 绑定连接与身份，覆盖该连接之前的绑定 (包括从旧房间移出)。
func (r *Registry) Associate(c *Client, identity domain.Identity) {
	r.unbind(c)
	r.bindings[c] = identity
	members, ok := r.rooms[identity.RoomID]
	if !ok {
		members = make(map[*Client]struct{})
		r.rooms[identity.RoomID] = members
	}
	members[c] = struct{}{}
}

// Lookup 返回连接绑定的身份，未绑定时 ok 为 false。
func (r *Registry) Lookup(c *Client) (domain.Identity, bool) {
	identity, ok := r.bindings[c]
	return identity, ok
}

// Remove 解除连接的绑定并返回之前的身份。重复调用是安全的。
func (r *Registry) Remove(c *Client) (domain.Identity, bool) {
	return r.unbind(c)
}

// Members 返回当前绑定到房间的所有连接。
func (r *Registry) Members(roomID string) []*Client {
	members := r.rooms[roomID]
	out := make([]*Client, 0, len(members))
	for c := range members {
		out = append(out, c)
	}
	return out
}

// SharedByOther 判断房间内是否还有除 c 以外的连接绑定了同一个 userID
// (例如页面刷新后旧连接尚未超时)。
func (r *Registry) SharedByOther(c *Client, roomID, userID string) bool {
	for other := range r.rooms[roomID] {
		if other == c {
			continue
		}
		if r.bindings[other].UserID == userID {
			return true
		}
	}
	return false
}

func (r *Registry) unbind(c *Client) (domain.Identity, bool) {
	identity, ok := r.bindings[c]
	if !ok {
		return domain.Identity{}, false
	}
	delete(r.bindings, c)
	if members, exists := r.rooms[identity.RoomID]; exists {
		delete(members, c)
		if len(members) == 0 {
			delete(r.rooms, identity.RoomID)
		}
	}
	return identity, true
}
