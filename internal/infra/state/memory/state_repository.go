// Package memstate 提供进程内的房间目录与快照缓存实现，进程重启后数据丢失。
package memstate

import (
	"context"
	"sync"

	"whiteboard-relay/internal/domain"
	"whiteboard-relay/internal/repository"
)

// MemoryStateRepository 在内存中保存房间成员集合和每个房间的最新快照。
// Hub 的事件循环本身是单线程的，这里的锁只用于保护来自 HTTP 查询接口的并发读。
type MemoryStateRepository struct {
	mu        sync.RWMutex
	rooms     map[string]map[string]struct{} // roomID -> userID 集合
	snapshots map[string]domain.Snapshot     // roomID -> 最新快照
}

var (
	_ repository.RoomRepository     = (*MemoryStateRepository)(nil)
	_ repository.SnapshotRepository = (*MemoryStateRepository)(nil)
)

// NewMemoryStateRepository 创建一个空的内存实现。
func NewMemoryStateRepository() *MemoryStateRepository {
	return &MemoryStateRepository{
		rooms:     make(map[string]map[string]struct{}),
		snapshots: make(map[string]domain.Snapshot),
	}
}

func (m *MemoryStateRepository) Join(_ context.Context, roomID, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	members, ok := m.rooms[roomID]
	if !ok {
		members = make(map[string]struct{})
		m.rooms[roomID] = members
	}
	members[userID] = struct{}{}
	return len(members), nil
}

func (m *MemoryStateRepository) Leave(_ context.Context, roomID, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	members, ok := m.rooms[roomID]
	if !ok {
		return 0, nil
	}
	delete(members, userID)
	if len(members) == 0 {
		delete(m.rooms, roomID)
		return 0, nil
	}
	return len(members), nil
}

func (m *MemoryStateRepository) MemberCount(_ context.Context, roomID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms[roomID]), nil
}

func (m *MemoryStateRepository) Save(_ context.Context, snapshot *domain.Snapshot) error {
	if snapshot == nil {
		return nil
	}
	m.mu.Lock()
	m.snapshots[snapshot.RoomID] = *snapshot
	m.mu.Unlock()
	return nil
}

func (m *MemoryStateRepository) Get(_ context.Context, roomID string) (*domain.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snapshot, ok := m.snapshots[roomID]
	if !ok {
		return nil, repository.ErrSnapshotNotFound
	}
	return &snapshot, nil
}

func (m *MemoryStateRepository) Delete(_ context.Context, roomID string) error {
	m.mu.Lock()
	delete(m.snapshots, roomID)
	m.mu.Unlock()
	return nil
}
