package repository

import (
	"context"

	"whiteboard-relay/internal/domain"
)

// SnapshotRepository 定义了白板快照缓存的操作，每个房间只保存最新一份。
type SnapshotRepository interface {
	// Save 保存快照，无条件覆盖该房间之前的快照。
	Save(ctx context.Context, snapshot *domain.Snapshot) error

	// Get 获取房间的最新快照。
	// 如果没有快照，返回 ErrSnapshotNotFound。
	Get(ctx context.Context, roomID string) (*domain.Snapshot, error)

	// Delete 删除房间的快照，不存在时不报错。
	Delete(ctx context.Context, roomID string) error
}
