package repository

import "context"

// RoomRepository 定义了房间目录 (roomId -> 成员 userId 集合) 的操作。
//
// 实现必须保证同一房间上的 Join / Leave 具有原子性：
// 房间在第一个成员加入时创建，在成员集合变空时立即删除。
type RoomRepository interface {
	// Join 将 userID 加入房间 (已存在则不变)，返回加入后的成员数。
	Join(ctx context.Context, roomID, userID string) (int, error)

	// Leave 将 userID 移出房间，集合为空时删除房间，返回剩余成员数 (删除后为 0)。
	Leave(ctx context.Context, roomID, userID string) (int, error)

	// MemberCount 返回房间成员数，房间不存在时返回 0。
	MemberCount(ctx context.Context, roomID string) (int, error)
}
