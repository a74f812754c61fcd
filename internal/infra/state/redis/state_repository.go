package redisstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"whiteboard-relay/internal/domain"
	"whiteboard-relay/internal/repository"
)

// RedisStateRepository 是 RoomRepository 和 SnapshotRepository 的 Redis 实现。
// 房间成员保存在 Set 中，Redis 会在 Set 变空时自动删除 key，正好满足 "空房间即删除" 的约束。
type RedisStateRepository struct {
	client      *redis.Client
	keyPrefix   string
	snapshotTTL time.Duration // 0 表示快照不过期
}

var (
	_ repository.RoomRepository     = (*RedisStateRepository)(nil)
	_ repository.SnapshotRepository = (*RedisStateRepository)(nil)
)

// NewRedisStateRepository 创建 RedisStateRepository 实例
func NewRedisStateRepository(client *redis.Client, keyPrefix string, snapshotTTL time.Duration) *RedisStateRepository {
	if client == nil {
		panic("redis client cannot be nil for RedisStateRepository")
	}
	if keyPrefix == "" {
		keyPrefix = "wb:"
	}
	return &RedisStateRepository{
		client:      client,
		keyPrefix:   keyPrefix,
		snapshotTTL: snapshotTTL,
	}
}

// --- Key Generation Helpers ---
func (r *RedisStateRepository) roomMembersKey(roomID string) string {
	return fmt.Sprintf("%sroom:%s:members", r.keyPrefix, roomID)
}

func (r *RedisStateRepository) roomSnapshotKey(roomID string) string {
	return fmt.Sprintf("%sroom:%s:snapshot", r.keyPrefix, roomID)
}

// --- RoomRepository ---

// Join 使用 MULTI/EXEC 原子地执行 SADD + SCARD。
func (r *RedisStateRepository) Join(ctx context.Context, roomID, userID string) (int, error) {
	key := r.roomMembersKey(roomID)
	var card *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, key, userID)
		card = pipe.SCard(ctx, key)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("redis: failed to join user %s to room %s on key %s: %w", userID, roomID, key, err)
	}
	return int(card.Val()), nil
}

// Leave 使用 MULTI/EXEC 原子地执行 SREM + SCARD。
func (r *RedisStateRepository) Leave(ctx context.Context, roomID, userID string) (int, error) {
	key := r.roomMembersKey(roomID)
	var card *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SRem(ctx, key, userID)
		card = pipe.SCard(ctx, key)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("redis: failed to remove user %s from room %s on key %s: %w", userID, roomID, key, err)
	}
	return int(card.Val()), nil
}

// MemberCount 返回房间成员数 (key 不存在时 SCARD 返回 0)。
func (r *RedisStateRepository) MemberCount(ctx context.Context, roomID string) (int, error) {
	key := r.roomMembersKey(roomID)
	n, err := r.client.SCard(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis: failed to count members of room %s on key %s: %w", roomID, key, err)
	}
	return int(n), nil
}

// --- SnapshotRepository ---

// Save 将快照序列化后写入，覆盖旧值。
func (r *RedisStateRepository) Save(ctx context.Context, snapshot *domain.Snapshot) error {
	if snapshot == nil {
		return errors.New("redis: nil snapshot")
	}
	key := r.roomSnapshotKey(snapshot.RoomID)
	snapshotBytes, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("redis: failed to marshal snapshot for room %s: %w", snapshot.RoomID, err)
	}
	if err := r.client.Set(ctx, key, snapshotBytes, r.snapshotTTL).Err(); err != nil {
		return fmt.Errorf("redis: failed to set snapshot for room %s on key %s: %w", snapshot.RoomID, key, err)
	}
	return nil
}

// Get 获取房间的快照，缓存未命中时返回 repository.ErrSnapshotNotFound。
func (r *RedisStateRepository) Get(ctx context.Context, roomID string) (*domain.Snapshot, error) {
	key := r.roomSnapshotKey(roomID)
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("redis: failed to get snapshot for room %s from %s: %w", roomID, key, err)
	}
	var snapshot domain.Snapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, fmt.Errorf("redis: failed to unmarshal snapshot for room %s from %s: %w", roomID, key, err)
	}
	return &snapshot, nil
}

// Delete 删除房间快照。
func (r *RedisStateRepository) Delete(ctx context.Context, roomID string) error {
	key := r.roomSnapshotKey(roomID)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis: failed to delete snapshot for room %s on key %s: %w", roomID, key, err)
	}
	return nil
}
