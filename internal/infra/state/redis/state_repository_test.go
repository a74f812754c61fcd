package redisstate_test

import (
	"context"
	"testing"
	"time"

	"whiteboard-relay/internal/domain"
	redisstate "whiteboard-relay/internal/infra/state/redis"
	"whiteboard-relay/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T, ttl time.Duration) (*redisstate.RedisStateRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redisstate.NewRedisStateRepository(client, "test:", ttl), mr
}

func TestRedisState_JoinLeave_RoomLifecycle(t *testing.T) {
	repo, mr := newTestRepo(t, 0)
	ctx := context.Background()

	count, err := repo.Join(ctx, "r2", "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = repo.Join(ctx, "r2", "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, count, "duplicate join must not increment")

	count, _ = repo.Join(ctx, "r2", "u2")
	assert.Equal(t, 2, count)
	assert.True(t, mr.Exists("test:room:r2:members"))

	count, _ = repo.Leave(ctx, "r2", "u1")
	assert.Equal(t, 1, count)
	count, _ = repo.Leave(ctx, "r2", "u2")
	assert.Equal(t, 0, count)

	remaining, err := repo.MemberCount(ctx, "r2")
	require.NoError(t, err)
	assert.Zero(t, remaining)
	assert.False(t, mr.Exists("test:room:r2:members"), "empty set key must vanish")

	count, _ = repo.Join(ctx, "r2", "u3")
	assert.Equal(t, 1, count)
	n, err := repo.MemberCount(ctx, "r2")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRedisState_Snapshot(t *testing.T) {
	repo, mr := newTestRepo(t, time.Minute)
	ctx := context.Background()

	_, err := repo.Get(ctx, "r1")
	assert.ErrorIs(t, err, repository.ErrSnapshotNotFound)

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.Save(ctx, &domain.Snapshot{RoomID: "r1", ImgURL: "data:img1", UpdatedBy: "u1", UpdatedAt: now}))
	require.NoError(t, repo.Save(ctx, &domain.Snapshot{RoomID: "r1", ImgURL: "data:img2", UpdatedBy: "u1", UpdatedAt: now}))

	snap, err := repo.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "data:img2", snap.ImgURL)
	assert.Equal(t, "u1", snap.UpdatedBy)
	assert.True(t, now.Equal(snap.UpdatedAt))
	assert.Equal(t, time.Minute, mr.TTL("test:room:r1:snapshot"))

	mr.FastForward(2 * time.Minute)
	_, err = repo.Get(ctx, "r1")
	assert.ErrorIs(t, err, repository.ErrSnapshotNotFound, "snapshot expires after ttl")

	require.NoError(t, repo.Save(ctx, &domain.Snapshot{RoomID: "r1", ImgURL: "data:img3"}))
	require.NoError(t, repo.Delete(ctx, "r1"))
	_, err = repo.Get(ctx, "r1")
	assert.ErrorIs(t, err, repository.ErrSnapshotNotFound)
}

func TestRedisState_ConnectionError(t *testing.T) {
	repo, mr := newTestRepo(t, 0)
	mr.Close()

	_, err := repo.Join(context.Background(), "r1", "u1")
	assert.Error(t, err)
	_, err = repo.Get(context.Background(), "r1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, repository.ErrSnapshotNotFound)
}
