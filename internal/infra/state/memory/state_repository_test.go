package memstate_test

import (
	"context"
	"testing"
	"time"

	"whiteboard-relay/internal/domain"
	memstate "whiteboard-relay/internal/infra/state/memory"
	"whiteboard-relay/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryState_JoinLeave_RoomLifecycle(t *testing.T) {
	repo := memstate.NewMemoryStateRepository()
	ctx := context.Background()

	count, err := repo.Join(ctx, "r1", "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// 重复加入是幂等的
	count, _ = repo.Join(ctx, "r1", "u1")
	assert.Equal(t, 1, count, "duplicate join must not increment")

	count, _ = repo.Join(ctx, "r1", "u2")
	assert.Equal(t, 2, count)

	count, _ = repo.Leave(ctx, "r1", "u1")
	assert.Equal(t, 1, count)
	n, _ := repo.MemberCount(ctx, "r1")
	assert.Equal(t, 1, n)

	count, _ = repo.Leave(ctx, "r1", "u2")
	assert.Equal(t, 0, count)
	n, _ = repo.MemberCount(ctx, "r1")
	assert.Zero(t, n, "empty room must be removed")

	// 重新加入从 1 开始
	count, _ = repo.Join(ctx, "r1", "u2")
	assert.Equal(t, 1, count)
}

func TestMemoryState_LeaveUnknown(t *testing.T) {
	repo := memstate.NewMemoryStateRepository()
	ctx := context.Background()

	count, err := repo.Leave(ctx, "missing", "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	_, _ = repo.Join(ctx, "r1", "u1")
	count, _ = repo.Leave(ctx, "r1", "stranger")
	assert.Equal(t, 1, count, "leaving with a non-member must not change the count")

	n, _ := repo.MemberCount(ctx, "missing")
	assert.Zero(t, n)
}

func TestMemoryState_NetCountNeverNegative(t *testing.T) {
	repo := memstate.NewMemoryStateRepository()
	ctx := context.Background()

	ops := []struct {
		join bool
		user string
	}{
		{true, "a"}, {true, "b"}, {false, "a"}, {false, "a"}, {true, "a"},
		{true, "a"}, {false, "c"}, {false, "b"}, {false, "a"}, {false, "a"},
	}
	members := map[string]bool{}
	for _, op := range ops {
		var got int
		if op.join {
			got, _ = repo.Join(ctx, "r", op.user)
			members[op.user] = true
		} else {
			got, _ = repo.Leave(ctx, "r", op.user)
			delete(members, op.user)
		}
		assert.Equal(t, len(members), got)
		n, _ := repo.MemberCount(ctx, "r")
		assert.Equal(t, len(members), n)
	}
}

func TestMemoryState_Snapshot(t *testing.T) {
	repo := memstate.NewMemoryStateRepository()
	ctx := context.Background()

	_, err := repo.Get(ctx, "r1")
	assert.ErrorIs(t, err, repository.ErrSnapshotNotFound)

	require.NoError(t, repo.Save(ctx, &domain.Snapshot{RoomID: "r1", ImgURL: "data:img1", UpdatedAt: time.Now()}))
	require.NoError(t, repo.Save(ctx, &domain.Snapshot{RoomID: "r1", ImgURL: "data:img2", UpdatedAt: time.Now()}))
	require.NoError(t, repo.Save(ctx, &domain.Snapshot{RoomID: "r2", ImgURL: "data:other", UpdatedAt: time.Now()}))

	snap, err := repo.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "data:img2", snap.ImgURL, "last write wins")

	snap, err = repo.Get(ctx, "r2")
	require.NoError(t, err)
	assert.Equal(t, "data:other", snap.ImgURL, "snapshots are scoped per room")

	require.NoError(t, repo.Delete(ctx, "r1"))
	require.NoError(t, repo.Delete(ctx, "r1"))
	_, err = repo.Get(ctx, "r1")
	assert.ErrorIs(t, err, repository.ErrSnapshotNotFound)
}
