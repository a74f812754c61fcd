package service

import (
	"context"
	"errors"
	"time"

	"whiteboard-relay/internal/domain"
	"whiteboard-relay/internal/repository"

	"github.com/sirupsen/logrus"
)

// WhiteboardService 负责每个房间最新白板快照的缓存与回放。
// 快照按房间隔离，后写覆盖先写，没有版本或冲突检测 (单演示者假设)。
type WhiteboardService struct {
	snapshotRepo repository.SnapshotRepository
	now          func() time.Time
}

// NewWhiteboardService 创建 WhiteboardService 实例。
func NewWhiteboardService(snapshotRepo repository.SnapshotRepository) *WhiteboardService {
	if snapshotRepo == nil {
		panic("SnapshotRepository cannot be nil for WhiteboardService")
	}
	return &WhiteboardService{
		snapshotRepo: snapshotRepo,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Store 无条件覆盖房间的最新快照。
func (s *WhiteboardService) Store(ctx context.Context, roomID, userID, imgURL string) (*domain.Snapshot, error) {
	if roomID == "" {
		return nil, ErrInvalidRoom
	}
	if imgURL == "" {
		return nil, ErrInvalidSnapshot
	}
	snapshot := &domain.Snapshot{
		RoomID:    roomID,
		ImgURL:    imgURL,
		UpdatedBy: userID,
		UpdatedAt: s.now(),
	}
	if err := s.snapshotRepo.Save(ctx, snapshot); err != nil {
		logrus.WithFields(logrus.Fields{"room_id": roomID, "user_id": userID}).WithError(err).Error("Failed to store whiteboard snapshot")
		return nil, mapRepoError("store snapshot", err)
	}
	return snapshot, nil
}

// Latest 返回房间的最新快照。没有快照时返回 (nil, false, nil)。
func (s *WhiteboardService) Latest(ctx context.Context, roomID string) (*domain.Snapshot, bool, error) {
	if roomID == "" {
		return nil, false, ErrInvalidRoom
	}
	snapshot, err := s.snapshotRepo.Get(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrSnapshotNotFound) {
			return nil, false, nil
		}
		return nil, false, mapRepoError("load snapshot", err)
	}
	return snapshot, true, nil
}

// Evict 在房间被删除时清理其快照。
func (s *WhiteboardService) Evict(ctx context.Context, roomID string) error {
	if err := s.snapshotRepo.Delete(ctx, roomID); err != nil {
		return mapRepoError("evict snapshot", err)
	}
	logrus.WithField("room_id", roomID).Debug("Whiteboard snapshot evicted")
	return nil
}
