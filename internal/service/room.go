package service

import (
	"context"

	"whiteboard-relay/internal/domain"
	"whiteboard-relay/internal/repository"

	"github.com/sirupsen/logrus"
)

// PresenceService 负责房间目录 (成员集合与人数) 相关的业务逻辑。
type PresenceService struct {
	roomRepo repository.RoomRepository
}

// NewPresenceService 创建 PresenceService 实例。
func NewPresenceService(roomRepo repository.RoomRepository) *PresenceService {
	if roomRepo == nil {
		panic("RoomRepository cannot be nil for PresenceService")
	}
	return &PresenceService{roomRepo: roomRepo}
}

// Join 将用户加入房间 (房间不存在则创建)，返回加入后的人数。
// 同一 userId 重复加入不会增加人数。
func (s *PresenceService) Join(ctx context.Context, identity domain.Identity) (int, error) {
	if !identity.Valid() {
		return 0, ErrInvalidRoom
	}
	logCtx := logrus.WithFields(logrus.Fields{"room_id": identity.RoomID, "user_id": identity.UserID})

	count, err := s.roomRepo.Join(ctx, identity.RoomID, identity.UserID)
	if err != nil {
		logCtx.WithError(err).Error("Failed to add user to room directory")
		return 0, mapRepoError("join", err)
	}
	logCtx.WithField("count", count).Info("User joined room")
	return count, nil
}

// Leave 将用户移出房间。返回剩余人数，以及房间是否因此被删除。
func (s *PresenceService) Leave(ctx context.Context, roomID, userID string) (int, bool, error) {
	if roomID == "" || userID == "" {
		return 0, false, ErrInvalidRoom
	}
	logCtx := logrus.WithFields(logrus.Fields{"room_id": roomID, "user_id": userID})

	count, err := s.roomRepo.Leave(ctx, roomID, userID)
	if err != nil {
		logCtx.WithError(err).Error("Failed to remove user from room directory")
		return 0, false, mapRepoError("leave", err)
	}
	logCtx.WithField("count", count).Info("User left room")
	if count == 0 {
		logCtx.Info("Room is empty, removed from directory")
		return 0, true, nil
	}
	return count, false, nil
}

// Count 返回房间当前人数，房间不存在时为 0。
func (s *PresenceService) Count(ctx context.Context, roomID string) (int, error) {
	if roomID == "" {
		return 0, ErrInvalidRoom
	}
	count, err := s.roomRepo.MemberCount(ctx, roomID)
	if err != nil {
		return 0, mapRepoError("count", err)
	}
	return count, nil
}
