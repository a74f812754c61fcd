package service

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRoom      = errors.New("invalid room or user id")
	ErrInvalidSnapshot  = errors.New("invalid whiteboard snapshot")
	ErrStateUnavailable = errors.New("room state store unavailable")
)

// mapRepoError 将仓库层的错误 (如 Redis 连接错误) 映射到服务层错误，保留原始错误链。
func mapRepoError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %v", op, ErrStateUnavailable, err)
}
