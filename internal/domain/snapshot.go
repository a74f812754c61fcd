package domain

import "time"

// Snapshot 是某个房间白板的最新序列化图像 (通常是 data URL)。
// 每个房间最多保留一份，后写覆盖先写，不保留历史。
type Snapshot struct {
	RoomID    string    `json:"roomId"`
	ImgURL    string    `json:"imgURL"`
	UpdatedBy string    `json:"updatedBy"` // 写入该快照的 userId
	UpdatedAt time.Time `json:"updatedAt"`
}
