package domain

// RoomStats 是某个房间当前的只读概况，供 HTTP 查询接口使用。
type RoomStats struct {
	RoomID      string `json:"roomId"`
	Count       int    `json:"count"`
	HasSnapshot bool   `json:"hasSnapshot"`
}
