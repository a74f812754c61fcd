package domain

// Identity 是客户端在 join 时自报的身份信息。
// 服务端不做任何校验，完全信任客户端提供的 userId / presenter 等字段。
type Identity struct {
	UserID    string // 客户端生成的 UUID，与连接句柄无关
	RoomID    string // 房间码
	Name      string // 显示名
	Host      bool   // 是否为房间创建者
	Presenter bool   // 是否为演示者 (负责绘制白板)
}

// Valid 判断身份是否包含加入房间所需的最少字段。
func (i Identity) Valid() bool {
	return i.UserID != "" && i.RoomID != ""
}
