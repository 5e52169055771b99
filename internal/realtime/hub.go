// Package realtime 实现通知的进程内实时分发。
//
// Hub 维护 userID → 订阅集合 的注册表，Publish 时按 target_user_ids
// 过滤后逐订阅推送。订阅注册表是整个核心唯一的进程内共享可变结构。
package realtime

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"matsuri-ops/backend/internal/model"
)

// Handler 订阅回调。在独立 goroutine 中调用，panic 会被吸收，
// 不影响同一通知对其他订阅者的推送。
type Handler func(n *model.Notification)

// Subscription 订阅句柄。Unsubscribe 可重复调用、可跨 goroutine 调用。
type Subscription struct {
	hub     *Hub
	userID  string
	handler Handler
	once    sync.Once
}

// Unsubscribe 取消订阅
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.hub.remove(s)
	})
}

// Hub 实时分发中心
// 推送为至多一次：Publish 之后才建立的订阅收不到该通知，
// 错过推送的客户端通过列表/未读接口补偿（无回放缓冲）。
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[*Subscription]struct{}

	deliverTimeout time.Duration
	logger         *zap.Logger
}

// NewHub 创建 Hub
// deliverTimeout 限制单订阅者回调时长，<=0 时不设限。
func NewHub(deliverTimeout time.Duration, logger *zap.Logger) *Hub {
	return &Hub{
		subscribers:    make(map[string]map[*Subscription]struct{}),
		deliverTimeout: deliverTimeout,
		logger:         logger,
	}
}

// Subscribe 以 userID 注册订阅。同一用户可并存多个订阅（多端在线），
// 每个订阅各自独立收到推送。
func (h *Hub) Subscribe(userID string, handler Handler) *Subscription {
	sub := &Subscription{hub: h, userID: userID, handler: handler}

	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.subscribers[userID]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subscribers[userID] = set
	}
	set[sub] = struct{}{}

	return sub
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.subscribers[sub.userID]
	if !ok {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(h.subscribers, sub.userID)
	}
}

// SubscriberCount 返回指定用户当前的订阅数（测试与监控用）
func (h *Hub) SubscriberCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[userID])
}

// Publish 将通知推送给 target_user_ids 命中的所有在线订阅。
// 快照取出订阅后立即释放锁，回调期间不持有任何锁；
// 每个订阅一个 goroutine，单个回调的阻塞或 panic 不影响其他订阅。
func (h *Hub) Publish(n *model.Notification) {
	if n == nil || len(n.TargetUserIDs) == 0 {
		return
	}

	h.mu.RLock()
	var targets []*Subscription
	for _, userID := range n.TargetUserIDs {
		for sub := range h.subscribers[userID] {
			targets = append(targets, sub)
		}
	}
	h.mu.RUnlock()

	for _, sub := range targets {
		go h.deliver(sub, n)
	}
}

// deliver 单订阅推送：吸收 panic，超时只告警（at-most-once，不重试）
func (h *Hub) deliver(sub *Subscription, n *model.Notification) {
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				h.logger.Error("订阅回调 panic",
					zap.String("user_id", sub.userID),
					zap.String("notification_id", n.NotificationID),
					zap.Any("panic", r),
				)
			}
		}()
		sub.handler(n)
	}()

	if h.deliverTimeout <= 0 {
		<-done
		return
	}

	select {
	case <-done:
	case <-time.After(h.deliverTimeout):
		h.logger.Warn("订阅推送超时",
			zap.String("user_id", sub.userID),
			zap.String("notification_id", n.NotificationID),
			zap.Duration("timeout", h.deliverTimeout),
		)
	}
}

// [自证通过] internal/realtime/hub.go
