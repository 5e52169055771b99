package realtime

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"matsuri-ops/backend/internal/model"
)

// ── 测试辅助 ──

func newTestHub() *Hub {
	return NewHub(time.Second, zap.NewNop())
}

func testNotification(targets ...string) *model.Notification {
	return &model.Notification{
		NotificationID: "n1",
		Type:           model.NotificationTypeInfo,
		Title:          "お知らせ",
		Message:        "テスト",
		TargetUserIDs:  model.StringArray(targets),
	}
}

// collect 等待最多 timeout 收到一条通知；收不到返回 nil
func collect(ch <-chan *model.Notification, timeout time.Duration) *model.Notification {
	select {
	case n := <-ch:
		return n
	case <-time.After(timeout):
		return nil
	}
}

// ── 过滤语义 ──

func TestHub_PublishOnlyToTargets(t *testing.T) {
	hub := newTestHub()

	got9 := make(chan *model.Notification, 1)
	got21 := make(chan *model.Notification, 1)

	hub.Subscribe("u9", func(n *model.Notification) { got9 <- n })
	hub.Subscribe("u21", func(n *model.Notification) { got21 <- n })

	hub.Publish(testNotification("u9"))

	if n := collect(got9, time.Second); n == nil {
		t.Fatal("目标用户 u9 应收到推送")
	}
	if n := collect(got21, 100*time.Millisecond); n != nil {
		t.Error("非目标用户 u21 不应收到推送")
	}
}

func TestHub_MultipleSessionsSameUser(t *testing.T) {
	hub := newTestHub()

	// 同一用户两个在线会话，各自独立收到推送
	got := make(chan *model.Notification, 2)
	hub.Subscribe("u9", func(n *model.Notification) { got <- n })
	hub.Subscribe("u9", func(n *model.Notification) { got <- n })

	hub.Publish(testNotification("u9"))

	for i := 0; i < 2; i++ {
		if n := collect(got, time.Second); n == nil {
			t.Fatalf("第 %d 个会话未收到推送", i+1)
		}
	}
}

func TestHub_LateSubscriberGetsNothing(t *testing.T) {
	hub := newTestHub()

	hub.Publish(testNotification("u9"))

	// Publish 之后才订阅：无回放缓冲，只能通过列表/未读接口补偿
	got := make(chan *model.Notification, 1)
	hub.Subscribe("u9", func(n *model.Notification) { got <- n })

	if n := collect(got, 100*time.Millisecond); n != nil {
		t.Error("迟到的订阅不应收到已发布的通知")
	}
}

// ── 取消订阅 ──

func TestHub_Unsubscribe(t *testing.T) {
	hub := newTestHub()

	got := make(chan *model.Notification, 1)
	sub := hub.Subscribe("u9", func(n *model.Notification) { got <- n })

	sub.Unsubscribe()
	if count := hub.SubscriberCount("u9"); count != 0 {
		t.Errorf("取消后订阅数应为 0，实际=%d", count)
	}

	hub.Publish(testNotification("u9"))
	if n := collect(got, 100*time.Millisecond); n != nil {
		t.Error("取消订阅后不应再收到推送")
	}
}

func TestHub_UnsubscribeIdempotent(t *testing.T) {
	hub := newTestHub()

	sub := hub.Subscribe("u9", func(*model.Notification) {})
	other := hub.Subscribe("u9", func(*model.Notification) {})

	// 重复取消 + 跨 goroutine 取消都应安全
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub.Unsubscribe()
		}()
	}
	wg.Wait()
	sub.Unsubscribe()

	if count := hub.SubscriberCount("u9"); count != 1 {
		t.Errorf("另一订阅不应受影响，期望订阅数 1，实际=%d", count)
	}
	other.Unsubscribe()
}

// ── 故障隔离 ──

func TestHub_PanicIsolation(t *testing.T) {
	hub := newTestHub()

	healthy := make(chan *model.Notification, 1)
	hub.Subscribe("u9", func(*model.Notification) { panic("handler 故障") })
	hub.Subscribe("u9", func(n *model.Notification) { healthy <- n })

	hub.Publish(testNotification("u9"))

	if n := collect(healthy, time.Second); n == nil {
		t.Fatal("一个订阅回调 panic 不应阻断另一个健康订阅")
	}
}

func TestHub_SlowHandlerDoesNotBlockOthers(t *testing.T) {
	hub := NewHub(50*time.Millisecond, zap.NewNop())

	fast := make(chan *model.Notification, 1)
	block := make(chan struct{})
	hub.Subscribe("u9", func(*model.Notification) { <-block })
	hub.Subscribe("u9", func(n *model.Notification) { fast <- n })

	hub.Publish(testNotification("u9"))

	if n := collect(fast, time.Second); n == nil {
		t.Fatal("慢回调不应阻断其他订阅的推送")
	}
	close(block)
}

// ── 并发安全 ──

func TestHub_ConcurrentSubscribePublish(t *testing.T) {
	hub := newTestHub()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub := hub.Subscribe("u9", func(*model.Notification) {})
			hub.Publish(testNotification("u9"))
			sub.Unsubscribe()
		}()
	}
	wg.Wait()

	if count := hub.SubscriberCount("u9"); count != 0 {
		t.Errorf("全部取消后订阅数应为 0，实际=%d", count)
	}
}
