package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"matsuri-ops/backend/internal/model"
)

// upgrader WebSocket 升级器
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS 中间件已在 HTTP 层校验来源
		return true
	},
}

const (
	streamWriteTimeout = 10 * time.Second
	// streamBuffer 推送缓冲：写满即丢弃（至多一次投递，无回放），
	// 客户端通过列表/未读接口补偿
	streamBuffer = 16
)

// streamPayload 推送载荷（传输层只携带展示所需字段）
type streamPayload struct {
	NotificationID string `json:"notification_id"`
	Type           string `json:"type"`
	Title          string `json:"title"`
	Message        string `json:"message"`
	DeepLink       string `json:"deep_link,omitempty"`
}

// Stream 实时通知推送
// GET /api/v1/notifications/stream
// 升级为 WebSocket 后以当前用户身份订阅 Hub，连接断开即退订。
func (h *NotificationHandler) Stream(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade 失败时 gorilla 已写入错误响应
		return
	}
	defer conn.Close()

	// Hub 回调来自发布方 goroutine，经缓冲通道交给本连接唯一的写协程，
	// 避免并发写同一 WebSocket 连接
	send := make(chan *model.Notification, streamBuffer)
	sub := h.hub.Subscribe(userID, func(n *model.Notification) {
		select {
		case send <- n:
		default:
			// 缓冲写满直接丢弃：至多一次投递，不阻塞发布方
		}
	})
	defer sub.Unsubscribe()

	// 读协程只用于感知客户端断开
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case n := <-send:
			payload := streamPayload{
				NotificationID: n.NotificationID,
				Type:           n.Type,
				Title:          n.Title,
				Message:        n.Message,
			}
			if n.DeepLink != nil {
				payload.DeepLink = *n.DeepLink
			}

			conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if err := conn.WriteJSON(payload); err != nil {
				return
			}
		}
	}
}
