package handler

import (
	"matsuri-ops/backend/internal/realtime"
	"matsuri-ops/backend/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Notification *NotificationHandler
	Permission   *PermissionHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service, hub *realtime.Hub) *Handler {
	return &Handler{
		Notification: NewNotificationHandler(svc.Notification, hub),
		Permission:   NewPermissionHandler(svc.Permission),
	}
}
