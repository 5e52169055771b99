package handler

import (
	"github.com/gin-gonic/gin"

	"matsuri-ops/backend/internal/dto"
	"matsuri-ops/backend/internal/realtime"
	"matsuri-ops/backend/internal/service"
	"matsuri-ops/backend/pkg/response"
)

// NotificationHandler 通知模块 HTTP 处理器
type NotificationHandler struct {
	notificationSvc service.NotificationService
	hub             *realtime.Hub
}

// NewNotificationHandler 创建 NotificationHandler
func NewNotificationHandler(notificationSvc service.NotificationService, hub *realtime.Hub) *NotificationHandler {
	return &NotificationHandler{notificationSvc: notificationSvc, hub: hub}
}

// Send 按角色发送通知
// POST /api/v1/notifications
func (h *NotificationHandler) Send(c *gin.Context) {
	senderID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.SendNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.notificationSvc.Send(c.Request.Context(), &req, senderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response.Created(c, result)
}

// SendDirect 指定用户直接发送通知（仅管理员）
// POST /api/v1/notifications/direct
func (h *NotificationHandler) SendDirect(c *gin.Context) {
	senderID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.SendDirectNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.notificationSvc.SendDirect(c.Request.Context(), &req, senderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response.Created(c, result)
}

// List 当前用户的通知列表
// GET /api/v1/notifications
func (h *NotificationHandler) List(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.NotificationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.notificationSvc.List(c.Request.Context(), userID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetLimit(), req.Offset)
}

// UnreadCount 当前用户的未读计数
// GET /api/v1/notifications/unread-count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	count, err := h.notificationSvc.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response.OK(c, dto.UnreadCountResponse{Count: count})
}

// MarkRead 标记单条通知已读（幂等）
// PUT /api/v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	notificationID := c.Param("id")
	if err := h.notificationSvc.MarkRead(c.Request.Context(), notificationID, userID); err != nil {
		respondServiceError(c, err)
		return
	}

	response.OK(c, nil)
}

// MarkReadBatch 批量标记已读（幂等）
// PUT /api/v1/notifications/read-batch
func (h *NotificationHandler) MarkReadBatch(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.MarkReadBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	if err := h.notificationSvc.MarkManyRead(c.Request.Context(), req.NotificationIDs, userID); err != nil {
		respondServiceError(c, err)
		return
	}

	response.OK(c, nil)
}

// Delete 删除通知（仅管理员，Service 层鉴权）
// DELETE /api/v1/notifications/:id
func (h *NotificationHandler) Delete(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	notificationID := c.Param("id")
	if err := h.notificationSvc.Delete(c.Request.Context(), notificationID, callerID); err != nil {
		respondServiceError(c, err)
		return
	}

	response.OK(c, nil)
}
