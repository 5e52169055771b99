package handler

import (
	"github.com/gin-gonic/gin"

	"matsuri-ops/backend/internal/dto"
	"matsuri-ops/backend/internal/service"
	"matsuri-ops/backend/pkg/response"
)

// PermissionHandler 权限模块 HTTP 处理器
type PermissionHandler struct {
	permissionSvc service.PermissionService
}

// NewPermissionHandler 创建 PermissionHandler
func NewPermissionHandler(permissionSvc service.PermissionService) *PermissionHandler {
	return &PermissionHandler{permissionSvc: permissionSvc}
}

// AccessibleScreens 当前用户可访问画面列表（驱动客户端抽屉菜单）
// GET /api/v1/permissions/screens
func (h *PermissionHandler) AccessibleScreens(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	screens, err := h.permissionSvc.AccessibleScreens(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response.OK(c, dto.AccessibleScreensResponse{Screens: screens})
}
