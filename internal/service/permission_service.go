package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"matsuri-ops/backend/internal/model"
	"matsuri-ops/backend/internal/permission"
	"matsuri-ops/backend/internal/repository"
	apperrors "matsuri-ops/backend/pkg/errors"
)

// ── 权限模块业务错误 ──

var ErrUserNotFound = apperrors.NotFound("用户不存在")

// PermissionService 权限业务接口
// 纯判定逻辑在 internal/permission 包；本服务负责把用户 ID
// 解析成角色记录集后委托判定。
type PermissionService interface {
	// RolesForUser 解析用户当前持有的角色记录集
	RolesForUser(ctx context.Context, userID string) ([]model.Role, error)
	AccessibleScreens(ctx context.Context, userID string) ([]string, error)
	CanAccessScreen(ctx context.Context, userID, screen string) (bool, error)
	CanUseFeature(ctx context.Context, userID, screen, feature string) (bool, error)
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

type permissionService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewPermissionService 创建 PermissionService 实例
func NewPermissionService(repo *repository.Repository, logger *zap.Logger) PermissionService {
	return &permissionService{repo: repo, logger: logger}
}

func (s *permissionService) RolesForUser(ctx context.Context, userID string) ([]model.Role, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, apperrors.TransientStore("用户目录查询失败", err)
	}

	// 用户无角色时直接返回空集（默认拒绝），不查注册表
	if len(user.Roles) == 0 {
		return nil, nil
	}

	roles, err := s.repo.Role.ListByNames(ctx, user.Roles)
	if err != nil {
		return nil, apperrors.TransientStore("角色注册表查询失败", err)
	}
	return roles, nil
}

func (s *permissionService) AccessibleScreens(ctx context.Context, userID string) ([]string, error) {
	roles, err := s.RolesForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return permission.AccessibleScreens(roles), nil
}

func (s *permissionService) CanAccessScreen(ctx context.Context, userID, screen string) (bool, error) {
	roles, err := s.RolesForUser(ctx, userID)
	if err != nil {
		return false, err
	}
	return permission.CanAccessScreen(roles, screen), nil
}

func (s *permissionService) CanUseFeature(ctx context.Context, userID, screen, feature string) (bool, error) {
	roles, err := s.RolesForUser(ctx, userID)
	if err != nil {
		return false, err
	}
	return permission.CanUseFeature(roles, screen, feature), nil
}

func (s *permissionService) IsAdmin(ctx context.Context, userID string) (bool, error) {
	roles, err := s.RolesForUser(ctx, userID)
	if err != nil {
		return false, err
	}
	return permission.IsAdmin(roles), nil
}
