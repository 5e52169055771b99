package repository

import (
	"context"

	"gorm.io/gorm"

	"matsuri-ops/backend/internal/model"
)

// RoleRepository 角色注册表数据访问接口
type RoleRepository interface {
	// ListByNames 按角色 ID 批量取角色记录；未知 ID 静默跳过（默认拒绝兜底）。
	ListByNames(ctx context.Context, names []string) ([]model.Role, error)
	ListAll(ctx context.Context) ([]model.Role, error)
}

// roleRepo RoleRepository 的 GORM 实现
type roleRepo struct {
	db *gorm.DB
}

// NewRoleRepo 创建 RoleRepository 实例
func NewRoleRepo(db *gorm.DB) RoleRepository {
	return &roleRepo{db: db}
}

func (r *roleRepo) ListByNames(ctx context.Context, names []string) ([]model.Role, error) {
	if len(names) == 0 {
		return nil, nil
	}
	var roles []model.Role
	err := r.db.WithContext(ctx).
		Where("name IN ?", names).
		Find(&roles).Error
	if err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *roleRepo) ListAll(ctx context.Context) ([]model.Role, error) {
	var roles []model.Role
	err := r.db.WithContext(ctx).
		Order("level DESC").
		Find(&roles).Error
	if err != nil {
		return nil, err
	}
	return roles, nil
}
