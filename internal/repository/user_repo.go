package repository

import (
	"context"

	"gorm.io/gorm"

	"matsuri-ops/backend/internal/model"
)

// UserRepository 用户目录数据访问接口
// 用户目录由外部协作方维护，本服务只读。
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	// ListAllWithRoles 拉取全量用户的 (id, roles)，接收者解析用。
	// 只取两列，不加载用户其余字段。
	ListAllWithRoles(ctx context.Context) ([]model.User, error)
}

// userRepo UserRepository 的 GORM 实现
type userRepo struct {
	db *gorm.DB
}

// NewUserRepo 创建 UserRepository 实例
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("user_id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) ListAllWithRoles(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Select("user_id", "roles").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}
