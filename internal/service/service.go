package service

import (
	"go.uber.org/zap"

	"matsuri-ops/backend/config"
	"matsuri-ops/backend/internal/repository"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Notification NotificationService
	Permission   PermissionService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	publisher NotificationPublisher,
	logger *zap.Logger,
) *Service {
	return &Service{
		Notification: NewNotificationService(&cfg.Notification, repo, publisher, logger),
		Permission:   NewPermissionService(repo, logger),
	}
}
