package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"matsuri-ops/backend/internal/model"
)

// NotificationListFilter 收件箱查询条件
type NotificationListFilter struct {
	Limit      int
	Offset     int
	Type       string // 空串不过滤
	ActiveOnly bool   // true 时排除已过期通知（过期记录仍可审计查询）
}

// NotificationRepository 通知数据访问接口
type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	GetByID(ctx context.Context, id string) (*model.Notification, error)
	// ListByUser 按 target_user_ids 数组包含查询，时间倒序
	ListByUser(ctx context.Context, userID string, filter NotificationListFilter) ([]model.Notification, int64, error)
	UpdateStatus(ctx context.Context, id string, status string) error
	Delete(ctx context.Context, id string) error

	// ── 已读回执 ──
	// 写入走 ON CONFLICT DO NOTHING：联合唯一约束冲突即视为成功，
	// 这就是并发安全机制本身，不依赖任何锁。
	MarkRead(ctx context.Context, notificationID, userID string, readAt time.Time) error
	MarkManyRead(ctx context.Context, notificationIDs []string, userID string, readAt time.Time) error
	IsRead(ctx context.Context, notificationID, userID string) (bool, error)
	// ListReadIDs 返回给定通知集中该用户已读的那部分 ID（列表标注用）
	ListReadIDs(ctx context.Context, notificationIDs []string, userID string) ([]string, error)
	// CountUnread 未读计数：命中 + 未过期 + 无回执。
	// 纯 SQL 集合差，不加载通知正文。
	CountUnread(ctx context.Context, userID string, now time.Time) (int64, error)
}

// notificationRepo NotificationRepository 的 GORM 实现
type notificationRepo struct {
	db *gorm.DB
}

// NewNotificationRepo 创建 NotificationRepository 实例
func NewNotificationRepo(db *gorm.DB) NotificationRepository {
	return &notificationRepo{db: db}
}

func (r *notificationRepo) Create(ctx context.Context, n *model.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *notificationRepo) GetByID(ctx context.Context, id string) (*model.Notification, error) {
	var n model.Notification
	err := r.db.WithContext(ctx).
		Where("notification_id = ?", id).
		First(&n).Error
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *notificationRepo) ListByUser(ctx context.Context, userID string, filter NotificationListFilter) ([]model.Notification, int64, error) {
	var notifications []model.Notification
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("target_user_ids @> ARRAY[?]::text[]", userID)

	if filter.Type != "" {
		db = db.Where("type = ?", filter.Type)
	}
	if filter.ActiveOnly {
		db = db.Where("expires_at > ?", time.Now())
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Offset(filter.Offset).Limit(filter.Limit).
		Order("created_at DESC").
		Find(&notifications).Error; err != nil {
		return nil, 0, err
	}

	return notifications, total, nil
}

func (r *notificationRepo) UpdateStatus(ctx context.Context, id string, status string) error {
	return r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("notification_id = ?", id).
		Update("status", status).Error
}

func (r *notificationRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("notification_id = ?", id).
		Delete(&model.Notification{}).Error
}

// ── 已读回执 ──

func (r *notificationRepo) MarkRead(ctx context.Context, notificationID, userID string, readAt time.Time) error {
	read := model.NotificationRead{
		NotificationID: notificationID,
		UserID:         userID,
		ReadAt:         readAt,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&read).Error
}

func (r *notificationRepo) MarkManyRead(ctx context.Context, notificationIDs []string, userID string, readAt time.Time) error {
	if len(notificationIDs) == 0 {
		return nil
	}
	reads := make([]model.NotificationRead, 0, len(notificationIDs))
	for _, id := range notificationIDs {
		reads = append(reads, model.NotificationRead{
			NotificationID: id,
			UserID:         userID,
			ReadAt:         readAt,
		})
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&reads).Error
}

func (r *notificationRepo) IsRead(ctx context.Context, notificationID, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.NotificationRead{}).
		Where("notification_id = ? AND user_id = ?", notificationID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *notificationRepo) ListReadIDs(ctx context.Context, notificationIDs []string, userID string) ([]string, error) {
	if len(notificationIDs) == 0 {
		return nil, nil
	}
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.NotificationRead{}).
		Where("user_id = ? AND notification_id IN ?", userID, notificationIDs).
		Pluck("notification_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *notificationRepo) CountUnread(ctx context.Context, userID string, now time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("target_user_ids @> ARRAY[?]::text[]", userID).
		Where("expires_at > ?", now).
		Where("NOT EXISTS (SELECT 1 FROM notification_reads nr WHERE nr.notification_id = notifications.notification_id AND nr.user_id = ?)", userID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
