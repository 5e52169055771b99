package model

import "time"

// ── 通知类型 ──

const (
	NotificationTypeInfo    = "info"
	NotificationTypeSuccess = "success"
	NotificationTypeWarning = "warning"
	NotificationTypeError   = "error"

	// 业务扩展类型
	NotificationTypeVendorStop     = "vendor_stop"     // 屋台停止
	NotificationTypeScheduleChange = "schedule_change" // スケジュール変更
	NotificationTypeInventoryAlert = "inventory_alert" // 在庫アラート
	NotificationTypeUserAction     = "user_action"     // ユーザーアクション
)

// ── 通知状态 ──

const (
	NotificationStatusPending   = "pending"
	NotificationStatusDelivered = "delivered"
)

// notificationTitles 类型 → 默认标题映射（调用方省略 title 时使用）
var notificationTitles = map[string]string{
	NotificationTypeInfo:           "お知らせ",
	NotificationTypeSuccess:        "完了通知",
	NotificationTypeWarning:        "警告",
	NotificationTypeError:          "エラー",
	NotificationTypeVendorStop:     "屋台停止",
	NotificationTypeScheduleChange: "スケジュール変更",
	NotificationTypeInventoryAlert: "在庫アラート",
	NotificationTypeUserAction:     "ユーザーアクション",
}

// TitleForType 返回通知类型对应的默认标题，未知类型回退到通用标题。
func TitleForType(typ string) string {
	if title, ok := notificationTitles[typ]; ok {
		return title
	}
	return notificationTitles[NotificationTypeInfo]
}

// Notification 通知表 — 对应 notifications
// 创建后除 status 外所有字段不可变；target_user_ids 是创建时刻的快照，
// 角色成员后续变动不会回溯修改已发送的通知。
type Notification struct {
	NotificationID string      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"notification_id"`
	Type           string      `gorm:"type:varchar(50);not null"                      json:"type"`
	Title          string      `gorm:"type:varchar(200);not null"                     json:"title"`
	Message        string      `gorm:"type:text;not null"                             json:"message"`
	RecipientRoles StringArray `gorm:"type:text[];not null;default:'{}'"              json:"recipient_roles"`
	TargetUserIDs  StringArray `gorm:"type:text[];not null"                           json:"target_user_ids"`
	SentBy         string      `gorm:"type:uuid;not null"                             json:"sent_by"`
	DeepLink       *string     `gorm:"type:varchar(500)"                              json:"deep_link,omitempty"`
	Metadata       JSONMap     `gorm:"type:jsonb"                                     json:"metadata,omitempty"`
	Status         string      `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	ExpiresAt      time.Time   `gorm:"not null"                                       json:"expires_at"`
	BaseModel
}

// TableName 指定表名
func (Notification) TableName() string { return "notifications" }

// Expired 判断通知在给定时刻是否已过期（过期后仍可审计查询，但不计入未读）
func (n *Notification) Expired(now time.Time) bool {
	return !n.ExpiresAt.After(now)
}

// NotificationRead 已读回执表 — 对应 notification_reads
// (notification_id, user_id) 联合唯一；重复写入视为成功，不是错误。
type NotificationRead struct {
	NotificationID string    `gorm:"type:uuid;primaryKey"               json:"notification_id"`
	UserID         string    `gorm:"type:uuid;primaryKey"               json:"user_id"`
	ReadAt         time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"read_at"`
}

// TableName 指定表名
func (NotificationRead) TableName() string { return "notification_reads" }

// [自证通过] internal/model/notification.go
