package permission

import (
	"reflect"
	"testing"

	"matsuri-ops/backend/internal/model"
)

// ── 测试辅助 ──

func roleWith(name string, screens []string, features map[string][]string) model.Role {
	perms := model.JSONMap{}
	if screens != nil {
		arr := make([]interface{}, len(screens))
		for i, s := range screens {
			arr[i] = s
		}
		perms["screens"] = arr
	}
	if features != nil {
		fm := map[string]interface{}{}
		for screen, fs := range features {
			arr := make([]interface{}, len(fs))
			for i, f := range fs {
				arr[i] = f
			}
			fm[screen] = arr
		}
		perms["features"] = fm
	}
	return model.Role{Name: name, Permissions: perms}
}

// ── CanAccessScreen 测试 ──

func TestCanAccessScreen_EmptyRoles(t *testing.T) {
	if CanAccessScreen(nil, "vendors") {
		t.Error("空角色集应拒绝访问")
	}
	if CanAccessScreen([]model.Role{}, "vendors") {
		t.Error("零长度角色集应拒绝访问")
	}
}

func TestCanAccessScreen_NoPermissions(t *testing.T) {
	roles := []model.Role{{Name: "staff"}} // Permissions 为 nil
	if CanAccessScreen(roles, "vendors") {
		t.Error("缺失 permissions 结构应默认拒绝")
	}
}

func TestCanAccessScreen_UnionSemantics(t *testing.T) {
	roles := []model.Role{
		roleWith("staff", []string{"dashboard"}, nil),
		roleWith("vendor_manager", []string{"vendors"}, nil),
	}

	// 任一角色授权即放行
	if !CanAccessScreen(roles, "vendors") {
		t.Error("vendor_manager 授权的画面应可访问")
	}
	if !CanAccessScreen(roles, "dashboard") {
		t.Error("staff 授权的画面应可访问")
	}
	if CanAccessScreen(roles, "accounting") {
		t.Error("无角色授权的画面应拒绝")
	}
}

func TestCanAccessScreen_ExactTokenMatch(t *testing.T) {
	roles := []model.Role{roleWith("staff", []string{"vendors"}, nil)}

	// 角色 ID 与画面 ID 都是精确令牌，不做前缀匹配
	if CanAccessScreen(roles, "vendor") {
		t.Error("前缀相似的画面名不应命中")
	}
}

// ── CanUseFeature 测试 ──

func TestCanUseFeature(t *testing.T) {
	roles := []model.Role{
		roleWith("vendor_manager", []string{"vendors"}, map[string][]string{
			"vendors": {"edit"},
		}),
	}

	if !CanUseFeature(roles, "vendors", "edit") {
		t.Error("已授权的功能应可用")
	}
	if CanUseFeature(roles, "vendors", "delete") {
		t.Error("未授权的功能应拒绝")
	}
	if CanUseFeature(roles, "inventory", "edit") {
		t.Error("未授权画面下的功能应拒绝")
	}
	if CanUseFeature(nil, "vendors", "edit") {
		t.Error("空角色集应拒绝")
	}
}

func TestCanUseFeature_MissingFeatures(t *testing.T) {
	roles := []model.Role{roleWith("staff", []string{"dashboard"}, nil)}
	if CanUseFeature(roles, "dashboard", "edit") {
		t.Error("features 缺失时应默认拒绝")
	}
}

// ── AccessibleScreens 测试 ──

func TestAccessibleScreens_Union(t *testing.T) {
	roles := []model.Role{
		roleWith("vendor_manager", []string{"dashboard", "vendors"}, nil),
		roleWith("inventory_manager", []string{"dashboard", "inventory"}, nil),
	}

	got := AccessibleScreens(roles)
	want := []string{"dashboard", "inventory", "vendors"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("期望画面并集 %v，实际 %v", want, got)
	}
}

func TestAccessibleScreens_Empty(t *testing.T) {
	if got := AccessibleScreens(nil); len(got) != 0 {
		t.Errorf("空角色集应返回空集，实际 %v", got)
	}
}

// ── IsAdmin / HasRole 测试 ──

func TestIsAdmin(t *testing.T) {
	admin := []model.Role{{Name: model.RoleAdmin}}
	staff := []model.Role{{Name: model.RoleStaff}}

	if !IsAdmin(admin) {
		t.Error("持有 admin 角色应判定为管理员")
	}
	if IsAdmin(staff) {
		t.Error("staff 不应判定为管理员")
	}
	if IsAdmin(nil) {
		t.Error("空角色集不应判定为管理员")
	}
}

func TestHasRole(t *testing.T) {
	roles := []model.Role{{Name: model.RoleVendorManager}, {Name: model.RoleStaff}}

	if !HasRole(roles, model.RoleVendorManager) {
		t.Error("应检出持有的角色")
	}
	if HasRole(roles, model.RoleAccountant) {
		t.Error("不应检出未持有的角色")
	}
	if HasRole(roles, "vendor") {
		t.Error("角色名为精确令牌，前缀不应命中")
	}
}
