package service

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"go.uber.org/zap"

	"matsuri-ops/backend/internal/model"
	"matsuri-ops/backend/internal/repository"
)

// ── 测试辅助 ──

func setupTestPermissionService() (PermissionService, *mockUserRepo, *mockRoleRepo) {
	userRepo := newMockUserRepo()
	roleRepo := newMockRoleRepo()
	repo := &repository.Repository{
		User:         userRepo,
		Role:         roleRepo,
		Notification: newMockNotificationRepo(),
	}

	// 角色注册表（与种子迁移同构的精简集）
	roleRepo.roles[model.RoleAdmin] = &model.Role{
		Name:        model.RoleAdmin,
		DisplayName: "システム管理者",
		Level:       100,
		Permissions: model.JSONMap{
			"screens": []interface{}{"dashboard", "vendors", "inventory", "settings"},
			"features": map[string]interface{}{
				"vendors": []interface{}{"stop", "resume", "edit"},
			},
		},
	}
	roleRepo.roles[model.RoleVendorManager] = &model.Role{
		Name:        model.RoleVendorManager,
		DisplayName: "屋台担当マネージャー",
		Level:       50,
		Permissions: model.JSONMap{
			"screens": []interface{}{"dashboard", "vendors"},
			"features": map[string]interface{}{
				"vendors": []interface{}{"stop"},
			},
		},
	}
	roleRepo.roles[model.RoleCircleMember] = &model.Role{
		Name:        model.RoleCircleMember,
		DisplayName: "サークルメンバー",
		Level:       10,
		Permissions: model.JSONMap{
			"screens": []interface{}{"home"},
		},
	}

	userRepo.users["user-admin"] = &model.User{UserID: "user-admin", Roles: model.StringArray{model.RoleAdmin}}
	userRepo.users["user-vendor"] = &model.User{UserID: "user-vendor", Roles: model.StringArray{model.RoleVendorManager}}
	userRepo.users["user-both"] = &model.User{
		UserID: "user-both",
		Roles:  model.StringArray{model.RoleVendorManager, model.RoleCircleMember},
	}
	userRepo.users["user-noroles"] = &model.User{UserID: "user-noroles", Roles: model.StringArray{}}
	// 持有注册表中不存在的角色 ID → 解析为空权限（默认拒绝）
	userRepo.users["user-stale"] = &model.User{UserID: "user-stale", Roles: model.StringArray{"retired_role"}}

	svc := NewPermissionService(repo, zap.NewNop())
	return svc, userRepo, roleRepo
}

// ── AccessibleScreens 测试 ──

func TestPermissionService_AccessibleScreens_Union(t *testing.T) {
	svc, _, _ := setupTestPermissionService()

	// 多角色取并集，结果排序去重
	screens, err := svc.AccessibleScreens(context.Background(), "user-both")
	if err != nil {
		t.Fatalf("AccessibleScreens 应成功: %v", err)
	}
	want := []string{"dashboard", "home", "vendors"}
	if !reflect.DeepEqual(screens, want) {
		t.Errorf("期望%v，实际=%v", want, screens)
	}
}

func TestPermissionService_AccessibleScreens_NoRoles(t *testing.T) {
	svc, _, _ := setupTestPermissionService()

	screens, err := svc.AccessibleScreens(context.Background(), "user-noroles")
	if err != nil {
		t.Fatalf("AccessibleScreens 应成功: %v", err)
	}
	if len(screens) != 0 {
		t.Errorf("无角色用户应得空集，实际=%v", screens)
	}
}

func TestPermissionService_AccessibleScreens_UnknownRoleDenied(t *testing.T) {
	svc, _, _ := setupTestPermissionService()

	// 注册表中不存在的角色 ID 静默跳过，不报错
	screens, err := svc.AccessibleScreens(context.Background(), "user-stale")
	if err != nil {
		t.Fatalf("AccessibleScreens 应成功: %v", err)
	}
	if len(screens) != 0 {
		t.Errorf("未注册角色应得空集，实际=%v", screens)
	}
}

func TestPermissionService_UserNotFound(t *testing.T) {
	svc, _, _ := setupTestPermissionService()

	_, err := svc.AccessibleScreens(context.Background(), "user-ghost")
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际: %v", err)
	}
}

// ── CanAccessScreen / CanUseFeature 测试 ──

func TestPermissionService_CanAccessScreen(t *testing.T) {
	svc, _, _ := setupTestPermissionService()
	ctx := context.Background()

	cases := []struct {
		userID string
		screen string
		want   bool
	}{
		{"user-vendor", "vendors", true},
		{"user-vendor", "settings", false},
		{"user-admin", "settings", true},
		{"user-noroles", "home", false},
	}
	for _, tc := range cases {
		got, err := svc.CanAccessScreen(ctx, tc.userID, tc.screen)
		if err != nil {
			t.Fatalf("CanAccessScreen(%s, %s) 应成功: %v", tc.userID, tc.screen, err)
		}
		if got != tc.want {
			t.Errorf("CanAccessScreen(%s, %s) 期望%v，实际=%v", tc.userID, tc.screen, tc.want, got)
		}
	}
}

func TestPermissionService_CanUseFeature(t *testing.T) {
	svc, _, _ := setupTestPermissionService()
	ctx := context.Background()

	// vendor_manager 在 vendors 画面只有 stop
	if ok, _ := svc.CanUseFeature(ctx, "user-vendor", "vendors", "stop"); !ok {
		t.Error("vendor_manager 应可使用 vendors/stop")
	}
	if ok, _ := svc.CanUseFeature(ctx, "user-vendor", "vendors", "edit"); ok {
		t.Error("vendor_manager 不应可使用 vendors/edit")
	}
	// 可访问画面不代表画面内功能可用
	if ok, _ := svc.CanUseFeature(ctx, "user-both", "home", "post"); ok {
		t.Error("未授权功能应拒绝")
	}
}

// ── IsAdmin 测试 ──

func TestPermissionService_IsAdmin(t *testing.T) {
	svc, userRepo, roleRepo := setupTestPermissionService()
	ctx := context.Background()

	if ok, _ := svc.IsAdmin(ctx, "user-admin"); !ok {
		t.Error("admin 角色持有者应为管理员")
	}
	if ok, _ := svc.IsAdmin(ctx, "user-vendor"); ok {
		t.Error("vendor_manager 不应为管理员")
	}

	// 判断依据是角色 ID 而非显示名：显示名撞车不授予管理员权限
	roleRepo.roles["fake_admin"] = &model.Role{
		Name:        "fake_admin",
		DisplayName: "システム管理者",
	}
	userRepo.users["user-fake"] = &model.User{UserID: "user-fake", Roles: model.StringArray{"fake_admin"}}
	if ok, _ := svc.IsAdmin(ctx, "user-fake"); ok {
		t.Error("显示名相同但 ID 不同的角色不应视为管理员")
	}
}
