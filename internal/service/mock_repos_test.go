package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"matsuri-ops/backend/internal/model"
	"matsuri-ops/backend/internal/repository"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users   map[string]*model.User
	listErr error // 注入 ListAllWithRoles 失败
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) ListAllWithRoles(_ context.Context) ([]model.User, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var result []model.User
	for _, u := range m.users {
		result = append(result, model.User{UserID: u.UserID, Roles: u.Roles})
	}
	// map 遍历无序，按 ID 排序保证测试可重复
	sort.Slice(result, func(i, j int) bool { return result[i].UserID < result[j].UserID })
	return result, nil
}

// ── Mock RoleRepository ──

type mockRoleRepo struct {
	roles map[string]*model.Role
}

func newMockRoleRepo() *mockRoleRepo {
	return &mockRoleRepo{roles: make(map[string]*model.Role)}
}

func (m *mockRoleRepo) ListByNames(_ context.Context, names []string) ([]model.Role, error) {
	var result []model.Role
	for _, name := range names {
		if r, ok := m.roles[name]; ok {
			result = append(result, *r)
		}
		// 未知角色 ID 静默跳过
	}
	return result, nil
}

func (m *mockRoleRepo) ListAll(_ context.Context) ([]model.Role, error) {
	var result []model.Role
	for _, r := range m.roles {
		result = append(result, *r)
	}
	return result, nil
}

// ── Mock NotificationRepository ──

type readKey struct {
	notificationID string
	userID         string
}

type mockNotificationRepo struct {
	mu            sync.Mutex
	notifications map[string]*model.Notification
	reads         map[readKey]time.Time
	seq           int
	createErr     error // 注入 Create 失败
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{
		notifications: make(map[string]*model.Notification),
		reads:         make(map[readKey]time.Time),
	}
}

func (m *mockNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if n.NotificationID == "" {
		m.seq++
		n.NotificationID = fmt.Sprintf("ntf-%03d", m.seq)
	}
	n.CreatedAt = time.Now()
	stored := *n
	m.notifications[n.NotificationID] = &stored
	return nil
}

func (m *mockNotificationRepo) GetByID(_ context.Context, id string) (*model.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n, ok := m.notifications[id]; ok {
		return n, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID string, filter repository.NotificationListFilter) ([]model.Notification, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	var matched []model.Notification
	for _, n := range m.notifications {
		if !n.TargetUserIDs.Contains(userID) {
			continue
		}
		if filter.Type != "" && n.Type != filter.Type {
			continue
		}
		if filter.ActiveOnly && n.Expired(now) {
			continue
		}
		matched = append(matched, *n)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := int64(len(matched))
	if filter.Offset >= len(matched) {
		return nil, total, nil
	}
	end := filter.Offset + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[filter.Offset:end], total, nil
}

func (m *mockNotificationRepo) UpdateStatus(_ context.Context, id string, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n, ok := m.notifications[id]; ok {
		n.Status = status
	}
	return nil
}

func (m *mockNotificationRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.notifications, id)
	return nil
}

// MarkRead 模拟 ON CONFLICT DO NOTHING：已存在的回执保持原值，重复写入成功
func (m *mockNotificationRepo) MarkRead(_ context.Context, notificationID, userID string, readAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := readKey{notificationID, userID}
	if _, exists := m.reads[key]; !exists {
		m.reads[key] = readAt
	}
	return nil
}

func (m *mockNotificationRepo) MarkManyRead(_ context.Context, notificationIDs []string, userID string, readAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range notificationIDs {
		key := readKey{id, userID}
		if _, exists := m.reads[key]; !exists {
			m.reads[key] = readAt
		}
	}
	return nil
}

func (m *mockNotificationRepo) IsRead(_ context.Context, notificationID, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.reads[readKey{notificationID, userID}]
	return ok, nil
}

func (m *mockNotificationRepo) ListReadIDs(_ context.Context, notificationIDs []string, userID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []string
	for _, id := range notificationIDs {
		if _, ok := m.reads[readKey{id, userID}]; ok {
			result = append(result, id)
		}
	}
	return result, nil
}

func (m *mockNotificationRepo) CountUnread(_ context.Context, userID string, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, n := range m.notifications {
		if !n.TargetUserIDs.Contains(userID) {
			continue
		}
		if n.Expired(now) {
			continue
		}
		if _, read := m.reads[readKey{n.NotificationID, userID}]; read {
			continue
		}
		count++
	}
	return count, nil
}

// readCount 测试断言用：该用户持有的回执总数
func (m *mockNotificationRepo) readCount(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for key := range m.reads {
		if key.userID == userID {
			count++
		}
	}
	return count
}
